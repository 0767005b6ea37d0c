package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/retail-ledger-api/internal/application/dto"
	"github.com/jhoicas/retail-ledger-api/internal/application/ports"
	"github.com/jhoicas/retail-ledger-api/internal/application/query"
	"github.com/jhoicas/retail-ledger-api/internal/application/transaction"
	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

// SaleEngine operaciones del motor que tocan ventas e inventario juntos.
type SaleEngine interface {
	CompleteSale(ctx context.Context, req transaction.SaleRequest) (*entity.Sale, error)
	ProcessReturn(ctx context.Context, saleID string, returns []transaction.ReturnLine) (*entity.Sale, error)
}

// SaleUseCase ventas, devoluciones, consultas y comprobantes.
type SaleUseCase struct {
	engine   SaleEngine
	repo     repository.SaleRepository
	queries  *query.UseCase
	receipts ports.ReceiptGenerator
}

// NewSaleUseCase construye el caso de uso. receipts puede ser nil (sin comprobante PDF).
func NewSaleUseCase(engine SaleEngine, repo repository.SaleRepository, queries *query.UseCase, receipts ports.ReceiptGenerator) *SaleUseCase {
	return &SaleUseCase{engine: engine, repo: repo, queries: queries, receipts: receipts}
}

// Create completa una venta procesada por staffID.
func (uc *SaleUseCase) Create(ctx context.Context, staffID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	req := transaction.SaleRequest{
		Items:         make([]transaction.SaleLine, 0, len(in.Items)),
		CustomerID:    in.CustomerID,
		PaymentMethod: in.PaymentMethod,
		StaffID:       staffID,
	}
	for _, it := range in.Items {
		req.Items = append(req.Items, transaction.SaleLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	if c := in.Customer; c != nil {
		req.Customer = &entity.CustomerSnapshot{
			CustomerID: c.CustomerID,
			Name:       c.Name,
			Address:    c.Address,
			Phone:      c.Phone,
			Email:      c.Email,
		}
	}
	sale, err := uc.engine.CompleteSale(ctx, req)
	if err != nil {
		return nil, err
	}
	out := dto.FromSale(sale)
	return &out, nil
}

// Return procesa una devolución parcial o total de la venta.
func (uc *SaleUseCase) Return(ctx context.Context, saleID string, in dto.ReturnRequest) (*dto.SaleResponse, error) {
	lines := make([]transaction.ReturnLine, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, transaction.ReturnLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	sale, err := uc.engine.ProcessReturn(ctx, saleID, lines)
	if err != nil {
		return nil, err
	}
	out := dto.FromSale(sale)
	return &out, nil
}

// GetByID obtiene una venta. nil si no existe.
func (uc *SaleUseCase) GetByID(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.repo.GetByID(ctx, id)
	if err != nil || sale == nil {
		return nil, err
	}
	out := dto.FromSale(sale)
	return &out, nil
}

// List filtra, ordena y pagina ventas.
func (uc *SaleUseCase) List(ctx context.Context, q dto.SaleQuery) (*dto.SaleListResponse, error) {
	keys, err := resolveSort(q.Sort, q.Select, q.Additive)
	if err != nil {
		return nil, err
	}
	list, err := uc.queries.QuerySales(ctx, query.SaleFilter{Text: q.Text, From: q.From, To: q.To, Sort: keys})
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		items = append(items, dto.FromSale(s))
	}
	items, page := dto.Paginate(items, q.PageRequest)
	return &dto.SaleListResponse{Items: items, Sort: formatSort(keys), Page: page}, nil
}

// Receipt genera el comprobante PDF de la venta.
func (uc *SaleUseCase) Receipt(ctx context.Context, id string) ([]byte, error) {
	if uc.receipts == nil {
		return nil, fmt.Errorf("%w: comprobantes no configurados", domain.ErrInvalidInput)
	}
	sale, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSaleNotFound, id)
	}
	return uc.receipts.GenerateReceipt(ctx, sale)
}
