package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-ledger-api/internal/application/dto"
	"github.com/jhoicas/retail-ledger-api/internal/application/ports"
	"github.com/jhoicas/retail-ledger-api/internal/application/query"
	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

// ProductUseCase casos de uso del catálogo. Stock solo cambia vía movimientos del kardex.
type ProductUseCase struct {
	txRunner repository.TxRunner
	repo     repository.ProductRepository
	queries  *query.UseCase
	clock    ports.Clock
	ids      ports.IDGenerator
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	txRunner repository.TxRunner,
	repo repository.ProductRepository,
	queries *query.UseCase,
	clock ports.Clock,
	ids ports.IDGenerator,
) *ProductUseCase {
	return &ProductUseCase{txRunner: txRunner, repo: repo, queries: queries, clock: clock, ids: ids}
}

// Create crea un producto con su movimiento INITIAL en la misma transacción.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" || in.MinStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := validPricing(in.Cost, in.MarginPct); err != nil {
		return nil, err
	}
	if in.InitialStock < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	now := uc.clock.Now()
	product := &entity.Product{
		ID:          uc.ids.NewID(),
		SKU:         in.SKU,
		Name:        in.Name,
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
		Cost:        in.Cost,
		MarginPct:   in.MarginPct,
		MinStock:    in.MinStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		existing, err := repos.Products.GetBySKU(ctx, product.SKU)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		if _, err := ledger.Initialize(product, uc.ids.NewID(), in.InitialStock, now); err != nil {
			return err
		}
		return repos.Products.Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	out := dto.FromProduct(product)
	return &out, nil
}

// GetByID obtiene un producto por ID. nil si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	out := dto.FromProduct(product)
	return &out, nil
}

// Update actualiza datos descriptivos y de precio. No permite modificar Stock. nil si no existe.
// Bloquea el producto para no pisar un costo promedio recién calculado por un reabastecimiento.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var product *entity.Product
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		p, err := repos.Products.GetForUpdate(ctx, id)
		if err != nil || p == nil {
			return err
		}
		if err := applyProductUpdate(p, in); err != nil {
			return err
		}
		p.UpdatedAt = uc.clock.Now()
		if err := repos.Products.Update(ctx, p); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil || product == nil {
		return nil, err
	}
	out := dto.FromProduct(product)
	return &out, nil
}

func applyProductUpdate(p *entity.Product, in dto.UpdateProductRequest) error {
	if in.SKU != nil {
		if p.SKU = strings.TrimSpace(*in.SKU); p.SKU == "" {
			return domain.ErrInvalidInput
		}
	}
	if in.Name != nil {
		if p.Name = strings.TrimSpace(*in.Name); p.Name == "" {
			return domain.ErrInvalidInput
		}
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Cost != nil {
		p.Cost = *in.Cost
	}
	if in.MarginPct != nil {
		p.MarginPct = *in.MarginPct
	}
	if in.MinStock != nil {
		if *in.MinStock < 0 {
			return domain.ErrInvalidInput
		}
		p.MinStock = *in.MinStock
	}
	return validPricing(p.Cost, p.MarginPct)
}

// List filtra, ordena y pagina el catálogo.
func (uc *ProductUseCase) List(ctx context.Context, q dto.ProductQuery) (*dto.ProductListResponse, error) {
	keys, err := resolveSort(q.Sort, q.Select, q.Additive)
	if err != nil {
		return nil, err
	}
	list, err := uc.queries.QueryProducts(ctx, query.ProductFilter{
		Text:     q.Text,
		Category: q.Category,
		LowStock: q.LowStock,
		Sort:     keys,
	})
	if err != nil {
		return nil, err
	}
	items, page := dto.Paginate(dto.FromProducts(list), q.PageRequest)
	return &dto.ProductListResponse{Items: items, Sort: formatSort(keys), Page: page}, nil
}

// Delete elimina un producto. Su kardex queda disponible para auditoría.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

// Movements kardex de un producto (vigente o eliminado), más reciente primero.
func (uc *ProductUseCase) Movements(ctx context.Context, id string, page dto.PageRequest) (*dto.MovementListResponse, error) {
	movs, err := uc.queries.ProductMovements(ctx, id)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		items = append(items, dto.FromMovement(m, ""))
	}
	items, meta := dto.Paginate(items, page)
	return &dto.MovementListResponse{Items: items, Page: meta}, nil
}

// VerifyLedger reproduce el kardex del producto y compara con su stock. nil si no existe.
func (uc *ProductUseCase) VerifyLedger(ctx context.Context, id string) (*dto.LedgerVerifyResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	out := &dto.LedgerVerifyResponse{
		ProductID: product.ID,
		Stock:     product.Stock,
		Entries:   len(product.Movements),
		Valid:     true,
	}
	if err := ledger.Verify(product); err != nil {
		out.Valid = false
		out.Error = err.Error()
	}
	return out, nil
}

func validPricing(cost, margin decimal.Decimal) error {
	if cost.IsNegative() || margin.IsNegative() {
		return domain.ErrInvalidInput
	}
	return nil
}
