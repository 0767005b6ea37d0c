package usecase

import (
	"context"

	"github.com/jhoicas/retail-ledger-api/internal/application/dto"
	"github.com/jhoicas/retail-ledger-api/internal/application/query"
	"github.com/jhoicas/retail-ledger-api/internal/application/transaction"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
)

// StockEngine operaciones del motor que solo tocan inventario.
type StockEngine interface {
	Restock(ctx context.Context, in transaction.RestockInput) (*entity.Product, error)
	AdjustStock(ctx context.Context, in transaction.AdjustInput) (*entity.Product, error)
}

// InventoryUseCase reabastecimientos, ajustes y consulta del kardex global.
type InventoryUseCase struct {
	engine  StockEngine
	queries *query.UseCase
}

// NewInventoryUseCase construye el caso de uso.
func NewInventoryUseCase(engine StockEngine, queries *query.UseCase) *InventoryUseCase {
	return &InventoryUseCase{engine: engine, queries: queries}
}

// Restock suma stock (movimiento RESTOCK).
func (uc *InventoryUseCase) Restock(ctx context.Context, in dto.RestockRequest) (*dto.ProductResponse, error) {
	p, err := uc.engine.Restock(ctx, transaction.RestockInput{
		ProductID: in.ProductID,
		Amount:    in.Amount,
		UnitCost:  in.UnitCost,
		Reason:    in.Reason,
	})
	if err != nil {
		return nil, err
	}
	out := dto.FromProduct(p)
	return &out, nil
}

// Adjust aplica un ajuste manual (movimiento ADJUSTMENT, recortado en cero).
func (uc *InventoryUseCase) Adjust(ctx context.Context, in dto.AdjustRequest) (*dto.ProductResponse, error) {
	p, err := uc.engine.AdjustStock(ctx, transaction.AdjustInput{
		ProductID: in.ProductID,
		Amount:    in.Amount,
		Reason:    in.Reason,
	})
	if err != nil {
		return nil, err
	}
	out := dto.FromProduct(p)
	return &out, nil
}

// Movements kardex global filtrado por texto, más reciente primero.
func (uc *InventoryUseCase) Movements(ctx context.Context, text string, page dto.PageRequest) (*dto.MovementListResponse, error) {
	entries, err := uc.queries.QueryStockMovements(ctx, text)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.FromMovement(e.Movement, e.ProductName))
	}
	items, meta := dto.Paginate(items, page)
	return &dto.MovementListResponse{Items: items, Page: meta}, nil
}
