package repository

import (
	"context"

	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
)

// StockMovementRepository lectura del kardex global (incluye kardex huérfanos de productos eliminados).
type StockMovementRepository interface {
	ListAll(ctx context.Context) ([]entity.StockMovement, error)
	ListByProduct(ctx context.Context, productID string) ([]entity.StockMovement, error)
}
