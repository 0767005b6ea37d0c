package repository

import (
	"context"
	"time"

	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetForUpdate bloquea la venta hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	// UpdateReturned persiste solo ReturnedQuantity de cada línea; el resto de la venta es inmutable.
	UpdateReturned(ctx context.Context, sale *entity.Sale) error
	// List devuelve ventas en el rango [from, to]; nil = sin límite.
	List(ctx context.Context, from, to *time.Time) ([]*entity.Sale, error)
}
