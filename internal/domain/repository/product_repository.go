package repository

import (
	"context"

	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product y su kardex (DIP).
// El stock solo se persiste a través de ApplyMovement.
type ProductRepository interface {
	// Create persiste el producto junto con su movimiento INITIAL.
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve el producto con su kardex completo, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate igual que GetByID pero bloquea el producto hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// GetBySKU compara el SKU tal cual; quien llama lo entrega ya normalizado.
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// Update actualiza datos descriptivos y de precio. No toca Stock ni el kardex.
	Update(ctx context.Context, product *entity.Product) error
	// ApplyMovement persiste el nuevo stock/LastRestocked/Cost del producto y agrega el movimiento.
	ApplyMovement(ctx context.Context, product *entity.Product, movement entity.StockMovement) error
	// List devuelve todos los productos con su kardex.
	List(ctx context.Context) ([]*entity.Product, error)
	// Delete elimina el producto. El kardex se conserva huérfano para auditoría.
	Delete(ctx context.Context, id string) error
}
