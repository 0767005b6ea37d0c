package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	acc access
}

// Create persiste el producto con su movimiento INITIAL.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	if len(product.Movements) != 1 || product.Movements[0].Kind != entity.MovementInitial {
		return fmt.Errorf("%w: el producto debe crearse con su movimiento INITIAL", domain.ErrInvariantViolation)
	}
	return r.acc.write(func(st *state) error {
		if _, ok := st.products[product.ID]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := st.skus[product.SKU]; ok {
			return domain.ErrDuplicate
		}
		st.products[product.ID] = product.Clone()
		st.skus[product.SKU] = product.ID
		return nil
	})
}

// GetByID devuelve una copia del producto o nil.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.acc.read(func(st *state) error {
		out = st.products[id].Clone()
		return nil
	})
	return out, err
}

// GetForUpdate en memoria equivale a GetByID: la transacción ya tiene acceso exclusivo.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

// GetBySKU busca por SKU exacto.
func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.acc.read(func(st *state) error {
		if id, ok := st.skus[sku]; ok {
			out = st.products[id].Clone()
		}
		return nil
	})
	return out, err
}

// Update actualiza datos descriptivos y de precio; conserva stock, kardex y LastRestocked.
func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	return r.acc.write(func(st *state) error {
		cur, ok := st.products[product.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.SKU != product.SKU {
			if _, taken := st.skus[product.SKU]; taken {
				return domain.ErrDuplicate
			}
			delete(st.skus, cur.SKU)
			st.skus[product.SKU] = product.ID
		}
		next := cur.Clone()
		next.SKU = product.SKU
		next.Name = product.Name
		next.Category = product.Category
		next.Description = product.Description
		next.Cost = product.Cost
		next.MarginPct = product.MarginPct
		next.MinStock = product.MinStock
		next.UpdatedAt = product.UpdatedAt
		st.products[product.ID] = next
		return nil
	})
}

// ApplyMovement reemplaza el producto por su nueva versión, que debe traer exactamente un
// movimiento más que la versión almacenada.
func (r *ProductRepo) ApplyMovement(_ context.Context, product *entity.Product, movement entity.StockMovement) error {
	return r.acc.write(func(st *state) error {
		cur, ok := st.products[product.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if movement.ProductID != product.ID || len(product.Movements) != len(cur.Movements)+1 {
			return fmt.Errorf("%w: movimiento %s no corresponde al kardex de %s", domain.ErrInvariantViolation, movement.ID, product.ID)
		}
		if movement.Balance != product.Stock {
			return fmt.Errorf("%w: saldo %d distinto al stock %d", domain.ErrInvariantViolation, movement.Balance, product.Stock)
		}
		st.products[product.ID] = product.Clone()
		return nil
	})
}

// List devuelve copias de todos los productos, en orden de creación.
func (r *ProductRepo) List(_ context.Context) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.acc.read(func(st *state) error {
		out = make([]*entity.Product, 0, len(st.products))
		for _, p := range st.products {
			out = append(out, p.Clone())
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *entity.Product) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, err
}

// Delete elimina el producto y conserva su kardex como huérfano.
func (r *ProductRepo) Delete(_ context.Context, id string) error {
	return r.acc.write(func(st *state) error {
		cur, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		st.orphans[id] = slices.Clone(cur.Movements)
		delete(st.skus, cur.SKU)
		delete(st.products, id)
		return nil
	})
}

