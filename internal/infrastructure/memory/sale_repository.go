package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación en memoria de SaleRepository.
type SaleRepo struct {
	acc access
}

// Create persiste una venta nueva.
func (r *SaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.acc.write(func(st *state) error {
		if _, ok := st.sales[sale.ID]; ok {
			return domain.ErrDuplicate
		}
		st.sales[sale.ID] = sale.Clone()
		return nil
	})
}

// GetByID devuelve una copia de la venta o nil.
func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.acc.read(func(st *state) error {
		out = st.sales[id].Clone()
		return nil
	})
	return out, err
}

// GetForUpdate en memoria equivale a GetByID.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

// UpdateReturned copia solo ReturnedQuantity. Rechaza retrocesos o excesos.
func (r *SaleRepo) UpdateReturned(_ context.Context, sale *entity.Sale) error {
	return r.acc.write(func(st *state) error {
		cur, ok := st.sales[sale.ID]
		if !ok {
			return domain.ErrSaleNotFound
		}
		if len(cur.Items) != len(sale.Items) {
			return fmt.Errorf("%w: las líneas de la venta %s no pueden cambiar", domain.ErrInvariantViolation, sale.ID)
		}
		next := cur.Clone()
		for i := range next.Items {
			newQty := sale.Items[i].ReturnedQuantity
			if sale.Items[i].ProductID != next.Items[i].ProductID ||
				newQty < next.Items[i].ReturnedQuantity || newQty > next.Items[i].Quantity {
				return fmt.Errorf("%w: devolución inconsistente en venta %s", domain.ErrInvariantViolation, sale.ID)
			}
			next.Items[i].ReturnedQuantity = newQty
		}
		st.sales[sale.ID] = next
		return nil
	})
}

// List devuelve las ventas del rango, más recientes primero.
func (r *SaleRepo) List(_ context.Context, from, to *time.Time) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.acc.read(func(st *state) error {
		for _, s := range st.sales {
			if from != nil && s.CreatedAt.Before(*from) {
				continue
			}
			if to != nil && s.CreatedAt.After(*to) {
				continue
			}
			out = append(out, s.Clone())
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *entity.Sale) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareStrings(b.ID, a.ID)
	})
	return out, err
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
