package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo lectura del kardex (productos vigentes + huérfanos).
type MovementRepo struct {
	acc access
}

// ListAll devuelve todos los movimientos, más recientes primero.
func (r *MovementRepo) ListAll(_ context.Context) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	err := r.acc.read(func(st *state) error {
		for _, p := range st.products {
			out = append(out, p.Movements...)
		}
		for _, movs := range st.orphans {
			out = append(out, movs...)
		}
		return nil
	})
	ledger.SortNewestFirst(out)
	return out, err
}

// ListByProduct devuelve el kardex de un producto (vigente o eliminado), más reciente primero.
func (r *MovementRepo) ListByProduct(_ context.Context, productID string) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	err := r.acc.read(func(st *state) error {
		if p, ok := st.products[productID]; ok {
			out = slices.Clone(p.Movements)
		} else {
			out = slices.Clone(st.orphans[productID])
		}
		return nil
	})
	ledger.SortNewestFirst(out)
	return out, err
}
