package ledger

import (
	"fmt"
	"slices"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
)

// Replay recorre el kardex del más antiguo al más reciente y devuelve el saldo final.
// Falla con ErrInvariantViolation si alguna entrada no cuadra.
func Replay(movs []entity.StockMovement) (int, error) {
	if len(movs) == 0 {
		return 0, fmt.Errorf("%w: kardex vacío", domain.ErrInvariantViolation)
	}
	ordered := slices.Clone(movs)
	slices.SortFunc(ordered, func(a, b entity.StockMovement) int { return a.Seq - b.Seq })

	first := ordered[0]
	if first.Kind != entity.MovementInitial || first.Amount != first.Balance || first.Seq != 1 {
		return 0, fmt.Errorf("%w: la primera entrada debe ser INITIAL con amount = balance", domain.ErrInvariantViolation)
	}
	balance := first.Balance
	for i, m := range ordered[1:] {
		if m.Kind == entity.MovementInitial {
			return 0, fmt.Errorf("%w: INITIAL repetido en seq %d", domain.ErrInvariantViolation, m.Seq)
		}
		if m.Seq != ordered[i].Seq+1 {
			return 0, fmt.Errorf("%w: hueco en la secuencia (%d → %d)", domain.ErrInvariantViolation, ordered[i].Seq, m.Seq)
		}
		if balance+m.Amount != m.Balance {
			return 0, fmt.Errorf("%w: seq %d: %d %+d ≠ %d", domain.ErrInvariantViolation, m.Seq, balance, m.Amount, m.Balance)
		}
		if m.Balance < 0 {
			return 0, fmt.Errorf("%w: saldo negativo en seq %d", domain.ErrInvariantViolation, m.Seq)
		}
		balance = m.Balance
	}
	return balance, nil
}

// Verify comprueba que el kardex reproduce exactamente Product.Stock.
func Verify(p *entity.Product) error {
	balance, err := Replay(p.Movements)
	if err != nil {
		return err
	}
	if balance != p.Stock {
		return fmt.Errorf("%w: el kardex suma %d pero el stock es %d (producto %s)", domain.ErrInvariantViolation, balance, p.Stock, p.ID)
	}
	return nil
}
