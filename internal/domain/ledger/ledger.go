// Package ledger implementa el kardex por producto: un registro append-only de movimientos
// con saldo corrido. Es el único camino para modificar Product.Stock.
package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
)

// Initialize crea el movimiento INITIAL del producto. Se llama una sola vez, al crear el producto.
func Initialize(p *entity.Product, movementID string, startingStock int, at time.Time) (entity.StockMovement, error) {
	if startingStock < 0 {
		return entity.StockMovement{}, domain.ErrInvalidQuantity
	}
	if len(p.Movements) > 0 {
		return entity.StockMovement{}, fmt.Errorf("%w: el producto %s ya tiene kardex", domain.ErrInvariantViolation, p.ID)
	}
	mov := entity.StockMovement{
		ID:          movementID,
		ProductID:   p.ID,
		ProductName: p.Name,
		Seq:         1,
		Kind:        entity.MovementInitial,
		Amount:      startingStock,
		Balance:     startingStock,
		Reason:      "stock inicial",
		CreatedAt:   at,
	}
	p.Movements = []entity.StockMovement{mov}
	p.Stock = startingStock
	return mov, nil
}

// Append agrega un movimiento y actualiza el stock del producto.
// Precondición: Stock + amount >= 0, si no ErrInsufficientStock.
// Verifica que el saldo del último movimiento coincida con Stock antes de escribir.
func Append(p *entity.Product, movementID string, kind entity.MovementKind, amount int, reason string, at time.Time) (int, entity.StockMovement, error) {
	if !kind.Valid() || kind == entity.MovementInitial {
		return 0, entity.StockMovement{}, fmt.Errorf("%w: tipo %q no admitido en append", domain.ErrInvariantViolation, kind)
	}
	head, ok := Head(p)
	if !ok {
		return 0, entity.StockMovement{}, fmt.Errorf("%w: el producto %s no tiene movimiento INITIAL", domain.ErrInvariantViolation, p.ID)
	}
	if head.Balance != p.Stock {
		return 0, entity.StockMovement{}, fmt.Errorf("%w: saldo %d del kardex distinto al stock %d (producto %s)",
			domain.ErrInvariantViolation, head.Balance, p.Stock, p.ID)
	}
	newBalance := p.Stock + amount
	if newBalance < 0 {
		return 0, entity.StockMovement{}, domain.NewLineError(domain.ErrInsufficientStock, p.ID, -amount, p.Stock)
	}
	mov := entity.StockMovement{
		ID:          movementID,
		ProductID:   p.ID,
		ProductName: p.Name,
		Seq:         head.Seq + 1,
		Kind:        kind,
		Amount:      amount,
		Balance:     newBalance,
		Reason:      reason,
		CreatedAt:   at,
	}
	p.Movements = append([]entity.StockMovement{mov}, p.Movements...)
	p.Stock = newBalance
	if kind == entity.MovementRestock {
		t := at
		p.LastRestocked = &t
	}
	return newBalance, mov, nil
}

// Head devuelve el movimiento más reciente según Seq.
func Head(p *entity.Product) (entity.StockMovement, bool) {
	if len(p.Movements) == 0 {
		return entity.StockMovement{}, false
	}
	head := p.Movements[0]
	for _, m := range p.Movements[1:] {
		if m.Seq > head.Seq {
			head = m
		}
	}
	return head, true
}

// Entries devuelve el kardex ordenado del más reciente al más antiguo (timestamp desc, Seq desc).
// No depende del orden en que se insertaron los movimientos.
func Entries(p *entity.Product) []entity.StockMovement {
	out := slices.Clone(p.Movements)
	SortNewestFirst(out)
	return out
}

// SortNewestFirst ordena movimientos por fecha descendente; Seq desempata timestamps iguales.
func SortNewestFirst(movs []entity.StockMovement) {
	slices.SortStableFunc(movs, func(a, b entity.StockMovement) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return b.Seq - a.Seq
	})
}
