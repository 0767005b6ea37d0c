package entity

import "time"

// MovementKind tipo de movimiento del kardex.
type MovementKind string

const (
	MovementInitial    MovementKind = "INITIAL"
	MovementRestock    MovementKind = "RESTOCK"
	MovementSale       MovementKind = "SALE"
	MovementAdjustment MovementKind = "ADJUSTMENT"
)

// Valid indica si el tipo es conocido.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementInitial, MovementRestock, MovementSale, MovementAdjustment:
		return true
	}
	return false
}

// StockMovement es una entrada inmutable del kardex de un producto.
// Amount es con signo (positivo = entrada); Balance es el saldo tras aplicarlo.
type StockMovement struct {
	ID          string
	ProductID   string
	ProductName string // snapshot para auditoría aunque el producto se elimine
	Seq         int    // secuencia por producto; desempata timestamps iguales
	Kind        MovementKind
	Amount      int
	Balance     int
	Reason      string
	CreatedAt   time.Time
}
