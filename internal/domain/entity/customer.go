package entity

import "time"

// Customer representa un cliente. Las ventas guardan una copia (CustomerSnapshot), nunca una referencia.
type Customer struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	Email     string // opcional
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot copia los datos del cliente al momento de la venta.
func (c *Customer) Snapshot() *CustomerSnapshot {
	return &CustomerSnapshot{
		CustomerID: c.ID,
		Name:       c.Name,
		Address:    c.Address,
		Phone:      c.Phone,
		Email:      c.Email,
	}
}
