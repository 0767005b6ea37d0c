package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de pago aceptados.
const (
	PaymentCash     = "CASH"
	PaymentCard     = "CARD"
	PaymentTransfer = "TRANSFER"
	PaymentOther    = "OTHER"
)

// ValidPaymentMethod indica si el método de pago es conocido.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}

// ReturnStatus estado de devolución de una línea: NONE → PARTIAL → FULL (solo avanza).
type ReturnStatus string

const (
	ReturnNone    ReturnStatus = "NONE"
	ReturnPartial ReturnStatus = "PARTIAL"
	ReturnFull    ReturnStatus = "FULL"
)

// CustomerSnapshot datos del cliente copiados al momento de la venta.
type CustomerSnapshot struct {
	CustomerID string
	Name       string
	Address    string
	Phone      string
	Email      string
}

// SaleItem línea de una venta. Solo ReturnedQuantity cambia después de creada.
type SaleItem struct {
	ProductID        string
	ProductName      string
	Quantity         int
	UnitPrice        decimal.Decimal
	LineTotal        decimal.Decimal
	ReturnedQuantity int
}

// Returnable cantidad aún no devuelta.
func (i *SaleItem) Returnable() int {
	return i.Quantity - i.ReturnedQuantity
}

// ReturnStatus deriva el estado de devolución de la línea.
func (i *SaleItem) ReturnStatus() ReturnStatus {
	switch {
	case i.ReturnedQuantity <= 0:
		return ReturnNone
	case i.ReturnedQuantity < i.Quantity:
		return ReturnPartial
	default:
		return ReturnFull
	}
}

// Sale venta registrada por el motor de transacciones.
type Sale struct {
	ID            string
	Customer      *CustomerSnapshot // opcional
	Items         []SaleItem
	Subtotal      decimal.Decimal
	TaxRate       decimal.Decimal // tasa aplicada (0.05 = 5%)
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	StaffID       string
	CreatedAt     time.Time
}

// FindItem devuelve la línea del producto o nil.
func (s *Sale) FindItem(productID string) *SaleItem {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return &s.Items[i]
		}
	}
	return nil
}

// ReturnedValue valor (sin impuesto) de lo devuelto hasta ahora.
func (s *Sale) ReturnedValue() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.ReturnedQuantity))))
	}
	return total
}

// Clone devuelve una copia profunda.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Customer != nil {
		c := *s.Customer
		cp.Customer = &c
	}
	cp.Items = append([]SaleItem(nil), s.Items...)
	return &cp
}
