package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Product representa un producto del catálogo con su stock actual y su kardex.
// Stock solo cambia a través del ledger (internal/domain/ledger); nunca se edita directamente.
type Product struct {
	ID            string
	SKU           string // único en el catálogo
	Name          string
	Category      string
	Description   string
	Cost          decimal.Decimal // costo unitario
	MarginPct     decimal.Decimal // margen en porcentaje (30 = 30%)
	Stock         int
	MinStock      int // umbral de stock mínimo
	LastRestocked *time.Time
	Movements     []StockMovement // kardex, más reciente primero
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SellPrice precio de venta derivado: Cost × (1 + MarginPct/100).
func (p *Product) SellPrice() decimal.Decimal {
	return p.Cost.Mul(decimal.NewFromInt(1).Add(p.MarginPct.Div(hundred))).Round(2)
}

// IsLowStock indica si el stock está en o por debajo del mínimo.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// Clone devuelve una copia profunda (incluye el kardex).
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	if p.LastRestocked != nil {
		t := *p.LastRestocked
		cp.LastRestocked = &t
	}
	cp.Movements = append([]StockMovement(nil), p.Movements...)
	return &cp
}
