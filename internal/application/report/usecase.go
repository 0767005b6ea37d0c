// Package report genera los reportes de inventario y ventas a partir de los almacenes.
package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-ledger-api/internal/application/dto"
	"github.com/jhoicas/retail-ledger-api/internal/application/ports"
	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/query"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

// SalesWindow ventana de ventas usada para priorizar la reposición.
const SalesWindow = 90 * 24 * time.Hour

// UseCase reportes de stock bajo, valorización y resumen de ventas.
type UseCase struct {
	products repository.ProductRepository
	sales    repository.SaleRepository
	clock    ports.Clock
}

// NewUseCase construye el caso de uso de reportes.
func NewUseCase(products repository.ProductRepository, sales repository.SaleRepository, clock ports.Clock) *UseCase {
	return &UseCase{products: products, sales: sales, clock: clock}
}

var lowStockFields = query.Fields[dto.LowStockItemDTO]{
	"units_sold": func(d dto.LowStockItemDTO) any { return d.UnitsSold },
	"deficit":    func(d dto.LowStockItemDTO) any { return d.MinStock - d.CurrentStock },
	"name":       func(d dto.LowStockItemDTO) any { return d.ProductName },
}

// LowStock devuelve los productos con stock en o por debajo del mínimo, con la cantidad sugerida
// para llegar a 1.5 × MinStock. Prioridad: más unidades vendidas en la ventana, luego mayor
// déficit, luego nombre.
func (uc *UseCase) LowStock(ctx context.Context) ([]dto.LowStockItemDTO, error) {
	products, err := uc.products.List(ctx)
	if err != nil {
		return nil, err
	}
	low := query.Filter(products, (*entity.Product).IsLowStock)
	if len(low) == 0 {
		return []dto.LowStockItemDTO{}, nil
	}

	from := uc.clock.Now().Add(-SalesWindow)
	sales, err := uc.sales.List(ctx, &from, nil)
	if err != nil {
		return nil, err
	}
	sold := make(map[string]int)
	for _, s := range sales {
		for _, it := range s.Items {
			sold[it.ProductID] += it.Quantity - it.ReturnedQuantity
		}
	}

	items := make([]dto.LowStockItemDTO, 0, len(low))
	for _, p := range low {
		ideal := int(math.Ceil(float64(p.MinStock) * 1.5))
		suggested := max(ideal-p.Stock, 0)
		items = append(items, dto.LowStockItemDTO{
			ProductID:          p.ID,
			SKU:                p.SKU,
			ProductName:        p.Name,
			Category:           p.Category,
			CurrentStock:       p.Stock,
			MinStock:           p.MinStock,
			IdealStock:         ideal,
			SuggestedOrderQty:  suggested,
			UnitCost:           p.Cost,
			EstimatedOrderCost: p.Cost.Mul(decimal.NewFromInt(int64(suggested))),
			UnitsSold:          sold[p.ID],
		})
	}
	items = query.Sort(items, []query.SortKey{
		{Field: "units_sold", Direction: query.Desc},
		{Field: "deficit", Direction: query.Desc},
		{Field: "name", Direction: query.Asc},
	}, lowStockFields)
	for i := range items {
		items[i].Priority = i + 1
	}
	return items, nil
}

// Valuation valoriza el stock actual a costo y a precio de venta, total y por categoría.
func (uc *UseCase) Valuation(ctx context.Context) (*dto.ValuationDTO, error) {
	products, err := uc.products.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ValuationDTO{
		CostValue:   decimal.Zero,
		RetailValue: decimal.Zero,
		ByCategory:  []dto.CategoryValuationDTO{},
	}
	pos := make(map[string]int)
	for _, p := range query.Sort(products, []query.SortKey{{Field: "category", Direction: query.Asc}}, productCategory) {
		units := decimal.NewFromInt(int64(p.Stock))
		cost := p.Cost.Mul(units)
		retail := p.SellPrice().Mul(units)

		out.Products++
		out.Units += p.Stock
		out.CostValue = out.CostValue.Add(cost)
		out.RetailValue = out.RetailValue.Add(retail)

		key := query.Fold(p.Category)
		i, ok := pos[key]
		if !ok {
			i = len(out.ByCategory)
			pos[key] = i
			out.ByCategory = append(out.ByCategory, dto.CategoryValuationDTO{
				Category:    p.Category,
				CostValue:   decimal.Zero,
				RetailValue: decimal.Zero,
			})
		}
		c := &out.ByCategory[i]
		c.Products++
		c.Units += p.Stock
		c.CostValue = c.CostValue.Add(cost)
		c.RetailValue = c.RetailValue.Add(retail)
	}
	return out, nil
}

var productCategory = query.Fields[*entity.Product]{
	"category": func(p *entity.Product) any { return p.Category },
}

// SalesSummary totaliza las ventas del periodo [from, to]. NetSubtotal descuenta lo devuelto.
func (uc *UseCase) SalesSummary(ctx context.Context, from, to *time.Time) (*dto.SalesSummaryDTO, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	sales, err := uc.sales.List(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := &dto.SalesSummaryDTO{
		From:          from,
		To:            to,
		Subtotal:      decimal.Zero,
		Tax:           decimal.Zero,
		Total:         decimal.Zero,
		ReturnedValue: decimal.Zero,
		ByPayment:     make(map[string]decimal.Decimal),
	}
	for _, s := range sales {
		out.SalesCount++
		out.Subtotal = out.Subtotal.Add(s.Subtotal)
		out.Tax = out.Tax.Add(s.Tax)
		out.Total = out.Total.Add(s.Total)
		out.ReturnedValue = out.ReturnedValue.Add(s.ReturnedValue())
		out.ByPayment[s.PaymentMethod] = out.ByPayment[s.PaymentMethod].Add(s.Total)
		for _, it := range s.Items {
			out.UnitsSold += it.Quantity
			out.UnitsReturned += it.ReturnedQuantity
		}
	}
	out.NetSubtotal = out.Subtotal.Sub(out.ReturnedValue)
	return out, nil
}
