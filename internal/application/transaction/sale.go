package transaction

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

// SaleLine línea solicitada. UnitPrice nil = precio de venta actual del producto.
type SaleLine struct {
	ProductID string
	Quantity  int
	UnitPrice *decimal.Decimal
}

// SaleRequest venta a completar. Si CustomerID viene, se copia el cliente registrado;
// si no, se usa Customer tal cual (opcional).
type SaleRequest struct {
	Items         []SaleLine
	CustomerID    string
	Customer      *entity.CustomerSnapshot
	PaymentMethod string
	StaffID       string
}

// mergeLines agrupa líneas del mismo producto (conserva el orden de aparición).
// Dos precios explícitos distintos para el mismo producto son entrada inválida.
func mergeLines(items []SaleLine) ([]SaleLine, error) {
	var out []SaleLine
	pos := make(map[string]int, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			return nil, domain.ErrInvalidInput
		}
		if it.Quantity <= 0 {
			return nil, domain.NewLineError(domain.ErrInvalidQuantity, it.ProductID, it.Quantity, 0)
		}
		if it.UnitPrice != nil && it.UnitPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		// Los montos se guardan con 2 decimales; un precio más fino no cuadraría con lo persistido.
		if it.UnitPrice != nil && !it.UnitPrice.Equal(it.UnitPrice.Round(2)) {
			return nil, fmt.Errorf("%w: precio %s con más de 2 decimales para el producto %s", domain.ErrInvalidInput, it.UnitPrice, it.ProductID)
		}
		i, seen := pos[it.ProductID]
		if !seen {
			pos[it.ProductID] = len(out)
			out = append(out, it)
			continue
		}
		prev := &out[i]
		switch {
		case prev.UnitPrice == nil:
			prev.UnitPrice = it.UnitPrice
		case it.UnitPrice != nil && !prev.UnitPrice.Equal(*it.UnitPrice):
			return nil, fmt.Errorf("%w: precios distintos para el producto %s", domain.ErrInvalidInput, it.ProductID)
		}
		prev.Quantity += it.Quantity
	}
	return out, nil
}

// CompleteSale valida todas las líneas contra el stock actual y, si todas pasan, crea la venta y
// descuenta el stock (movimientos SALE) en una sola transacción. Si alguna línea no tiene stock
// suficiente falla con ErrInsufficientStock (LineError con el primer producto) sin cambiar nada.
func (e *Engine) CompleteSale(ctx context.Context, req SaleRequest) (*entity.Sale, error) {
	if len(req.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = entity.PaymentCash
	}
	if !entity.ValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: método de pago %q", domain.ErrInvalidInput, req.PaymentMethod)
	}
	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}

	var sale *entity.Sale
	err = e.commit(ctx, "sales.complete", []attribute.KeyValue{attribute.Int("sale.lines", len(lines))},
		func(ctx context.Context, repos repository.TxRepos, rec *recorder) error {
			products, err := lockProducts(ctx, repos, ids)
			if err != nil {
				return err
			}
			// 1) Validar todas las líneas antes de mutar.
			for _, l := range lines {
				p := products[l.ProductID]
				if p == nil {
					return productNotFound(l.ProductID)
				}
				if l.Quantity > p.Stock {
					return domain.NewLineError(domain.ErrInsufficientStock, p.ID, l.Quantity, p.Stock)
				}
			}
			customer, err := e.customerSnapshot(ctx, repos, req)
			if err != nil {
				return err
			}

			// 2) Totales y venta.
			now := e.clock.Now()
			sale = &entity.Sale{
				ID:            e.ids.NewID(),
				Customer:      customer,
				Items:         make([]entity.SaleItem, 0, len(lines)),
				TaxRate:       e.taxRate,
				PaymentMethod: req.PaymentMethod,
				StaffID:       req.StaffID,
				CreatedAt:     now,
			}
			subtotal := decimal.Zero
			for _, l := range lines {
				p := products[l.ProductID]
				price := p.SellPrice()
				if l.UnitPrice != nil {
					price = *l.UnitPrice
				}
				lineTotal := price.Mul(decimal.NewFromInt(int64(l.Quantity)))
				subtotal = subtotal.Add(lineTotal)
				sale.Items = append(sale.Items, entity.SaleItem{
					ProductID:   p.ID,
					ProductName: p.Name,
					Quantity:    l.Quantity,
					UnitPrice:   price,
					LineTotal:   lineTotal,
				})
			}
			sale.Subtotal = subtotal
			sale.Tax = subtotal.Mul(e.taxRate).Round(2)
			sale.Total = subtotal.Add(sale.Tax)

			if err := repos.Sales.Create(ctx, sale); err != nil {
				return err
			}
			// 3) Descontar stock; un fallo aquí es violación de invariante y revierte todo.
			reason := "venta " + sale.ID
			for _, l := range lines {
				if err := rec.append(ctx, repos, products[l.ProductID], entity.MovementSale, -l.Quantity, reason); err != nil {
					return err
				}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return sale.Clone(), nil
}

func (e *Engine) customerSnapshot(ctx context.Context, repos repository.TxRepos, req SaleRequest) (*entity.CustomerSnapshot, error) {
	if req.CustomerID != "" {
		c, err := repos.Customers.GetByID(ctx, req.CustomerID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, req.CustomerID)
		}
		return c.Snapshot(), nil
	}
	if req.Customer == nil || req.Customer.Name == "" {
		return nil, nil
	}
	snap := *req.Customer
	return &snap, nil
}
