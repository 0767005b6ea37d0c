package transaction

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

// ReturnLine cantidad devuelta de un producto de la venta.
type ReturnLine struct {
	ProductID string
	Quantity  int
}

// ProcessReturn registra una devolución parcial o total. Por cada línea incrementa
// ReturnedQuantity y reingresa el stock (RESTOCK con referencia a la venta).
// Es atómica por llamada: una línea inválida rechaza todo el lote.
func (e *Engine) ProcessReturn(ctx context.Context, saleID string, returns []ReturnLine) (*entity.Sale, error) {
	if saleID == "" || len(returns) == 0 {
		return nil, domain.ErrInvalidInput
	}
	// Agrupar por producto para validar contra lo retornable total.
	var lines []ReturnLine
	pos := make(map[string]int, len(returns))
	for _, r := range returns {
		if r.ProductID == "" {
			return nil, domain.ErrInvalidInput
		}
		if r.Quantity <= 0 {
			return nil, domain.NewLineError(domain.ErrInvalidQuantity, r.ProductID, r.Quantity, 0)
		}
		if i, ok := pos[r.ProductID]; ok {
			lines[i].Quantity += r.Quantity
			continue
		}
		pos[r.ProductID] = len(lines)
		lines = append(lines, r)
	}

	var sale *entity.Sale
	err := e.commit(ctx, "sales.return", []attribute.KeyValue{
		attribute.String("sale.id", saleID),
		attribute.Int("return.lines", len(lines)),
	}, func(ctx context.Context, repos repository.TxRepos, rec *recorder) error {
		s, err := repos.Sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("%w: %s", domain.ErrSaleNotFound, saleID)
		}
		ids := make([]string, 0, len(lines))
		for _, l := range lines {
			item := s.FindItem(l.ProductID)
			if item == nil {
				return domain.NewLineError(domain.ErrItemNotFound, l.ProductID, l.Quantity, 0)
			}
			if l.Quantity > item.Returnable() {
				return domain.NewLineError(domain.ErrExcessiveReturn, l.ProductID, l.Quantity, item.Returnable())
			}
			ids = append(ids, l.ProductID)
		}
		products, err := lockProducts(ctx, repos, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if products[id] == nil {
				return fmt.Errorf("%w: producto %s ya no existe en el catálogo", domain.ErrNotFound, id)
			}
		}

		reason := "devolución de venta " + saleID
		for _, l := range lines {
			item := s.FindItem(l.ProductID)
			item.ReturnedQuantity += l.Quantity
			if err := rec.append(ctx, repos, products[l.ProductID], entity.MovementRestock, l.Quantity, reason); err != nil {
				return err
			}
		}
		if err := repos.Sales.UpdateReturned(ctx, s); err != nil {
			return err
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale.Clone(), nil
}
