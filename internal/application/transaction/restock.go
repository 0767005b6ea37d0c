package transaction

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

// RestockInput entrada de un reabastecimiento.
// UnitCost es opcional: si viene, el costo del producto pasa a promedio ponderado.
type RestockInput struct {
	ProductID string
	Amount    int
	UnitCost  *decimal.Decimal
	Reason    string
}

// AdjustInput entrada de un ajuste manual (signo libre).
type AdjustInput struct {
	ProductID string
	Amount    int
	Reason    string
}

func (in RestockInput) validate() error {
	if in.ProductID == "" {
		return domain.ErrInvalidInput
	}
	if in.Amount <= 0 {
		return domain.NewLineError(domain.ErrInvalidQuantity, in.ProductID, in.Amount, 0)
	}
	if in.UnitCost != nil && in.UnitCost.LessThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	return nil
}

// Restock suma stock con un movimiento RESTOCK. Amount debe ser > 0.
func (e *Engine) Restock(ctx context.Context, in RestockInput) (*entity.Product, error) {
	products, err := e.RestockBatch(ctx, []RestockInput{in})
	if err != nil {
		return nil, err
	}
	return products[0], nil
}

// RestockBatch aplica varios reabastecimientos en una sola transacción (todo o nada).
// Devuelve el estado final de cada producto en el orden de entrada.
func (e *Engine) RestockBatch(ctx context.Context, lines []RestockInput) ([]*entity.Product, error) {
	if len(lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	ids := make([]string, 0, len(lines))
	for _, in := range lines {
		if err := in.validate(); err != nil {
			return nil, err
		}
		ids = append(ids, in.ProductID)
	}

	var result []*entity.Product
	err := e.commit(ctx, "inventory.restock", []attribute.KeyValue{attribute.Int("restock.lines", len(lines))},
		func(ctx context.Context, repos repository.TxRepos, rec *recorder) error {
			products, err := lockProducts(ctx, repos, ids)
			if err != nil {
				return err
			}
			for _, in := range lines {
				if products[in.ProductID] == nil {
					return productNotFound(in.ProductID)
				}
			}
			for _, in := range lines {
				p := products[in.ProductID]
				if in.UnitCost != nil {
					p.Cost = inventory.CostCalculator(p.Stock, p.Cost, in.Amount, *in.UnitCost)
				}
				reason := in.Reason
				if reason == "" {
					reason = "reabastecimiento"
				}
				if err := rec.append(ctx, repos, p, entity.MovementRestock, in.Amount, reason); err != nil {
					return err
				}
			}
			result = make([]*entity.Product, len(lines))
			for i, in := range lines {
				result[i] = products[in.ProductID].Clone()
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AdjustStock aplica un ajuste manual. A diferencia de las ventas, si el ajuste dejaría el
// stock negativo se recorta a cero en lugar de fallar; el movimiento registra el delta aplicado.
func (e *Engine) AdjustStock(ctx context.Context, in AdjustInput) (*entity.Product, error) {
	if in.ProductID == "" || in.Reason == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Amount == 0 {
		return nil, domain.NewLineError(domain.ErrInvalidQuantity, in.ProductID, 0, 0)
	}

	var result *entity.Product
	err := e.commit(ctx, "inventory.adjust", []attribute.KeyValue{
		attribute.String("product.id", in.ProductID),
		attribute.Int("adjust.amount", in.Amount),
	}, func(ctx context.Context, repos repository.TxRepos, rec *recorder) error {
		p, err := repos.Products.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return productNotFound(in.ProductID)
		}
		applied, reason := in.Amount, in.Reason
		if p.Stock+in.Amount < 0 {
			applied = -p.Stock
			reason = fmt.Sprintf("%s (solicitado %+d, aplicado %+d)", in.Reason, in.Amount, applied)
			e.log.Warn().Str("product_id", p.ID).Int("requested", in.Amount).Int("applied", applied).
				Msg("ajuste recortado para no dejar stock negativo")
		}
		if err := rec.append(ctx, repos, p, entity.MovementAdjustment, applied, reason); err != nil {
			return err
		}
		result = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
