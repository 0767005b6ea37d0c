package report_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-ledger-api/internal/application/report"
	"github.com/jhoicas/retail-ledger-api/internal/application/transaction"
	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/retail-ledger-api/internal/infrastructure/memory"
)

var seedTime = time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%03d", g.n)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// setup: A (granos, 10 u, costo 2, margen 50), B (granos, 3 u, costo 1), C (bebidas, agotado, costo 8, margen 25).
func setup(t *testing.T) (*transaction.Engine, *report.UseCase) {
	t.Helper()
	store := memory.NewStore()
	seed := []struct {
		id, category   string
		stock, min     int
		cost, marginPc int64
	}{
		{"A", "Granos", 10, 5, 2, 50},
		{"B", "granos", 3, 5, 1, 0},
		{"C", "Bebidas", 0, 2, 8, 25},
	}
	for i, s := range seed {
		at := seedTime.Add(time.Duration(i) * time.Minute)
		p := &entity.Product{
			ID:        s.id,
			SKU:       "SKU-" + s.id,
			Name:      "Producto " + s.id,
			Category:  s.category,
			Cost:      decimal.NewFromInt(s.cost),
			MarginPct: decimal.NewFromInt(s.marginPc),
			MinStock:  s.min,
			CreatedAt: at,
		}
		_, err := ledger.Initialize(p, "init-"+s.id, s.stock, at)
		require.NoError(t, err)
		require.NoError(t, store.Products().Create(context.Background(), p))
	}
	engine := transaction.NewEngine(store, &stepClock{now: seedTime.Add(time.Hour)}, &seqIDs{}, nil, nil, transaction.Config{})
	uc := report.NewUseCase(store.Products(), store.Sales(), fixedClock{now: seedTime.Add(2 * time.Hour)})
	return engine, uc
}

func TestLowStock_PrioridadYSugerido(t *testing.T) {
	ctx := context.Background()
	engine, uc := setup(t)

	sale, err := engine.CompleteSale(ctx, transaction.SaleRequest{
		Items: []transaction.SaleLine{{ProductID: "B", Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = engine.ProcessReturn(ctx, sale.ID, []transaction.ReturnLine{{ProductID: "B", Quantity: 1}})
	require.NoError(t, err)

	items, err := uc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	b := items[0]
	assert.Equal(t, "B", b.ProductID)
	assert.Equal(t, 1, b.Priority)
	assert.Equal(t, 2, b.CurrentStock)
	assert.Equal(t, 8, b.IdealStock)
	assert.Equal(t, 6, b.SuggestedOrderQty)
	assert.Equal(t, 1, b.UnitsSold, "unidades netas de devoluciones")
	assert.True(t, dec("6").Equal(b.EstimatedOrderCost), b.EstimatedOrderCost.String())

	c := items[1]
	assert.Equal(t, "C", c.ProductID)
	assert.Equal(t, 2, c.Priority)
	assert.Equal(t, 3, c.IdealStock)
	assert.Equal(t, 3, c.SuggestedOrderQty)
	assert.True(t, dec("24").Equal(c.EstimatedOrderCost))
}

func TestLowStock_SinProductosBajos(t *testing.T) {
	ctx := context.Background()
	engine, uc := setup(t)
	_, err := engine.RestockBatch(ctx, []transaction.RestockInput{
		{ProductID: "B", Amount: 10},
		{ProductID: "C", Amount: 10},
	})
	require.NoError(t, err)

	items, err := uc.LowStock(ctx)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestValuation(t *testing.T) {
	ctx := context.Background()
	engine, uc := setup(t)
	_, err := engine.CompleteSale(ctx, transaction.SaleRequest{
		Items: []transaction.SaleLine{{ProductID: "B", Quantity: 2}},
	})
	require.NoError(t, err)

	v, err := uc.Valuation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Products)
	assert.Equal(t, 11, v.Units)
	assert.True(t, dec("21").Equal(v.CostValue), v.CostValue.String())
	assert.True(t, dec("31").Equal(v.RetailValue), v.RetailValue.String())

	require.Len(t, v.ByCategory, 2)
	assert.Equal(t, "Bebidas", v.ByCategory[0].Category)
	assert.Equal(t, 0, v.ByCategory[0].Units)
	granos := v.ByCategory[1]
	assert.Equal(t, "Granos", granos.Category)
	assert.Equal(t, 2, granos.Products)
	assert.Equal(t, 11, granos.Units)
	assert.True(t, dec("31").Equal(granos.RetailValue))
}

func TestSalesSummary(t *testing.T) {
	ctx := context.Background()
	engine, uc := setup(t)

	cash, err := engine.CompleteSale(ctx, transaction.SaleRequest{
		Items: []transaction.SaleLine{{ProductID: "B", Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = engine.ProcessReturn(ctx, cash.ID, []transaction.ReturnLine{{ProductID: "B", Quantity: 1}})
	require.NoError(t, err)
	three := dec("3")
	card, err := engine.CompleteSale(ctx, transaction.SaleRequest{
		Items:         []transaction.SaleLine{{ProductID: "A", Quantity: 1, UnitPrice: &three}},
		PaymentMethod: entity.PaymentCard,
	})
	require.NoError(t, err)

	sum, err := uc.SalesSummary(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.SalesCount)
	assert.Equal(t, 3, sum.UnitsSold)
	assert.Equal(t, 1, sum.UnitsReturned)
	assert.True(t, dec("5").Equal(sum.Subtotal), sum.Subtotal.String())
	assert.True(t, dec("0.25").Equal(sum.Tax), sum.Tax.String())
	assert.True(t, dec("5.25").Equal(sum.Total), sum.Total.String())
	assert.True(t, dec("1").Equal(sum.ReturnedValue))
	assert.True(t, dec("4").Equal(sum.NetSubtotal))
	assert.True(t, dec("2.1").Equal(sum.ByPayment[entity.PaymentCash]))
	assert.True(t, dec("3.15").Equal(sum.ByPayment[entity.PaymentCard]))

	from := card.CreatedAt
	only, err := uc.SalesSummary(ctx, &from, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, only.SalesCount)

	to := from.Add(-time.Hour)
	_, err = uc.SalesSummary(ctx, &from, &to)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
