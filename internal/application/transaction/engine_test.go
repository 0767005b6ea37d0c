package transaction_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-ledger-api/internal/application/transaction"
	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
	"github.com/jhoicas/retail-ledger-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

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

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]entity.StockMovement
	err     error
}

func (p *recordingPublisher) PublishMovements(_ context.Context, movs []entity.StockMovement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, movs)
	return p.err
}

type fixture struct {
	store  *memory.Store
	engine *transaction.Engine
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	events := &recordingPublisher{}
	engine := transaction.NewEngine(store,
		&stepClock{now: time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)},
		&seqIDs{}, events, nil, transaction.Config{})
	return &fixture{store: store, engine: engine, events: events}
}

// seed crea un producto con su movimiento INITIAL.
func (f *fixture) seed(t *testing.T, id string, stock, minStock int) {
	t.Helper()
	p := &entity.Product{
		ID:        id,
		SKU:       "SKU-" + id,
		Name:      "Producto " + id,
		Cost:      decimal.NewFromInt(8),
		MarginPct: decimal.NewFromInt(25),
		MinStock:  minStock,
	}
	_, err := ledger.Initialize(p, "init-"+id, stock, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, f.store.Products().Create(context.Background(), p))
}

func (f *fixture) product(t *testing.T, id string) *entity.Product {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo: reabastecer, vender, devolver, devolver de más.
// ──────────────────────────────────────────────────────────────────────────────

func TestEngine_FlujoCompleto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "P", 10, 2)

	p, err := f.engine.Restock(ctx, transaction.RestockInput{ProductID: "P", Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, 15, p.Stock)
	head, _ := ledger.Head(p)
	assert.Equal(t, entity.MovementRestock, head.Kind)
	assert.Equal(t, 5, head.Amount)
	assert.Equal(t, 15, head.Balance)
	require.NotNil(t, p.LastRestocked)

	sale, err := f.engine.CompleteSale(ctx, transaction.SaleRequest{
		Items: []transaction.SaleLine{{ProductID: "P", Quantity: 3, UnitPrice: price(10)}},
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(sale.Subtotal), sale.Subtotal.String())
	assert.True(t, decimal.RequireFromString("1.5").Equal(sale.Tax), sale.Tax.String())
	assert.True(t, decimal.RequireFromString("31.5").Equal(sale.Total), sale.Total.String())
	assert.Equal(t, entity.PaymentCash, sale.PaymentMethod)

	p = f.product(t, "P")
	assert.Equal(t, 12, p.Stock)
	head, _ = ledger.Head(p)
	assert.Equal(t, entity.MovementSale, head.Kind)
	assert.Equal(t, -3, head.Amount)
	assert.Equal(t, 12, head.Balance)

	returned, err := f.engine.ProcessReturn(ctx, sale.ID, []transaction.ReturnLine{{ProductID: "P", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, returned.Items[0].ReturnedQuantity)
	assert.Equal(t, entity.ReturnPartial, returned.Items[0].ReturnStatus())

	p = f.product(t, "P")
	assert.Equal(t, 13, p.Stock)
	head, _ = ledger.Head(p)
	assert.Equal(t, entity.MovementRestock, head.Kind)
	assert.Equal(t, 1, head.Amount)
	assert.Equal(t, 13, head.Balance)
	assert.Contains(t, head.Reason, sale.ID)

	_, err = f.engine.ProcessReturn(ctx, sale.ID, []transaction.ReturnLine{{ProductID: "P", Quantity: 3}})
	require.ErrorIs(t, err, domain.ErrExcessiveReturn)
	var lineErr *domain.LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, 2, lineErr.Available)

	// Nada cambió tras el rechazo.
	assert.Equal(t, 13, f.product(t, "P").Stock)
	stored, _ := f.store.Sales().GetByID(ctx, sale.ID)
	assert.Equal(t, 1, stored.Items[0].ReturnedQuantity)
	require.NoError(t, ledger.Verify(f.product(t, "P")))
}

func TestEngine_VentaAtomicaConStockInsuficiente(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 10, 0)
	f.seed(t, "B", 2, 0)

	_, err := f.engine.CompleteSale(ctx, transaction.SaleRequest{
		Items: []transaction.SaleLine{
			{ProductID: "A", Quantity: 4},
			{ProductID: "B", Quantity: 3},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var lineErr *domain.LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, "B", lineErr.ProductID)
	assert.Equal(t, 3, lineErr.Requested)
	assert.Equal(t, 2, lineErr.Available)

	assert.Equal(t, 10, f.product(t, "A").Stock)
	assert.Len(t, f.product(t, "A").Movements, 1)
	sales, _ := f.store.Sales().List(ctx, nil, nil)
	assert.Empty(t, sales)
	assert.Empty(t, f.events.batches)
}

func TestEngine_VentaUsaPrecioDeCatalogoYFusionaLineas(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 10, 0) // costo 8, margen 25% → 10.00

	sale, err := f.engine.CompleteSale(ctx, transaction.SaleRequest{
		Items: []transaction.SaleLine{
			{ProductID: "A", Quantity: 1},
			{ProductID: "A", Quantity: 2},
		},
		PaymentMethod: entity.PaymentCard,
		Customer:      &entity.CustomerSnapshot{Name: "Mostrador"},
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 3, sale.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(sale.Items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("31.5").Equal(sale.Total))
	require.NotNil(t, sale.Customer)
	assert.Equal(t, "Mostrador", sale.Customer.Name)
	assert.Equal(t, 7, f.product(t, "A").Stock)
}

func TestEngine_VentaPreciosConflictivos(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A", 10, 0)

	_, err := f.engine.CompleteSale(context.Background(), transaction.SaleRequest{
		Items: []transaction.SaleLine{
			{ProductID: "A", Quantity: 1, UnitPrice: price(10)},
			{ProductID: "A", Quantity: 1, UnitPrice: price(12)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEngine_VentaConClienteRegistrado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 5, 0)
	require.NoError(t, f.store.Customers().Create(ctx, &entity.Customer{ID: "c1", Name: "Ana", Phone: "300"}))

	sale, err := f.engine.CompleteSale(ctx, transaction.SaleRequest{
		Items:      []transaction.SaleLine{{ProductID: "A", Quantity: 1}},
		CustomerID: "c1",
	})
	require.NoError(t, err)
	require.NotNil(t, sale.Customer)
	assert.Equal(t, "c1", sale.Customer.CustomerID)

	// Editar el cliente no altera la venta.
	require.NoError(t, f.store.Customers().Update(ctx, &entity.Customer{ID: "c1", Name: "Ana Pérez"}))
	stored, _ := f.store.Sales().GetByID(ctx, sale.ID)
	assert.Equal(t, "Ana", stored.Customer.Name)

	_, err = f.engine.CompleteSale(ctx, transaction.SaleRequest{
		Items:      []transaction.SaleLine{{ProductID: "A", Quantity: 1}},
		CustomerID: "nope",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 4, f.product(t, "A").Stock)
}

func TestEngine_EntradasInvalidas(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 5, 0)

	_, err := f.engine.Restock(ctx, transaction.RestockInput{ProductID: "A", Amount: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.engine.Restock(ctx, transaction.RestockInput{ProductID: "X", Amount: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.CompleteSale(ctx, transaction.SaleRequest{Items: []transaction.SaleLine{{ProductID: "A", Quantity: -1}}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.engine.CompleteSale(ctx, transaction.SaleRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.CompleteSale(ctx, transaction.SaleRequest{
		Items:         []transaction.SaleLine{{ProductID: "A", Quantity: 1}},
		PaymentMethod: "BITCOIN",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.engine.ProcessReturn(ctx, "no-existe", []transaction.ReturnLine{{ProductID: "A", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)

	_, err = f.engine.AdjustStock(ctx, transaction.AdjustInput{ProductID: "A", Amount: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, 5, f.product(t, "A").Stock)
}

func TestEngine_DevolucionDeProductoAjenoALaVenta(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 5, 0)
	f.seed(t, "B", 5, 0)

	sale, err := f.engine.CompleteSale(ctx, transaction.SaleRequest{Items: []transaction.SaleLine{{ProductID: "A", Quantity: 2}}})
	require.NoError(t, err)

	_, err = f.engine.ProcessReturn(ctx, sale.ID, []transaction.ReturnLine{
		{ProductID: "A", Quantity: 1},
		{ProductID: "B", Quantity: 1},
	})
	require.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.Equal(t, 3, f.product(t, "A").Stock)
	assert.Equal(t, 5, f.product(t, "B").Stock)
}

func TestEngine_DevolucionLineasRepetidasSeSuman(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 5, 0)

	sale, err := f.engine.CompleteSale(ctx, transaction.SaleRequest{Items: []transaction.SaleLine{{ProductID: "A", Quantity: 2}}})
	require.NoError(t, err)

	_, err = f.engine.ProcessReturn(ctx, sale.ID, []transaction.ReturnLine{
		{ProductID: "A", Quantity: 2},
		{ProductID: "A", Quantity: 1},
	})
	require.ErrorIs(t, err, domain.ErrExcessiveReturn)

	full, err := f.engine.ProcessReturn(ctx, sale.ID, []transaction.ReturnLine{{ProductID: "A", Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnFull, full.Items[0].ReturnStatus())
	assert.Equal(t, 5, f.product(t, "A").Stock)
}

func TestEngine_DevolucionDeProductoEliminado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 5, 0)

	sale, err := f.engine.CompleteSale(ctx, transaction.SaleRequest{Items: []transaction.SaleLine{{ProductID: "A", Quantity: 2}}})
	require.NoError(t, err)
	require.NoError(t, f.store.Products().Delete(ctx, "A"))

	_, err = f.engine.ProcessReturn(ctx, sale.ID, []transaction.ReturnLine{{ProductID: "A", Quantity: 1}})
	require.ErrorIs(t, err, domain.ErrNotFound)
	stored, _ := f.store.Sales().GetByID(ctx, sale.ID)
	assert.Zero(t, stored.Items[0].ReturnedQuantity)
}

func TestEngine_AjusteSeRecortaEnCero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 3, 0)

	p, err := f.engine.AdjustStock(ctx, transaction.AdjustInput{ProductID: "A", Amount: -5, Reason: "merma"})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)

	head, _ := ledger.Head(p)
	assert.Equal(t, entity.MovementAdjustment, head.Kind)
	assert.Equal(t, -3, head.Amount)
	assert.Equal(t, 0, head.Balance)
	assert.Contains(t, head.Reason, "merma")
	require.NoError(t, ledger.Verify(p))

	p, err = f.engine.AdjustStock(ctx, transaction.AdjustInput{ProductID: "A", Amount: 4, Reason: "conteo físico"})
	require.NoError(t, err)
	assert.Equal(t, 4, p.Stock)
}

func TestEngine_RestockConCostoPromedia(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A", 10, 0) // costo 8

	p, err := f.engine.Restock(context.Background(), transaction.RestockInput{ProductID: "A", Amount: 10, UnitCost: price(12)})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(p.Cost), p.Cost.String())
}

func TestEngine_RestockBatchTodoONada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 1, 0)

	_, err := f.engine.RestockBatch(ctx, []transaction.RestockInput{
		{ProductID: "A", Amount: 3},
		{ProductID: "X", Amount: 3},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, f.product(t, "A").Stock)

	out, err := f.engine.RestockBatch(ctx, []transaction.RestockInput{
		{ProductID: "A", Amount: 3},
		{ProductID: "A", Amount: 2},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 6, out[1].Stock)
	assert.Len(t, f.product(t, "A").Movements, 3)
}

func TestEngine_ViolacionDeInvarianteRevierteTodo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 10, 0)

	// B queda con stock inconsistente respecto a su kardex.
	b := &entity.Product{ID: "B", SKU: "SKU-B", Name: "B"}
	_, err := ledger.Initialize(b, "init-B", 5, time.Now())
	require.NoError(t, err)
	b.Stock = 6
	require.NoError(t, f.store.Products().Create(ctx, b))

	_, err = f.engine.CompleteSale(ctx, transaction.SaleRequest{
		Items: []transaction.SaleLine{
			{ProductID: "A", Quantity: 1},
			{ProductID: "B", Quantity: 1},
		},
	})
	require.ErrorIs(t, err, domain.ErrInvariantViolation)

	assert.Equal(t, 10, f.product(t, "A").Stock)
	assert.Len(t, f.product(t, "A").Movements, 1)
	sales, _ := f.store.Sales().List(ctx, nil, nil)
	assert.Empty(t, sales)
}

func TestEngine_PublicaTrasCommitYToleraFallos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 10, 0)
	f.events.err = errors.New("broker caído")

	_, err := f.engine.CompleteSale(ctx, transaction.SaleRequest{Items: []transaction.SaleLine{{ProductID: "A", Quantity: 2}}})
	require.NoError(t, err)
	require.Len(t, f.events.batches, 1)
	require.Len(t, f.events.batches[0], 1)
	assert.Equal(t, -2, f.events.batches[0][0].Amount)
	assert.Equal(t, 8, f.product(t, "A").Stock)
}

func TestEngine_TasaConfigurable(t *testing.T) {
	store := memory.NewStore()
	rate := decimal.RequireFromString("0.19")
	engine := transaction.NewEngine(store, &stepClock{}, &seqIDs{}, nil, nil,
		transaction.Config{TaxRate: &rate})
	assert.True(t, rate.Equal(engine.TaxRate()))

	def := transaction.NewEngine(store, &stepClock{}, &seqIDs{}, nil, nil, transaction.Config{})
	assert.True(t, transaction.DefaultTaxRate.Equal(def.TaxRate()))

	zero := decimal.Zero
	exempt := transaction.NewEngine(store, &stepClock{}, &seqIDs{}, nil, nil, transaction.Config{TaxRate: &zero})
	assert.True(t, exempt.TaxRate().IsZero(), "tasa 0 configurada: %s", exempt.TaxRate())
}

func TestEngine_VentaExentaNoCobraImpuesto(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	zero := decimal.Zero
	engine := transaction.NewEngine(store,
		&stepClock{now: time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)},
		&seqIDs{}, nil, nil, transaction.Config{TaxRate: &zero})
	f := &fixture{store: store, engine: engine}
	f.seed(t, "A", 5, 0)

	sale, err := engine.CompleteSale(ctx, transaction.SaleRequest{Items: []transaction.SaleLine{{ProductID: "A", Quantity: 2, UnitPrice: price(10)}}})
	require.NoError(t, err)
	assert.True(t, sale.Tax.IsZero())
	assert.Equal(t, "20", sale.Total.String())
}

func TestEngine_PrecioConMasDeDosDecimales(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 10, 0)

	fine := decimal.RequireFromString("0.333")
	_, err := f.engine.CompleteSale(ctx, transaction.SaleRequest{Items: []transaction.SaleLine{{ProductID: "A", Quantity: 3, UnitPrice: &fine}}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 10, f.product(t, "A").Stock)
	assert.Empty(t, f.events.batches)

	// Ceros de relleno no cuentan como decimales extra.
	padded := decimal.RequireFromString("0.330")
	sale, err := f.engine.CompleteSale(ctx, transaction.SaleRequest{Items: []transaction.SaleLine{{ProductID: "A", Quantity: 3, UnitPrice: &padded}}})
	require.NoError(t, err)
	assert.Equal(t, "0.99", sale.Subtotal.StringFixed(2))
	assert.True(t, sale.Subtotal.Equal(sale.Subtotal.Round(2)))
	assert.True(t, sale.Total.Equal(sale.Total.Round(2)))
	assert.Equal(t, 7, f.product(t, "A").Stock)
}

// brokenStore simula una caída de la base al persistir un movimiento.
type brokenStore struct {
	*memory.Store
	err error
}

type brokenProducts struct {
	repository.ProductRepository
	err error
}

func (p brokenProducts) ApplyMovement(context.Context, *entity.Product, entity.StockMovement) error {
	return p.err
}

func (s brokenStore) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	return s.Store.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		repos.Products = brokenProducts{ProductRepository: repos.Products, err: s.err}
		return fn(ctx, repos)
	})
}

func TestEngine_ErrorDePersistenciaNoEsInvariante(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	lost := errors.New("update product stock: conexión perdida")
	engine := transaction.NewEngine(brokenStore{Store: store, err: lost},
		&stepClock{now: time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)}, &seqIDs{}, nil, nil, transaction.Config{})
	f := &fixture{store: store, engine: engine}
	f.seed(t, "A", 10, 0)

	_, err := engine.CompleteSale(ctx, transaction.SaleRequest{Items: []transaction.SaleLine{{ProductID: "A", Quantity: 2}}})
	require.ErrorIs(t, err, lost)
	assert.NotErrorIs(t, err, domain.ErrInvariantViolation)

	_, err = engine.Restock(ctx, transaction.RestockInput{ProductID: "A", Amount: 3})
	require.ErrorIs(t, err, lost)
	assert.NotErrorIs(t, err, domain.ErrInvariantViolation)

	_, err = engine.AdjustStock(ctx, transaction.AdjustInput{ProductID: "A", Amount: -1, Reason: "merma"})
	require.ErrorIs(t, err, lost)
	assert.NotErrorIs(t, err, domain.ErrInvariantViolation)

	assert.Equal(t, 10, f.product(t, "A").Stock)
}

func TestEngine_VentasConcurrentesNoSobrevenden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", 10, 0)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.CompleteSale(ctx, transaction.SaleRequest{Items: []transaction.SaleLine{{ProductID: "A", Quantity: 1}}})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			fail++
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 15, fail)
	p := f.product(t, "A")
	assert.Equal(t, 0, p.Stock)
	require.NoError(t, ledger.Verify(p))
}
