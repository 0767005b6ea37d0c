package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
	"github.com/jhoicas/retail-ledger-api/internal/infrastructure/memory"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newProduct(t *testing.T, id, sku string, stock int) *entity.Product {
	t.Helper()
	p := &entity.Product{ID: id, SKU: sku, Name: "Producto " + id, Cost: decimal.NewFromInt(10), CreatedAt: t0}
	_, err := ledger.Initialize(p, "mov-"+id, stock, t0)
	require.NoError(t, err)
	return p
}

func TestStore_RunRollbackNoDejaRastro(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(ctx, newProduct(t, "p1", "SKU-1", 10)))

	boom := errors.New("boom")
	err := store.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		p, err := repos.Products.GetForUpdate(ctx, "p1")
		require.NoError(t, err)
		_, mov, err := ledger.Append(p, "m2", entity.MovementSale, -4, "venta", t0.Add(time.Minute))
		require.NoError(t, err)
		require.NoError(t, repos.Products.ApplyMovement(ctx, p, mov))

		// Dentro de la transacción se ve el cambio.
		inTx, err := repos.Products.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 6, inTx.Stock)
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := store.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
	assert.Len(t, p.Movements, 1)
}

func TestStore_RunCommitPublica(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(ctx, newProduct(t, "p1", "SKU-1", 10)))

	err := store.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		p, _ := repos.Products.GetForUpdate(ctx, "p1")
		_, mov, err := ledger.Append(p, "m2", entity.MovementRestock, 5, "compra", t0.Add(time.Minute))
		if err != nil {
			return err
		}
		return repos.Products.ApplyMovement(ctx, p, mov)
	})
	require.NoError(t, err)

	p, _ := store.Products().GetByID(ctx, "p1")
	assert.Equal(t, 15, p.Stock)
	require.NoError(t, ledger.Verify(p))
}

func TestProductRepo_LecturasSonCopias(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(ctx, newProduct(t, "p1", "SKU-1", 10)))

	p, _ := store.Products().GetByID(ctx, "p1")
	p.Stock = 999
	p.Movements[0].Balance = 999

	again, _ := store.Products().GetByID(ctx, "p1")
	assert.Equal(t, 10, again.Stock)
	assert.Equal(t, 10, again.Movements[0].Balance)
}

func TestProductRepo_SKUDuplicado(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(ctx, newProduct(t, "p1", "SKU-1", 1)))

	err := store.Products().Create(ctx, newProduct(t, "p2", "SKU-1", 1))
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, store.Products().Create(ctx, newProduct(t, "p2", "SKU-2", 1)))
	p2, _ := store.Products().GetByID(ctx, "p2")
	p2.SKU = "SKU-1"
	assert.ErrorIs(t, store.Products().Update(ctx, p2), domain.ErrDuplicate)
}

func TestProductRepo_GetBySKUExacto(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(ctx, newProduct(t, "p1", "SKU-1", 1)))

	got, err := store.Products().GetBySKU(ctx, "SKU-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p1", got.ID)

	// Igual que en Postgres: el repositorio no recorta espacios.
	got, err = store.Products().GetBySKU(ctx, " SKU-1 ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProductRepo_UpdateNoTocaStock(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(ctx, newProduct(t, "p1", "SKU-1", 7)))

	p, _ := store.Products().GetByID(ctx, "p1")
	p.Name = "Renombrado"
	p.Stock = 0
	p.Movements = nil
	require.NoError(t, store.Products().Update(ctx, p))

	got, _ := store.Products().GetByID(ctx, "p1")
	assert.Equal(t, "Renombrado", got.Name)
	assert.Equal(t, 7, got.Stock)
	assert.Len(t, got.Movements, 1)
}

func TestProductRepo_ApplyMovementRechazaSaltos(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := newProduct(t, "p1", "SKU-1", 5)
	require.NoError(t, store.Products().Create(ctx, p))

	// Dos movimientos en memoria, uno solo persistido: el repositorio detecta el salto.
	_, _, err := ledger.Append(p, "m2", entity.MovementRestock, 1, "", t0)
	require.NoError(t, err)
	_, mov, err := ledger.Append(p, "m3", entity.MovementRestock, 1, "", t0)
	require.NoError(t, err)

	err = store.Products().ApplyMovement(ctx, p, mov)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestProductRepo_DeleteConservaKardex(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(ctx, newProduct(t, "p1", "SKU-1", 3)))
	require.NoError(t, store.Products().Create(ctx, newProduct(t, "p2", "SKU-2", 4)))

	require.NoError(t, store.Products().Delete(ctx, "p1"))
	assert.ErrorIs(t, store.Products().Delete(ctx, "p1"), domain.ErrNotFound)

	p, err := store.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p)

	movs, err := store.Movements().ListByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, "Producto p1", movs[0].ProductName)

	all, err := store.Movements().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// El SKU queda libre.
	require.NoError(t, store.Products().Create(ctx, newProduct(t, "p3", "SKU-1", 0)))
}

func TestSaleRepo_UpdateReturnedSoloAvanza(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sale := &entity.Sale{
		ID:        "s1",
		Items:     []entity.SaleItem{{ProductID: "p1", Quantity: 3}},
		CreatedAt: t0,
	}
	require.NoError(t, store.Sales().Create(ctx, sale))
	assert.ErrorIs(t, store.Sales().Create(ctx, sale), domain.ErrDuplicate)

	s, _ := store.Sales().GetByID(ctx, "s1")
	s.Items[0].ReturnedQuantity = 2
	require.NoError(t, store.Sales().UpdateReturned(ctx, s))

	s.Items[0].ReturnedQuantity = 1
	assert.ErrorIs(t, store.Sales().UpdateReturned(ctx, s), domain.ErrInvariantViolation)

	s.Items[0].ReturnedQuantity = 4
	assert.ErrorIs(t, store.Sales().UpdateReturned(ctx, s), domain.ErrInvariantViolation)

	got, _ := store.Sales().GetByID(ctx, "s1")
	assert.Equal(t, 2, got.Items[0].ReturnedQuantity)
}

func TestSaleRepo_ListPorRango(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Sales().Create(ctx, &entity.Sale{ID: id, CreatedAt: t0.Add(time.Duration(i) * time.Hour)}))
	}

	all, err := store.Sales().List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)

	from, to := t0.Add(30*time.Minute), t0.Add(90*time.Minute)
	ranged, err := store.Sales().List(ctx, &from, &to)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "b", ranged[0].ID)
}

func TestCustomerRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Customers().Create(ctx, &entity.Customer{ID: "c2", Name: "zoe", CreatedAt: t0}))
	require.NoError(t, store.Customers().Create(ctx, &entity.Customer{ID: "c1", Name: "Ana", CreatedAt: t0}))

	list, err := store.Customers().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ana", list[0].Name)

	require.NoError(t, store.Customers().Update(ctx, &entity.Customer{ID: "c1", Name: "Ana María"}))
	c, _ := store.Customers().GetByID(ctx, "c1")
	assert.Equal(t, "Ana María", c.Name)
	assert.Equal(t, t0, c.CreatedAt)

	assert.ErrorIs(t, store.Customers().Update(ctx, &entity.Customer{ID: "x"}), domain.ErrNotFound)
}
