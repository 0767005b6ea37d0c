package importer_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-ledger-api/internal/application/dto"
	"github.com/jhoicas/retail-ledger-api/internal/application/importer"
	"github.com/jhoicas/retail-ledger-api/internal/application/transaction"
	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/extraction"
	"github.com/jhoicas/retail-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/retail-ledger-api/internal/infrastructure/memory"
)

type fakeExtractor struct {
	items     []extraction.RawCandidate
	err       error
	block     bool
	mediaType string
}

func (f *fakeExtractor) ExtractLineItems(ctx context.Context, mediaType string, _ []byte) ([]extraction.RawCandidate, error) {
	f.mediaType = mediaType
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.items, f.err
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

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func str(s string) *string { return &s }

func num(v float64) *float64 { return &v }

func setup(t *testing.T, extractor *fakeExtractor) (*memory.Store, *importer.UseCase) {
	t.Helper()
	store := memory.NewStore()
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for _, s := range []struct{ id, sku, name string }{
		{"p1", "7701234", "Arroz Diana 1kg"},
		{"p2", "7705678", "Aceite Premier 900ml"},
	} {
		p := &entity.Product{ID: s.id, SKU: s.sku, Name: s.name, Cost: decimal.NewFromInt(4), CreatedAt: at}
		_, err := ledger.Initialize(p, "init-"+s.id, 5, at)
		require.NoError(t, err)
		require.NoError(t, store.Products().Create(context.Background(), p))
	}
	engine := transaction.NewEngine(store, fixedClock{now: at.Add(time.Hour)}, &seqIDs{}, nil, nil, transaction.Config{})
	uc := importer.NewUseCase(nil, store.Products(), engine)
	if extractor != nil {
		uc = importer.NewUseCase(extractor, store.Products(), engine)
	}
	return store, uc
}

func TestPreview_Deshabilitado(t *testing.T) {
	_, uc := setup(t, nil)
	assert.False(t, uc.Enabled())
	_, err := uc.Preview(context.Background(), "image/png", []byte("x"))
	require.ErrorIs(t, err, importer.ErrDisabled)
}

func TestPreview_EmparejaYDescarta(t *testing.T) {
	ext := &fakeExtractor{items: []extraction.RawCandidate{
		{Name: str("ARROZ 1KG"), Identifier: str("7701234"), Quantity: num(12), UnitPrice: num(3.5)},
		{Name: str("  aceite premier 900ML "), Quantity: num(6), UnitPrice: num(9.9)},
		{Name: str("Sal Refisal"), Quantity: num(2)},
		{Name: str("Panela"), Quantity: num(0)},
	}}
	_, uc := setup(t, ext)

	res, err := uc.Preview(context.Background(), "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ext.mediaType)
	require.Len(t, res.Lines, 3)
	assert.Equal(t, 2, res.Matched)
	require.Len(t, res.Rejected, 1)

	assert.Equal(t, "MATCHED", res.Lines[0].Status)
	assert.Equal(t, "p1", res.Lines[0].ProductID)
	assert.Equal(t, "sku", res.Lines[0].MatchedBy)
	assert.Equal(t, "Arroz Diana 1kg", res.Lines[0].ProductName)

	assert.Equal(t, "p2", res.Lines[1].ProductID)
	assert.Equal(t, "name", res.Lines[1].MatchedBy)

	assert.Equal(t, "UNMATCHED", res.Lines[2].Status)
	assert.Empty(t, res.Lines[2].ProductID)
}

func TestPreview_DocumentoVacio(t *testing.T) {
	_, uc := setup(t, &fakeExtractor{})
	_, err := uc.Preview(context.Background(), "image/png", nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPreview_Timeout(t *testing.T) {
	_, uc := setup(t, &fakeExtractor{block: true})
	uc.WithTimeout(20 * time.Millisecond)

	_, err := uc.Preview(context.Background(), "image/png", []byte("img"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestApply_ReabasteceTodoONada(t *testing.T) {
	ctx := context.Background()
	store, uc := setup(t, &fakeExtractor{})

	_, err := uc.Apply(ctx, dto.ImportApplyRequest{Lines: []dto.ImportApplyLine{
		{ProductID: "p1", Quantity: 10},
		{ProductID: "fantasma", Quantity: 1},
	}})
	require.ErrorIs(t, err, domain.ErrNotFound)
	p1, err := store.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, p1.Stock)

	cost := decimal.NewFromInt(10)
	res, err := uc.Apply(ctx, dto.ImportApplyRequest{Lines: []dto.ImportApplyLine{
		{ProductID: "p1", Quantity: 5, UnitCost: &cost},
		{ProductID: "p2", Quantity: 3},
	}})
	require.NoError(t, err)
	require.Len(t, res.Products, 2)
	assert.Equal(t, 10, res.Products[0].Stock)
	assert.True(t, decimal.NewFromInt(7).Equal(res.Products[0].Cost), res.Products[0].Cost.String())
	assert.Equal(t, 8, res.Products[1].Stock)

	p2, err := store.Products().GetByID(ctx, "p2")
	require.NoError(t, err)
	head, _ := ledger.Head(p2)
	assert.Equal(t, entity.MovementRestock, head.Kind)
	assert.Contains(t, head.Reason, "importación")

	_, err = uc.Apply(ctx, dto.ImportApplyRequest{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
