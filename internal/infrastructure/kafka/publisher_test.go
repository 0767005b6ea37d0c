package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/infrastructure/kafka"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestMovementPublisher_UnMensajePorMovimiento(t *testing.T) {
	w := &fakeWriter{}
	pub := kafka.NewMovementPublisherWithWriter(w)
	at := time.Date(2025, 4, 2, 15, 0, 0, 0, time.UTC)

	err := pub.PublishMovements(context.Background(), []entity.StockMovement{
		{ID: "m1", ProductID: "p1", ProductName: "Arroz", Seq: 4, Kind: entity.MovementSale, Amount: -2, Balance: 8, Reason: "venta s1", CreatedAt: at},
		{ID: "m2", ProductID: "p2", Seq: 2, Kind: entity.MovementSale, Amount: -1, Balance: 0, CreatedAt: at},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "p1", string(w.msgs[0].Key))

	var ev kafka.MovementEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "m1", ev.MovementID)
	assert.Equal(t, "SALE", ev.Kind)
	assert.Equal(t, -2, ev.Amount)
	assert.Equal(t, 8, ev.Balance)
	assert.True(t, at.Equal(ev.CreatedAt))

	require.NoError(t, pub.Close())
	assert.True(t, w.closed)
}

func TestMovementPublisher_SinMovimientosNoEscribe(t *testing.T) {
	w := &fakeWriter{err: errors.New("no debería llamarse")}
	pub := kafka.NewMovementPublisherWithWriter(w)
	assert.NoError(t, pub.PublishMovements(context.Background(), nil))
}

func TestMovementPublisher_PropagaErrorDelBroker(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	pub := kafka.NewMovementPublisherWithWriter(w)
	err := pub.PublishMovements(context.Background(), []entity.StockMovement{{ID: "m1", ProductID: "p1"}})
	assert.ErrorContains(t, err, "leader not available")
}
