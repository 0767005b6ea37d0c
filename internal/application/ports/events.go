package ports

import (
	"context"

	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
)

// EventPublisher publica los movimientos de kardex ya confirmados (después del Commit).
type EventPublisher interface {
	PublishMovements(ctx context.Context, movements []entity.StockMovement) error
}

// NoopPublisher descarta los eventos (sin broker configurado).
type NoopPublisher struct{}

func (NoopPublisher) PublishMovements(context.Context, []entity.StockMovement) error { return nil }
