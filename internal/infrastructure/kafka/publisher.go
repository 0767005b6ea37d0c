// Package kafka publica los movimientos de kardex confirmados en un tópico de Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/retail-ledger-api/internal/application/ports"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/pkg/config"
)

var _ ports.EventPublisher = (*MovementPublisher)(nil)

// MovementEvent payload JSON de cada mensaje (uno por movimiento).
type MovementEvent struct {
	MovementID  string    `json:"movement_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Seq         int       `json:"seq"`
	Kind        string    `json:"kind"`
	Amount      int       `json:"amount"`
	Balance     int       `json:"balance"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// Writer parte de *kafka.Writer que usa el publicador.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// MovementPublisher escribe un mensaje por movimiento con clave = producto,
// así los movimientos de un mismo producto caen en la misma partición y conservan su orden.
type MovementPublisher struct {
	w Writer
}

// NewMovementPublisher construye el publicador sobre un kafka.Writer configurado desde cfg.
func NewMovementPublisher(cfg config.KafkaConfig) *MovementPublisher {
	return NewMovementPublisherWithWriter(&kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.MovementsTopic,
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		BatchSize:              100,
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	})
}

// NewMovementPublisherWithWriter permite inyectar el writer (tests).
func NewMovementPublisherWithWriter(w Writer) *MovementPublisher {
	return &MovementPublisher{w: w}
}

// PublishMovements envía los movimientos en un solo lote. Propaga el contexto de traza en los headers.
func (p *MovementPublisher) PublishMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafkago.Header, 0, len(carrier))
	for k, v := range carrier {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
	}

	msgs := make([]kafkago.Message, 0, len(movements))
	for _, m := range movements {
		payload, err := json.Marshal(MovementEvent{
			MovementID:  m.ID,
			ProductID:   m.ProductID,
			ProductName: m.ProductName,
			Seq:         m.Seq,
			Kind:        string(m.Kind),
			Amount:      m.Amount,
			Balance:     m.Balance,
			Reason:      m.Reason,
			CreatedAt:   m.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("serializar movimiento %s: %w", m.ID, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:     []byte(m.ProductID),
			Value:   payload,
			Headers: headers,
			Time:    m.CreatedAt,
		})
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *MovementPublisher) Close() error {
	return p.w.Close()
}
