// Package transaction contiene el motor que aplica, como una sola unidad, las operaciones
// que modifican stock y ventas: reabastecimiento, ajuste, venta y devolución.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/retail-ledger-api/internal/application/ports"
	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/ledger"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
	"github.com/jhoicas/retail-ledger-api/pkg/logger"
)

// DefaultTaxRate IVA aplicado a las ventas si no se configura otro (5%).
var DefaultTaxRate = decimal.NewFromFloat(0.05)

const tracerName = "github.com/jhoicas/retail-ledger-api/internal/application/transaction"

// Config parámetros del motor.
type Config struct {
	TaxRate *decimal.Decimal // 0.05 = 5%; nil usa DefaultTaxRate, cero es venta exenta
}

// Engine orquesta las mutaciones de inventario y ventas. Cada operación se ejecuta dentro de
// TxRunner.Run: todas las validaciones ocurren antes de mutar y cualquier fallo posterior
// hace Rollback completo.
type Engine struct {
	txRunner repository.TxRunner
	clock    ports.Clock
	ids      ports.IDGenerator
	events   ports.EventPublisher
	log      *logger.Logger
	tracer   trace.Tracer
	taxRate  decimal.Decimal
}

// NewEngine construye el motor. events y log pueden ser nil.
func NewEngine(
	txRunner repository.TxRunner,
	clock ports.Clock,
	ids ports.IDGenerator,
	events ports.EventPublisher,
	log *logger.Logger,
	cfg Config,
) *Engine {
	if events == nil {
		events = ports.NoopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	rate := DefaultTaxRate
	if cfg.TaxRate != nil && !cfg.TaxRate.IsNegative() {
		rate = *cfg.TaxRate
	}
	return &Engine{
		txRunner: txRunner,
		clock:    clock,
		ids:      ids,
		events:   events,
		log:      log,
		tracer:   otel.Tracer(tracerName),
		taxRate:  rate,
	}
}

// TaxRate tasa de impuesto vigente.
func (e *Engine) TaxRate() decimal.Decimal { return e.taxRate }

// recorder acumula los movimientos escritos dentro de una transacción para publicarlos tras el Commit.
type recorder struct {
	engine    *Engine
	movements []entity.StockMovement
}

// append escribe un movimiento en el kardex del producto y lo persiste en la misma transacción.
func (r *recorder) append(ctx context.Context, repos repository.TxRepos, p *entity.Product, kind entity.MovementKind, amount int, reason string) error {
	_, mov, err := ledger.Append(p, r.engine.ids.NewID(), kind, amount, reason, r.engine.clock.Now())
	if err != nil {
		// Las validaciones ya pasaron: un rechazo del kardex aquí es una invariante rota.
		return asInvariant(err)
	}
	if err := repos.Products.ApplyMovement(ctx, p, mov); err != nil {
		return err
	}
	r.movements = append(r.movements, mov)
	return nil
}

// commit ejecuta fn en una transacción no cancelable, registra el span y publica los movimientos.
func (e *Engine) commit(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(ctx context.Context, repos repository.TxRepos, rec *recorder) error) error {
	ctx, span := e.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
	defer span.End()

	rec := &recorder{engine: e}
	err := e.txRunner.Run(context.WithoutCancel(ctx), func(ctx context.Context, repos repository.TxRepos) error {
		return fn(ctx, repos, rec)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, domain.ErrInvariantViolation) {
			e.log.Error().Err(err).Str("op", op).Msg("operación abortada por violación de invariante")
		}
		return err
	}
	span.SetAttributes(attribute.Int("ledger.movements", len(rec.movements)))
	e.log.Info().Str("op", op).Int("movements", len(rec.movements)).Msg("operación confirmada")

	if err := e.events.PublishMovements(ctx, rec.movements); err != nil {
		// El Commit ya ocurrió; el evento perdido no revierte la operación.
		e.log.Warn().Err(err).Str("op", op).Msg("no se pudieron publicar los movimientos")
	}
	return nil
}

// lockProducts bloquea los productos en orden de ID (evita deadlocks entre transacciones
// concurrentes) y devuelve un mapa ID → producto. Los inexistentes quedan en nil.
func lockProducts(ctx context.Context, repos repository.TxRepos, ids []string) (map[string]*entity.Product, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	out := make(map[string]*entity.Product, len(sorted))
	for _, id := range sorted {
		p, err := repos.Products.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

// asInvariant convierte un rechazo del kardex detectado después de validar en ErrInvariantViolation.
// Los errores de persistencia no pasan por aquí.
func asInvariant(err error) error {
	if errors.Is(err, domain.ErrInvariantViolation) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrInvariantViolation, err)
}

func productNotFound(id string) error {
	return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
}
