package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo lectura del kardex sobre PostgreSQL.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// ListAll lista todos los movimientos (incluye los de productos eliminados), más recientes primero.
func (r *MovementRepo) ListAll(ctx context.Context) ([]entity.StockMovement, error) {
	return listMovements(ctx, r.q, "")
}

// ListByProduct lista el kardex de un producto, más reciente primero.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string) ([]entity.StockMovement, error) {
	return listMovements(ctx, r.q, `WHERE product_id = $1`, productID)
}

func insertMovement(ctx context.Context, q Querier, m entity.StockMovement) error {
	_, err := q.Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, product_name, seq, kind, amount, balance, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.ProductID, m.ProductName, m.Seq, string(m.Kind), m.Amount, m.Balance, m.Reason, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) || isCheckViolation(err) {
			return fmt.Errorf("%w: movimiento seq %d de %s: %v", domain.ErrInvariantViolation, m.Seq, m.ProductID, err)
		}
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

func listMovements(ctx context.Context, q Querier, where string, args ...any) ([]entity.StockMovement, error) {
	query := `
		SELECT id, product_id, product_name, seq, kind, amount, balance, reason, created_at
		FROM stock_movements ` + where + `
		ORDER BY created_at DESC, seq DESC`
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.StockMovement, error) {
		var (
			m    entity.StockMovement
			kind string
		)
		err := row.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.Seq, &kind, &m.Amount, &m.Balance, &m.Reason, &m.CreatedAt)
		m.Kind = entity.MovementKind(kind)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan stock movement: %w", err)
	}
	return list, nil
}
