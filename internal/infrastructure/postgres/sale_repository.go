package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, customer_id, customer_name, customer_address, customer_phone, customer_email,
	subtotal, tax_rate, tax, total, payment_method, staff_id, created_at`

// SaleRepo implementación de SaleRepository (ventas + sale_items).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la venta y sus líneas. Debe llamarse dentro de una transacción.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	var cID, cName, cAddr, cPhone, cEmail *string
	if c := sale.Customer; c != nil {
		cID, cName, cAddr, cPhone, cEmail = nullIfEmpty(c.CustomerID), &c.Name, &c.Address, &c.Phone, &c.Email
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		sale.ID, cID, cName, cAddr, cPhone, cEmail,
		sale.Subtotal, sale.TaxRate, sale.Tax, sale.Total, sale.PaymentMethod, sale.StaffID, sale.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	for i, it := range sale.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_items (sale_id, line_no, product_id, product_name, quantity, unit_price, line_total, returned_quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			sale.ID, i+1, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.LineTotal, it.ReturnedQuantity,
		)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}
	return nil
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var (
		s                                 entity.Sale
		cID, cName, cAddr, cPhone, cEmail *string
	)
	err := row.Scan(&s.ID, &cID, &cName, &cAddr, &cPhone, &cEmail,
		&s.Subtotal, &s.TaxRate, &s.Tax, &s.Total, &s.PaymentMethod, &s.StaffID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if cName != nil {
		s.Customer = &entity.CustomerSnapshot{
			CustomerID: deref(cID),
			Name:       *cName,
			Address:    deref(cAddr),
			Phone:      deref(cPhone),
			Email:      deref(cEmail),
		}
	}
	return &s, nil
}

func (r *SaleRepo) getOne(ctx context.Context, query, op, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	items, err := r.listItems(ctx, `WHERE sale_id = $1`, id)
	if err != nil {
		return nil, err
	}
	s.Items = items[id]
	return s, nil
}

// GetByID obtiene una venta con sus líneas.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, "get sale", id)
}

// GetForUpdate bloquea la venta (serializa devoluciones concurrentes sobre la misma venta).
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, "lock sale", id)
}

// UpdateReturned persiste ReturnedQuantity por línea. El WHERE impide retrocesos y excesos.
func (r *SaleRepo) UpdateReturned(ctx context.Context, sale *entity.Sale) error {
	for i, it := range sale.Items {
		cmd, err := r.q.Exec(ctx, `
			UPDATE sale_items SET returned_quantity = $3
			WHERE sale_id = $1 AND line_no = $2 AND product_id = $4
				AND returned_quantity <= $3 AND $3 <= quantity`,
			sale.ID, i+1, it.ReturnedQuantity, it.ProductID,
		)
		if err != nil {
			return fmt.Errorf("update returned quantity: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("%w: devolución inconsistente en venta %s línea %d", domain.ErrInvariantViolation, sale.ID, i+1)
		}
	}
	return nil
}

// List lista ventas en [from, to], más recientes primero.
func (r *SaleRepo) List(ctx context.Context, from, to *time.Time) ([]*entity.Sale, error) {
	where := ` WHERE 1=1`
	var args []any
	if from != nil {
		args = append(args, *from)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	rows, err := r.q.Query(ctx, `SELECT `+saleColumns+` FROM sales`+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Sale, error) {
		return scanSale(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan sale: %w", err)
	}

	items, err := r.listItems(ctx, `WHERE sale_id IN (SELECT id FROM sales`+where+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		s.Items = items[s.ID]
	}
	return list, nil
}

// listItems devuelve las líneas agrupadas por venta, en orden de línea.
func (r *SaleRepo) listItems(ctx context.Context, where string, args ...any) (map[string][]entity.SaleItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT sale_id, product_id, product_name, quantity, unit_price, line_total, returned_quantity
		FROM sale_items `+where+` ORDER BY sale_id, line_no`, args...)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.SaleItem)
	for rows.Next() {
		var (
			saleID string
			it     entity.SaleItem
		)
		if err := rows.Scan(&saleID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.LineTotal, &it.ReturnedQuantity); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		out[saleID] = append(out[saleID], it)
	}
	return out, rows.Err()
}
