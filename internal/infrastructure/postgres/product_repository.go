package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, sku, name, category, description, cost, margin_pct, stock, min_stock, last_restocked, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Description, &p.Cost, &p.MarginPct,
		&p.Stock, &p.MinStock, &p.LastRestocked, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste el producto y su movimiento INITIAL.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	if len(product.Movements) != 1 || product.Movements[0].Kind != entity.MovementInitial {
		return fmt.Errorf("%w: el producto debe crearse con su movimiento INITIAL", domain.ErrInvariantViolation)
	}
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.SKU, product.Name, product.Category, product.Description, product.Cost,
		product.MarginPct, product.Stock, product.MinStock, product.LastRestocked, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return insertMovement(ctx, r.q, product.Movements[0])
}

func (r *ProductRepo) getOne(ctx context.Context, query, op string, arg string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.Movements, err = listMovements(ctx, r.q, `WHERE product_id = $1`, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID obtiene un producto por ID con su kardex.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, "get product", id)
}

// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, "lock product", id)
}

// GetBySKU obtiene un producto por SKU exacto.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, "get product by sku", sku)
}

// Update actualiza un producto existente. No modifica Stock ni el kardex (se manejan vía movimientos).
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products SET sku = $2, name = $3, category = $4, description = $5, cost = $6,
			margin_pct = $7, min_stock = $8, updated_at = $9
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		product.ID, product.SKU, product.Name, product.Category, product.Description, product.Cost,
		product.MarginPct, product.MinStock, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApplyMovement persiste stock, costo y LastRestocked e inserta el movimiento.
// UNIQUE(product_id, seq) impide que dos escrituras compitan por la misma posición del kardex.
func (r *ProductRepo) ApplyMovement(ctx context.Context, product *entity.Product, movement entity.StockMovement) error {
	if movement.ProductID != product.ID || movement.Balance != product.Stock {
		return fmt.Errorf("%w: movimiento %s no corresponde al producto %s", domain.ErrInvariantViolation, movement.ID, product.ID)
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET stock = $2, cost = $3, last_restocked = $4, updated_at = $5
		WHERE id = $1 AND stock = $6`,
		product.ID, product.Stock, product.Cost, product.LastRestocked, movement.CreatedAt, movement.Balance-movement.Amount,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: stock negativo para %s", domain.ErrInvariantViolation, product.ID)
		}
		return fmt.Errorf("update product stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: el stock de %s cambió fuera de la transacción", domain.ErrInvariantViolation, product.ID)
	}
	return insertMovement(ctx, r.q, movement)
}

// List devuelve todos los productos con su kardex, en orden de creación.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}

	movs, err := listMovements(ctx, r.q, `WHERE product_id IN (SELECT id FROM products)`)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[string][]entity.StockMovement, len(list))
	for _, m := range movs {
		byProduct[m.ProductID] = append(byProduct[m.ProductID], m)
	}
	for _, p := range list {
		p.Movements = byProduct[p.ID]
	}
	return list, nil
}

// Delete elimina el producto. Sus movimientos quedan en stock_movements.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
