// Package query expone las vistas de solo lectura sobre productos, kardex y ventas:
// filtro por texto y orden multi-clave estable.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/ledger"
	dq "github.com/jhoicas/retail-ledger-api/internal/domain/query"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

// ProductFields campos ordenables de un producto.
var ProductFields = dq.Fields[*entity.Product]{
	"name":           func(p *entity.Product) any { return p.Name },
	"sku":            func(p *entity.Product) any { return p.SKU },
	"category":       func(p *entity.Product) any { return p.Category },
	"stock":          func(p *entity.Product) any { return p.Stock },
	"min_stock":      func(p *entity.Product) any { return p.MinStock },
	"cost":           func(p *entity.Product) any { return p.Cost },
	"margin_pct":     func(p *entity.Product) any { return p.MarginPct },
	"sell_price":     func(p *entity.Product) any { return p.SellPrice() },
	"last_restocked": func(p *entity.Product) any { return p.LastRestocked },
	"created_at":     func(p *entity.Product) any { return p.CreatedAt },
}

// SaleFields campos ordenables de una venta.
var SaleFields = dq.Fields[*entity.Sale]{
	"created_at":     func(s *entity.Sale) any { return s.CreatedAt },
	"subtotal":       func(s *entity.Sale) any { return s.Subtotal },
	"total":          func(s *entity.Sale) any { return s.Total },
	"payment_method": func(s *entity.Sale) any { return s.PaymentMethod },
	"items":          func(s *entity.Sale) any { return len(s.Items) },
	"customer": func(s *entity.Sale) any {
		if s.Customer == nil {
			return ""
		}
		return s.Customer.Name
	},
}

// ProductFilter criterios de QueryProducts. Text busca en nombre, SKU, categoría y descripción;
// Category compara sin distinguir mayúsculas.
type ProductFilter struct {
	Text     string
	Category string
	LowStock bool
	Sort     []dq.SortKey
}

// SaleFilter criterios de QuerySales. From/To nil = sin límite.
type SaleFilter struct {
	Text string
	From *time.Time
	To   *time.Time
	Sort []dq.SortKey
}

// MovementEntry par (nombre del producto, movimiento) del kardex global.
type MovementEntry struct {
	ProductName string
	Movement    entity.StockMovement
}

// UseCase consultas de listado. No muta ningún almacén.
type UseCase struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	sales     repository.SaleRepository
}

// NewUseCase construye el caso de uso de consultas.
func NewUseCase(
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	sales repository.SaleRepository,
) *UseCase {
	return &UseCase{products: products, movements: movements, sales: sales}
}

// QueryProducts filtra y ordena el catálogo.
func (uc *UseCase) QueryProducts(ctx context.Context, f ProductFilter) ([]*entity.Product, error) {
	if err := checkKeys(f.Sort, ProductFields); err != nil {
		return nil, err
	}
	list, err := uc.products.List(ctx)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(f.Text)
	category := dq.Fold(strings.TrimSpace(f.Category))
	filtered := dq.Filter(list, func(p *entity.Product) bool {
		if category != "" && dq.Fold(p.Category) != category {
			return false
		}
		if f.LowStock && !p.IsLowStock() {
			return false
		}
		return text == "" || dq.ContainsFold(p.Name, text) || dq.ContainsFold(p.SKU, text) ||
			dq.ContainsFold(p.Category, text) || dq.ContainsFold(p.Description, text)
	})
	return dq.Sort(filtered, f.Sort, ProductFields), nil
}

// QueryStockMovements devuelve el kardex de todos los productos (incluidos los eliminados),
// más reciente primero. filterText busca en el nombre del producto, el tipo y el motivo.
func (uc *UseCase) QueryStockMovements(ctx context.Context, filterText string) ([]MovementEntry, error) {
	movs, err := uc.movements.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	products, err := uc.products.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	ledger.SortNewestFirst(movs)

	text := strings.TrimSpace(filterText)
	out := make([]MovementEntry, 0, len(movs))
	for _, m := range movs {
		name, ok := names[m.ProductID]
		if !ok {
			name = m.ProductName
		}
		if text != "" && !dq.ContainsFold(name, text) && !dq.ContainsFold(string(m.Kind), text) &&
			!dq.ContainsFold(m.Reason, text) {
			continue
		}
		out = append(out, MovementEntry{ProductName: name, Movement: m})
	}
	return out, nil
}

// ProductMovements kardex de un producto vigente o eliminado, más reciente primero.
func (uc *UseCase) ProductMovements(ctx context.Context, productID string) ([]entity.StockMovement, error) {
	movs, err := uc.movements.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(movs) == 0 {
		return nil, fmt.Errorf("%w: kardex del producto %s", domain.ErrNotFound, productID)
	}
	return movs, nil
}

// QuerySales filtra ventas por rango y texto (ID, cliente, método de pago, productos) y las ordena.
// Sin claves de orden quedan de la más reciente a la más antigua.
func (uc *UseCase) QuerySales(ctx context.Context, f SaleFilter) ([]*entity.Sale, error) {
	if err := checkKeys(f.Sort, SaleFields); err != nil {
		return nil, err
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	list, err := uc.sales.List(ctx, f.From, f.To)
	if err != nil {
		return nil, err
	}
	list = dq.Sort(list, []dq.SortKey{{Field: "created_at", Direction: dq.Desc}}, SaleFields)
	text := strings.TrimSpace(f.Text)
	filtered := dq.Filter(list, func(s *entity.Sale) bool {
		return text == "" || saleMatches(s, text)
	})
	return dq.Sort(filtered, f.Sort, SaleFields), nil
}

func saleMatches(s *entity.Sale, text string) bool {
	if dq.ContainsFold(s.ID, text) || dq.ContainsFold(s.PaymentMethod, text) || dq.ContainsFold(s.StaffID, text) {
		return true
	}
	if s.Customer != nil && (dq.ContainsFold(s.Customer.Name, text) || dq.ContainsFold(s.Customer.Phone, text)) {
		return true
	}
	for _, it := range s.Items {
		if dq.ContainsFold(it.ProductName, text) {
			return true
		}
	}
	return false
}

// checkKeys rechaza claves de orden sobre campos desconocidos.
func checkKeys[T any](keys []dq.SortKey, fields dq.Fields[T]) error {
	for _, k := range keys {
		if _, ok := fields[k.Field]; !ok {
			return fmt.Errorf("%w: campo de orden desconocido %q", domain.ErrInvalidInput, k.Field)
		}
	}
	return nil
}
