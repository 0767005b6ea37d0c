package dto

import "github.com/jhoicas/retail-ledger-api/internal/domain/entity"

// FromProduct construye la respuesta de un producto.
func FromProduct(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Category:      p.Category,
		Description:   p.Description,
		Cost:          p.Cost,
		MarginPct:     p.MarginPct,
		SellPrice:     p.SellPrice(),
		Stock:         p.Stock,
		MinStock:      p.MinStock,
		LowStock:      p.IsLowStock(),
		LastRestocked: p.LastRestocked,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// FromProducts mapea una lista de productos.
func FromProducts(list []*entity.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, FromProduct(p))
	}
	return out
}

// FromMovement construye la respuesta de un movimiento. productName reemplaza el snapshot si no es vacío.
func FromMovement(m entity.StockMovement, productName string) MovementResponse {
	if productName == "" {
		productName = m.ProductName
	}
	return MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		ProductName: productName,
		Seq:         m.Seq,
		Kind:        string(m.Kind),
		Amount:      m.Amount,
		Balance:     m.Balance,
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt,
	}
}

// FromSale construye la respuesta de una venta.
func FromSale(s *entity.Sale) SaleResponse {
	out := SaleResponse{
		ID:            s.ID,
		Items:         make([]SaleItemResponse, 0, len(s.Items)),
		Subtotal:      s.Subtotal,
		TaxRate:       s.TaxRate,
		Tax:           s.Tax,
		Total:         s.Total,
		ReturnedValue: s.ReturnedValue(),
		PaymentMethod: s.PaymentMethod,
		StaffID:       s.StaffID,
		CreatedAt:     s.CreatedAt,
	}
	if c := s.Customer; c != nil {
		out.Customer = &CustomerSnapshotDTO{
			CustomerID: c.CustomerID,
			Name:       c.Name,
			Address:    c.Address,
			Phone:      c.Phone,
			Email:      c.Email,
		}
	}
	for i := range s.Items {
		it := &s.Items[i]
		out.Items = append(out.Items, SaleItemResponse{
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			LineTotal:        it.LineTotal,
			ReturnedQuantity: it.ReturnedQuantity,
			ReturnStatus:     string(it.ReturnStatus()),
		})
	}
	return out
}

// FromCustomer construye la respuesta de un cliente.
func FromCustomer(c *entity.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Paginate recorta items según la página y devuelve los metadatos (Total = tamaño sin recortar).
func Paginate[T any](items []T, page PageRequest) ([]T, PageResponse) {
	page.DefaultPage()
	meta := PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(items)}
	if page.Offset >= len(items) {
		return []T{}, meta
	}
	end := min(page.Offset+page.Limit, len(items))
	return items[page.Offset:end], meta
}
