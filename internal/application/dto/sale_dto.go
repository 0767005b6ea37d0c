package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest línea de venta. UnitPrice nil = precio de venta del catálogo.
type SaleLineRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CustomerSnapshotDTO datos del cliente copiados en la venta.
type CustomerSnapshotDTO struct {
	CustomerID string `json:"customer_id,omitempty"`
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// CreateSaleRequest body para POST /api/sales.
// Si CustomerID viene se copia el cliente registrado; si no, Customer (opcional).
type CreateSaleRequest struct {
	Items         []SaleLineRequest    `json:"items"`
	CustomerID    string               `json:"customer_id,omitempty"`
	Customer      *CustomerSnapshotDTO `json:"customer,omitempty"`
	PaymentMethod string               `json:"payment_method"`
}

// ReturnLineRequest cantidad a devolver de un producto.
type ReturnLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ReturnRequest body para POST /api/sales/:id/returns.
type ReturnRequest struct {
	Items []ReturnLineRequest `json:"items"`
}

// SaleItemResponse línea de venta con su estado de devolución.
type SaleItemResponse struct {
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	LineTotal        decimal.Decimal `json:"line_total"`
	ReturnedQuantity int             `json:"returned_quantity"`
	ReturnStatus     string          `json:"return_status"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID            string               `json:"id"`
	Customer      *CustomerSnapshotDTO `json:"customer,omitempty"`
	Items         []SaleItemResponse   `json:"items"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	TaxRate       decimal.Decimal      `json:"tax_rate"`
	Tax           decimal.Decimal      `json:"tax"`
	Total         decimal.Decimal      `json:"total"`
	ReturnedValue decimal.Decimal      `json:"returned_value"`
	PaymentMethod string               `json:"payment_method"`
	StaffID       string               `json:"staff_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// SaleListResponse lista paginada de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Sort  string         `json:"sort"`
	Page  PageResponse   `json:"page"`
}

// SaleQuery filtros del listado de ventas.
type SaleQuery struct {
	Text     string     `query:"q"`
	From     *time.Time `query:"-"`
	To       *time.Time `query:"-"`
	Sort     string     `query:"sort"`
	Select   string     `query:"select"`
	Additive bool       `query:"additive"`
	PageRequest
}
