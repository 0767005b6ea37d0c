package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. InitialStock genera el movimiento INITIAL.
type CreateProductRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Cost         decimal.Decimal `json:"cost"`
	MarginPct    decimal.Decimal `json:"margin_pct"`
	InitialStock int             `json:"initial_stock" validate:"min=0"`
	MinStock     int             `json:"min_stock" validate:"min=0"`
}

// UpdateProductRequest entrada para actualizar un producto (sin Stock: se maneja vía movimientos).
type UpdateProductRequest struct {
	SKU         *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Cost        *decimal.Decimal `json:"cost"`
	MarginPct   *decimal.Decimal `json:"margin_pct"`
	MinStock    *int             `json:"min_stock"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Cost          decimal.Decimal `json:"cost"`
	MarginPct     decimal.Decimal `json:"margin_pct"`
	SellPrice     decimal.Decimal `json:"sell_price"`
	Stock         int             `json:"stock"`
	MinStock      int             `json:"min_stock"`
	LowStock      bool            `json:"low_stock"`
	LastRestocked *time.Time      `json:"last_restocked,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Sort  string            `json:"sort"`
	Page  PageResponse      `json:"page"`
}

// ProductQuery filtros y orden del listado de productos.
type ProductQuery struct {
	Text     string `query:"q"`
	Category string `query:"category"`
	LowStock bool   `query:"low_stock"`
	Sort     string `query:"sort"`     // "name:asc,stock:desc"
	Select   string `query:"select"`   // campo seleccionado sobre el orden actual
	Additive bool   `query:"additive"` // agrega Select como clave secundaria
	PageRequest
}
