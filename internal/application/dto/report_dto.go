package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockItemDTO producto en o por debajo de su stock mínimo con la reposición sugerida.
type LowStockItemDTO struct {
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	Category           string          `json:"category"`
	CurrentStock       int             `json:"current_stock"`
	MinStock           int             `json:"min_stock"`
	IdealStock         int             `json:"ideal_stock"`         // MinStock * 1.5 redondeado hacia arriba
	SuggestedOrderQty  int             `json:"suggested_order_qty"` // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	UnitsSold          int             `json:"units_sold"`           // unidades netas vendidas en la ventana
	Priority           int             `json:"priority"`             // 1 = más urgente
}

// CategoryValuationDTO valorización agregada por categoría.
type CategoryValuationDTO struct {
	Category    string          `json:"category"`
	Products    int             `json:"products"`
	Units       int             `json:"units"`
	CostValue   decimal.Decimal `json:"cost_value"`
	RetailValue decimal.Decimal `json:"retail_value"`
}

// ValuationDTO valorización del inventario a costo y a precio de venta.
type ValuationDTO struct {
	Products    int                    `json:"products"`
	Units       int                    `json:"units"`
	CostValue   decimal.Decimal        `json:"cost_value"`
	RetailValue decimal.Decimal        `json:"retail_value"`
	ByCategory  []CategoryValuationDTO `json:"by_category"`
}

// SalesSummaryDTO resumen de ventas de un periodo.
type SalesSummaryDTO struct {
	From          *time.Time                 `json:"from,omitempty"`
	To            *time.Time                 `json:"to,omitempty"`
	SalesCount    int                        `json:"sales_count"`
	UnitsSold     int                        `json:"units_sold"`
	UnitsReturned int                        `json:"units_returned"`
	Subtotal      decimal.Decimal            `json:"subtotal"`
	Tax           decimal.Decimal            `json:"tax"`
	Total         decimal.Decimal            `json:"total"`
	ReturnedValue decimal.Decimal            `json:"returned_value"`
	NetSubtotal   decimal.Decimal            `json:"net_subtotal"`
	ByPayment     map[string]decimal.Decimal `json:"by_payment"`
}
