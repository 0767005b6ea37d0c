package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RestockRequest body para POST /api/inventory/restock.
// UnitCost opcional: si viene, el costo pasa a promedio ponderado.
type RestockRequest struct {
	ProductID string           `json:"product_id"`
	Amount    int              `json:"amount"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}

// AdjustRequest body para POST /api/inventory/adjust. Amount con signo.
type AdjustRequest struct {
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
	Reason    string `json:"reason"`
}

// MovementResponse entrada del kardex.
type MovementResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Seq         int       `json:"seq"`
	Kind        string    `json:"kind"`
	Amount      int       `json:"amount"`
	Balance     int       `json:"balance"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MovementListResponse kardex, más reciente primero.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LedgerVerifyResponse resultado de reproducir el kardex de un producto.
type LedgerVerifyResponse struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	Entries   int    `json:"entries"`
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
}
