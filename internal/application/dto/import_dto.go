package dto

import "github.com/shopspring/decimal"

// ImportLineDTO candidato extraído del documento y su emparejamiento con el catálogo.
type ImportLineDTO struct {
	Name        string          `json:"name"`
	Identifier  string          `json:"identifier,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Status      string          `json:"status"` // MATCHED | UNMATCHED
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	MatchedBy   string          `json:"matched_by,omitempty"`
}

// ImportPreviewResponse resultado de leer un documento de proveedor.
type ImportPreviewResponse struct {
	Lines    []ImportLineDTO `json:"lines"`
	Matched  int             `json:"matched"`
	Rejected []string        `json:"rejected,omitempty"`
}

// ImportApplyLine línea confirmada por el usuario para reabastecer.
type ImportApplyLine struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// ImportApplyRequest body para POST /api/import/apply.
type ImportApplyRequest struct {
	Lines  []ImportApplyLine `json:"lines"`
	Reason string            `json:"reason,omitempty"`
}

// ImportApplyResponse productos reabastecidos.
type ImportApplyResponse struct {
	Products []ProductResponse `json:"products"`
}
