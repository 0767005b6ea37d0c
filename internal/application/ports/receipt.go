package ports

import (
	"context"

	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
)

// ReceiptGenerator genera el comprobante imprimible (PDF) de una venta.
type ReceiptGenerator interface {
	GenerateReceipt(ctx context.Context, sale *entity.Sale) ([]byte, error)
}
