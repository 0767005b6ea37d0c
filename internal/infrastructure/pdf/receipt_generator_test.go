package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":          "$0,00",
		"31.5":       "$31,50",
		"1000":       "$1.000,00",
		"1234567.89": "$1.234.567,89",
		"-2500":      "-$2.500,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestReceiptGenerator_GeneraPDF(t *testing.T) {
	sale := &entity.Sale{
		ID:       "0f8c2a44-5d1e-4a7b-9a55-2b9f4c7e1d00",
		Customer: &entity.CustomerSnapshot{Name: "Ana Pérez", Phone: "3001234567"},
		Items: []entity.SaleItem{
			{ProductID: "p1", ProductName: "Arroz 1kg", Quantity: 3, UnitPrice: decimal.NewFromInt(10), LineTotal: decimal.NewFromInt(30), ReturnedQuantity: 1},
		},
		Subtotal:      decimal.NewFromInt(30),
		TaxRate:       decimal.RequireFromString("0.05"),
		Tax:           decimal.RequireFromString("1.5"),
		Total:         decimal.RequireFromString("31.5"),
		PaymentMethod: entity.PaymentCash,
		CreatedAt:     time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
	}

	out, err := NewReceiptGenerator("Tienda Central").GenerateReceipt(context.Background(), sale)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "la salida debe ser un PDF")
}
