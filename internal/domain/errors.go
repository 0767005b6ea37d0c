package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	// Motor de transacciones de inventario y ventas.
	ErrInvalidQuantity    = errors.New("cantidad inválida")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrSaleNotFound       = errors.New("venta no encontrada")
	ErrItemNotFound       = errors.New("ítem no encontrado en la venta")
	ErrExcessiveReturn    = errors.New("la devolución excede la cantidad retornable")
	ErrInvariantViolation = errors.New("violación de invariante del kardex")
)

// LineError asocia un error de dominio a la línea (producto) que lo provocó.
// errors.Is(err, ErrInsufficientStock) sigue funcionando gracias a Unwrap.
type LineError struct {
	Err       error
	ProductID string
	Requested int
	Available int
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%v: producto %s (solicitado %d, disponible %d)", e.Err, e.ProductID, e.Requested, e.Available)
}

func (e *LineError) Unwrap() error { return e.Err }

// NewLineError construye un LineError.
func NewLineError(err error, productID string, requested, available int) *LineError {
	return &LineError{Err: err, ProductID: productID, Requested: requested, Available: available}
}
