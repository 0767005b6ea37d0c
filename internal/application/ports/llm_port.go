package ports

import (
	"context"

	"github.com/jhoicas/retail-ledger-api/internal/domain/extraction"
)

// DocumentExtractor define el puerto de salida hacia el servicio de IA que lee facturas de
// proveedor (imagen o PDF) y devuelve las líneas detectadas.
// Cualquier adaptador (Anthropic, Gemini, mock) debe implementar esta interfaz.
// El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
type DocumentExtractor interface {
	ExtractLineItems(ctx context.Context, mediaType string, document []byte) ([]extraction.RawCandidate, error)
}
