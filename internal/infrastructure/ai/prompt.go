package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/retail-ledger-api/internal/domain/extraction"
)

// extractionPrompt instrucciones comunes a todos los proveedores.
const extractionPrompt = `Eres un asistente que lee facturas y remisiones de proveedores de una tienda.
Devuelve ÚNICAMENTE un objeto JSON válido (sin markdown, sin texto adicional) con esta estructura exacta:
{
  "items": [
    {
      "name": "<nombre del producto tal como aparece>",
      "identifier": "<código o SKU del producto si aparece, si no null>",
      "quantity": <unidades recibidas, número entero>,
      "unitPrice": <costo unitario sin impuestos, número, o null si no aparece>
    }
  ]
}

Reglas:
- Una entrada por línea de producto; ignora fletes, descuentos globales y subtotales.
- No inventes códigos: si no hay código visible usa null.
- Si el documento no tiene líneas de producto devuelve {"items": []}.`

// extractionPayload JSON que esperamos recibir del modelo.
type extractionPayload struct {
	Items []extraction.RawCandidate `json:"items"`
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque el modelo lo envuelva en markdown.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON extrae el primer objeto JSON de un texto libre.
//  1. Eliminar bloques de código markdown (```json … ``` o ``` … ```).
//  2. Usar regex para capturar el primer bloque { … }.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}

// parseItems convierte el texto del modelo en candidatos crudos.
func parseItems(provider, rawText string) ([]extraction.RawCandidate, error) {
	clean := extractJSON(rawText)
	if clean == "" {
		return nil, fmt.Errorf("AI: %s no devolvió JSON (respuesta: %s)", provider, truncate(rawText, 200))
	}
	var payload extractionPayload
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de %s: %w (JSON extraído: %s)", provider, err, truncate(clean, 200))
	}
	return payload.Items, nil
}

// supportedMediaType tipos que aceptan ambos proveedores.
func supportedMediaType(mediaType string) bool {
	switch mediaType {
	case "application/pdf", "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
