// Package importer lee facturas de proveedor con el servicio externo de extracción,
// empareja sus líneas con el catálogo y reabastece las confirmadas.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/retail-ledger-api/internal/application/dto"
	"github.com/jhoicas/retail-ledger-api/internal/application/ports"
	"github.com/jhoicas/retail-ledger-api/internal/application/transaction"
	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/extraction"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

// ErrDisabled no hay servicio de extracción configurado.
var ErrDisabled = errors.New("importación de documentos deshabilitada")

// DefaultTimeout tiempo máximo de la llamada al extractor.
const DefaultTimeout = 10 * time.Second

// MaxDocumentSize tamaño máximo aceptado del documento (bytes).
const MaxDocumentSize = 10 << 20

// Restocker reabastecimiento atómico de varias líneas.
type Restocker interface {
	RestockBatch(ctx context.Context, lines []transaction.RestockInput) ([]*entity.Product, error)
}

// UseCase orquesta la importación. extractor nil deshabilita Preview.
type UseCase struct {
	extractor ports.DocumentExtractor
	products  repository.ProductRepository
	restocker Restocker
	timeout   time.Duration
}

// NewUseCase construye el caso de uso de importación.
func NewUseCase(extractor ports.DocumentExtractor, products repository.ProductRepository, restocker Restocker) *UseCase {
	return &UseCase{extractor: extractor, products: products, restocker: restocker, timeout: DefaultTimeout}
}

// WithTimeout cambia el timeout de extracción.
func (uc *UseCase) WithTimeout(d time.Duration) *UseCase {
	uc.timeout = d
	return uc
}

// Enabled indica si hay extractor configurado.
func (uc *UseCase) Enabled() bool { return uc.extractor != nil }

// Preview extrae las líneas del documento, descarta las inválidas y empareja el resto con el
// catálogo (SKU exacto o nombre). No modifica el inventario.
func (uc *UseCase) Preview(ctx context.Context, mediaType string, document []byte) (*dto.ImportPreviewResponse, error) {
	if uc.extractor == nil {
		return nil, ErrDisabled
	}
	if len(document) == 0 || len(document) > MaxDocumentSize {
		return nil, fmt.Errorf("%w: documento vacío o demasiado grande", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	raw, err := uc.extractor.ExtractLineItems(ctx, mediaType, document)
	if err != nil {
		return nil, fmt.Errorf("extracción de documento: %w", err)
	}
	candidates, rejected := extraction.Validate(raw)

	catalog, err := uc.products.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(catalog))
	for _, p := range catalog {
		names[p.ID] = p.Name
	}

	out := &dto.ImportPreviewResponse{Lines: make([]dto.ImportLineDTO, 0, len(candidates))}
	for _, m := range extraction.Match(candidates, catalog) {
		line := dto.ImportLineDTO{
			Name:       m.Candidate.Name,
			Identifier: m.Candidate.Identifier,
			Quantity:   m.Candidate.Quantity,
			UnitPrice:  m.Candidate.UnitPrice,
			Status:     string(m.Kind),
		}
		if m.Kind == extraction.Matched {
			line.ProductID = m.ProductID
			line.ProductName = names[m.ProductID]
			line.MatchedBy = m.MatchedBy
			out.Matched++
		}
		out.Lines = append(out.Lines, line)
	}
	for _, e := range rejected {
		out.Rejected = append(out.Rejected, e.Error())
	}
	return out, nil
}

// Apply reabastece todas las líneas confirmadas en una sola transacción.
func (uc *UseCase) Apply(ctx context.Context, req dto.ImportApplyRequest) (*dto.ImportApplyResponse, error) {
	if len(req.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	reason := req.Reason
	if reason == "" {
		reason = "importación de factura de proveedor"
	}
	lines := make([]transaction.RestockInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, transaction.RestockInput{
			ProductID: l.ProductID,
			Amount:    l.Quantity,
			UnitCost:  l.UnitCost,
			Reason:    reason,
		})
	}
	products, err := uc.restocker.RestockBatch(ctx, lines)
	if err != nil {
		return nil, err
	}
	return &dto.ImportApplyResponse{Products: dto.FromProducts(products)}, nil
}
