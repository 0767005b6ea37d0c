// Package extraction valida los candidatos que devuelve el servicio externo de lectura de
// documentos y los empareja con el catálogo.
package extraction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/query"
)

// RawCandidate forma sin tipar que entrega el extractor (todos los campos opcionales).
type RawCandidate struct {
	Name       *string  `json:"name"`
	Identifier *string  `json:"identifier"`
	Quantity   *float64 `json:"quantity"`
	UnitPrice  *float64 `json:"unitPrice"`
}

// Candidate línea validada: nombre o identificador presente, cantidad entera > 0, precio >= 0.
type Candidate struct {
	Name       string
	Identifier string
	Quantity   int
	UnitPrice  decimal.Decimal
}

// MatchKind etiqueta del resultado del emparejamiento.
type MatchKind string

const (
	Matched   MatchKind = "MATCHED"
	Unmatched MatchKind = "UNMATCHED"
)

// MatchResult variante etiquetada: ProductID solo tiene valor cuando Kind = Matched.
type MatchResult struct {
	Candidate Candidate
	Kind      MatchKind
	ProductID string
	MatchedBy string // "sku" | "name"
}

// Validate convierte candidatos crudos en validados. Devuelve los válidos y un error por
// cada candidato rechazado (índice incluido).
func Validate(raw []RawCandidate) ([]Candidate, []error) {
	var (
		out  []Candidate
		errs []error
	)
	for i, r := range raw {
		c, err := validateOne(r)
		if err != nil {
			errs = append(errs, fmt.Errorf("candidato %d: %w", i, err))
			continue
		}
		out = append(out, c)
	}
	return out, errs
}

func validateOne(r RawCandidate) (Candidate, error) {
	var c Candidate
	if r.Name != nil {
		c.Name = strings.TrimSpace(*r.Name)
	}
	if r.Identifier != nil {
		c.Identifier = strings.TrimSpace(*r.Identifier)
	}
	if c.Name == "" && c.Identifier == "" {
		return c, errors.Join(domain.ErrInvalidInput, errors.New("nombre o identificador requerido"))
	}
	if r.Quantity == nil || *r.Quantity <= 0 || *r.Quantity != float64(int(*r.Quantity)) {
		return c, domain.ErrInvalidQuantity
	}
	c.Quantity = int(*r.Quantity)
	if r.UnitPrice != nil {
		if *r.UnitPrice < 0 {
			return c, errors.Join(domain.ErrInvalidInput, errors.New("precio unitario negativo"))
		}
		c.UnitPrice = decimal.NewFromFloat(*r.UnitPrice)
	}
	return c, nil
}

// Match empareja cada candidato con el catálogo: primero SKU exacto, luego nombre
// sin distinguir mayúsculas y sin espacios extremos.
func Match(candidates []Candidate, catalog []*entity.Product) []MatchResult {
	bySKU := make(map[string]string, len(catalog))
	byName := make(map[string]string, len(catalog))
	for _, p := range catalog {
		bySKU[p.SKU] = p.ID
		key := query.Fold(strings.TrimSpace(p.Name))
		if _, dup := byName[key]; !dup {
			byName[key] = p.ID
		}
	}
	out := make([]MatchResult, 0, len(candidates))
	for _, c := range candidates {
		res := MatchResult{Candidate: c, Kind: Unmatched}
		if id, ok := bySKU[c.Identifier]; ok && c.Identifier != "" {
			res.Kind, res.ProductID, res.MatchedBy = Matched, id, "sku"
		} else if id, ok := byName[query.Fold(strings.TrimSpace(c.Name))]; ok && c.Name != "" {
			res.Kind, res.ProductID, res.MatchedBy = Matched, id, "name"
		}
		out = append(out, res)
	}
	return out
}
