package usecase

import (
	"errors"
	"strings"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	dq "github.com/jhoicas/retail-ledger-api/internal/domain/query"
)

// resolveSort parte del orden actual (raw) y aplica la selección de un campo, si la hay.
// Seleccionar el mismo campo cicla asc → desc → sin orden.
func resolveSort(raw, selected string, additive bool) ([]dq.SortKey, error) {
	keys, err := dq.ParseSortKeys(raw)
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidInput, err)
	}
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return keys, nil
	}
	state := dq.NewSortState(keys...)
	state.Select(selected, additive)
	return state.Keys(), nil
}

func formatSort(keys []dq.SortKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ",")
}
