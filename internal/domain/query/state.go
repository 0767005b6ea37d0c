package query

import "slices"

// SortState claves de orden activas de un listado. Cada selección de una clave
// cicla su dirección: asc → desc → eliminada.
type SortState struct {
	keys []SortKey
}

// NewSortState construye el estado a partir de claves existentes.
func NewSortState(keys ...SortKey) *SortState {
	return &SortState{keys: slices.Clone(keys)}
}

// Keys devuelve una copia de las claves activas en orden de prioridad.
func (s *SortState) Keys() []SortKey {
	return slices.Clone(s.keys)
}

// Select aplica la selección de un campo.
// Sin additive la lista queda solo con ese campo; con additive se agrega como clave
// secundaria (o cicla la existente en su posición).
func (s *SortState) Select(field string, additive bool) {
	idx := slices.IndexFunc(s.keys, func(k SortKey) bool { return k.Field == field })

	next := SortKey{Field: field, Direction: Asc}
	removed := false
	if idx >= 0 {
		switch s.keys[idx].Direction {
		case Asc:
			next.Direction = Desc
		default:
			removed = true
		}
	}

	if !additive {
		// Si había más claves, seleccionar sin modificador reinicia en asc.
		if len(s.keys) > 1 {
			s.keys = []SortKey{{Field: field, Direction: Asc}}
			return
		}
		if removed {
			s.keys = nil
			return
		}
		s.keys = []SortKey{next}
		return
	}

	switch {
	case idx < 0:
		s.keys = append(s.keys, next)
	case removed:
		s.keys = slices.Delete(s.keys, idx, idx+1)
	default:
		s.keys[idx] = next
	}
}
