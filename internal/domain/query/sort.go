// Package query ordena y filtra colecciones sin efectos secundarios: siempre devuelve
// un slice nuevo y nunca modifica la entrada.
package query

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// Direction dirección de una clave de orden.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortKey campo + dirección.
type SortKey struct {
	Field     string
	Direction Direction
}

// String formato field:dir.
func (k SortKey) String() string { return k.Field + ":" + string(k.Direction) }

// Accessor extrae el valor comparable de un campo. Tipos soportados: string, int, int64,
// float64, decimal.Decimal, time.Time, *time.Time y bool.
type Accessor[T any] func(T) any

// Fields mapa nombre de campo → accessor.
type Fields[T any] map[string]Accessor[T]

// Sort devuelve una copia ordenada de items por las claves dadas (lexicográfico y estable).
// Con cero claves devuelve los elementos en el orden original. Las claves con campo
// desconocido se ignoran.
func Sort[T any](items []T, keys []SortKey, fields Fields[T]) []T {
	out := slices.Clone(items)
	if len(keys) == 0 || len(out) < 2 {
		return out
	}
	type activeKey struct {
		get  Accessor[T]
		desc bool
	}
	active := make([]activeKey, 0, len(keys))
	for _, k := range keys {
		if get, ok := fields[k.Field]; ok {
			active = append(active, activeKey{get: get, desc: k.Direction == Desc})
		}
	}
	slices.SortStableFunc(out, func(a, b T) int {
		for _, k := range active {
			c := Compare(k.get(a), k.get(b))
			if c == 0 {
				continue
			}
			if k.desc {
				return -c
			}
			return c
		}
		return 0
	})
	return out
}

// Filter devuelve un slice nuevo con los elementos que cumplen pred.
func Filter[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if pred == nil || pred(it) {
			out = append(out, it)
		}
	}
	return out
}

var folder = cases.Fold()

// Fold normaliza un texto para comparación sin distinguir mayúsculas (Unicode case folding).
func Fold(s string) string {
	return folder.String(s)
}

// ContainsFold indica si s contiene sub sin distinguir mayúsculas.
func ContainsFold(s, sub string) bool {
	return strings.Contains(Fold(s), Fold(sub))
}

// Compare compara dos valores del mismo tipo. Strings sin distinguir mayúsculas,
// números por valor. nil (p. ej. *time.Time vacío) va primero.
func Compare(a, b any) int {
	switch x := a.(type) {
	case string:
		return strings.Compare(Fold(x), Fold(b.(string)))
	case int:
		return cmpOrdered(x, b.(int))
	case int64:
		return cmpOrdered(x, b.(int64))
	case float64:
		return cmpOrdered(x, b.(float64))
	case decimal.Decimal:
		return x.Cmp(b.(decimal.Decimal))
	case time.Time:
		return x.Compare(b.(time.Time))
	case *time.Time:
		y := b.(*time.Time)
		switch {
		case x == nil && y == nil:
			return 0
		case x == nil:
			return -1
		case y == nil:
			return 1
		}
		return x.Compare(*y)
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	default:
		panic(fmt.Sprintf("query: tipo no comparable %T", a))
	}
}

func cmpOrdered[V int | int64 | float64](a, b V) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ParseSortKeys interpreta "name:asc,stock:desc". Dirección por defecto asc.
func ParseSortKeys(raw string) ([]SortKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var keys []SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		k := SortKey{Field: strings.TrimSpace(field), Direction: Asc}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			k.Direction = Desc
		default:
			return nil, fmt.Errorf("dirección de orden inválida %q", dir)
		}
		keys = append(keys, k)
	}
	return keys, nil
}
