// Package query implements the list pipeline: search, then filter, then a
// stable sort. Every function here is pure.
package query

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// ErrInvalidParams marks a search, filter or sort request naming a field or
// direction the kind does not have.
var ErrInvalidParams = errors.New("invalid list parameters")

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type SortSpec struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Toggle applies a header click: a new key sorts ascending, the active key
// flips direction.
func (s SortSpec) Toggle(key string) SortSpec {
	if key != s.Key {
		return SortSpec{Key: key, Direction: Asc}
	}
	if s.Direction == Desc {
		return SortSpec{Key: key, Direction: Asc}
	}
	return SortSpec{Key: key, Direction: Desc}
}

// Params is everything the presentation layer controls.
type Params struct {
	Search string            `json:"search"`
	Filter map[string]string `json:"filter,omitempty"`
	Sort   SortSpec          `json:"sort"`
}

// Validate rejects filter and sort keys the catalog does not know and
// directions other than asc or desc. Run itself ignores unknown keys.
func (c *Catalog[E]) Validate(p Params) error {
	for name := range p.Filter {
		if _, ok := c.Field(name); !ok {
			return fmt.Errorf("%w: unknown filter field %q for %s", ErrInvalidParams, name, c.Kind)
		}
	}
	if p.Sort.Key != "" {
		if _, ok := c.Field(p.Sort.Key); !ok {
			return fmt.Errorf("%w: unknown sort key %q for %s", ErrInvalidParams, p.Sort.Key, c.Kind)
		}
	}
	switch p.Sort.Direction {
	case "", Asc, Desc:
	default:
		return fmt.Errorf("%w: sort direction %q", ErrInvalidParams, p.Sort.Direction)
	}
	return nil
}

// Run applies search, filter and sort to items and returns a new slice.
// A nil input yields an empty result.
func Run[E any](c *Catalog[E], items []E, p Params) []E {
	fold := cases.Fold()
	norm := func(s string) string { return fold.String(s) }

	out := make([]E, 0, len(items))
	q := norm(strings.TrimSpace(p.Search))
	search := make([]Field[E], 0, len(c.Search))
	for _, name := range c.Search {
		if f, ok := c.Field(name); ok {
			search = append(search, f)
		}
	}

	type criterion struct {
		field Field[E]
		want  string
	}
	var criteria []criterion
	for name, want := range p.Filter {
		f, ok := c.Field(name)
		if !ok || strings.TrimSpace(want) == "" {
			continue
		}
		if f.Match == MatchContains {
			want = norm(strings.TrimSpace(want))
		}
		criteria = append(criteria, criterion{field: f, want: want})
	}

	for _, it := range items {
		if q != "" && !slices.ContainsFunc(search, func(f Field[E]) bool {
			return strings.Contains(norm(f.Value(it)), q)
		}) {
			continue
		}
		matched := true
		for _, cr := range criteria {
			v := cr.field.Value(it)
			if cr.field.Match == MatchExact {
				matched = v == cr.want
			} else {
				matched = strings.Contains(norm(v), cr.want)
			}
			if !matched {
				break
			}
		}
		if matched {
			out = append(out, it)
		}
	}

	key, ok := c.Field(p.Sort.Key)
	if !ok {
		return out
	}
	sign := 1
	if p.Sort.Direction == Desc {
		sign = -1
	}
	compare := func(a, b E) int { return strings.Compare(norm(key.Value(a)), norm(key.Value(b))) }
	if key.Numeric {
		compare = func(a, b E) int { return compareNumeric(key.Value(a), key.Value(b)) }
	}
	slices.SortStableFunc(out, func(a, b E) int { return sign * compare(a, b) })
	return out
}

// compareNumeric orders parsable values numerically and places unparsable
// ones after them, compared as strings.
func compareNumeric(a, b string) int {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(fa, fb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// Distinct returns the sorted set of non-empty values of field across items,
// for populating filter dropdowns.
func Distinct[E any](c *Catalog[E], items []E, field string) ([]string, error) {
	f, ok := c.Field(field)
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q for %s", ErrInvalidParams, field, c.Kind)
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, it := range items {
		v := f.Value(it)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if f.Numeric {
		slices.SortFunc(out, compareNumeric)
	} else {
		slices.Sort(out)
	}
	return out, nil
}
