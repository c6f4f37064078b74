// Package viewmodel turns entities into the row and card descriptors list
// views render. It holds no state.
package viewmodel

import "strings"

// Placeholder is rendered for missing or empty values.
const Placeholder = "-"

// Column describes one table column. Accessor returns the raw value; an
// empty raw value renders as Placeholder and skips Formatter.
type Column[E any] struct {
	Key       string
	Header    string
	Sortable  bool
	Accessor  func(E) string
	Formatter func(string) string
}

func (c Column[E]) Cell(e E) string {
	raw := c.Accessor(e)
	if strings.TrimSpace(raw) == "" {
		return Placeholder
	}
	if c.Formatter != nil {
		return c.Formatter(raw)
	}
	return raw
}

type Cell struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Row struct {
	ID    string `json:"id"`
	Cells []Cell `json:"cells"`
}

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Card struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle"`
	Fields   []Field `json:"fields"`
}

// Header is a column heading annotated with the active sort.
type Header struct {
	Key       string `json:"key"`
	Title     string `json:"title"`
	Sortable  bool   `json:"sortable"`
	Active    bool   `json:"active,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// Table is the full descriptor set for one entity kind.
type Table[E any] struct {
	Columns []Column[E]
	ID      func(E) string
	Card    func(E) Card
}

func (t *Table[E]) Row(e E) Row {
	cells := make([]Cell, len(t.Columns))
	for i, c := range t.Columns {
		cells[i] = Cell{Key: c.Key, Value: c.Cell(e)}
	}
	return Row{ID: t.ID(e), Cells: cells}
}

func (t *Table[E]) Rows(items []E) []Row {
	out := make([]Row, len(items))
	for i, it := range items {
		out[i] = t.Row(it)
	}
	return out
}

func (t *Table[E]) Cards(items []E) []Card {
	out := make([]Card, len(items))
	for i, it := range items {
		out[i] = t.Card(it)
	}
	return out
}

// Headers lists the columns, marking sortKey as active with direction.
func (t *Table[E]) Headers(sortKey, direction string) []Header {
	out := make([]Header, len(t.Columns))
	for i, c := range t.Columns {
		h := Header{Key: c.Key, Title: c.Header, Sortable: c.Sortable}
		if c.Sortable && c.Key == sortKey {
			h.Active = true
			h.Direction = direction
		}
		out[i] = h
	}
	return out
}

// Column returns the column with key.
func (t *Table[E]) Column(key string) (Column[E], bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[E]{}, false
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func field(label, value string) Field {
	return Field{Label: label, Value: orPlaceholder(value)}
}
