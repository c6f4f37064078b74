package query

import (
	"strconv"

	"github.com/kalambet/portal/internal/record"
)

// Match selects how a filter criterion is compared with a field value.
type Match int

const (
	// MatchContains is case-insensitive substring containment.
	MatchContains Match = iota
	// MatchExact is equality, used for enumerated fields.
	MatchExact
)

// Field describes one named attribute of E that can be searched, filtered,
// sorted or offered as a distinct option list.
type Field[E any] struct {
	Name    string
	Value   func(E) string
	Match   Match
	Numeric bool
}

// Catalog is the per-kind field table the pipeline runs against.
type Catalog[E any] struct {
	Kind        record.Kind
	Search      []string
	DefaultSort SortSpec
	fields      []Field[E]
	byName      map[string]int
}

func newCatalog[E any](kind record.Kind, search []string, def SortSpec, fields []Field[E]) *Catalog[E] {
	c := &Catalog[E]{
		Kind:        kind,
		Search:      search,
		DefaultSort: def,
		fields:      fields,
		byName:      make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		c.byName[f.Name] = i
	}
	return c
}

// Field looks up a field by its JSON name.
func (c *Catalog[E]) Field(name string) (Field[E], bool) {
	i, ok := c.byName[name]
	if !ok {
		return Field[E]{}, false
	}
	return c.fields[i], true
}

// Fields returns the catalog in declaration order.
func (c *Catalog[E]) Fields() []Field[E] {
	out := make([]Field[E], len(c.fields))
	copy(out, c.fields)
	return out
}

func str[S ~string](s S) string { return string(s) }

func date(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TaskCatalog returns the field table for tasks.
func TaskCatalog() *Catalog[record.Task] {
	return newCatalog(record.KindTask,
		[]string{"name", "projectName", "assignedTo"},
		SortSpec{Key: "name", Direction: Asc},
		[]Field[record.Task]{
			{Name: "id", Value: func(t record.Task) string { return t.ID }, Numeric: true},
			{Name: "name", Value: func(t record.Task) string { return t.Name }},
			{Name: "projectName", Value: func(t record.Task) string { return t.ProjectName }},
			{Name: "parent", Value: func(t record.Task) string { return t.Parent }},
			{Name: "lagType", Value: func(t record.Task) string { return str(t.LagType) }, Match: MatchExact},
			{Name: "lagDays", Value: func(t record.Task) string { return t.LagDays }, Numeric: true},
			{Name: "topDownDuration", Value: func(t record.Task) string { return t.TopDownDuration }, Numeric: true},
			{Name: "assignedTo", Value: func(t record.Task) string { return t.AssignedTo }},
			{Name: "assignedBy", Value: func(t record.Task) string { return t.AssignedBy }},
			{Name: "priority", Value: func(t record.Task) string { return str(t.Priority) }, Match: MatchExact},
			{Name: "percentComplete", Value: func(t record.Task) string {
				return strconv.FormatFloat(t.PercentComplete, 'f', -1, 64)
			}, Numeric: true},
			{Name: "estimatedStart", Value: func(t record.Task) string { return date(t.EstimatedStart) }},
			{Name: "estimatedEnd", Value: func(t record.Task) string { return date(t.EstimatedEnd) }},
			{Name: "revisedStart", Value: func(t record.Task) string { return date(t.RevisedStart) }},
			{Name: "revisedEnd", Value: func(t record.Task) string { return date(t.RevisedEnd) }},
			{Name: "actualStart", Value: func(t record.Task) string { return date(t.ActualStart) }},
			{Name: "actualEnd", Value: func(t record.Task) string { return date(t.ActualEnd) }},
		})
}

// MeetingCatalog returns the field table for meetings.
func MeetingCatalog() *Catalog[record.Meeting] {
	return newCatalog(record.KindMeeting,
		[]string{"subject", "engagement", "assignedTo"},
		SortSpec{Key: "subject", Direction: Asc},
		[]Field[record.Meeting]{
			{Name: "id", Value: func(m record.Meeting) string { return m.ID }, Numeric: true},
			{Name: "subject", Value: func(m record.Meeting) string { return m.Subject }},
			{Name: "type", Value: func(m record.Meeting) string { return str(m.Type) }, Match: MatchExact},
			{Name: "engagementType", Value: func(m record.Meeting) string { return str(m.EngagementType) }, Match: MatchExact},
			{Name: "engagement", Value: func(m record.Meeting) string { return m.Engagement }},
			{Name: "relationship", Value: func(m record.Meeting) string { return str(m.Relationship) }, Match: MatchExact},
			{Name: "customerDepartment", Value: func(m record.Meeting) string { return m.CustomerDepartment }},
			{Name: "assignedTo", Value: func(m record.Meeting) string { return m.AssignedTo }},
			{Name: "status", Value: func(m record.Meeting) string { return str(m.Status) }, Match: MatchExact},
			{Name: "startDate", Value: func(m record.Meeting) string { return date(m.StartDate) }},
			{Name: "endDate", Value: func(m record.Meeting) string { return date(m.EndDate) }},
		})
}
