package viewmodel

import (
	"strconv"

	"github.com/kalambet/portal/internal/record"
)

func dateOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func percent(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// TaskTable builds the task descriptors. parentName resolves a parent id to
// the parent task's name; the Parent column shows the placeholder when it
// reports false.
func TaskTable(dates DateFormat, parentName func(id string) (string, bool)) *Table[record.Task] {
	if parentName == nil {
		parentName = func(string) (string, bool) { return "", false }
	}
	date := func(key, header string, get func(record.Task) *string) Column[record.Task] {
		return Column[record.Task]{
			Key: key, Header: header, Sortable: true,
			Accessor:  func(t record.Task) string { return dateOf(get(t)) },
			Formatter: dates.Format,
		}
	}
	return &Table[record.Task]{
		ID: func(t record.Task) string { return t.ID },
		Columns: []Column[record.Task]{
			{Key: "name", Header: "Name", Sortable: true, Accessor: func(t record.Task) string { return t.Name }},
			{Key: "projectName", Header: "Project", Sortable: true, Accessor: func(t record.Task) string { return t.ProjectName }},
			{Key: "assignedTo", Header: "Assignee", Sortable: true, Accessor: func(t record.Task) string { return t.AssignedTo }},
			{Key: "assignedBy", Header: "Assigned By", Sortable: true, Accessor: func(t record.Task) string { return t.AssignedBy }},
			{Key: "priority", Header: "Priority", Sortable: true, Accessor: func(t record.Task) string { return string(t.Priority) }},
			{Key: "percentComplete", Header: "% Comp.", Sortable: true, Accessor: func(t record.Task) string { return percent(t.PercentComplete) }},
			{Key: "lagType", Header: "Lag Type", Sortable: true, Accessor: func(t record.Task) string { return string(t.LagType) }},
			{Key: "lagDays", Header: "Lag", Sortable: true, Accessor: func(t record.Task) string { return t.LagDays }},
			{Key: "topDownDuration", Header: "Est. Dur", Sortable: true, Accessor: func(t record.Task) string { return t.TopDownDuration }},
			{Key: "parent", Header: "Parent", Accessor: func(t record.Task) string {
				if t.Parent == "" {
					return ""
				}
				name, _ := parentName(t.Parent)
				return name
			}},
			date("estimatedStart", "Est. Start", func(t record.Task) *string { return t.EstimatedStart }),
			date("estimatedEnd", "Est. End", func(t record.Task) *string { return t.EstimatedEnd }),
			date("revisedStart", "Rev. Start", func(t record.Task) *string { return t.RevisedStart }),
			date("revisedEnd", "Rev. End", func(t record.Task) *string { return t.RevisedEnd }),
			date("actualStart", "Act. Start", func(t record.Task) *string { return t.ActualStart }),
			date("actualEnd", "Act. End", func(t record.Task) *string { return t.ActualEnd }),
		},
		Card: func(t record.Task) Card {
			title := t.Name
			if title == "" {
				title = "(Untitled)"
			}
			return Card{
				ID:       t.ID,
				Title:    title,
				Subtitle: orPlaceholder(t.ProjectName),
				Fields: []Field{
					field("Lag (days)", t.LagDays),
					field("Top-down dur", t.TopDownDuration),
					field("% Complete", percent(t.PercentComplete)),
					field("Priority", string(t.Priority)),
				},
			}
		},
	}
}

// ParentNames indexes tasks by id for TaskTable.
func ParentNames(tasks []record.Task) func(id string) (string, bool) {
	names := make(map[string]string, len(tasks))
	for _, t := range tasks {
		names[t.ID] = t.Name
	}
	return func(id string) (string, bool) {
		n, ok := names[id]
		return n, ok
	}
}

// MeetingTable builds the meeting descriptors.
func MeetingTable(dates DateFormat) *Table[record.Meeting] {
	return &Table[record.Meeting]{
		ID: func(m record.Meeting) string { return m.ID },
		Columns: []Column[record.Meeting]{
			{Key: "subject", Header: "Subject", Sortable: true, Accessor: func(m record.Meeting) string { return m.Subject }},
			{Key: "engagement", Header: "Engagement", Sortable: true, Accessor: func(m record.Meeting) string { return m.Engagement }},
			{Key: "type", Header: "Type", Sortable: true, Accessor: func(m record.Meeting) string { return string(m.Type) }},
			{Key: "engagementType", Header: "Eng. Type", Sortable: true, Accessor: func(m record.Meeting) string { return string(m.EngagementType) }},
			{Key: "assignedTo", Header: "Assignee", Sortable: true, Accessor: func(m record.Meeting) string { return m.AssignedTo }},
			{Key: "customerDepartment", Header: "Cust/Dept", Sortable: true, Accessor: func(m record.Meeting) string { return m.CustomerDepartment }},
			{Key: "relationship", Header: "Relationship", Sortable: true, Accessor: func(m record.Meeting) string { return string(m.Relationship) }},
			{Key: "status", Header: "Status", Sortable: true, Accessor: func(m record.Meeting) string { return string(m.Status) }},
			{Key: "startDate", Header: "Start Date", Sortable: true, Accessor: func(m record.Meeting) string { return dateOf(m.StartDate) }, Formatter: dates.Format},
			{Key: "endDate", Header: "End Date", Sortable: true, Accessor: func(m record.Meeting) string { return dateOf(m.EndDate) }, Formatter: dates.Format},
		},
		Card: func(m record.Meeting) Card {
			title := m.Subject
			if title == "" {
				title = "(Untitled)"
			}
			subtitle := orPlaceholder(m.Engagement)
			if m.Relationship != "" {
				subtitle += " (" + string(m.Relationship) + ")"
			}
			start := Placeholder
			if m.StartDate != nil && *m.StartDate != "" {
				start = dates.Format(*m.StartDate)
			}
			return Card{
				ID:       m.ID,
				Title:    title,
				Subtitle: subtitle,
				Fields: []Field{
					field("Type", string(m.Type)),
					{Label: "Start Date", Value: start},
					field("Assignee", m.AssignedTo),
					field("Status", string(m.Status)),
				},
			}
		},
	}
}
