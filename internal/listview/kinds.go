package listview

import (
	"context"

	"github.com/kalambet/portal/internal/query"
	"github.com/kalambet/portal/internal/record"
	"github.com/kalambet/portal/internal/store"
	"github.com/kalambet/portal/internal/viewmodel"
)

// Tasks opens a task list view.
func Tasks(ctx context.Context, s *store.Store[record.Task], p query.Params, dates viewmodel.DateFormat, opts Options) (*View[record.Task], error) {
	table := func(all []record.Task) *viewmodel.Table[record.Task] {
		return viewmodel.TaskTable(dates, viewmodel.ParentNames(all))
	}
	return New[record.Task](ctx, s, query.TaskCatalog(), table, p, opts)
}

// Meetings opens a meeting list view.
func Meetings(ctx context.Context, s *store.Store[record.Meeting], p query.Params, dates viewmodel.DateFormat, opts Options) (*View[record.Meeting], error) {
	table := func([]record.Meeting) *viewmodel.Table[record.Meeting] {
		return viewmodel.MeetingTable(dates)
	}
	return New[record.Meeting](ctx, s, query.MeetingCatalog(), table, p, opts)
}
