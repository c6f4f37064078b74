// Package listview is the list presentation state for one kind: search,
// filter and sort parameters, the paged window over the pipeline result, and
// the row and card descriptors for what is shown. A view re-fetches its
// snapshot whenever the store publishes a change.
package listview

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/kalambet/portal/internal/events"
	"github.com/kalambet/portal/internal/metrics"
	"github.com/kalambet/portal/internal/paging"
	"github.com/kalambet/portal/internal/query"
	"github.com/kalambet/portal/internal/record"
	"github.com/kalambet/portal/internal/store"
	"github.com/kalambet/portal/internal/viewmodel"
)

// Source is the part of store.Store a view reads.
type Source[E any] interface {
	Kind() record.Kind
	All(ctx context.Context) (store.Snapshot[E], error)
	Subscribe(h events.Handler) (unsubscribe func())
}

// TableFunc builds the descriptors for a snapshot. Task tables need the whole
// snapshot to resolve parent names.
type TableFunc[E any] func(all []E) *viewmodel.Table[E]

type Options struct {
	PageSize  int
	PageDelay time.Duration
	PageWait  func(ctx context.Context) error
	// Debounce delays SetSearch; zero applies each term at once, negative
	// selects query.DefaultDebounce.
	Debounce  time.Duration
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Page is the rendered state of a view.
type Page struct {
	Kind     record.Kind        `json:"kind"`
	Params   query.Params       `json:"params"`
	Headers  []viewmodel.Header `json:"headers"`
	Rows     []viewmodel.Row    `json:"rows"`
	Cards    []viewmodel.Card   `json:"cards"`
	Total    int                `json:"total"`
	Shown    int                `json:"shown"`
	State    paging.State       `json:"state"`
	Loading  bool               `json:"loading"`
	HasMore  bool               `json:"has_more"`
	Revision uint64             `json:"revision"`
}

// Session is a View with its entity type erased, so views of different
// kinds can share a registry.
type Session interface {
	Kind() record.Kind
	Page() Page
	Apply(p query.Params) error
	SetSearch(term string)
	ToggleSort(key string) (Page, error)
	LoadMore(ctx context.Context) (Page, error)
	Refresh(ctx context.Context) error
	Close()
}

type View[E any] struct {
	src      Source[E]
	catalog  *query.Catalog[E]
	tableFn  TableFunc[E]
	pager    *paging.Controller[E]
	debounce *query.Debouncer
	metrics  *metrics.Metrics
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	unsub  func()

	mu       sync.Mutex
	params   query.Params
	snapshot store.Snapshot[E]
	table    *viewmodel.Table[E]
}

var _ Session = (*View[record.Task])(nil)

// New validates p, loads the first snapshot and subscribes to changes.
// An empty sort key selects the catalog's default sort.
func New[E any](ctx context.Context, src Source[E], catalog *query.Catalog[E], tableFn TableFunc[E], p query.Params, opts Options) (*View[E], error) {
	if p.Sort.Key == "" {
		p.Sort = catalog.DefaultSort
	}
	if err := catalog.Validate(p); err != nil {
		return nil, err
	}
	if opts.Debounce < 0 {
		opts.Debounce = query.DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	kind := string(src.Kind())
	v := &View[E]{
		src:      src,
		catalog:  catalog,
		tableFn:  tableFn,
		debounce: query.NewDebouncer(opts.Debounce),
		metrics:  opts.Metrics,
		logger:   opts.Logger.With("kind", kind),
		params:   p,
		table:    tableFn(nil),
		pager: paging.New[E](paging.Options{
			PageSize: opts.PageSize,
			Delay:    opts.PageDelay,
			Wait:     opts.PageWait,
			Observe:  func(outcome string) { opts.Metrics.PageLoad(kind, outcome) },
		}),
	}
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}

	v.ctx, v.cancel = context.WithCancel(context.WithoutCancel(ctx))
	v.unsub = src.Subscribe(func(record.Kind) {
		go func() {
			if err := v.Refresh(v.ctx); err != nil && v.ctx.Err() == nil {
				v.logger.Warn("list refresh failed", "error", err)
			}
		}()
	})
	return v, nil
}

func (v *View[E]) Kind() record.Kind { return v.src.Kind() }

// Refresh re-reads the snapshot. A snapshot older than the one already held
// is discarded.
func (v *View[E]) Refresh(ctx context.Context) error {
	snap, err := v.src.All(ctx)
	if err != nil {
		return fmt.Errorf("refreshing %s list: %w", v.src.Kind(), err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if snap.Revision < v.snapshot.Revision {
		v.logger.Debug("discarding stale snapshot", "revision", snap.Revision, "held", v.snapshot.Revision)
		return nil
	}
	v.snapshot = snap
	v.table = v.tableFn(snap.Items)
	v.recomputeLocked()
	return nil
}

// Apply replaces the search, filter and sort parameters and shows the first
// page of the new result.
func (v *View[E]) Apply(p query.Params) error {
	if p.Sort.Key == "" {
		p.Sort = v.catalog.DefaultSort
	}
	if err := v.catalog.Validate(p); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.params = p
	v.recomputeLocked()
	return nil
}

// SetSearch applies term once typing settles.
func (v *View[E]) SetSearch(term string) {
	v.debounce.Do(func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.params.Search = term
		v.recomputeLocked()
	})
}

// ToggleSort handles a header click on the column with key.
func (v *View[E]) ToggleSort(key string) (Page, error) {
	v.mu.Lock()
	col, ok := v.table.Column(key)
	if !ok || !col.Sortable {
		v.mu.Unlock()
		return Page{}, fmt.Errorf("%w: column %q is not sortable", query.ErrInvalidParams, key)
	}
	v.params.Sort = v.params.Sort.Toggle(key)
	v.recomputeLocked()
	v.mu.Unlock()
	return v.Page(), nil
}

func (v *View[E]) LoadMore(ctx context.Context) (Page, error) {
	_, err := v.pager.LoadMore(ctx)
	return v.Page(), err
}

func (v *View[E]) Page() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	w := v.pager.Window()
	return Page{
		Kind:     v.src.Kind(),
		Params:   query.Params{Search: v.params.Search, Filter: maps.Clone(v.params.Filter), Sort: v.params.Sort},
		Headers:  v.table.Headers(v.params.Sort.Key, string(v.params.Sort.Direction)),
		Rows:     v.table.Rows(w.Items),
		Cards:    v.table.Cards(w.Items),
		Total:    w.Total,
		Shown:    w.Shown,
		State:    w.State,
		Loading:  w.Loading,
		HasMore:  w.HasMore,
		Revision: v.snapshot.Revision,
	}
}

// Close stops change notifications and any pending debounced search.
func (v *View[E]) Close() {
	v.debounce.Stop()
	if v.unsub != nil {
		v.unsub()
	}
	if v.cancel != nil {
		v.cancel()
	}
}

func (v *View[E]) recomputeLocked() {
	start := time.Now()
	result := query.Run(v.catalog, v.snapshot.Items, v.params)
	v.metrics.ObservePipeline(string(v.src.Kind()), time.Since(start))
	v.pager.Reset(result)
}
