// Package store holds the canonical in-memory collection for one entity kind
// and writes it through to a key/value slot after every mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kalambet/portal/internal/events"
	"github.com/kalambet/portal/internal/metrics"
	"github.com/kalambet/portal/internal/record"
	"github.com/kalambet/portal/internal/storage"
)

// ErrNotFound is returned when a mutation targets an id the store does not hold.
var ErrNotFound = errors.New("record not found")

// DefaultLatency is the simulated round trip every operation waits before it
// resolves. List views render loading states against it.
const DefaultLatency = 300 * time.Millisecond

// Entity is implemented by record.Task and record.Meeting.
type Entity[E any] interface {
	EntityID() string
	WithID(id string) E
	WithDefaults() E
	Normalized() E
	Clone() E
}

// Slots is the persistence port. Implemented by storage.Store,
// storage.FileStore and storage.MemoryStore.
type Slots interface {
	GetSlot(ctx context.Context, key string) ([]byte, error)
	SetSlot(ctx context.Context, key string, value []byte) error
}

// Snapshot is a point-in-time copy of the collection. Revision grows by one
// with every successful mutation, so consumers can discard a snapshot that
// resolves after a newer one.
type Snapshot[E any] struct {
	Revision uint64
	Items    []E
}

type Options[E any] struct {
	Kind  record.Kind
	Slots Slots
	// Seed supplies the collection when the slot holds nothing yet.
	Seed func(now time.Time) []E
	// Latency before each operation resolves. Zero resolves immediately.
	Latency time.Duration
	// Wait replaces the latency timer when set.
	Wait    func(ctx context.Context) error
	Bus     *events.Bus
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// Store owns the collection of one kind. Every read returns copies; every
// mutation persists the whole collection in a single slot write and then
// publishes the kind on the bus. Concurrent mutations are applied in lock
// order, so the last one to acquire the lock wins.
type Store[E Entity[E]] struct {
	kind    record.Kind
	slots   Slots
	wait    func(ctx context.Context) error
	bus     *events.Bus
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu       sync.RWMutex
	items    []E
	revision uint64
}

// Open loads the kind's slot and returns a ready store. A missing or corrupt
// slot falls back to the seed; a slot holding JSON that is not an array is
// treated as an empty collection. Only substrate read errors are returned.
func Open[E Entity[E]](ctx context.Context, opts Options[E]) (*Store[E], error) {
	if opts.Slots == nil {
		return nil, fmt.Errorf("store %s: no slot backend", opts.Kind)
	}
	s := &Store[E]{
		kind:    opts.Kind,
		slots:   opts.Slots,
		wait:    opts.Wait,
		bus:     opts.Bus,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if s.wait == nil {
		latency := opts.Latency
		s.wait = func(ctx context.Context) error { return sleep(ctx, latency) }
	}
	if s.bus == nil {
		s.bus = events.NewBus()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("kind", string(opts.Kind))

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil && opts.Seed != nil {
		items = opts.Seed(now())
	}
	if items == nil {
		items = []E{}
	}
	s.items = items
	return s, nil
}

// load returns nil when the seed should be used.
func (s *Store[E]) load(ctx context.Context) ([]E, error) {
	key := s.kind.SlotKey()
	data, err := s.slots.GetSlot(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}

	if !gjson.ValidBytes(data) {
		s.logger.Error("persisted collection is not valid JSON, using seed data", "key", key)
		return nil, nil
	}
	res := gjson.ParseBytes(data)
	if !res.IsArray() {
		s.logger.Warn("persisted collection is not an array, starting empty", "key", key, "type", res.Type.String())
		return []E{}, nil
	}

	items := []E{}
	skipped := 0
	res.ForEach(func(_, el gjson.Result) bool {
		var e E
		if err := json.Unmarshal([]byte(el.Raw), &e); err != nil {
			skipped++
			return true
		}
		items = append(items, e)
		return true
	})
	if skipped > 0 {
		s.logger.Warn("skipped malformed records", "key", key, "count", skipped)
	}
	return items, nil
}

func (s *Store[E]) Kind() record.Kind { return s.kind }

// Subscribe registers h to run after every successful mutation of this store.
func (s *Store[E]) Subscribe(h events.Handler) (unsubscribe func()) {
	return s.bus.Subscribe(s.kind, h)
}

// Revision reports the current mutation counter without waiting.
func (s *Store[E]) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// All returns a copy of the whole collection in storage order (newest first).
func (s *Store[E]) All(ctx context.Context) (Snapshot[E], error) {
	if err := s.wait(ctx); err != nil {
		return Snapshot[E]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot[E]{Revision: s.revision, Items: cloneAll(s.items)}, nil
}

// Get returns the entity with id. A missing id reports ok=false with a nil
// error; only cancellation produces an error.
func (s *Store[E]) Get(ctx context.Context, id string) (e E, ok bool, err error) {
	if err := s.wait(ctx); err != nil {
		return e, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Clone(), true, nil
	}
	return e, false, nil
}

// Add stores draft with defaults applied to its omitted fields and a fresh
// id, prepends it, and returns the stored entity. Any id on draft is ignored.
func (s *Store[E]) Add(ctx context.Context, draft E) (E, error) {
	var zero E
	if err := s.wait(ctx); err != nil {
		return zero, err
	}

	s.mu.Lock()
	ids := make([]string, len(s.items))
	for i, it := range s.items {
		ids[i] = it.EntityID()
	}
	e := draft.WithDefaults().WithID(record.NextID(ids)).Normalized().Clone()
	s.items = append([]E{e}, s.items...)
	s.revision++
	s.persistLocked(context.WithoutCancel(ctx))
	s.mu.Unlock()

	s.metrics.Mutation(string(s.kind), "add")
	s.bus.Publish(s.kind)
	return e.Clone(), nil
}

// Update replaces the entity carrying e's id with e. The caller supplies the
// complete merged entity, not a diff. Unknown ids return ErrNotFound and
// leave the collection untouched.
func (s *Store[E]) Update(ctx context.Context, e E) (E, error) {
	return s.modify(ctx, e.EntityID(), "update", func(E) (E, error) { return e, nil })
}

// modify applies fn to the current entity under the write lock. The id is
// preserved whatever fn returns.
func (s *Store[E]) modify(ctx context.Context, id, op string, fn func(E) (E, error)) (E, error) {
	var zero E
	if err := s.wait(ctx); err != nil {
		return zero, err
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return zero, fmt.Errorf("%s %s %q: %w", op, s.kind, id, ErrNotFound)
	}
	next, err := fn(s.items[i].Clone())
	if err != nil {
		s.mu.Unlock()
		return zero, err
	}
	next = next.WithID(id).Normalized().Clone()
	s.items[i] = next
	s.revision++
	s.persistLocked(context.WithoutCancel(ctx))
	s.mu.Unlock()

	s.metrics.Mutation(string(s.kind), op)
	s.bus.Publish(s.kind)
	return next.Clone(), nil
}

// persistLocked serializes the full collection before touching the slot, so
// a marshal failure never produces a partial write. Failures are logged and
// counted; the in-memory collection stays authoritative.
func (s *Store[E]) persistLocked(ctx context.Context) {
	key := s.kind.SlotKey()
	data, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Error("failed to serialize collection", "key", key, "error", err)
		s.metrics.PersistFailure(string(s.kind))
		return
	}
	if err := s.slots.SetSlot(ctx, key, data); err != nil {
		s.logger.Error("failed to persist collection", "key", key, "error", err)
		s.metrics.PersistFailure(string(s.kind))
	}
}

func (s *Store[E]) indexOf(id string) int {
	for i, it := range s.items {
		if it.EntityID() == id {
			return i
		}
	}
	return -1
}

func cloneAll[E Entity[E]](items []E) []E {
	out := make([]E, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
