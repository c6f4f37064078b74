// Package paging grows a displayed window over a result list one page at a
// time, with at most one page load in flight.
package paging

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kalambet/portal/internal/metrics"
)

const (
	DefaultPageSize = 12
	DefaultDelay    = 400 * time.Millisecond
)

type State string

const (
	Idle      State = "idle"
	Loading   State = "loading"
	Exhausted State = "exhausted"
)

type Options struct {
	PageSize int
	// Delay before a requested page is appended.
	Delay time.Duration
	// Wait replaces the delay timer when set.
	Wait func(ctx context.Context) error
	// Observe receives one of the metrics.Page* outcomes per LoadMore call.
	Observe func(outcome string)
}

// Window is what the presentation layer renders.
type Window[E any] struct {
	Items   []E
	Total   int
	Shown   int
	State   State
	HasMore bool
	Loading bool
}

// Controller is the Idle/Loading/Exhausted state machine for one list view.
//
// Reset replaces the underlying result and shows its first page. A load that
// was started before the most recent Reset does not append when it finishes;
// the window keeps the fresh first page instead.
type Controller[E any] struct {
	pageSize int
	wait     func(ctx context.Context) error
	observe  func(string)
	flight   singleflight.Group

	mu        sync.Mutex
	gen       uint64
	result    []E
	shown     int
	state     State
	loadSeq   uint64
	completed uint64
	loadGen   uint64
}

func New[E any](opts Options) *Controller[E] {
	c := &Controller[E]{
		pageSize: opts.PageSize,
		wait:     opts.Wait,
		observe:  opts.Observe,
		state:    Exhausted,
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.wait == nil {
		delay := opts.Delay
		c.wait = func(ctx context.Context) error {
			if delay <= 0 {
				return ctx.Err()
			}
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		}
	}
	if c.observe == nil {
		c.observe = func(string) {}
	}
	return c
}

func (c *Controller[E]) PageSize() int { return c.pageSize }

// Reset shows the first page of result. If a load is in flight the state
// stays Loading until it settles.
func (c *Controller[E]) Reset(result []E) Window[E] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.result = result
	c.shown = min(c.pageSize, len(result))
	if c.state != Loading {
		c.state = c.settledLocked()
	}
	return c.windowLocked()
}

// LoadMore appends the next page after the configured delay and returns the
// resulting window. Calls made while a load is in flight join it rather than
// starting another; calls in Exhausted return immediately.
func (c *Controller[E]) LoadMore(ctx context.Context) (Window[E], error) {
	c.mu.Lock()
	switch c.state {
	case Exhausted:
		w := c.windowLocked()
		c.mu.Unlock()
		c.observe(metrics.PageExhausted)
		return w, nil
	case Idle:
		c.loadSeq++
		c.loadGen = c.gen
		c.state = Loading
	default:
		c.observe(metrics.PageCoalesced)
	}
	seq := c.loadSeq
	c.mu.Unlock()

	_, err, _ := c.flight.Do(strconv.FormatUint(seq, 10), func() (any, error) {
		return nil, c.load(ctx, seq)
	})
	return c.Window(), err
}

func (c *Controller[E]) load(ctx context.Context, seq uint64) error {
	c.mu.Lock()
	done := c.completed >= seq
	c.mu.Unlock()
	if done {
		return nil
	}

	err := c.wait(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = seq
	switch {
	case err != nil:
	case c.gen != c.loadGen:
		c.observe(metrics.PageStale)
	default:
		c.shown = min(c.shown+c.pageSize, len(c.result))
		c.observe(metrics.PageAppended)
	}
	c.state = c.settledLocked()
	return err
}

// Window returns the current view without waiting.
func (c *Controller[E]) Window() Window[E] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.windowLocked()
}

func (c *Controller[E]) settledLocked() State {
	if c.shown >= len(c.result) {
		return Exhausted
	}
	return Idle
}

func (c *Controller[E]) windowLocked() Window[E] {
	items := make([]E, c.shown)
	copy(items, c.result[:c.shown])
	return Window[E]{
		Items:   items,
		Total:   len(c.result),
		Shown:   c.shown,
		State:   c.state,
		HasMore: c.shown < len(c.result),
		Loading: c.state == Loading,
	}
}
