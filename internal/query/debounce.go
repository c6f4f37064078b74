package query

import (
	"sync"
	"time"
)

// DefaultDebounce is how long search input must settle before it is applied.
const DefaultDebounce = 150 * time.Millisecond

// Debouncer runs only the last function handed to Do once delay has passed
// without another call.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Do schedules fn, replacing any pending call. A delay <= 0 runs fn before
// Do returns.
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.delay > 0 {
		d.timer = time.AfterFunc(d.delay, fn)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	fn()
}

// Stop drops any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
