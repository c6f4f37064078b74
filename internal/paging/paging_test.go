package paging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/portal/internal/metrics"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func immediate(ctx context.Context) error { return ctx.Err() }

// gate blocks page loads until release is closed.
type gate struct {
	release chan struct{}
}

func newGate() *gate { return &gate{release: make(chan struct{})} }

func (g *gate) wait(ctx context.Context) error {
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPagingScenario(t *testing.T) {
	c := New[int](Options{PageSize: 12, Wait: immediate})
	ctx := context.Background()

	w := c.Reset(seq(25))
	if w.Shown != 12 || w.State != Idle || !w.HasMore {
		t.Fatalf("initial window = %+v", w)
	}

	w, _ = c.LoadMore(ctx)
	if w.Shown != 24 || w.State != Idle {
		t.Fatalf("after one load = %d %s", w.Shown, w.State)
	}
	w, _ = c.LoadMore(ctx)
	if w.Shown != 25 || w.State != Exhausted || w.HasMore {
		t.Fatalf("after two loads = %d %s", w.Shown, w.State)
	}
	for range 3 {
		w, _ = c.LoadMore(ctx)
		if w.Shown != 25 || w.State != Exhausted {
			t.Fatalf("exhausted window changed: %d %s", w.Shown, w.State)
		}
	}
	if w.Items[24] != 24 {
		t.Errorf("last item = %d", w.Items[24])
	}
}

func TestWindowLengthAfterLoads(t *testing.T) {
	ctx := context.Background()
	for _, total := range []int{0, 1, 11, 12, 13, 24, 25, 100} {
		for _, size := range []int{1, 5, 12} {
			c := New[int](Options{PageSize: size, Wait: immediate})
			c.Reset(seq(total))
			for n := 0; n <= total/size+2; n++ {
				w := c.Window()
				want := min((n+1)*size, total)
				if w.Shown != want || len(w.Items) != want {
					t.Fatalf("total=%d size=%d loads=%d: shown %d, want %d", total, size, n, w.Shown, want)
				}
				if (w.State == Exhausted) != (want == total) {
					t.Fatalf("total=%d size=%d loads=%d: state %s", total, size, n, w.State)
				}
				c.LoadMore(ctx)
			}
		}
	}
}

func TestEmptyResultIsExhausted(t *testing.T) {
	c := New[int](Options{Wait: immediate})
	if w := c.Reset(nil); w.State != Exhausted || w.Shown != 0 || w.Items == nil {
		t.Errorf("window = %+v", w)
	}
}

func TestBackToBackLoadsAppendOnce(t *testing.T) {
	g := newGate()
	var mu sync.Mutex
	outcomes := map[string]int{}
	c := New[int](Options{PageSize: 12, Wait: g.wait, Observe: func(o string) {
		mu.Lock()
		outcomes[o]++
		mu.Unlock()
	}})
	c.Reset(seq(50))
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.LoadMore(ctx) }()
	waitFor(t, func() bool { return c.Window().Loading })
	go func() { defer wg.Done(); c.LoadMore(ctx) }()
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return outcomes[metrics.PageCoalesced] == 1
	})

	close(g.release)
	wg.Wait()

	w := c.Window()
	if w.Shown != 24 || w.State != Idle {
		t.Errorf("window = %d %s, want 24 idle", w.Shown, w.State)
	}
	if outcomes[metrics.PageAppended] != 1 {
		t.Errorf("appended %d times", outcomes[metrics.PageAppended])
	}
}

func TestResetDuringLoadKeepsFreshPage(t *testing.T) {
	g := newGate()
	c := New[int](Options{PageSize: 12, Wait: g.wait})
	c.Reset(seq(40))

	done := make(chan Window[int], 1)
	go func() {
		w, _ := c.LoadMore(context.Background())
		done <- w
	}()
	waitFor(t, func() bool { return c.Window().Loading })

	fresh := seq(30)
	for i := range fresh {
		fresh[i] += 1000
	}
	w := c.Reset(fresh)
	if w.State != Loading || w.Shown != 12 || w.Items[0] != 1000 {
		t.Fatalf("reset while loading = %+v", w)
	}

	close(g.release)
	w = <-done
	if w.Shown != 12 || w.State != Idle {
		t.Errorf("stale load appended: shown %d state %s", w.Shown, w.State)
	}
	if w.Items[0] != 1000 || w.Total != 30 {
		t.Errorf("window not from fresh result: %+v", w)
	}
}

func TestResetToSmallResultWhileLoading(t *testing.T) {
	g := newGate()
	c := New[int](Options{PageSize: 12, Wait: g.wait})
	c.Reset(seq(40))

	go c.LoadMore(context.Background())
	waitFor(t, func() bool { return c.Window().Loading })
	c.Reset(seq(3))
	close(g.release)

	waitFor(t, func() bool { return !c.Window().Loading })
	if w := c.Window(); w.State != Exhausted || w.Shown != 3 {
		t.Errorf("window = %d %s", w.Shown, w.State)
	}
}

func TestCancelledLoadReturnsToIdle(t *testing.T) {
	g := newGate()
	c := New[int](Options{PageSize: 12, Wait: g.wait})
	c.Reset(seq(40))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.LoadMore(ctx)
		errc <- err
	}()
	waitFor(t, func() bool { return c.Window().Loading })
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if w := c.Window(); w.State != Idle || w.Shown != 12 {
		t.Errorf("window = %d %s", w.Shown, w.State)
	}

	close(g.release)
	w, err := c.LoadMore(context.Background())
	if err != nil || w.Shown != 24 {
		t.Errorf("load after cancel: shown %d, err %v", w.Shown, err)
	}
}

func TestDefaultDelayIsObserved(t *testing.T) {
	c := New[int](Options{PageSize: 2, Delay: 30 * time.Millisecond})
	c.Reset(seq(5))
	start := time.Now()
	w, err := c.LoadMore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Error("page appended before the delay elapsed")
	}
	if w.Shown != 4 {
		t.Errorf("shown = %d", w.Shown)
	}
}
