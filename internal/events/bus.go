// Package events carries "kind changed" notifications between the record
// stores and any view that renders their data.
package events

import (
	"sync"

	"github.com/kalambet/portal/internal/record"
)

// Handler receives the kind whose collection changed. Handlers run on the
// publishing goroutine and must not block.
type Handler func(kind record.Kind)

// Bus fans a change notification out to every subscriber. The zero value is
// not usable; call NewBus. A nil *Bus is a valid no-op publisher.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	kind    record.Kind // empty matches every kind
	handler Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscription)}
}

// Subscribe registers h for changes to kind, or to every kind when kind is
// empty. The returned function removes the subscription; calling it more
// than once is harmless.
func (b *Bus) Subscribe(kind record.Kind, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{kind: kind, handler: h}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish notifies subscribers that kind changed.
func (b *Bus) Publish(kind record.Kind) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.kind == "" || s.kind == kind {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(kind)
	}
}
