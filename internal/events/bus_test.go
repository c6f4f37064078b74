package events

import (
	"testing"

	"github.com/kalambet/portal/internal/record"
)

func TestPublishReachesMatchingSubscribers(t *testing.T) {
	bus := NewBus()

	var tasks, all []record.Kind
	bus.Subscribe(record.KindTask, func(k record.Kind) { tasks = append(tasks, k) })
	bus.Subscribe("", func(k record.Kind) { all = append(all, k) })

	bus.Publish(record.KindTask)
	bus.Publish(record.KindMeeting)

	if len(tasks) != 1 || tasks[0] != record.KindTask {
		t.Errorf("task subscriber got %v", tasks)
	}
	if len(all) != 2 {
		t.Errorf("wildcard subscriber got %v", all)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsub := bus.Subscribe(record.KindMeeting, func(record.Kind) { calls++ })

	bus.Publish(record.KindMeeting)
	unsub()
	unsub()
	bus.Publish(record.KindMeeting)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestNilBusPublishIsNoop(t *testing.T) {
	var bus *Bus
	bus.Publish(record.KindTask)
}
