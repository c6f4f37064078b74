package record

import (
	"fmt"
	"strings"
)

// Kind identifies an entity category. It decides default fields, the
// persistence slot and the change-notification name.
type Kind string

const (
	KindTask    Kind = "task"
	KindMeeting Kind = "meeting"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{KindTask, KindMeeting}

// SlotKey returns the persistence key holding the kind's collection.
func (k Kind) SlotKey() string {
	switch k {
	case KindTask:
		return "tasks_v3"
	case KindMeeting:
		return "meetings_v1"
	}
	return string(k) + "s"
}

// Event returns the change-notification name for the kind.
func (k Kind) Event() string {
	return string(k) + "-updated"
}

// Plural is used in URLs and CLI commands.
func (k Kind) Plural() string {
	return string(k) + "s"
}

// ParseKind accepts singular or plural names, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "task", "tasks":
		return KindTask, nil
	case "meeting", "meetings":
		return KindMeeting, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}
