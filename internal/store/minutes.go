package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/portal/internal/record"
)

// AppendMinute adds text to the end of a meeting's minutes.
func AppendMinute(ctx context.Context, s *Store[record.Meeting], id, text string) (record.Meeting, error) {
	text = strings.TrimSpace(text)
	return s.modify(ctx, id, "append_minute", func(m record.Meeting) (record.Meeting, error) {
		if text == "" {
			return m, &record.ValidationError{Field: "minutes", Message: "minute text is required"}
		}
		m.Minutes = append(m.Minutes, text)
		return m, nil
	})
}

// RemoveMinute deletes the minute at index, keeping the order of the rest.
func RemoveMinute(ctx context.Context, s *Store[record.Meeting], id string, index int) (record.Meeting, error) {
	return s.modify(ctx, id, "remove_minute", func(m record.Meeting) (record.Meeting, error) {
		if index < 0 || index >= len(m.Minutes) {
			return m, &record.ValidationError{Field: "minutes", Message: fmt.Sprintf("index %d out of range [0,%d)", index, len(m.Minutes))}
		}
		m.Minutes = append(m.Minutes[:index], m.Minutes[index+1:]...)
		return m, nil
	})
}
