package record

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValidationError reports one invalid form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateTask checks the fields the task form marks as required. The
// store itself never calls this; it is for form-level callers.
func ValidateTask(t Task) error {
	var errs []error
	required(&errs, "name", t.Name)
	required(&errs, "projectName", t.ProjectName)
	required(&errs, "assignedTo", t.AssignedTo)
	required(&errs, "lagType", string(t.LagType))
	required(&errs, "lagDays", t.LagDays)
	required(&errs, "topDownDuration", t.TopDownDuration)

	if t.LagType != "" && !slices.Contains(LagTypes, t.LagType) {
		errs = append(errs, &ValidationError{Field: "lagType", Message: fmt.Sprintf("must be one of %v", LagTypes)})
	}
	if t.Priority != "" && !slices.Contains(Priorities, t.Priority) {
		errs = append(errs, &ValidationError{Field: "priority", Message: fmt.Sprintf("must be one of %v", Priorities)})
	}
	numeric(&errs, "lagDays", t.LagDays)
	numeric(&errs, "topDownDuration", t.TopDownDuration)
	if t.PercentComplete < 0 || t.PercentComplete > 100 {
		errs = append(errs, &ValidationError{Field: "percentComplete", Message: "must be between 0 and 100"})
	}
	isoDate(&errs, "estimatedStart", t.EstimatedStart)
	isoDate(&errs, "estimatedEnd", t.EstimatedEnd)
	isoDate(&errs, "revisedStart", t.RevisedStart)
	isoDate(&errs, "revisedEnd", t.RevisedEnd)
	isoDate(&errs, "actualStart", t.ActualStart)
	isoDate(&errs, "actualEnd", t.ActualEnd)
	return errors.Join(errs...)
}

// ValidateMeeting checks the fields the meeting form marks as required.
func ValidateMeeting(m Meeting) error {
	var errs []error
	required(&errs, "subject", m.Subject)
	required(&errs, "type", string(m.Type))
	required(&errs, "engagementType", string(m.EngagementType))
	required(&errs, "status", string(m.Status))

	if m.Type != "" && !slices.Contains(MeetingTypes, m.Type) {
		errs = append(errs, &ValidationError{Field: "type", Message: fmt.Sprintf("must be one of %v", MeetingTypes)})
	}
	if m.EngagementType != "" && !slices.Contains(EngagementTypes, m.EngagementType) {
		errs = append(errs, &ValidationError{Field: "engagementType", Message: fmt.Sprintf("must be one of %v", EngagementTypes)})
	}
	if m.Relationship != "" && !slices.Contains(Relationships, m.Relationship) {
		errs = append(errs, &ValidationError{Field: "relationship", Message: fmt.Sprintf("must be one of %v", Relationships)})
	}
	if m.Status != "" && !slices.Contains(MeetingStatuses, m.Status) {
		errs = append(errs, &ValidationError{Field: "status", Message: fmt.Sprintf("must be one of %v", MeetingStatuses)})
	}
	isoDate(&errs, "startDate", m.StartDate)
	isoDate(&errs, "endDate", m.EndDate)
	if start, ok := ParseDate(m.StartDate); ok {
		if end, ok := ParseDate(m.EndDate); ok && end.Before(start) {
			errs = append(errs, &ValidationError{Field: "endDate", Message: "must not be before startDate"})
		}
	}
	return errors.Join(errs...)
}

func required(errs *[]error, field, value string) {
	if strings.TrimSpace(value) == "" {
		*errs = append(*errs, &ValidationError{Field: field, Message: "is required"})
	}
}

func numeric(errs *[]error, field, value string) {
	if value == "" {
		return
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
		*errs = append(*errs, &ValidationError{Field: field, Message: "must be numeric"})
	}
}

// isoDate rejects a non-blank date that ParseDate cannot read.
func isoDate(errs *[]error, field string, value *string) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	if _, ok := ParseDate(value); !ok {
		*errs = append(*errs, &ValidationError{Field: field, Message: "must be an ISO-8601 date"})
	}
}
