package model

import (
	"fmt"
	"strings"
)

// RecurrenceType is the closed set of recurrence rules a series root may
// carry. Generated children always carry RecurrenceNone.
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "NONE"
	RecurrenceDaily   RecurrenceType = "DAILY"
	RecurrenceWeekly  RecurrenceType = "WEEKLY"
	RecurrenceMonthly RecurrenceType = "MONTHLY"
)

// ParseRecurrenceType maps a stored or user-supplied token to a
// RecurrenceType. The empty string normalizes to RecurrenceNone; any other
// unknown token is an error, so bad values are rejected at the boundary
// instead of leaking into the engine.
func ParseRecurrenceType(s string) (RecurrenceType, error) {
	switch RecurrenceType(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return RecurrenceNone, nil
	case RecurrenceNone:
		return RecurrenceNone, nil
	case RecurrenceDaily:
		return RecurrenceDaily, nil
	case RecurrenceWeekly:
		return RecurrenceWeekly, nil
	case RecurrenceMonthly:
		return RecurrenceMonthly, nil
	}
	return RecurrenceNone, fmt.Errorf("unknown recurrence type %q", s)
}

// Priority is the closed set of task priorities.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParsePriority maps a token to a Priority. The empty string normalizes to
// PriorityMedium; unknown tokens are an error.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return PriorityMedium, nil
	case PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	}
	return PriorityMedium, fmt.Errorf("unknown priority %q", s)
}
