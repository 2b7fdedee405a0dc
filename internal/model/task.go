package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// DateLayout is the persisted calendar-date format for Date and
// RecurrenceEndDate. Dates carry no timezone.
const DateLayout = "2006-01-02"

// Task represents a single occurrence in the planner. A task with a nil
// ParentTaskID is a series root (or a plain one-off); a non-nil ParentTaskID
// points at the root whose recurrence rule generated it.
type Task struct {
	ID                uint `gorm:"primaryKey"`
	Name              string
	Description       string
	Date              string `gorm:"size:10;index:idx_series_date,unique"`
	Time              string `gorm:"size:5"`
	Priority          Priority
	CategoryID        *uint `gorm:"index"`
	Tags              string
	Attachments       string
	NotifyEnabled     bool           `gorm:"default:false"`
	RecurrenceType    RecurrenceType `gorm:"default:NONE"`
	RecurrenceEndDate *string        `gorm:"size:10"`
	ParentTaskID      *uint          `gorm:"index:idx_series_date,unique"`
	IsCompleted       bool           `gorm:"default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsRoot reports whether the task is a series root (or a plain task).
func (t *Task) IsRoot() bool {
	return t.ParentTaskID == nil
}

// RootID resolves the series root id: the parent's id for a child, the
// task's own id otherwise.
func (t *Task) RootID() uint {
	if t.ParentTaskID != nil {
		return *t.ParentTaskID
	}
	return t.ID
}

// AfterFind normalizes enum tokens read from storage. Rows written by
// older builds or touched out-of-band may carry values outside the closed
// sets; they must not reach the engine as-is.
func (t *Task) AfterFind(*gorm.DB) error {
	recurrence, err := ParseRecurrenceType(string(t.RecurrenceType))
	if err != nil {
		recurrence = RecurrenceNone
	}
	t.RecurrenceType = recurrence

	priority, err := ParsePriority(string(t.Priority))
	if err != nil {
		priority = PriorityMedium
	}
	t.Priority = priority
	return nil
}

// ParseDate parses a persisted yyyy-MM-dd date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatDate renders t in the persisted yyyy-MM-dd form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOnly truncates t to midnight UTC so it compares cleanly against
// values produced by ParseDate.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
