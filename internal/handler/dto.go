package handler

import (
	"time"

	"series-planner/internal/model"
)

type createTaskRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Priority          string `json:"priority"`
	Tags              string `json:"tags"`
	Attachments       string `json:"attachments"`
	NotifyEnabled     bool   `json:"notify_enabled"`
	RecurrenceType    string `json:"recurrence_type"`
	RecurrenceEndDate string `json:"recurrence_end_date"`
}

// updateSeriesRequest carries the bulk edit for future incomplete
// instances of a series. Only non-nil fields are applied.
type updateSeriesRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Time          *string `json:"time"`
	Priority      *string `json:"priority"`
	Tags          *string `json:"tags"`
	Attachments   *string `json:"attachments"`
	NotifyEnabled *bool   `json:"notify_enabled"`
}

type taskResponse struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Date              string    `json:"date"`
	Time              string    `json:"time,omitempty"`
	Priority          string    `json:"priority"`
	CategoryID        *uint     `json:"category_id,omitempty"`
	Tags              string    `json:"tags,omitempty"`
	Attachments       string    `json:"attachments,omitempty"`
	NotifyEnabled     bool      `json:"notify_enabled"`
	RecurrenceType    string    `json:"recurrence_type"`
	RecurrenceEndDate *string   `json:"recurrence_end_date,omitempty"`
	ParentTaskID      *uint     `json:"parent_task_id,omitempty"`
	IsCompleted       bool      `json:"is_completed"`
	CreatedAt         time.Time `json:"created_at"`
}

func fromTask(t *model.Task) taskResponse {
	return taskResponse{
		ID:                t.ID,
		Name:              t.Name,
		Description:       t.Description,
		Date:              t.Date,
		Time:              t.Time,
		Priority:          string(t.Priority),
		CategoryID:        t.CategoryID,
		Tags:              t.Tags,
		Attachments:       t.Attachments,
		NotifyEnabled:     t.NotifyEnabled,
		RecurrenceType:    string(t.RecurrenceType),
		RecurrenceEndDate: t.RecurrenceEndDate,
		ParentTaskID:      t.ParentTaskID,
		IsCompleted:       t.IsCompleted,
		CreatedAt:         t.CreatedAt,
	}
}

func fromTasks(tasks []model.Task) []taskResponse {
	out := make([]taskResponse, len(tasks))
	for i := range tasks {
		out[i] = fromTask(&tasks[i])
	}
	return out
}
