package service

import (
	"context"
	"fmt"
	"strings"

	"series-planner/internal/model"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Name              string
	Description       string
	Category          string
	Date              string
	Time              string
	Priority          string
	Tags              string
	Attachments       string
	NotifyEnabled     bool
	RecurrenceType    string
	RecurrenceEndDate string
}

// TaskService wraps task-level business logic around the store and the
// recurrence engine.
type TaskService struct {
	store      TaskStore
	categories CategoryStore
	recurrence *RecurrenceService
}

func NewTaskService(store TaskStore, categories CategoryStore, recurrence *RecurrenceService) *TaskService {
	return &TaskService{store: store, categories: categories, recurrence: recurrence}
}

// CreateTask validates input, persists the task and, for a recurring one,
// materializes its initial window right away.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := model.ParseDate(input.Date); err != nil {
		return nil, fmt.Errorf("%w: date must be yyyy-MM-dd", ErrInvalidInput)
	}
	recurrence, err := model.ParseRecurrenceType(input.RecurrenceType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	priority, err := model.ParsePriority(input.Priority)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var endDate *string
	if raw := strings.TrimSpace(input.RecurrenceEndDate); raw != "" {
		if _, err := model.ParseDate(raw); err != nil {
			return nil, fmt.Errorf("%w: recurrence end date must be yyyy-MM-dd", ErrInvalidInput)
		}
		endDate = &raw
	}

	var categoryID *uint
	if input.Category != "" {
		category, err := s.categories.GetOrCreate(ctx, input.Category)
		if err != nil {
			return nil, err
		}
		if category != nil {
			categoryID = &category.ID
		}
	}

	task := model.Task{
		Name:              name,
		Description:       input.Description,
		Date:              strings.TrimSpace(input.Date),
		Time:              strings.TrimSpace(input.Time),
		Priority:          priority,
		CategoryID:        categoryID,
		Tags:              input.Tags,
		Attachments:       input.Attachments,
		NotifyEnabled:     input.NotifyEnabled,
		RecurrenceType:    recurrence,
		RecurrenceEndDate: endDate,
	}

	if err := s.store.Create(ctx, &task); err != nil {
		return nil, err
	}

	if task.RecurrenceType != model.RecurrenceNone {
		if err := s.recurrence.RefreshWindow(ctx, &task, 0); err != nil {
			return nil, fmt.Errorf("materialize series: %w", err)
		}
	}

	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// ListOpen returns incomplete tasks ordered by date.
func (s *TaskService) ListOpen(ctx context.Context) ([]model.Task, error) {
	return s.store.ListOpen(ctx)
}

// CompleteTask marks a single occurrence as done. Other instances of the
// same series are untouched.
func (s *TaskService) CompleteTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	task.IsCompleted = true
	if err := s.store.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes one occurrence. Deleting a recurring root cascades to
// its whole series; orphaned instances would otherwise keep regenerating
// conflicts forever.
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint) error {
	task, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return ErrTaskNotFound
	}

	if task.IsRoot() && task.RecurrenceType != model.RecurrenceNone {
		return s.recurrence.DeleteSeries(ctx, taskID)
	}
	return s.store.Delete(ctx, task)
}
