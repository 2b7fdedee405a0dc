package service

import (
	"context"

	"series-planner/internal/model"
)

// TaskStore is the narrow persistence contract the engine works against.
// GetByID returns (nil, nil) for a missing task; implementations surface
// only genuine I/O failures as errors.
type TaskStore interface {
	GetByID(ctx context.Context, id uint) (*model.Task, error)
	GetChildren(ctx context.Context, rootID uint) ([]model.Task, error)
	GetAllRecurringRoots(ctx context.Context) ([]model.Task, error)
	ListOpen(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, task *model.Task) error
}

// CategoryStore resolves category names for task creation.
type CategoryStore interface {
	GetOrCreate(ctx context.Context, name string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
}
