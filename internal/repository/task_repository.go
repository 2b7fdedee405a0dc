package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"series-planner/internal/model"
)

// TaskRepository handles CRUD and series queries for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task. Child inserts hit the unique (parent_task_id, date)
// index; a conflicting row is silently kept, which is what makes window
// regeneration safe to re-run.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "parent_task_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(task).Error
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetByID returns the task or (nil, nil) when it does not exist. Missing
// rows are a normal condition for series operations, not an error.
func (r *TaskRepository) GetByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, id).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}
}

// GetChildren returns every instance generated for the given root,
// regardless of completion state, ordered by date.
func (r *TaskRepository) GetChildren(ctx context.Context, rootID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("parent_task_id = ?", rootID).
		Order("date ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list children of %d: %w", rootID, err)
	}
	return tasks, nil
}

// GetAllRecurringRoots returns series roots: tasks carrying a recurrence
// rule and no parent reference.
func (r *TaskRepository) GetAllRecurringRoots(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("recurrence_type <> ? AND parent_task_id IS NULL", model.RecurrenceNone).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list recurring roots: %w", err)
	}
	return tasks, nil
}

// ListOpen returns incomplete tasks ordered by date.
func (r *TaskRepository) ListOpen(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("is_completed = ?", false).
		Order("date ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list open tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("update task %d: %w", task.ID, err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Delete(&model.Task{}, task.ID).Error; err != nil {
		return fmt.Errorf("delete task %d: %w", task.ID, err)
	}
	return nil
}
