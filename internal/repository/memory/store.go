// Package memory provides in-memory implementations of the task and
// category stores. They back STORE=memory deployments and the test suite,
// and enforce the same (parent, date) uniqueness as the SQLite schema.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"series-planner/internal/model"
)

// TaskStore is a mutex-guarded map of tasks with copy-out semantics.
type TaskStore struct {
	mu     sync.Mutex
	nextID uint
	tasks  map[uint]model.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{nextID: 1, tasks: make(map[uint]model.Task)}
}

func (s *TaskStore) Create(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Mirror the SQLite unique index: a second child with the same
	// (parent, date) is silently kept as-is.
	if task.ParentTaskID != nil {
		for _, existing := range s.tasks {
			if existing.ParentTaskID != nil &&
				*existing.ParentTaskID == *task.ParentTaskID &&
				existing.Date == task.Date {
				return nil
			}
		}
	}

	task.ID = s.nextID
	s.nextID++
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	task.UpdatedAt = time.Now()
	s.tasks[task.ID] = *task
	return nil
}

func (s *TaskStore) GetByID(_ context.Context, id uint) (*model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

func (s *TaskStore) GetChildren(_ context.Context, rootID uint) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, task := range s.tasks {
		if task.ParentTaskID != nil && *task.ParentTaskID == rootID {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *TaskStore) GetAllRecurringRoots(_ context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, task := range s.tasks {
		if task.RecurrenceType != model.RecurrenceNone && task.ParentTaskID == nil {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *TaskStore) ListOpen(_ context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, task := range s.tasks {
		if !task.IsCompleted {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *TaskStore) Update(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; !ok {
		return nil
	}
	task.UpdatedAt = time.Now()
	s.tasks[task.ID] = *task
	return nil
}

func (s *TaskStore) Delete(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, task.ID)
	return nil
}

// CategoryStore is the in-memory counterpart of the category repository.
type CategoryStore struct {
	mu         sync.Mutex
	nextID     uint
	categories map[string]model.Category
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{nextID: 1, categories: make(map[string]model.Category)}
}

func (s *CategoryStore) GetOrCreate(_ context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if category, ok := s.categories[name]; ok {
		return &category, nil
	}
	category := model.Category{ID: s.nextID, Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.nextID++
	s.categories[name] = category
	return &category, nil
}

func (s *CategoryStore) List(_ context.Context) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Category, 0, len(s.categories))
	for _, category := range s.categories {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
