// Package handler exposes the task and series operations over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"series-planner/internal/model"
	"series-planner/internal/service"
)

// TaskHandler serves task CRUD and the series-wide operations.
type TaskHandler struct {
	tasks      *service.TaskService
	recurrence *service.RecurrenceService
	categories *service.CategoryService
	log        *zap.Logger
}

func NewTaskHandler(tasks *service.TaskService, recurrence *service.RecurrenceService, categories *service.CategoryService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, recurrence: recurrence, categories: categories, log: log}
}

// Router builds the chi route tree.
func (h *TaskHandler) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.listOpen)
		r.Post("/", h.create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Delete("/", h.delete)
			r.Post("/complete", h.complete)
			r.Get("/parent", h.parent)
			r.Get("/recurring", h.recurring)
			r.Delete("/series", h.deleteSeries)
			r.Patch("/series", h.updateSeries)
		})
	})

	r.Get("/categories", h.listCategories)
	r.Get("/health", h.health)

	return r
}

func (h *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), service.TaskInput{
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		Date:              req.Date,
		Time:              req.Time,
		Priority:          req.Priority,
		Tags:              req.Tags,
		Attachments:       req.Attachments,
		NotifyEnabled:     req.NotifyEnabled,
		RecurrenceType:    req.RecurrenceType,
		RecurrenceEndDate: req.RecurrenceEndDate,
	})
	if err != nil {
		h.writeServiceError(w, err, "create task")
		return
	}
	writeJSON(w, http.StatusCreated, fromTask(task))
}

func (h *TaskHandler) listOpen(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListOpen(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list tasks")
		return
	}
	writeJSON(w, http.StatusOK, fromTasks(tasks))
}

func (h *TaskHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "get task")
		return
	}
	writeJSON(w, http.StatusOK, fromTask(task))
}

func (h *TaskHandler) complete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.CompleteTask(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "complete task")
		return
	}
	writeJSON(w, http.StatusOK, fromTask(task))
}

func (h *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) deleteSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	// Silent no-op for unknown ids, same as the engine.
	if err := h.recurrence.DeleteSeries(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "delete series")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) updateSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	var req updateSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var priority model.Priority
	if req.Priority != nil {
		parsed, err := model.ParsePriority(*req.Priority)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		priority = parsed
	}

	transform := func(task model.Task) model.Task {
		if req.Name != nil {
			task.Name = *req.Name
		}
		if req.Description != nil {
			task.Description = *req.Description
		}
		if req.Time != nil {
			task.Time = *req.Time
		}
		if req.Priority != nil {
			task.Priority = priority
		}
		if req.Tags != nil {
			task.Tags = *req.Tags
		}
		if req.Attachments != nil {
			task.Attachments = *req.Attachments
		}
		if req.NotifyEnabled != nil {
			task.NotifyEnabled = *req.NotifyEnabled
		}
		return task
	}

	if err := h.recurrence.UpdateSeries(r.Context(), id, transform); err != nil {
		h.writeServiceError(w, err, "update series")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) parent(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	task, err := h.recurrence.GetParentTask(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "get parent")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, fromTask(task))
}

func (h *TaskHandler) recurring(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	recurring, err := h.recurrence.IsRecurringTask(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "check recurring")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"recurring": recurring})
}

func (h *TaskHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *TaskHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func taskID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return uint(id), true
}

func (h *TaskHandler) writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("request failed", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
