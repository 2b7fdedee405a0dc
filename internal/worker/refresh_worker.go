// Package worker holds the periodic trigger that keeps every recurring
// series' generated window topped up.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"series-planner/internal/service"
)

// RefreshWorker walks all recurring roots and asks the engine to refresh
// each one's window. It is re-invocation tolerant: the engine's generation
// is idempotent, so overlapping or repeated runs are harmless.
type RefreshWorker struct {
	store      service.TaskStore
	engine     *service.RecurrenceService
	log        *zap.Logger
	windowDays int
}

func NewRefreshWorker(store service.TaskStore, engine *service.RecurrenceService, log *zap.Logger, windowDays int) *RefreshWorker {
	return &RefreshWorker{store: store, engine: engine, log: log, windowDays: windowDays}
}

// RefreshAll runs one maintenance cycle. A failure on one root is logged
// and does not stop the walk; a canceled context stops between roots, after
// the current root's generation has finished.
func (w *RefreshWorker) RefreshAll(ctx context.Context) error {
	start := time.Now()

	roots, err := w.store.GetAllRecurringRoots(ctx)
	if err != nil {
		return fmt.Errorf("list recurring roots: %w", err)
	}

	refreshed := 0
	failed := 0
	for i := range roots {
		if err := ctx.Err(); err != nil {
			w.log.Info("refresh cycle interrupted",
				zap.Int("done", i), zap.Int("remaining", len(roots)-i))
			return err
		}
		if err := w.engine.RefreshWindow(ctx, &roots[i], w.windowDays); err != nil {
			failed++
			w.log.Warn("window refresh failed",
				zap.Uint("task_id", roots[i].ID), zap.Error(err))
			continue
		}
		refreshed++
	}

	w.log.Info("refresh cycle complete",
		zap.Int("roots", len(roots)),
		zap.Int("refreshed", refreshed),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)))
	return nil
}
