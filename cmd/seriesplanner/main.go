package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"series-planner/internal/config"
	"series-planner/internal/handler"
	"series-planner/internal/repository"
	"series-planner/internal/repository/memory"
	"series-planner/internal/service"
	"series-planner/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	taskStore, categoryStore, closeStore, err := openStores(cfg)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer closeStore()

	recurrenceSvc := service.NewRecurrenceService(taskStore, logger, cfg.WindowDays, cfg.RefillThresholdDays)
	taskSvc := service.NewTaskService(taskStore, categoryStore, recurrenceSvc)
	categorySvc := service.NewCategoryService(categoryStore)
	refreshWorker := worker.NewRefreshWorker(taskStore, recurrenceSvc, logger, cfg.WindowDays)

	scheduler := service.NewSchedulerService(time.Local, logger)
	refreshJob := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := refreshWorker.RefreshAll(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("refresh cycle failed, will retry next firing", zap.Error(err))
		}
	}
	if cfg.RefreshAt != "" {
		if _, err := scheduler.ScheduleDaily(cfg.RefreshAt, refreshJob); err != nil {
			logger.Fatal("schedule refresh", zap.Error(err))
		}
	} else {
		if _, err := scheduler.ScheduleInterval(cfg.RefreshInterval, refreshJob); err != nil {
			logger.Fatal("schedule refresh", zap.Error(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Top up windows once at startup instead of waiting for the first firing.
	refreshJob()

	h := handler.NewTaskHandler(taskSvc, recurrenceSvc, categorySvc, logger)
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: h.Router(),
	}

	go func() {
		logger.Info("series planner started", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStores wires the configured store type. The returned close func is a
// no-op for the memory store.
func openStores(cfg config.Config) (service.TaskStore, service.CategoryStore, func(), error) {
	if cfg.StoreType == "memory" {
		return memory.NewTaskStore(), memory.NewCategoryStore(), func() {}, nil
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	closeStore := func() {}
	if sqlDB, err := db.DB(); err == nil {
		closeStore = func() { _ = sqlDB.Close() }
	}
	return repository.NewTaskRepository(db), repository.NewCategoryRepository(db), closeStore, nil
}
