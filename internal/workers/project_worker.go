package workers

import (
	"context"
	"time"

	"seribro_backend/internal/logger"
	"seribro_backend/internal/services"
)

const autoCloseBatch = 100

type ProjectWorker struct {
	projects services.ProjectService
	interval time.Duration
	now      func() time.Time
}

func NewProjectWorker(projects services.ProjectService, interval time.Duration) *ProjectWorker {
	return &ProjectWorker{projects: projects, interval: interval, now: time.Now}
}

// Start запускает автозакрытие проектов с прошедшим дедлайном
func (w *ProjectWorker) Start(ctx context.Context) {
	go w.autoCloseProjects(ctx)
}

func (w *ProjectWorker) autoCloseProjects(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Project worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce - одна итерация: закрывает пачками, пока есть просроченные
func (w *ProjectWorker) RunOnce(ctx context.Context) int {
	total := 0
	for {
		closed, err := w.projects.AutoCloseExpired(ctx, w.now(), autoCloseBatch)
		total += closed
		if err != nil {
			logger.WorkerLog("project", "auto_close_expired", int64(total), err)
			return total
		}
		if closed < autoCloseBatch || ctx.Err() != nil {
			break
		}
	}
	logger.WorkerLog("project", "auto_close_expired", int64(total), nil)
	return total
}
