package workers

import (
	"context"
	"time"

	"seribro_backend/internal/logger"
	"seribro_backend/internal/repositories"
)

// CleanupWorker удаляет истекшие OTP и записи об отозванных токенах
type CleanupWorker struct {
	store    repositories.Store
	interval time.Duration
	now      func() time.Time
}

func NewCleanupWorker(store repositories.Store, interval time.Duration) *CleanupWorker {
	return &CleanupWorker{store: store, interval: interval, now: time.Now}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	go w.cleanup(ctx)
}

func (w *CleanupWorker) cleanup(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func (w *CleanupWorker) RunOnce(ctx context.Context) {
	now := w.now()

	otps, err := w.store.OTPs().DeleteExpired(ctx, now)
	logger.WorkerLog("cleanup", "delete_expired_otps", otps, err)

	revoked, err := w.store.RevokedTokens().DeleteExpired(ctx, now)
	logger.WorkerLog("cleanup", "delete_expired_revoked_tokens", revoked, err)
}
