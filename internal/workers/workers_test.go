package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories/memory"
	"seribro_backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProjects отдает заранее заданные размеры пачек
type fakeProjects struct {
	services.ProjectService
	batches []int
	err     error
	calls   atomic.Int32
}

func (f *fakeProjects) AutoCloseExpired(ctx context.Context, now time.Time, batchSize int) (int, error) {
	f.calls.Add(1)
	if len(f.batches) == 0 {
		return 0, f.err
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func TestProjectWorker_RunOnceDrainsBatches(t *testing.T) {
	fake := &fakeProjects{batches: []int{autoCloseBatch, autoCloseBatch, 3}}
	worker := NewProjectWorker(fake, time.Hour)

	assert.Equal(t, 2*autoCloseBatch+3, worker.RunOnce(context.Background()))
	assert.Equal(t, int32(3), fake.calls.Load())
}

func TestProjectWorker_RunOnceStopsOnError(t *testing.T) {
	fake := &fakeProjects{batches: []int{autoCloseBatch}, err: errors.New("db down")}
	worker := NewProjectWorker(fake, time.Hour)

	assert.Equal(t, autoCloseBatch, worker.RunOnce(context.Background()))
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestProjectWorker_StopsWithContext(t *testing.T) {
	fake := &fakeProjects{}
	worker := NewProjectWorker(fake, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	calls := fake.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, fake.calls.Load(), "после отмены тикер не срабатывает")
}

func TestCleanupWorker_RunOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.OTPs().Replace(ctx, &models.OTPCode{
		Email: "old@example.com", CodeHash: "x", Purpose: models.OTPPurposeSignup,
		ExpiresAt: now.Add(-time.Minute), LastSentAt: now.Add(-11 * time.Minute),
	}))
	require.NoError(t, store.OTPs().Replace(ctx, &models.OTPCode{
		Email: "fresh@example.com", CodeHash: "y", Purpose: models.OTPPurposeSignup,
		ExpiresAt: now.Add(5 * time.Minute), LastSentAt: now,
	}))
	require.NoError(t, store.RevokedTokens().Revoke(ctx, &models.RevokedToken{JTI: "expired", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, store.RevokedTokens().Revoke(ctx, &models.RevokedToken{JTI: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))

	worker := NewCleanupWorker(store, time.Hour)
	worker.now = func() time.Time { return now }
	worker.RunOnce(ctx)

	_, err := store.OTPs().FindByEmail(ctx, "old@example.com")
	assert.Error(t, err)
	_, err = store.OTPs().FindByEmail(ctx, "fresh@example.com")
	assert.NoError(t, err)

	revoked, err := store.RevokedTokens().IsRevoked(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)
	revoked, err = store.RevokedTokens().IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
}
