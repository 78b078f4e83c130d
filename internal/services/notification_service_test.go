package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"seribro_backend/internal/models"
	"seribro_backend/internal/services/dto"
	"seribro_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAlerter struct {
	mu     sync.Mutex
	titles []string
}

func (a *countingAlerter) Alert(ctx context.Context, title, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.titles = append(a.titles, title)
	return nil
}

func TestNotifications_ListAndMarkRead(t *testing.T) {
	env := newTestEnv(t)
	owner := "user-1"
	stranger := "user-2"

	for i := 0; i < 3; i++ {
		env.notifications.Notify(env.ctx, owner, models.NotificationTypeNewApplication,
			"New application", "Someone applied", map[string]interface{}{"n": i})
	}
	assert.Equal(t, 3, env.pub.count(owner))

	list, err := env.notifications.List(env.ctx, owner, &dto.NotificationsQuery{})
	require.NoError(t, err)
	require.Len(t, list.Notifications, 3)
	assert.Equal(t, int64(3), list.UnreadCount)
	assert.NotEmpty(t, list.Notifications[0].Data)

	target := list.Notifications[0].ID

	err = env.notifications.MarkRead(env.ctx, stranger, target)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)

	require.NoError(t, env.notifications.MarkRead(env.ctx, owner, target))
	require.NoError(t, env.notifications.MarkRead(env.ctx, owner, target), "повторное прочтение - no-op")

	unread, err := env.notifications.List(env.ctx, owner, &dto.NotificationsQuery{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread.Notifications, 2)
	assert.Equal(t, int64(2), unread.UnreadCount)

	updated, err := env.notifications.MarkAllRead(env.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	list, err = env.notifications.List(env.ctx, owner, &dto.NotificationsQuery{})
	require.NoError(t, err)
	assert.Zero(t, list.UnreadCount)

	err = env.notifications.MarkRead(env.ctx, owner, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
}

func TestNotifyAdmins_AlertsExternalChannel(t *testing.T) {
	env := newTestEnv(t)
	alerter := &countingAlerter{}
	notifications := NewNotificationService(env.store, nil, alerter, env.opts)

	notifications.NotifyAdmins(env.ctx, models.NotificationTypeVerificationRequest,
		"New profile verification request", "A student profile was submitted", nil)

	assert.True(t, hasNotification(env.notificationsOf(t, env.adminID), models.NotificationTypeVerificationRequest))
	assert.Equal(t, []string{"New profile verification request"}, alerter.titles)
}

func TestProjectLocks_SerializesSameProject(t *testing.T) {
	locks := NewProjectLocks()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("p1")
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locks.locks, "освобожденные замки удаляются")
}

func TestProjectLocks_IndependentProjects(t *testing.T) {
	locks := NewProjectLocks()

	unlockA := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("замок другого проекта не должен блокироваться")
	}
	unlockA()
}
