package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/services/dto"
	"seribro_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Полный путь: регистрация -> OTP -> профиль -> верификация -> проект -> заявка
func TestMarketplaceFlow_RegisterToApply(t *testing.T) {
	env := newTestEnv(t)

	companyID := env.registerVerified(t, models.UserRoleCompany, "flow@acme.test")
	env.completeCompanyProfile(t, companyID)
	env.submitAndApprove(t, companyID, models.UserRoleCompany)

	studentID := env.registerVerified(t, models.UserRoleStudent, "flow@example.com")
	env.completeStudentProfile(t, studentID, "Go", "React")
	env.submitAndApprove(t, studentID, models.UserRoleStudent)

	login, err := env.auth.Login(env.ctx, &dto.LoginRequest{
		Email: "flow@example.com", Password: "password123", Role: models.UserRoleStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, login.User.AdminApprovalStatus)

	project := env.createProject(t, companyID, "Flow project")
	app := env.apply(t, studentID, project.ID)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Equal(t, "Flow project", app.ProjectTitle)

	assert.Equal(t, 1, env.project(t, project.ID).ApplicationCount)
	assert.True(t, hasNotification(env.notificationsOf(t, companyID), models.NotificationTypeNewApplication))
	assert.Positive(t, env.pub.count(companyID))

	list, err := env.applications.ListForProject(env.ctx, companyID, project.ID, &dto.ApplicationsQuery{})
	require.NoError(t, err)
	require.Len(t, list.Applications, 1)
	assert.Equal(t, "Asha Rao", list.Applications[0].StudentName)
	require.NotNil(t, list.Applications[0].MatchScore)
	assert.Equal(t, 100.0, *list.Applications[0].MatchScore)
}

func TestApply_PreconditionOrder(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "order@acme.test")
	project := env.createProject(t, companyID, "Ordered checks")
	req := &dto.ApplyRequest{Proposal: "I would love to work on this project with you", ProposedPrice: 9000}

	t.Run("unverified student", func(t *testing.T) {
		studentID := env.registerVerified(t, models.UserRoleStudent, "unverified@example.com")
		env.completeStudentProfile(t, studentID)

		_, err := env.applications.Apply(env.ctx, studentID, project.ID, req)
		assert.ErrorIs(t, err, apperrors.ErrUnverifiedStudent)
	})

	t.Run("unknown project", func(t *testing.T) {
		studentID := env.approvedStudent(t, "lost@example.com")
		_, err := env.applications.Apply(env.ctx, studentID, "missing", req)
		assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
	})

	t.Run("duplicate", func(t *testing.T) {
		studentID := env.approvedStudent(t, "twice@example.com")
		env.apply(t, studentID, project.ID)

		_, err := env.applications.Apply(env.ctx, studentID, project.ID, req)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateApplication)
	})

	t.Run("deadline passed before auto-close", func(t *testing.T) {
		studentID := env.approvedStudent(t, "late@example.com")
		short, err := env.projects.Create(env.ctx, companyID, &dto.CreateProjectRequest{
			Title: "Short one", Description: "Due in a single hour from now",
			Budget: 500, Deadline: env.clock.Now().Add(time.Hour), Skills: []string{"Go"},
		})
		require.NoError(t, err)

		env.clock.Advance(2 * time.Hour)
		_, err = env.applications.Apply(env.ctx, studentID, short.ID, req)
		assert.ErrorIs(t, err, apperrors.ErrProjectNotOpen)
		assert.Zero(t, env.project(t, short.ID).ApplicationCount)
	})
}

func TestShortlistAndReject(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "review@acme.test")
	otherCompany := env.approvedCompany(t, "spy@acme.test")
	studentID := env.approvedStudent(t, "reviewed@example.com")
	project := env.createProject(t, companyID, "Review project")
	app := env.apply(t, studentID, project.ID)

	_, err := env.applications.Shortlist(env.ctx, otherCompany, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	shortlisted, err := env.applications.Shortlist(env.ctx, companyID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusShortlisted, shortlisted.Status)

	_, err = env.applications.Shortlist(env.ctx, companyID, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotPending)

	rejected, err := env.applications.Reject(env.ctx, companyID, app.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusRejected, rejected.Status)
	assert.NotEmpty(t, rejected.RejectionReason)

	_, err = env.applications.Reject(env.ctx, companyID, app.ID, "again")
	assert.ErrorIs(t, err, apperrors.ErrNotPending)

	notifications := env.notificationsOf(t, studentID)
	assert.True(t, hasNotification(notifications, models.NotificationTypeApplicationShortlist))
	assert.True(t, hasNotification(notifications, models.NotificationTypeApplicationRejected))
}

func TestAccept_AssignsAndRejectsSiblings(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "accept@acme.test")
	project := env.createProject(t, companyID, "Single winner")

	winner := env.approvedStudent(t, "winner@example.com")
	loser := env.approvedStudent(t, "loser@example.com")
	winnerApp := env.apply(t, winner, project.ID)
	loserApp := env.apply(t, loser, project.ID)

	result, err := env.applications.Accept(env.ctx, companyID, winnerApp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusAccepted, result.Application.Status)
	assert.Equal(t, models.ProjectStatusAssigned, result.Project.Status)
	assert.Equal(t, []string{loserApp.ID}, result.RejectedIDs)

	stored := env.project(t, project.ID)
	require.NotNil(t, stored.AssignedStudentID)
	assert.Equal(t, winner, *stored.AssignedStudentID)
	assert.Equal(t, models.ApplicationStatusRejected, env.application(t, loserApp.ID).Status)

	_, err = env.applications.Accept(env.ctx, companyID, loserApp.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyAssigned)

	assert.True(t, hasNotification(env.notificationsOf(t, winner), models.NotificationTypeApplicationAccepted))
	assert.True(t, hasNotification(env.notificationsOf(t, loser), models.NotificationTypeApplicationRejected))
	assert.True(t, hasNotification(env.notificationsOf(t, companyID), models.NotificationTypeProjectAssigned))
}

func TestAccept_ConcurrentExactlyOneWins(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "race@acme.test")
	project := env.createProject(t, companyID, "Contended project")

	const applicants = 8
	appIDs := make([]string, 0, applicants)
	for i := 0; i < applicants; i++ {
		studentID := env.approvedStudent(t, fmt.Sprintf("racer%d@example.com", i))
		appIDs = append(appIDs, env.apply(t, studentID, project.ID).ID)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		assigned int
		other    []error
	)
	start := make(chan struct{})
	for _, id := range appIDs {
		wg.Add(1)
		go func(appID string) {
			defer wg.Done()
			<-start
			_, err := env.applications.Accept(env.ctx, companyID, appID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, apperrors.ErrAlreadyAssigned):
				assigned++
			default:
				other = append(other, err)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, applicants-1, assigned)
	assert.Empty(t, other)

	accepted := 0
	for _, id := range appIDs {
		if env.application(t, id).Status == models.ApplicationStatusAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, models.ProjectStatusAssigned, env.project(t, project.ID).Status)
}

func TestAccept_RacesWithClose(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "close-race@acme.test")
	studentID := env.approvedStudent(t, "close-race@example.com")
	project := env.createProject(t, companyID, "Close or accept")
	app := env.apply(t, studentID, project.ID)

	var wg sync.WaitGroup
	var acceptErr, closeErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, acceptErr = env.applications.Accept(env.ctx, companyID, app.ID)
	}()
	go func() {
		defer wg.Done()
		_, closeErr = env.projects.Close(env.ctx, companyID, project.ID)
	}()
	wg.Wait()

	require.NoError(t, closeErr)
	final := env.project(t, project.ID)
	stored := env.application(t, app.ID)
	if acceptErr == nil {
		// Accept успел первым, close закрыл уже назначенный проект
		assert.Equal(t, models.ApplicationStatusAccepted, stored.Status)
	} else {
		assert.ErrorIs(t, acceptErr, apperrors.ErrAlreadyAssigned)
		assert.Equal(t, models.ApplicationStatusRejected, stored.Status)
	}
	assert.Equal(t, models.ProjectStatusClosed, final.Status)
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "withdraw@acme.test")
	studentID := env.approvedStudent(t, "withdraw@example.com")
	intruder := env.approvedStudent(t, "intruder@example.com")
	project := env.createProject(t, companyID, "Withdrawable")

	app := env.apply(t, studentID, project.ID)
	require.Equal(t, 1, env.project(t, project.ID).ApplicationCount)

	_, err := env.applications.Withdraw(env.ctx, intruder, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	withdrawn, err := env.applications.Withdraw(env.ctx, studentID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusWithdrawn, withdrawn.Status)
	assert.Zero(t, env.project(t, project.ID).ApplicationCount)
	assert.True(t, hasNotification(env.notificationsOf(t, companyID), models.NotificationTypeApplicationWithdrawn))

	_, err = env.applications.Withdraw(env.ctx, studentID, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotPending)

	// После отзыва можно подать заново
	again := env.apply(t, studentID, project.ID)
	assert.NotEqual(t, app.ID, again.ID)
	assert.Equal(t, 1, env.project(t, project.ID).ApplicationCount)
}

func TestWithdraw_ShortlistedPolicy(t *testing.T) {
	opts := testOptions()
	opts.AllowWithdrawAfterShortlist = false
	env := newTestEnvWithOptions(t, opts)

	companyID := env.approvedCompany(t, "policy@acme.test")
	studentID := env.approvedStudent(t, "policy@example.com")
	project := env.createProject(t, companyID, "Strict policy")
	app := env.apply(t, studentID, project.ID)

	_, err := env.applications.Shortlist(env.ctx, companyID, app.ID)
	require.NoError(t, err)

	_, err = env.applications.Withdraw(env.ctx, studentID, app.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStatus))
	assert.Equal(t, models.ApplicationStatusShortlisted, env.application(t, app.ID).Status)
}

func TestListMineApplications(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "mine@acme.test")
	studentID := env.approvedStudent(t, "mine@example.com")
	p1 := env.createProject(t, companyID, "First")
	p2 := env.createProject(t, companyID, "Second")
	env.apply(t, studentID, p1.ID)
	a2 := env.apply(t, studentID, p2.ID)
	_, err := env.applications.Withdraw(env.ctx, studentID, a2.ID)
	require.NoError(t, err)

	all, err := env.applications.ListMine(env.ctx, studentID, &dto.ApplicationsQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Pagination.Total)

	pending, err := env.applications.ListMine(env.ctx, studentID, &dto.ApplicationsQuery{Status: models.ApplicationStatusPending})
	require.NoError(t, err)
	require.Len(t, pending.Applications, 1)
	assert.Equal(t, "First", pending.Applications[0].ProjectTitle)
}

// brokenNotifications - хранилище, в котором таблица уведомлений недоступна
type brokenNotifications struct {
	repositories.Store
}

func (s brokenNotifications) Notifications() repositories.NotificationRepository {
	return failingNotificationRepo{}
}

type failingNotificationRepo struct {
	repositories.NotificationRepository
}

func (failingNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return errors.New("notifications table unavailable")
}

func TestNotificationFailureDoesNotFailOperation(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "quiet@acme.test")
	studentID := env.approvedStudent(t, "quiet@example.com")
	project := env.createProject(t, companyID, "Quiet project")

	broken := NewNotificationService(brokenNotifications{Store: env.store}, env.pub, nil, env.opts)
	locks := NewProjectLocks()
	applications := NewApplicationService(env.store, locks, env.mail, broken, env.opts)
	applications.now = env.clock.Now

	pushedBefore := env.pub.count(studentID)
	app, err := applications.Apply(env.ctx, studentID, project.ID, &dto.ApplyRequest{
		Proposal: "Notifications are down but I still want to apply", ProposedPrice: 7000,
	})
	require.NoError(t, err)

	result, err := applications.Accept(env.ctx, companyID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusAccepted, result.Application.Status)
	assert.Equal(t, pushedBefore, env.pub.count(studentID), "без записи в БД push не отправляется")

	assert.False(t, hasNotification(env.notificationsOf(t, studentID), models.NotificationTypeApplicationAccepted))
}
