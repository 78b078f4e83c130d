package services

import (
	"testing"
	"time"

	"seribro_backend/internal/models"
	"seribro_backend/internal/services/dto"
	"seribro_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentDashboard(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "dash@acme.test")
	studentID := env.approvedStudent(t, "dash@example.com")

	dashboard, err := env.dashboards.StudentDashboard(env.ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusApproved, dashboard.Verification.Status)
	assert.Equal(t, "Your profile is verified", dashboard.Verification.StatusMessage)
	assert.Equal(t, 100, dashboard.ProfileCompletion.Percentage)
	assert.Equal(t, int64(0), dashboard.Applications.Total)
	// все статусы в ответе, даже нулевые
	assert.Len(t, dashboard.Applications.ByStatus, len(models.AllApplicationStatuses))
	require.Len(t, dashboard.Alerts, 1)
	assert.Contains(t, dashboard.Alerts[0].Message, "first application")

	first := env.createProject(t, companyID, "First")
	second := env.createProject(t, companyID, "Second")
	env.apply(t, studentID, first.ID)
	app := env.apply(t, studentID, second.ID)
	_, err = env.applications.Withdraw(env.ctx, studentID, app.ID)
	require.NoError(t, err)

	dashboard, err = env.dashboards.StudentDashboard(env.ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dashboard.OpenProjects)
	assert.Equal(t, int64(2), dashboard.Applications.Total)
	assert.Equal(t, int64(1), dashboard.Applications.ByStatus[models.ApplicationStatusPending])
	assert.Equal(t, int64(1), dashboard.Applications.ByStatus[models.ApplicationStatusWithdrawn])
	assert.Empty(t, dashboard.Alerts)
	assert.NotEmpty(t, dashboard.RecentNotifications)
	assert.LessOrEqual(t, len(dashboard.RecentNotifications), recentNotificationsLimit)

	stats, err := env.dashboards.ApplicationStats(env.ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, dashboard.Applications, *stats)
}

func TestStudentDashboard_IncompleteProfile(t *testing.T) {
	env := newTestEnv(t)
	studentID := env.registerVerified(t, models.UserRoleStudent, "fresh@example.com")

	dashboard, err := env.dashboards.StudentDashboard(env.ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusIncomplete, dashboard.Verification.Status)
	assert.Less(t, dashboard.ProfileCompletion.Percentage, 100)
	assert.NotEmpty(t, dashboard.ProfileCompletion.MissingSections)
	require.NotEmpty(t, dashboard.Alerts)
	assert.Equal(t, "warning", dashboard.Alerts[0].Level)
}

func TestDashboard_WrongRole(t *testing.T) {
	env := newTestEnv(t)
	studentID := env.registerVerified(t, models.UserRoleStudent, "role@example.com")
	companyID := env.registerVerified(t, models.UserRoleCompany, "role@acme.test")

	_, err := env.dashboards.CompanyDashboard(env.ctx, studentID)
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
	_, err = env.dashboards.StudentDashboard(env.ctx, companyID)
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}

func TestCompanyDashboard(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "board@acme.test")

	dashboard, err := env.dashboards.CompanyDashboard(env.ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Labs", dashboard.CompanyName)
	assert.Equal(t, int64(0), dashboard.Projects.Total)
	require.Len(t, dashboard.Alerts, 1)
	assert.Equal(t, "Post your first project", dashboard.Alerts[0].Message)

	open := env.createProject(t, companyID, "Still open")
	closed := env.createProject(t, companyID, "Closed early")
	studentID := env.approvedStudent(t, "applicant@example.com")
	env.apply(t, studentID, open.ID)
	_, err = env.projects.Close(env.ctx, companyID, closed.ID)
	require.NoError(t, err)

	// чужие проекты не считаются
	otherID := env.approvedCompany(t, "other@acme.test")
	env.createProject(t, otherID, "Not mine")

	dashboard, err = env.dashboards.CompanyDashboard(env.ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dashboard.Projects.Total)
	assert.Equal(t, int64(1), dashboard.Projects.ByStatus[models.ProjectStatusOpen])
	assert.Equal(t, int64(1), dashboard.Projects.ByStatus[models.ProjectStatusClosed])
	assert.Equal(t, int64(1), dashboard.Applications.ByStatus[models.ApplicationStatusPending])
	require.Len(t, dashboard.Alerts, 1)
	assert.Contains(t, dashboard.Alerts[0].Message, "1 application(s)")
}

func TestRecommended(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "rec@acme.test")
	studentID := env.approvedStudent(t, "rec@example.com", "Go", "React")

	partial, err := env.projects.Create(env.ctx, companyID, &dto.CreateProjectRequest{
		Title:       "Go only half",
		Description: "Backend work where only some of the skills match",
		Budget:      8000,
		Deadline:    env.clock.Now().Add(10 * 24 * time.Hour),
		Skills:      []string{"Go", "Rust"},
	})
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	full := env.createProject(t, companyID, "Full match")
	env.clock.Advance(time.Minute)
	_, err = env.projects.Create(env.ctx, companyID, &dto.CreateProjectRequest{
		Title:       "No overlap",
		Description: "Functional programming work nobody here has done",
		Budget:      8000,
		Deadline:    env.clock.Now().Add(10 * 24 * time.Hour),
		Skills:      []string{"Haskell"},
	})
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	applied := env.createProject(t, companyID, "Already applied")
	env.apply(t, studentID, applied.ID)

	picks, err := env.projects.Recommended(env.ctx, studentID, 0)
	require.NoError(t, err)
	require.Len(t, picks, 2)
	assert.Equal(t, full.ID, picks[0].ID)
	assert.Equal(t, partial.ID, picks[1].ID)
	assert.Greater(t, *picks[0].MatchScore, *picks[1].MatchScore)
	assert.Equal(t, "Acme Labs", picks[0].CompanyName)

	picks, err = env.projects.Recommended(env.ctx, studentID, 1)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, full.ID, picks[0].ID)
}

func TestRecommended_NoProfile(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.projects.Recommended(env.ctx, "missing-user", 5)
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}

func TestAdminOversight(t *testing.T) {
	env := newTestEnv(t)
	companyID := env.approvedCompany(t, "watch@acme.test")
	otherID := env.approvedCompany(t, "watch-other@acme.test")
	studentID := env.approvedStudent(t, "watch@example.com")
	pendingID := env.registerVerified(t, models.UserRoleStudent, "queue@example.com")
	env.completeStudentProfile(t, pendingID)
	_, err := env.profiles.SubmitForVerification(env.ctx, pendingID)
	require.NoError(t, err)

	project := env.createProject(t, companyID, "Watched project")
	env.createProject(t, otherID, "Someone else")
	app := env.apply(t, studentID, project.ID)

	stats, err := env.admin.PlatformStats(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Users[models.UserRoleStudent])
	assert.Equal(t, int64(2), stats.Users[models.UserRoleCompany])
	assert.Equal(t, int64(1), stats.Users[models.UserRoleAdmin])
	assert.Equal(t, int64(1), stats.PendingVerifications)
	assert.Equal(t, int64(2), stats.Projects.ByStatus[models.ProjectStatusOpen])
	assert.Equal(t, int64(1), stats.Applications.Total)

	all, err := env.admin.ListProjects(env.ctx, &dto.AdminProjectsQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Projects, 2)
	assert.Equal(t, int64(2), all.Pagination.Total)

	mine, err := env.admin.ListProjects(env.ctx, &dto.AdminProjectsQuery{CompanyID: companyID})
	require.NoError(t, err)
	require.Len(t, mine.Projects, 1)
	assert.Equal(t, project.ID, mine.Projects[0].ID)

	detail, err := env.admin.GetProject(env.ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Labs", detail.Project.CompanyName)
	assert.Equal(t, int64(1), detail.Applications.ByStatus[models.ApplicationStatusPending])

	apps, err := env.admin.ListProjectApplications(env.ctx, project.ID, &dto.ApplicationsQuery{})
	require.NoError(t, err)
	require.Len(t, apps.Applications, 1)
	assert.Equal(t, "Watched project", apps.Applications[0].ProjectTitle)
	assert.NotEmpty(t, apps.Applications[0].StudentName)

	pending, err := env.admin.ListApplications(env.ctx, &dto.AdminApplicationsQuery{Status: models.ApplicationStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending.Applications, 1)
	accepted, err := env.admin.ListApplications(env.ctx, &dto.AdminApplicationsQuery{Status: models.ApplicationStatusAccepted})
	require.NoError(t, err)
	assert.Empty(t, accepted.Applications)

	got, err := env.admin.GetApplication(env.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, got.ID)
	assert.Equal(t, "Watched project", got.ProjectTitle)
}

func TestAdminOversight_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.admin.GetProject(env.ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
	_, err = env.admin.ListProjectApplications(env.ctx, "nope", &dto.ApplicationsQuery{})
	assert.ErrorIs(t, err, apperrors.ErrProjectNotFound)
	_, err = env.admin.GetApplication(env.ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrApplicationNotFound)
}
