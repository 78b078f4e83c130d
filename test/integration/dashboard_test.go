package integration_test

import (
	"net/http"
	"testing"

	"seribro_backend/internal/models"
	"seribro_backend/internal/services/dto"
	"seribro_backend/pkg/apperrors"
	"seribro_backend/test/helpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDashboards - сводки студента и компании после отклика
func TestDashboards(t *testing.T) {
	t.Parallel()
	ts := GetTestServer(t)

	companyToken, _ := helpers.ApprovedCompany(t, ts)
	project := helpers.CreateProject(t, ts, companyToken, "Dashboard project "+uuid.NewString()[:8])
	studentToken, _ := helpers.ApprovedStudent(t, ts, "Go", "React")
	helpers.Apply(t, ts, studentToken, project.ID)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/student/dashboard", studentToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var student dto.StudentDashboard
	helpers.Decode(t, body, &student)
	assert.Equal(t, models.VerificationStatusApproved, student.Verification.Status)
	assert.Equal(t, int64(1), student.Applications.Total)
	assert.Equal(t, int64(1), student.Applications.ByStatus[models.ApplicationStatusPending])
	assert.GreaterOrEqual(t, student.OpenProjects, int64(1))
	assert.NotEmpty(t, student.RecentNotifications)
	t.Logf("ДАШБОРД СТУДЕНТА: Успешно. Ответ: %s", body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/student/applications/stats", studentToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var stats dto.ApplicationStats
	helpers.Decode(t, body, &stats)
	assert.Equal(t, student.Applications, stats)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/company/dashboard", companyToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var company dto.CompanyDashboard
	helpers.Decode(t, body, &company)
	assert.Equal(t, "Acme Labs", company.CompanyName)
	assert.Equal(t, int64(1), company.Projects.ByStatus[models.ProjectStatusOpen])
	assert.Equal(t, int64(1), company.Applications.Total)
	assert.NotEmpty(t, company.Alerts)

	// Чужая роль
	res, body = ts.SendRequest(t, http.MethodGet, "/api/company/dashboard", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, body)
}

// TestRecommendedProjects - подходящий проект в выдаче, после отклика исчезает
func TestRecommendedProjects(t *testing.T) {
	t.Parallel()
	ts := GetTestServer(t)

	companyToken, _ := helpers.ApprovedCompany(t, ts)
	project := helpers.CreateProject(t, ts, companyToken, "Recommended project "+uuid.NewString()[:8])
	studentToken, _ := helpers.ApprovedStudent(t, ts, "Go", "React")

	recommended := func() []*dto.ProjectResponse {
		t.Helper()
		res, body := ts.SendRequest(t, http.MethodGet, "/api/student/projects/recommended?limit=50", studentToken, nil)
		require.Equal(t, http.StatusOK, res.StatusCode, body)
		var projects []*dto.ProjectResponse
		helpers.Decode(t, body, &projects)
		return projects
	}
	contains := func(projects []*dto.ProjectResponse) bool {
		for _, p := range projects {
			if p.ID == project.ID {
				return true
			}
		}
		return false
	}

	first := recommended()
	require.NotEmpty(t, first)
	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, *first[i-1].MatchScore, *first[i].MatchScore)
	}

	helpers.Apply(t, ts, studentToken, project.ID)
	assert.False(t, contains(recommended()))

	res, body := ts.SendRequest(t, http.MethodGet, "/api/student/projects/recommended?limit=500", studentToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)
}

// TestAdminOversight - администратор видит проекты и заявки платформы
func TestAdminOversight(t *testing.T) {
	t.Parallel()
	ts := GetTestServer(t)
	adminToken := helpers.AdminToken(t, ts)

	companyToken, companyID := helpers.ApprovedCompany(t, ts)
	project := helpers.CreateProject(t, ts, companyToken, "Oversight project "+uuid.NewString()[:8])
	studentToken, _ := helpers.ApprovedStudent(t, ts, "Go")
	app := helpers.Apply(t, ts, studentToken, project.ID)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var stats dto.PlatformStats
	helpers.Decode(t, body, &stats)
	assert.GreaterOrEqual(t, stats.Users[models.UserRoleStudent], int64(1))
	assert.GreaterOrEqual(t, stats.Projects.Total, int64(1))
	assert.GreaterOrEqual(t, stats.Applications.Total, int64(1))

	res, body = ts.SendRequest(t, http.MethodGet, "/api/admin/projects?companyId="+companyID, adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var projects dto.ProjectListResponse
	helpers.Decode(t, body, &projects)
	require.Len(t, projects.Projects, 1)
	assert.Equal(t, project.ID, projects.Projects[0].ID)
	assert.Equal(t, "Acme Labs", projects.Projects[0].CompanyName)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/admin/projects/"+project.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var detail dto.AdminProjectDetail
	helpers.Decode(t, body, &detail)
	assert.Equal(t, int64(1), detail.Applications.ByStatus[models.ApplicationStatusPending])

	res, body = ts.SendRequest(t, http.MethodGet, "/api/admin/projects/"+project.ID+"/applications", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var apps dto.ApplicationListResponse
	helpers.Decode(t, body, &apps)
	require.Len(t, apps.Applications, 1)
	assert.Equal(t, app.ID, apps.Applications[0].ID)
	assert.Equal(t, project.Title, apps.Applications[0].ProjectTitle)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/admin/applications/"+app.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/admin/applications?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodGet, "/api/admin/applications/"+uuid.NewString(), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, string(apperrors.CodeNotFound), helpers.Decode(t, body, nil).Code)

	// Компании сюда нельзя
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/admin/projects", companyToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
