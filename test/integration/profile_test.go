package integration_test

import (
	"net/http"
	"testing"
	"time"

	"seribro_backend/internal/models"
	"seribro_backend/internal/services/dto"
	"seribro_backend/pkg/apperrors"
	"seribro_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getProfile(t *testing.T, ts *helpers.TestServer, token, role string) dto.ProfileResponse {
	t.Helper()
	res, body := ts.SendRequest(t, http.MethodGet, "/api/"+role+"/profile", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var profile dto.ProfileResponse
	helpers.Decode(t, body, &profile)
	return profile
}

// TestStudentProfileVerificationFlow - заполнение, отправка и одобрение профиля
func TestStudentProfileVerificationFlow(t *testing.T) {
	t.Parallel()
	ts := GetTestServer(t)
	email := helpers.UniqueEmail("profile")

	userID := helpers.RegisterVerified(t, ts, models.UserRoleStudent, email)
	token := helpers.Login(t, ts, email, helpers.TestPassword, models.UserRoleStudent)

	profile := getProfile(t, ts, token, "student")
	assert.Less(t, profile.ProfileCompletion, 100)
	assert.Equal(t, models.VerificationStatusIncomplete, profile.VerificationStatus)
	assert.NotEmpty(t, profile.MissingSections)
	t.Logf("ПРОФИЛЬ: начальное заполнение %d%%", profile.ProfileCompletion)

	// Неполный профиль нельзя отправить
	res, body := ts.SendRequest(t, http.MethodPost, "/api/student/profile/submit-verification", token, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, string(apperrors.CodeIncompleteProfile), helpers.Decode(t, body, nil).Code)

	helpers.CompleteStudentProfile(t, ts, token)
	profile = getProfile(t, ts, token, "student")
	require.Equal(t, 100, profile.ProfileCompletion, "missing: %v", profile.MissingSections)
	assert.Empty(t, profile.MissingSections)
	assert.Contains(t, profile.Documents, models.DocumentResume)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/student/profile/submit-verification", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.Decode(t, body, &profile)
	assert.Equal(t, models.VerificationStatusSubmitted, profile.VerificationStatus)

	adminToken := helpers.AdminToken(t, ts)
	res, body = ts.SendRequest(t, http.MethodGet, "/api/admin/verifications?role=student&status=submitted&limit=100", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var queue dto.VerificationQueueResponse
	helpers.Decode(t, body, &queue)
	found := false
	for _, item := range queue.Items {
		if item.UserID == userID {
			found = true
			assert.Equal(t, email, item.Email)
			assert.NotEmpty(t, item.ProofDocumentURL, "Админ должен видеть документ регистрации")
		}
	}
	assert.True(t, found, "Профиль должен быть в очереди проверки")

	res, body = ts.SendRequest(t, http.MethodPost, "/api/admin/student/"+userID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	profile = getProfile(t, ts, token, "student")
	assert.Equal(t, models.VerificationStatusApproved, profile.VerificationStatus)
	assert.NotNil(t, profile.VerifiedAt)
	t.Logf("ПРОФИЛЬ: одобрен. Ответ: %s", body)
}

func TestProfile_AdminReject(t *testing.T) {
	t.Parallel()
	ts := GetTestServer(t)
	email := helpers.UniqueEmail("reject")

	userID := helpers.RegisterVerified(t, ts, models.UserRoleCompany, email)
	token := helpers.Login(t, ts, email, helpers.TestPassword, models.UserRoleCompany)
	helpers.CompleteCompanyProfile(t, ts, token)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/company/profile/submit-verification", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	adminToken := helpers.AdminToken(t, ts)

	// Причина обязательна
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/admin/company/"+userID+"/reject", adminToken, dto.RejectProfileRequest{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/admin/company/"+userID+"/reject", adminToken,
		dto.RejectProfileRequest{Reason: "Registration certificate is unreadable"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	profile := getProfile(t, ts, token, "company")
	assert.Equal(t, models.VerificationStatusRejected, profile.VerificationStatus)
	assert.Equal(t, "Registration certificate is unreadable", profile.RejectionReason)

	// Неодобренная компания не может публиковать проекты
	res, body = ts.SendRequest(t, http.MethodPost, "/api/company/projects/create", token, dto.CreateProjectRequest{
		Title: "Landing page", Description: "A landing page for the new product launch",
		Budget: 5000, Deadline: time.Now().Add(7 * 24 * time.Hour), Skills: []string{"HTML"},
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode, body)
	assert.Equal(t, string(apperrors.CodeUnverifiedCompany), helpers.Decode(t, body, nil).Code)
}

func TestProfile_SectionNotAllowedForRole(t *testing.T) {
	t.Parallel()
	ts := GetTestServer(t)
	email := helpers.UniqueEmail("section")

	helpers.RegisterVerified(t, ts, models.UserRoleCompany, email)
	token := helpers.Login(t, ts, email, helpers.TestPassword, models.UserRoleCompany)

	res, _ := ts.SendRequest(t, http.MethodPut, "/api/company/profile/skills", token, dto.SkillsRequest{Skills: []string{"Go"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = ts.SendRequest(t, http.MethodPut, "/api/company/profile/unknown", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// Студенческие маршруты закрыты для компании
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/student/profile", token, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// Только администратор видит очередь проверки
	res, _ = ts.SendRequest(t, http.MethodGet, "/api/admin/verifications", token, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestProfile_PublicCompanyProfile(t *testing.T) {
	t.Parallel()
	ts := GetTestServer(t)

	_, companyID := helpers.ApprovedCompany(t, ts)
	studentToken, _ := helpers.ApprovedStudent(t, ts)

	res, body := ts.SendRequest(t, http.MethodGet, "/api/student/companies/"+companyID, studentToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var public dto.PublicCompanyProfile
	helpers.Decode(t, body, &public)
	assert.Equal(t, "Acme Labs", public.CompanyName)
	assert.True(t, public.Verified)
	assert.NotContains(t, body, "registration-certificate")
}
