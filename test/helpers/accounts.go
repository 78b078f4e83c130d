package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"seribro_backend/internal/models"
	"seribro_backend/internal/services/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const TestPassword = "password123"

// PDF определяется по сигнатуре, расширение не важно
var PDFDocument = []byte("%PDF-1.4 integration test document")

// Envelope - общий конверт ответа API
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

// Decode разбирает конверт и, если target не nil, поле data
func Decode(t *testing.T, body string, target interface{}) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(body), &env), "ответ не JSON: %s", body)
	if target != nil {
		require.NoError(t, json.Unmarshal(env.Data, target), "не удалось разобрать data: %s", body)
	}
	return env
}

// UniqueEmail - тесты идут параллельно на одном сервере
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}

func RegisterStudent(t *testing.T, ts *TestServer, email string) (*http.Response, string) {
	t.Helper()
	return ts.SendMultipart(t, "/api/auth/student/register", "", map[string]string{
		"email":    email,
		"password": TestPassword,
		"fullName": "Asha Rao",
		"phone":    "9876543210",
	}, FormFile{Field: "collegeId", FileName: "college-id.pdf", Data: PDFDocument})
}

func RegisterCompany(t *testing.T, ts *TestServer, email string) (*http.Response, string) {
	t.Helper()
	return ts.SendMultipart(t, "/api/auth/company/register", "", map[string]string{
		"email":         email,
		"password":      TestPassword,
		"companyName":   "Acme Labs",
		"contactPerson": "Ravi Kumar",
		"phone":         "9123456780",
	}, FormFile{Field: "verificationDocument", FileName: "gst.pdf", Data: PDFDocument})
}

// RegisterVerified - регистрация и подтверждение email, возвращает ID пользователя
func RegisterVerified(t *testing.T, ts *TestServer, role models.UserRole, email string) string {
	t.Helper()

	var res *http.Response
	var body string
	if role == models.UserRoleCompany {
		res, body = RegisterCompany(t, ts, email)
	} else {
		res, body = RegisterStudent(t, ts, email)
	}
	require.Equal(t, http.StatusCreated, res.StatusCode, "Регистрация должна пройти. Ответ: %s", body)
	var registered dto.RegisterResponse
	Decode(t, body, &registered)

	code, ok := ts.Mail.LastOTP(email)
	require.True(t, ok, "OTP должен быть отправлен при регистрации")
	res, body = ts.SendRequest(t, http.MethodPost, "/api/auth/verify-otp", "", dto.VerifyOTPRequest{Email: email, OTP: code})
	require.Equal(t, http.StatusOK, res.StatusCode, "Подтверждение OTP. Ответ: %s", body)

	return registered.UserID
}

func Login(t *testing.T, ts *TestServer, email, password string, role models.UserRole) string {
	t.Helper()
	res, body := ts.SendRequest(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email: email, Password: password, Role: role,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "Логин должен быть успешным. Ответ: %s", body)

	var login dto.LoginResponse
	Decode(t, body, &login)
	require.NotEmpty(t, login.Token, "Токен не должен быть пустым")
	return login.Token
}

func AdminToken(t *testing.T, ts *TestServer) string {
	t.Helper()
	return Login(t, ts, AdminEmail, AdminPassword, models.UserRoleAdmin)
}

func updateSection(t *testing.T, ts *TestServer, token, role, section string, payload interface{}) {
	t.Helper()
	res, body := ts.SendRequest(t, http.MethodPut, "/api/"+role+"/profile/"+section, token, payload)
	require.Equal(t, http.StatusOK, res.StatusCode, "Обновление секции %s. Ответ: %s", section, body)
}

func uploadDocument(t *testing.T, ts *TestServer, token, role, docType string) {
	t.Helper()
	res, body := ts.SendMultipart(t, "/api/"+role+"/profile/documents/"+docType, token, nil,
		FormFile{Field: "file", FileName: docType + ".pdf", Data: PDFDocument})
	require.Equal(t, http.StatusOK, res.StatusCode, "Загрузка документа %s. Ответ: %s", docType, body)
}

func CompleteStudentProfile(t *testing.T, ts *TestServer, token string, skills ...string) {
	t.Helper()
	if len(skills) == 0 {
		skills = []string{"Go", "SQL"}
	}
	updateSection(t, ts, token, "student", "basic-info", dto.StudentBasicInfoRequest{
		FullName: "Asha Rao", Phone: "9876543210", CollegeName: "IIT Delhi",
		Degree: "B.Tech", GraduationYear: 2026,
	})
	updateSection(t, ts, token, "student", "skills", dto.SkillsRequest{Skills: skills})
	updateSection(t, ts, token, "student", "tech-stack", dto.TechStackRequest{TechStack: []string{"PostgreSQL", "Docker"}})
	updateSection(t, ts, token, "student", "projects", dto.PortfolioProjectsRequest{Projects: []dto.PortfolioProjectRequest{{
		Title: "Campus API", Description: "REST API for the campus events portal",
	}}})
	uploadDocument(t, ts, token, "student", string(models.DocumentResume))
}

func CompleteCompanyProfile(t *testing.T, ts *TestServer, token string) {
	t.Helper()
	updateSection(t, ts, token, "company", "basic-info", dto.CompanyBasicInfoRequest{
		CompanyName: "Acme Labs", IndustryType: "Software", Mobile: "9123456780",
	})
	updateSection(t, ts, token, "company", "authorized-person", dto.AuthorizedPersonRequest{
		Name: "Ravi Kumar", Designation: "CTO", Email: "ravi@acme.test",
	})
	uploadDocument(t, ts, token, "company", string(models.DocumentRegistrationCertificate))
}

// SubmitAndApprove - отправка на проверку и одобрение администратором
func SubmitAndApprove(t *testing.T, ts *TestServer, token, userID string, role models.UserRole) {
	t.Helper()
	res, body := ts.SendRequest(t, http.MethodPost, "/api/"+string(role)+"/profile/submit-verification", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, "Отправка на проверку. Ответ: %s", body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/admin/"+string(role)+"/"+userID+"/approve", AdminToken(t, ts), nil)
	require.Equal(t, http.StatusOK, res.StatusCode, "Одобрение профиля. Ответ: %s", body)
}

// ApprovedStudent - студент с одобренным профилем: токен и ID
func ApprovedStudent(t *testing.T, ts *TestServer, skills ...string) (string, string) {
	t.Helper()
	email := UniqueEmail("student")
	userID := RegisterVerified(t, ts, models.UserRoleStudent, email)
	token := Login(t, ts, email, TestPassword, models.UserRoleStudent)
	CompleteStudentProfile(t, ts, token, skills...)
	SubmitAndApprove(t, ts, token, userID, models.UserRoleStudent)
	return token, userID
}

// ApprovedCompany - компания с одобренным профилем: токен и ID
func ApprovedCompany(t *testing.T, ts *TestServer) (string, string) {
	t.Helper()
	email := UniqueEmail("company")
	userID := RegisterVerified(t, ts, models.UserRoleCompany, email)
	token := Login(t, ts, email, TestPassword, models.UserRoleCompany)
	CompleteCompanyProfile(t, ts, token)
	SubmitAndApprove(t, ts, token, userID, models.UserRoleCompany)
	return token, userID
}

func CreateProject(t *testing.T, ts *TestServer, token, title string) dto.ProjectResponse {
	t.Helper()
	res, body := ts.SendRequest(t, http.MethodPost, "/api/company/projects/create", token, dto.CreateProjectRequest{
		Title:       title,
		Description: "Build and ship the feature end to end with tests",
		Budget:      15000,
		Deadline:    time.Now().Add(14 * 24 * time.Hour),
		Skills:      []string{"Go", "React"},
		TechStack:   []string{"PostgreSQL"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, "Создание проекта. Ответ: %s", body)

	var project dto.ProjectResponse
	Decode(t, body, &project)
	return project
}

func Apply(t *testing.T, ts *TestServer, token, projectID string) dto.ApplicationResponse {
	t.Helper()
	res, body := ts.SendRequest(t, http.MethodPost, "/api/student/projects/"+projectID+"/apply", token, dto.ApplyRequest{
		Proposal:      "I have built similar services and can deliver on time",
		ProposedPrice: 12000,
		EstimatedTime: "2 weeks",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, "Отклик на проект. Ответ: %s", body)

	var app dto.ApplicationResponse
	Decode(t, body, &app)
	return app
}
