package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"seribro_backend/internal/algorithms"
	"seribro_backend/internal/email"
	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/repositories/memory"
	"seribro_backend/internal/services/dto"
	"seribro_backend/internal/storage"

	"github.com/stretchr/testify/require"
)

// testClock - управляемое время для OTP и дедлайнов
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingPublisher запоминает, кому ушли push-события
type recordingPublisher struct {
	mu       sync.Mutex
	received map[string]int
}

func (p *recordingPublisher) SendToUser(userID string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received[userID]++
}

func (p *recordingPublisher) count(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.received[userID]
}

type testEnv struct {
	ctx   context.Context
	store *memory.Store
	mail  *email.MockProvider
	pub   *recordingPublisher
	clock *testClock
	opts  Options

	notifications *NotificationServiceImpl
	auth          *AuthServiceImpl
	profiles      *ProfileServiceImpl
	admin         *AdminServiceImpl
	projects      *ProjectServiceImpl
	applications  *ApplicationServiceImpl
	dashboards    *DashboardServiceImpl

	adminID string
}

func testOptions() Options {
	return Options{
		JWTSecret:         []byte("test-secret"),
		JWTTTL:            time.Hour,
		OTPTTL:            10 * time.Minute,
		OTPResendInterval: 30 * time.Second,
		OTPMaxAttempts:    5,
		PasswordResetTTL:  15 * time.Minute,
		StudentWeights: algorithms.Weights{
			models.SectionBasicInfo: 25,
			models.SectionSkills:    15,
			models.SectionTechStack: 10,
			models.SectionProjects:  30,
			models.SectionDocuments: 20,
		},
		CompanyWeights: algorithms.Weights{
			models.SectionBasicInfo:        40,
			models.SectionAuthorizedPerson: 30,
			models.SectionDocuments:        30,
		},
		AllowWithdrawAfterShortlist: true,
		UploadMaxSize:               5 << 20,
		UploadAllowedTypes:          []string{"application/pdf", "image/png", "image/jpeg"},
		ImageQuality:                85,
		LogoSize:                    128,
		DefaultPageLimit:            10,
		MaxPageLimit:                100,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithOptions(t, testOptions())
}

func newTestEnvWithOptions(t *testing.T, opts Options) *testEnv {
	t.Helper()

	fileStorage, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir(), BaseURL: "/uploads"})
	require.NoError(t, err)

	env := &testEnv{
		ctx:   context.Background(),
		store: memory.NewStore(),
		mail:  email.NewMockProvider(email.DefaultTemplates()),
		pub:   &recordingPublisher{received: map[string]int{}},
		clock: &testClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		opts:  opts,
	}

	container := NewServiceContainer(Dependencies{
		Store:     env.store,
		Storage:   fileStorage,
		Email:     env.mail,
		Publisher: env.pub,
		Options:   opts,
	})
	env.wire(container)

	require.NoError(t, env.auth.EnsureAdmin(env.ctx, "admin@seribro.test", "admin-pass-1"))
	admins, err := env.store.Users().FindByRole(env.ctx, models.UserRoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	env.adminID = admins[0].ID
	return env
}

func (e *testEnv) wire(c *ServiceContainer) {
	e.notifications = c.Notifications
	e.auth = c.AuthService.(*AuthServiceImpl)
	e.profiles = c.ProfileService.(*ProfileServiceImpl)
	e.admin = c.AdminService.(*AdminServiceImpl)
	e.projects = c.ProjectService.(*ProjectServiceImpl)
	e.applications = c.ApplicationService.(*ApplicationServiceImpl)
	e.dashboards = c.DashboardService.(*DashboardServiceImpl)

	e.notifications.now = e.clock.Now
	e.auth.now = e.clock.Now
	e.profiles.now = e.clock.Now
	e.admin.now = e.clock.Now
	e.projects.now = e.clock.Now
	e.applications.now = e.clock.Now
}

func pdfUpload(name string) *storage.Upload {
	return &storage.Upload{FileName: name, ContentType: "application/pdf", Data: []byte("%PDF-1.4 test document")}
}

func (e *testEnv) register(t *testing.T, role models.UserRole, emailAddr string) string {
	t.Helper()
	req := &dto.RegisterRequest{
		Role:     role,
		Email:    emailAddr,
		Password: "password123",
		FullName: "Test User",
		Phone:    "9876543210",
	}
	if role == models.UserRoleCompany {
		req.CompanyName = "Acme Labs"
	}
	resp, err := e.auth.Register(e.ctx, req, pdfUpload("proof.pdf"))
	require.NoError(t, err)
	return resp.UserID
}

// registerVerified - регистрация + подтверждение email кодом из mock-провайдера
func (e *testEnv) registerVerified(t *testing.T, role models.UserRole, emailAddr string) string {
	t.Helper()
	userID := e.register(t, role, emailAddr)
	code, ok := e.mail.LastOTP(emailAddr)
	require.True(t, ok, "OTP должен быть отправлен при регистрации")
	require.NoError(t, e.auth.VerifyOTP(e.ctx, emailAddr, code))
	return userID
}

func (e *testEnv) completeStudentProfile(t *testing.T, userID string, skills ...string) {
	t.Helper()
	if len(skills) == 0 {
		skills = []string{"Go", "SQL"}
	}
	payloads := []dto.SectionPayload{
		&dto.StudentBasicInfoRequest{
			FullName: "Asha Rao", Phone: "9876543210", CollegeName: "IIT Delhi",
			Degree: "B.Tech", GraduationYear: 2026,
		},
		&dto.SkillsRequest{Skills: skills},
		&dto.TechStackRequest{TechStack: []string{"PostgreSQL", "Docker"}},
		&dto.PortfolioProjectsRequest{Projects: []dto.PortfolioProjectRequest{{
			Title: "Campus API", Description: "REST API for the campus events portal",
		}}},
	}
	for _, p := range payloads {
		_, err := e.profiles.UpdateSection(e.ctx, userID, p)
		require.NoError(t, err)
	}
	_, err := e.profiles.UploadDocument(e.ctx, userID, models.DocumentResume, pdfUpload("resume.pdf"))
	require.NoError(t, err)
}

func (e *testEnv) completeCompanyProfile(t *testing.T, userID string) {
	t.Helper()
	payloads := []dto.SectionPayload{
		&dto.CompanyBasicInfoRequest{CompanyName: "Acme Labs", IndustryType: "Software", Mobile: "9123456780"},
		&dto.AuthorizedPersonRequest{Name: "Ravi Kumar", Designation: "CTO", Email: "ravi@acme.test"},
	}
	for _, p := range payloads {
		_, err := e.profiles.UpdateSection(e.ctx, userID, p)
		require.NoError(t, err)
	}
	_, err := e.profiles.UploadDocument(e.ctx, userID, models.DocumentRegistrationCertificate, pdfUpload("reg.pdf"))
	require.NoError(t, err)
}

func (e *testEnv) submitAndApprove(t *testing.T, userID string, role models.UserRole) {
	t.Helper()
	_, err := e.profiles.SubmitForVerification(e.ctx, userID)
	require.NoError(t, err)
	_, err = e.admin.Approve(e.ctx, e.adminID, userID, role)
	require.NoError(t, err)
}

func (e *testEnv) approvedStudent(t *testing.T, emailAddr string, skills ...string) string {
	t.Helper()
	id := e.registerVerified(t, models.UserRoleStudent, emailAddr)
	e.completeStudentProfile(t, id, skills...)
	e.submitAndApprove(t, id, models.UserRoleStudent)
	return id
}

func (e *testEnv) approvedCompany(t *testing.T, emailAddr string) string {
	t.Helper()
	id := e.registerVerified(t, models.UserRoleCompany, emailAddr)
	e.completeCompanyProfile(t, id)
	e.submitAndApprove(t, id, models.UserRoleCompany)
	return id
}

func (e *testEnv) createProject(t *testing.T, companyID, title string) *dto.ProjectResponse {
	t.Helper()
	project, err := e.projects.Create(e.ctx, companyID, &dto.CreateProjectRequest{
		Title:       title,
		Description: "Build a small internal dashboard for the operations team",
		Budget:      15000,
		Deadline:    e.clock.Now().Add(14 * 24 * time.Hour),
		Skills:      []string{"Go", "React"},
		TechStack:   []string{"PostgreSQL"},
	})
	require.NoError(t, err)
	return project
}

func (e *testEnv) apply(t *testing.T, studentID, projectID string) *dto.ApplicationResponse {
	t.Helper()
	app, err := e.applications.Apply(e.ctx, studentID, projectID, &dto.ApplyRequest{
		Proposal:      "I have built similar dashboards and can deliver in two weeks",
		ProposedPrice: 12000,
		EstimatedTime: "2 weeks",
	})
	require.NoError(t, err)
	return app
}

func (e *testEnv) project(t *testing.T, projectID string) *models.Project {
	t.Helper()
	p, err := e.store.Projects().FindByID(e.ctx, projectID)
	require.NoError(t, err)
	return p
}

func (e *testEnv) application(t *testing.T, applicationID string) *models.Application {
	t.Helper()
	a, err := e.store.Applications().FindByID(e.ctx, applicationID)
	require.NoError(t, err)
	return a
}

func (e *testEnv) notificationsOf(t *testing.T, userID string) []models.Notification {
	t.Helper()
	list, _, err := e.store.Notifications().FindByUser(e.ctx, userID, false, repositories.Pagination{Page: 1, Limit: 100})
	require.NoError(t, err)
	return list
}

func hasNotification(list []models.Notification, nType models.NotificationType) bool {
	for _, n := range list {
		if n.Type == nType {
			return true
		}
	}
	return false
}
