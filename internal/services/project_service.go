package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"seribro_backend/internal/algorithms"
	"seribro_backend/internal/logger"
	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/services/dto"
	"seribro_backend/pkg/apperrors"

	"github.com/lib/pq"
)

const (
	DeadlineCloseReason = "Deadline passed without assignment"
	companyCloseReason  = "Project closed by company"
)

type ProjectService interface {
	Create(ctx context.Context, companyID string, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	ListOpen(ctx context.Context, studentID string, query *dto.BrowseProjectsQuery) (*dto.ProjectListResponse, error)
	GetForStudent(ctx context.Context, studentID, projectID string) (*dto.ProjectResponse, error)
	// Recommended - открытые проекты без отклика студента, лучшие по matchScore
	Recommended(ctx context.Context, studentID string, limit int) ([]*dto.ProjectResponse, error)
	GetForCompany(ctx context.Context, companyID, projectID string) (*dto.ProjectResponse, error)
	ListMine(ctx context.Context, companyID string, query *dto.CompanyProjectsQuery) (*dto.ProjectListResponse, error)
	// Close идемпотентен: повторное закрытие ничего не меняет
	Close(ctx context.Context, companyID, projectID string) (*dto.ProjectResponse, error)
	// AutoCloseExpired закрывает open-проекты с прошедшим дедлайном, возвращает число закрытых
	AutoCloseExpired(ctx context.Context, now time.Time, batchSize int) (int, error)
}

type ProjectServiceImpl struct {
	store         repositories.Store
	locks         *ProjectLocks
	notifications NotificationService
	opts          Options
	now           func() time.Time
}

func NewProjectService(store repositories.Store, locks *ProjectLocks, notifications NotificationService, opts Options) *ProjectServiceImpl {
	return &ProjectServiceImpl{
		store:         store,
		locks:         locks,
		notifications: notifications,
		opts:          opts,
		now:           time.Now,
	}
}

func (s *ProjectServiceImpl) Create(ctx context.Context, companyID string, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	profile, err := s.store.Profiles().FindByUserID(ctx, companyID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.DatabaseError(err)
	}
	if profile == nil || profile.Role != models.UserRoleCompany ||
		profile.VerificationStatus != models.VerificationStatusApproved {
		return nil, apperrors.ErrUnverifiedCompany
	}

	if !req.Deadline.After(s.now()) {
		return nil, apperrors.ValidationError(map[string]string{"deadline": "Deadline must be in the future"})
	}

	project := &models.Project{
		CompanyID:    companyID,
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Category:     req.Category,
		Budget:       req.Budget,
		Deadline:     req.Deadline.UTC(),
		Skills:       pq.StringArray(dto.Dedupe(req.Skills)),
		TechStack:    pq.StringArray(dto.Dedupe(req.TechStack)),
		Status:       models.ProjectStatusOpen,
		Version:      1,
	}
	if err := s.store.Projects().Create(ctx, project); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "Project created", "project_id", project.ID, "company_id", companyID)

	resp := dto.NewProjectResponse(project)
	resp.CompanyName = profile.CompanyInfo.Data().CompanyName
	return resp, nil
}

func (s *ProjectServiceImpl) ListOpen(ctx context.Context, studentID string, query *dto.BrowseProjectsQuery) (*dto.ProjectListResponse, error) {
	page, limit := s.opts.Page(query.Page, query.Limit)

	projects, total, err := s.store.Projects().ListOpen(ctx, repositories.ProjectFilter{
		Search:     query.Search,
		Skill:      query.Skill,
		Category:   query.Category,
		MinBudget:  query.MinBudget,
		MaxBudget:  query.MaxBudget,
		Pagination: repositories.Pagination{Page: page, Limit: limit},
	})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	// Профиль студента нужен для matchScore; без профиля просто не считаем
	student, err := s.store.Profiles().FindByUserID(ctx, studentID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.DatabaseError(err)
	}

	companyNames := map[string]string{}
	resp := &dto.ProjectListResponse{
		Projects:   make([]*dto.ProjectResponse, 0, len(projects)),
		Pagination: dto.NewPagination(page, limit, total),
	}
	for i := range projects {
		item, err := s.studentView(ctx, &projects[i], studentID, student, companyNames)
		if err != nil {
			return nil, err
		}
		resp.Projects = append(resp.Projects, item)
	}
	return resp, nil
}

const (
	defaultRecommendations = 10
	// recommendationPool - сколько свежих open-проектов ранжируем
	recommendationPool = 200
)

func (s *ProjectServiceImpl) Recommended(ctx context.Context, studentID string, limit int) ([]*dto.ProjectResponse, error) {
	if limit <= 0 {
		limit = defaultRecommendations
	}
	student, err := profileOrError(s.store.Profiles().FindByUserID(ctx, studentID))
	if err != nil {
		return nil, err
	}

	projects, _, err := s.store.Projects().ListOpen(ctx, repositories.ProjectFilter{
		Pagination: repositories.Pagination{Page: 1, Limit: recommendationPool},
	})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	companyNames := map[string]string{}
	picks := make([]*dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		item, err := s.studentView(ctx, &projects[i], studentID, student, companyNames)
		if err != nil {
			return nil, err
		}
		if *item.HasApplied || *item.MatchScore == 0 {
			continue
		}
		picks = append(picks, item)
	}

	// ListOpen отдает новые первыми, стабильная сортировка сохраняет это при равном score
	sort.SliceStable(picks, func(i, j int) bool { return *picks[i].MatchScore > *picks[j].MatchScore })
	if len(picks) > limit {
		picks = picks[:limit]
	}
	return picks, nil
}

func (s *ProjectServiceImpl) GetForStudent(ctx context.Context, studentID, projectID string) (*dto.ProjectResponse, error) {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	student, err := s.store.Profiles().FindByUserID(ctx, studentID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.DatabaseError(err)
	}
	return s.studentView(ctx, project, studentID, student, map[string]string{})
}

func (s *ProjectServiceImpl) GetForCompany(ctx context.Context, companyID, projectID string) (*dto.ProjectResponse, error) {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.CompanyID != companyID {
		return nil, apperrors.ErrUnauthorized
	}
	return dto.NewProjectResponse(project), nil
}

func (s *ProjectServiceImpl) ListMine(ctx context.Context, companyID string, query *dto.CompanyProjectsQuery) (*dto.ProjectListResponse, error) {
	page, limit := s.opts.Page(query.Page, query.Limit)

	projects, total, err := s.store.Projects().ListByCompany(ctx, companyID, query.Status,
		repositories.Pagination{Page: page, Limit: limit})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	resp := &dto.ProjectListResponse{
		Projects:   make([]*dto.ProjectResponse, 0, len(projects)),
		Pagination: dto.NewPagination(page, limit, total),
	}
	for i := range projects {
		resp.Projects = append(resp.Projects, dto.NewProjectResponse(&projects[i]))
	}
	return resp, nil
}

func (s *ProjectServiceImpl) Close(ctx context.Context, companyID, projectID string) (*dto.ProjectResponse, error) {
	project, closed, rejected, err := s.closeProject(ctx, projectID, companyID, companyCloseReason)
	if err != nil {
		return nil, err
	}
	if closed {
		logger.CtxInfo(ctx, "Project closed", "project_id", projectID, "rejected_applications", len(rejected))
		s.notifyClosed(ctx, project, rejected, false)
	}
	return dto.NewProjectResponse(project), nil
}

func (s *ProjectServiceImpl) AutoCloseExpired(ctx context.Context, now time.Time, batchSize int) (int, error) {
	expired, err := s.store.Projects().ListExpiredOpen(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	closedCount := 0
	for i := range expired {
		if err := ctx.Err(); err != nil {
			return closedCount, err
		}

		project, closed, rejected, err := s.closeExpired(ctx, expired[i].ID, now)
		if err != nil {
			logger.CtxWithError(ctx, "Failed to auto-close project", err, "project_id", expired[i].ID)
			continue
		}
		if !closed {
			continue
		}
		closedCount++
		s.notifyClosed(ctx, project, rejected, true)
	}
	return closedCount, nil
}

// closeExpired - как closeProject, но только если проект все еще open и просрочен
func (s *ProjectServiceImpl) closeExpired(ctx context.Context, projectID string, now time.Time) (*models.Project, bool, []models.Application, error) {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	var (
		project  *models.Project
		closed   bool
		rejected []models.Application
	)
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		project, err = tx.Projects().FindByIDForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		// Между выборкой и блокировкой проект могли назначить
		if !project.IsOpen() || !project.Deadline.Before(now) {
			return nil
		}
		closed, rejected, err = closeInTx(ctx, tx, project, DeadlineCloseReason, s.now())
		return err
	})
	return project, closed, rejected, err
}

// closeProject - под тем же замком проекта, что и accept
func (s *ProjectServiceImpl) closeProject(ctx context.Context, projectID, companyID, reason string) (*models.Project, bool, []models.Application, error) {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	var (
		project  *models.Project
		closed   bool
		rejected []models.Application
	)
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		project, err = tx.Projects().FindByIDForUpdate(ctx, projectID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrProjectNotFound
			}
			return err
		}
		if project.CompanyID != companyID {
			return apperrors.ErrUnauthorized
		}
		if project.Status == models.ProjectStatusClosed {
			return nil
		}
		closed, rejected, err = closeInTx(ctx, tx, project, reason, s.now())
		return err
	})
	if err != nil {
		return nil, false, nil, toAppError(err)
	}
	return project, closed, rejected, nil
}

func closeInTx(ctx context.Context, tx repositories.Store, project *models.Project, reason string, at time.Time) (bool, []models.Application, error) {
	closed, err := tx.Projects().Close(ctx, project.ID, reason, at)
	if err != nil || !closed {
		return false, nil, err
	}
	rejected, err := tx.Applications().RejectOutstanding(ctx, project.ID, "", reason, at)
	if err != nil {
		return false, nil, err
	}

	project.Status = models.ProjectStatusClosed
	project.ClosedAt = &at
	project.ClosedReason = reason
	project.Version++
	return true, rejected, nil
}

func (s *ProjectServiceImpl) notifyClosed(ctx context.Context, project *models.Project, rejected []models.Application, byDeadline bool) {
	for i := range rejected {
		s.notifications.Notify(ctx, rejected[i].StudentID, models.NotificationTypeApplicationRejected,
			"Application closed",
			fmt.Sprintf("The project \"%s\" was closed: %s", project.Title, project.ClosedReason),
			map[string]interface{}{"projectId": project.ID, "applicationId": rejected[i].ID})
	}
	if byDeadline {
		s.notifications.Notify(ctx, project.CompanyID, models.NotificationTypeProjectClosed,
			"Project closed",
			fmt.Sprintf("Your project \"%s\" was closed because the deadline passed without an assignment", project.Title),
			map[string]interface{}{"projectId": project.ID, "rejectedApplications": len(rejected)})
	}
}

// studentView добавляет к проекту данные для конкретного студента
func (s *ProjectServiceImpl) studentView(ctx context.Context, project *models.Project, studentID string, student *models.Profile, companyNames map[string]string) (*dto.ProjectResponse, error) {
	resp := dto.NewProjectResponse(project)

	name, ok := companyNames[project.CompanyID]
	if !ok {
		if company, err := s.store.Profiles().FindByUserID(ctx, project.CompanyID); err == nil {
			name = company.CompanyInfo.Data().CompanyName
		}
		companyNames[project.CompanyID] = name
	}
	resp.CompanyName = name

	if student != nil {
		score, reasons := algorithms.CalculateMatchScore(project, student)
		resp.MatchScore = &score
		resp.MatchReasons = reasons
	}

	applied, err := s.store.Applications().ExistsActive(ctx, project.ID, studentID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	resp.HasApplied = &applied
	return resp, nil
}

func (s *ProjectServiceImpl) findProject(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	return project, nil
}
