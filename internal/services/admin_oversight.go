package services

import (
	"context"
	"errors"

	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/services/dto"
	"seribro_backend/pkg/apperrors"
)

// Просмотр проектов и заявок всей платформы: только чтение

func (s *AdminServiceImpl) PlatformStats(ctx context.Context) (*dto.PlatformStats, error) {
	stats := &dto.PlatformStats{Users: map[models.UserRole]int64{}}
	for _, role := range []models.UserRole{models.UserRoleStudent, models.UserRoleCompany, models.UserRoleAdmin} {
		count, err := s.store.Users().CountByRole(ctx, role)
		if err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		stats.Users[role] = count
	}

	_, pending, err := s.store.Profiles().List(ctx, repositories.ProfileFilter{
		Status:     models.VerificationStatusSubmitted,
		Pagination: repositories.Pagination{Page: 1, Limit: 1},
	})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	stats.PendingVerifications = pending

	projects, err := s.store.Projects().CountByStatus(ctx, "")
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	stats.Projects = dto.NewProjectStats(projects)

	apps, err := s.store.Applications().CountByStatus(ctx, repositories.ApplicationScope{})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	stats.Applications = dto.NewApplicationStats(apps)
	return stats, nil
}

func (s *AdminServiceImpl) ListProjects(ctx context.Context, query *dto.AdminProjectsQuery) (*dto.ProjectListResponse, error) {
	page, limit := s.opts.Page(query.Page, query.Limit)
	projects, total, err := s.store.Projects().List(ctx, repositories.ProjectListFilter{
		Status:     query.Status,
		CompanyID:  query.CompanyID,
		Search:     query.Search,
		Pagination: repositories.Pagination{Page: page, Limit: limit},
	})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	names := map[string]string{}
	resp := &dto.ProjectListResponse{
		Projects:   make([]*dto.ProjectResponse, 0, len(projects)),
		Pagination: dto.NewPagination(page, limit, total),
	}
	for i := range projects {
		item := dto.NewProjectResponse(&projects[i])
		item.CompanyName = s.cachedName(ctx, names, projects[i].CompanyID)
		resp.Projects = append(resp.Projects, item)
	}
	return resp, nil
}

func (s *AdminServiceImpl) GetProject(ctx context.Context, projectID string) (*dto.AdminProjectDetail, error) {
	project, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	counts, err := s.applicationCounts(ctx, projectID)
	if err != nil {
		return nil, err
	}

	item := dto.NewProjectResponse(project)
	item.CompanyName = s.cachedName(ctx, map[string]string{}, project.CompanyID)
	return &dto.AdminProjectDetail{Project: item, Applications: dto.NewApplicationStats(counts)}, nil
}

func (s *AdminServiceImpl) ListProjectApplications(ctx context.Context, projectID string, query *dto.ApplicationsQuery) (*dto.ApplicationListResponse, error) {
	project, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	page, limit := s.opts.Page(query.Page, query.Limit)
	apps, total, err := s.store.Applications().ListByProject(ctx, projectID, query.Status,
		repositories.Pagination{Page: page, Limit: limit})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return s.applicationList(ctx, apps, map[string]string{project.ID: project.Title}, page, limit, total), nil
}

func (s *AdminServiceImpl) ListApplications(ctx context.Context, query *dto.AdminApplicationsQuery) (*dto.ApplicationListResponse, error) {
	page, limit := s.opts.Page(query.Page, query.Limit)
	apps, total, err := s.store.Applications().ListAll(ctx, query.Status,
		repositories.Pagination{Page: page, Limit: limit})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return s.applicationList(ctx, apps, map[string]string{}, page, limit, total), nil
}

func (s *AdminServiceImpl) GetApplication(ctx context.Context, applicationID string) (*dto.ApplicationResponse, error) {
	app, err := s.store.Applications().FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	list := s.applicationList(ctx, []models.Application{*app}, map[string]string{}, 1, 1, 1)
	return list.Applications[0], nil
}

func (s *AdminServiceImpl) applicationList(ctx context.Context, apps []models.Application, titles map[string]string, page, limit int, total int64) *dto.ApplicationListResponse {
	names := map[string]string{}
	resp := &dto.ApplicationListResponse{
		Applications: make([]*dto.ApplicationResponse, 0, len(apps)),
		Pagination:   dto.NewPagination(page, limit, total),
	}
	for i := range apps {
		item := dto.NewApplicationResponse(&apps[i])
		title, ok := titles[apps[i].ProjectID]
		if !ok {
			if project, err := s.store.Projects().FindByID(ctx, apps[i].ProjectID); err == nil {
				title = project.Title
			}
			titles[apps[i].ProjectID] = title
		}
		item.ProjectTitle = title
		item.StudentName = s.cachedName(ctx, names, apps[i].StudentID)
		resp.Applications = append(resp.Applications, item)
	}
	return resp
}

func (s *AdminServiceImpl) project(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	return project, nil
}

// applicationCounts - заявки одного проекта по статусам
func (s *AdminServiceImpl) applicationCounts(ctx context.Context, projectID string) (map[models.ApplicationStatus]int64, error) {
	counts := map[models.ApplicationStatus]int64{}
	for _, status := range models.AllApplicationStatuses {
		_, n, err := s.store.Applications().ListByProject(ctx, projectID, status, repositories.Pagination{Page: 1, Limit: 1})
		if err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		counts[status] = n
	}
	return counts, nil
}

// cachedName - имя владельца профиля, один запрос на пользователя
func (s *AdminServiceImpl) cachedName(ctx context.Context, cache map[string]string, userID string) string {
	if name, ok := cache[userID]; ok {
		return name
	}
	name := ""
	if profile, err := s.store.Profiles().FindByUserID(ctx, userID); err == nil {
		name = displayName(profile)
	}
	cache[userID] = name
	return name
}
