package repositories

import (
	"context"
	"time"

	"seribro_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	// FindByIDForUpdate блокирует строку до конца транзакции (SELECT ... FOR UPDATE)
	FindByIDForUpdate(ctx context.Context, id string) (*models.Project, error)
	ListOpen(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error)
	ListByCompany(ctx context.Context, companyID string, status models.ProjectStatus, page Pagination) ([]models.Project, int64, error)
	ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]models.Project, error)
	// List - все проекты платформы для администратора
	List(ctx context.Context, filter ProjectListFilter) ([]models.Project, int64, error)
	// CountByStatus: companyID "" - по всей платформе
	CountByStatus(ctx context.Context, companyID string) (map[models.ProjectStatus]int64, error)

	// Assign - compare-and-set open -> assigned; ErrConflict, если статус или версия уже изменились
	Assign(ctx context.Context, projectID, studentID string, expectedVersion int, at time.Time) error
	// Close переводит проект в closed; false, если он уже был закрыт
	Close(ctx context.Context, projectID, reason string, at time.Time) (bool, error)
	// IncrementApplications работает только для open проекта, иначе ErrConflict
	IncrementApplications(ctx context.Context, projectID string) error
	DecrementApplications(ctx context.Context, projectID string) error
}

// ProjectFilter - параметры ленты проектов для студентов
type ProjectFilter struct {
	Search    string
	Skill     string
	Category  string
	MinBudget *float64
	MaxBudget *float64
	Pagination
}

// ProjectListFilter - пустые поля не ограничивают выборку
type ProjectListFilter struct {
	Status    models.ProjectStatus
	CompanyID string
	Search    string
	Pagination
}

type ProjectRepositoryImpl struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &ProjectRepositoryImpl{db: db}
}

func (r *ProjectRepositoryImpl) Create(ctx context.Context, project *models.Project) error {
	return translate(r.db.WithContext(ctx).Create(project).Error)
}

func (r *ProjectRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

func (r *ProjectRepositoryImpl) FindByIDForUpdate(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&project, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

func (r *ProjectRepositoryImpl) ListOpen(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error) {
	var projects []models.Project
	query := r.db.WithContext(ctx).Model(&models.Project{}).Where("status = ?", models.ProjectStatusOpen)

	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", search, search)
	}
	if filter.Skill != "" {
		query = query.Where("? = ANY(skills)", filter.Skill)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinBudget != nil {
		query = query.Where("budget >= ?", *filter.MinBudget)
	}
	if filter.MaxBudget != nil {
		query = query.Where("budget <= ?", *filter.MaxBudget)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset()).Find(&projects).Error
	return projects, total, err
}

func (r *ProjectRepositoryImpl) ListByCompany(ctx context.Context, companyID string, status models.ProjectStatus, page Pagination) ([]models.Project, int64, error) {
	var projects []models.Project
	query := r.db.WithContext(ctx).Model(&models.Project{}).Where("company_id = ?", companyID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset()).Find(&projects).Error
	return projects, total, err
}

func (r *ProjectRepositoryImpl) List(ctx context.Context, filter ProjectListFilter) ([]models.Project, int64, error) {
	var projects []models.Project
	query := r.db.WithContext(ctx).Model(&models.Project{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CompanyID != "" {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset()).Find(&projects).Error
	return projects, total, err
}

func (r *ProjectRepositoryImpl) CountByStatus(ctx context.Context, companyID string) (map[models.ProjectStatus]int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{})
	if companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	return countByStatus[models.ProjectStatus](query)
}

func (r *ProjectRepositoryImpl) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Where("status = ? AND deadline < ?", models.ProjectStatusOpen, now).
		Order("deadline ASC").
		Limit(limit).
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepositoryImpl) Assign(ctx context.Context, projectID, studentID string, expectedVersion int, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND status = ? AND version = ?", projectID, models.ProjectStatusOpen, expectedVersion).
		Updates(map[string]interface{}{
			"status":              models.ProjectStatusAssigned,
			"assigned_student_id": studentID,
			"assigned_at":         at,
			"version":             gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *ProjectRepositoryImpl) Close(ctx context.Context, projectID, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND status <> ?", projectID, models.ProjectStatusClosed).
		Updates(map[string]interface{}{
			"status":        models.ProjectStatusClosed,
			"closed_at":     at,
			"closed_reason": reason,
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ProjectRepositoryImpl) IncrementApplications(ctx context.Context, projectID string) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND status = ?", projectID, models.ProjectStatusOpen).
		UpdateColumn("application_count", gorm.Expr("application_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *ProjectRepositoryImpl) DecrementApplications(ctx context.Context, projectID string) error {
	return r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", projectID).
		UpdateColumn("application_count", gorm.Expr("GREATEST(application_count - 1, 0)")).Error
}
