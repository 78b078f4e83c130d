package repositories

import (
	"context"
	"time"

	"seribro_backend/internal/models"

	"gorm.io/gorm"
)

type ApplicationRepository interface {
	// Create возвращает ErrDuplicate при наличии не-withdrawn заявки на ту же пару
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id string) (*models.Application, error)
	ExistsActive(ctx context.Context, projectID, studentID string) (bool, error)
	// Transition сохраняет новый статус, только если текущий входит в from; иначе ErrConflict
	Transition(ctx context.Context, app *models.Application, from ...models.ApplicationStatus) error
	// RejectOutstanding отклоняет pending/shortlisted заявки проекта, кроме exceptID
	RejectOutstanding(ctx context.Context, projectID, exceptID, reason string, at time.Time) ([]models.Application, error)
	ListByProject(ctx context.Context, projectID string, status models.ApplicationStatus, page Pagination) ([]models.Application, int64, error)
	ListByStudent(ctx context.Context, studentID string, status models.ApplicationStatus, page Pagination) ([]models.Application, int64, error)
	// ListAll - все заявки платформы для администратора
	ListAll(ctx context.Context, status models.ApplicationStatus, page Pagination) ([]models.Application, int64, error)
	CountByStatus(ctx context.Context, scope ApplicationScope) (map[models.ApplicationStatus]int64, error)
}

// ApplicationScope - чьи заявки считать; пустой scope - вся платформа
type ApplicationScope struct {
	StudentID string
	CompanyID string
}

type ApplicationRepositoryImpl struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &ApplicationRepositoryImpl{db: db}
}

func (r *ApplicationRepositoryImpl) Create(ctx context.Context, app *models.Application) error {
	return translate(r.db.WithContext(ctx).Create(app).Error)
}

func (r *ApplicationRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (r *ApplicationRepositoryImpl) ExistsActive(ctx context.Context, projectID, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("project_id = ? AND student_id = ? AND status <> ?", projectID, studentID, models.ApplicationStatusWithdrawn).
		Count(&count).Error
	return count > 0, err
}

func (r *ApplicationRepositoryImpl) Transition(ctx context.Context, app *models.Application, from ...models.ApplicationStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ? AND status IN ?", app.ID, from).
		Updates(map[string]interface{}{
			"status":           app.Status,
			"rejection_reason": app.RejectionReason,
			"shortlisted_at":   app.ShortlistedAt,
			"decided_at":       app.DecidedAt,
			"withdrawn_at":     app.WithdrawnAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *ApplicationRepositoryImpl) RejectOutstanding(ctx context.Context, projectID, exceptID, reason string, at time.Time) ([]models.Application, error) {
	var apps []models.Application
	query := r.db.WithContext(ctx).
		Where("project_id = ? AND status IN ?", projectID, models.OutstandingApplicationStatuses)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Find(&apps).Error; err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return apps, nil
	}

	ids := make([]string, 0, len(apps))
	for i := range apps {
		ids = append(ids, apps[i].ID)
		apps[i].Status = models.ApplicationStatusRejected
		apps[i].RejectionReason = reason
		apps[i].DecidedAt = &at
	}

	err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":           models.ApplicationStatusRejected,
			"rejection_reason": reason,
			"decided_at":       at,
		}).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *ApplicationRepositoryImpl) ListByProject(ctx context.Context, projectID string, status models.ApplicationStatus, page Pagination) ([]models.Application, int64, error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB { return q.Where("project_id = ?", projectID) }, status, page)
}

func (r *ApplicationRepositoryImpl) ListByStudent(ctx context.Context, studentID string, status models.ApplicationStatus, page Pagination) ([]models.Application, int64, error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB { return q.Where("student_id = ?", studentID) }, status, page)
}

func (r *ApplicationRepositoryImpl) ListAll(ctx context.Context, status models.ApplicationStatus, page Pagination) ([]models.Application, int64, error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB { return q }, status, page)
}

func (r *ApplicationRepositoryImpl) CountByStatus(ctx context.Context, scope ApplicationScope) (map[models.ApplicationStatus]int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Application{})
	if scope.StudentID != "" {
		query = query.Where("student_id = ?", scope.StudentID)
	}
	if scope.CompanyID != "" {
		query = query.Where("company_id = ?", scope.CompanyID)
	}
	return countByStatus[models.ApplicationStatus](query)
}

func (r *ApplicationRepositoryImpl) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB, status models.ApplicationStatus, page Pagination) ([]models.Application, int64, error) {
	var apps []models.Application
	query := scope(r.db.WithContext(ctx).Model(&models.Application{}))
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset()).Find(&apps).Error
	return apps, total, err
}
