package repositories

import (
	"context"

	"seribro_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	// FindByUserIDForUpdate - SELECT ... FOR UPDATE перед Update в транзакции
	FindByUserIDForUpdate(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	// List - очередь верификации для администратора
	List(ctx context.Context, filter ProfileFilter) ([]models.Profile, int64, error)
}

type ProfileFilter struct {
	Role   models.UserRole
	Status models.VerificationStatus
	Pagination
}

type ProfileRepositoryImpl struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &ProfileRepositoryImpl{db: db}
}

func (r *ProfileRepositoryImpl) Create(ctx context.Context, profile *models.Profile) error {
	return translate(r.db.WithContext(ctx).Create(profile).Error)
}

func (r *ProfileRepositoryImpl) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *ProfileRepositoryImpl) FindByUserIDForUpdate(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&profile, "user_id = ?", userID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *ProfileRepositoryImpl) Update(ctx context.Context, profile *models.Profile) error {
	return translate(r.db.WithContext(ctx).Save(profile).Error)
}

func (r *ProfileRepositoryImpl) List(ctx context.Context, filter ProfileFilter) ([]models.Profile, int64, error) {
	var profiles []models.Profile
	query := r.db.WithContext(ctx).Model(&models.Profile{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("verification_status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Самые давние заявки на проверку первыми
	err := query.Order("submitted_at ASC NULLS LAST").Order("created_at ASC").
		Limit(filter.Limit).Offset(filter.Offset()).Find(&profiles).Error
	return profiles, total, err
}
