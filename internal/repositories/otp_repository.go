package repositories

import (
	"context"
	"time"

	"seribro_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OTPRepository - не больше одного активного кода на email
type OTPRepository interface {
	// Replace сохраняет код, удаляя предыдущий для того же email
	Replace(ctx context.Context, otp *models.OTPCode) error
	FindByEmail(ctx context.Context, email string) (*models.OTPCode, error)
	// FindByEmailForUpdate - SELECT ... FOR UPDATE, только внутри WithTx
	FindByEmailForUpdate(ctx context.Context, email string) (*models.OTPCode, error)
	// IncrementAttempts засчитывает неверную попытку, пока attempts < max; false - лимит уже выбран
	IncrementAttempts(ctx context.Context, id string, max int) (bool, error)
	// Consume удаляет код по id; false - его уже погасил другой запрос
	Consume(ctx context.Context, id string) (bool, error)
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type OTPRepositoryImpl struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &OTPRepositoryImpl{db: db}
}

func (r *OTPRepositoryImpl) Replace(ctx context.Context, otp *models.OTPCode) error {
	otp.Email = NormalizeEmail(otp.Email)
	otp.EnsureID()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"id", "code_hash", "purpose", "attempts", "expires_at", "last_sent_at", "updated_at"}),
	}).Create(otp).Error
	return translate(err)
}

func (r *OTPRepositoryImpl) FindByEmail(ctx context.Context, email string) (*models.OTPCode, error) {
	var otp models.OTPCode
	if err := r.db.WithContext(ctx).First(&otp, "email = ?", NormalizeEmail(email)).Error; err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

func (r *OTPRepositoryImpl) FindByEmailForUpdate(ctx context.Context, email string) (*models.OTPCode, error) {
	var otp models.OTPCode
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&otp, "email = ?", NormalizeEmail(email)).Error
	if err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

func (r *OTPRepositoryImpl) IncrementAttempts(ctx context.Context, id string, max int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.OTPCode{}).
		Where("id = ? AND attempts < ?", id, max).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	return res.RowsAffected > 0, res.Error
}

func (r *OTPRepositoryImpl) Consume(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.OTPCode{})
	return res.RowsAffected > 0, res.Error
}

func (r *OTPRepositoryImpl) DeleteByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).Delete(&models.OTPCode{}).Error
}

func (r *OTPRepositoryImpl) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.OTPCode{})
	return res.RowsAffected, res.Error
}
