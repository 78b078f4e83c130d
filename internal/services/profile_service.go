package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seribro_backend/internal/algorithms"
	"seribro_backend/internal/imageprocessor"
	"seribro_backend/internal/logger"
	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/services/dto"
	"seribro_backend/internal/storage"
	"seribro_backend/pkg/apperrors"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error)
	UpdateSection(ctx context.Context, userID string, payload dto.SectionPayload) (*dto.ProfileResponse, error)
	UploadDocument(ctx context.Context, userID string, docType models.DocumentType, upload *storage.Upload) (*dto.ProfileResponse, error)
	SubmitForVerification(ctx context.Context, userID string) (*dto.ProfileResponse, error)
	GetPublicCompanyProfile(ctx context.Context, companyID string) (*dto.PublicCompanyProfile, error)
}

type ProfileServiceImpl struct {
	store         repositories.Store
	storage       storage.Storage
	images        *imageprocessor.Processor
	notifications NotificationService
	opts          Options
	now           func() time.Time
}

func NewProfileService(
	store repositories.Store,
	fileStorage storage.Storage,
	notifications NotificationService,
	opts Options,
) *ProfileServiceImpl {
	return &ProfileServiceImpl{
		store:         store,
		storage:       fileStorage,
		images:        imageprocessor.NewProcessor(opts.ImageQuality, opts.LogoSize),
		notifications: notifications,
		opts:          opts,
		now:           time.Now,
	}
}

func (s *ProfileServiceImpl) GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	profile, err := s.findProfile(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	result := algorithms.CalculateCompletion(profile, s.opts.WeightsFor(profile.Role))
	return dto.NewProfileResponse(profile, result.MissingSections), nil
}

// UpdateSection валидированный payload уже пришел из хэндлера; здесь только принадлежность роли
func (s *ProfileServiceImpl) UpdateSection(ctx context.Context, userID string, payload dto.SectionPayload) (*dto.ProfileResponse, error) {
	var (
		profile *models.Profile
		result  algorithms.CompletionResult
	)

	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		profile, err = s.lockProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !payload.AppliesTo(profile.Role) {
			return apperrors.ValidationError(map[string]string{
				"section": fmt.Sprintf("Section '%s' is not available for %s profiles", payload.Section(), profile.Role),
			})
		}

		payload.ApplyTo(profile)
		result = s.recompute(ctx, tx, profile)
		return tx.Profiles().Update(ctx, profile)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	logger.CtxInfo(ctx, "Profile section updated",
		"user_id", userID, "section", payload.Section(), "completion", profile.CompletionPercentage)
	return dto.NewProfileResponse(profile, result.MissingSections), nil
}

func (s *ProfileServiceImpl) UploadDocument(ctx context.Context, userID string, docType models.DocumentType, upload *storage.Upload) (*dto.ProfileResponse, error) {
	if upload == nil || upload.Size() == 0 {
		return nil, apperrors.ValidationError(map[string]string{"file": "This file is required"})
	}

	profile, err := s.findProfile(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	if !documentAllowed(profile.Role, docType) {
		return nil, apperrors.ValidationError(map[string]string{
			"documentType": fmt.Sprintf("Document '%s' is not available for %s profiles", docType, profile.Role),
		})
	}

	// Логотип всегда приводим к квадратной миниатюре
	if docType == models.DocumentLogo {
		if !upload.IsImage() {
			return nil, apperrors.ErrInvalidFileType
		}
		thumb, err := s.images.Thumbnail(upload.Data)
		if err != nil {
			return nil, apperrors.ErrInvalidFileType.WithError(err)
		}
		upload = &storage.Upload{FileName: upload.FileName, ContentType: thumb.ContentType, Data: thumb.Data}
	}

	key := storage.ObjectKey(userID, string(docType), upload.ContentType)
	if err := s.storage.Save(ctx, key, upload.Reader(), upload.ContentType); err != nil {
		return nil, apperrors.InternalError(err)
	}
	url, err := s.storage.GetURL(ctx, key)
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			logger.CtxWithError(ctx, "Failed to remove orphaned document", delErr, "key", key)
		}
		return nil, apperrors.InternalError(err)
	}

	var (
		oldKey string
		result algorithms.CompletionResult
	)
	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		profile, err = s.lockProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		if old, ok := profile.DocumentMap()[docType]; ok {
			oldKey = old.Key
		}
		profile.SetDocument(docType, models.Document{
			Key:         key,
			URL:         url,
			FileName:    upload.FileName,
			ContentType: upload.ContentType,
			Size:        upload.Size(),
			UploadedAt:  s.now(),
		})
		result = s.recompute(ctx, tx, profile)
		return tx.Profiles().Update(ctx, profile)
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			logger.CtxWithError(ctx, "Failed to remove orphaned document", delErr, "key", key)
		}
		return nil, toAppError(err)
	}

	// Старый файл удаляем только после коммита
	if oldKey != "" && oldKey != key {
		if err := s.storage.Delete(ctx, oldKey); err != nil {
			logger.CtxWithError(ctx, "Failed to delete replaced document", err, "key", oldKey)
		}
	}

	logger.CtxInfo(ctx, "Profile document uploaded", "user_id", userID, "document", docType, "size", upload.Size())
	return dto.NewProfileResponse(profile, result.MissingSections), nil
}

func (s *ProfileServiceImpl) SubmitForVerification(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	var (
		profile *models.Profile
		result  algorithms.CompletionResult
	)

	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		profile, err = s.lockProfile(ctx, tx, userID)
		if err != nil {
			return err
		}

		result = s.recompute(ctx, tx, profile)
		if result.Percentage < 100 {
			return apperrors.ErrIncompleteProfile.WithDetails(map[string]interface{}{
				"profileCompletion": result.Percentage,
				"missingSections":   result.MissingSections,
			})
		}
		if !profile.VerificationStatus.CanSubmit() {
			return apperrors.NewInvalidStatusError("profile",
				fmt.Sprintf("Profile is already %s", profile.VerificationStatus))
		}

		now := s.now()
		profile.VerificationStatus = models.VerificationStatusSubmitted
		profile.SubmittedAt = &now
		profile.RejectionReason = ""
		return tx.Profiles().Update(ctx, profile)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	logger.CtxInfo(ctx, "Profile submitted for verification", "user_id", userID, "role", profile.Role)

	s.notifications.NotifyAdmins(ctx, models.NotificationTypeVerificationRequest,
		"New profile verification request",
		fmt.Sprintf("A %s profile (%s) was submitted for verification", profile.Role, displayName(profile)),
		map[string]interface{}{"userId": userID, "role": profile.Role})

	return dto.NewProfileResponse(profile, result.MissingSections), nil
}

func (s *ProfileServiceImpl) GetPublicCompanyProfile(ctx context.Context, companyID string) (*dto.PublicCompanyProfile, error) {
	profile, err := s.findProfile(ctx, s.store, companyID)
	if err != nil {
		return nil, err
	}
	if profile.Role != models.UserRoleCompany {
		return nil, apperrors.ErrProfileNotFound
	}
	return dto.NewPublicCompanyProfile(profile), nil
}

func (s *ProfileServiceImpl) findProfile(ctx context.Context, store repositories.Store, userID string) (*models.Profile, error) {
	return profileOrError(store.Profiles().FindByUserID(ctx, userID))
}

// lockProfile - строка профиля под FOR UPDATE до конца транзакции
func (s *ProfileServiceImpl) lockProfile(ctx context.Context, tx repositories.Store, userID string) (*models.Profile, error) {
	return profileOrError(tx.Profiles().FindByUserIDForUpdate(ctx, userID))
}

func profileOrError(profile *models.Profile, err error) (*models.Profile, error) {
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	return profile, nil
}

// recompute пересчитывает процент. Отправленный или одобренный профиль,
// который перестал быть полным, возвращается в incomplete вместе с аккаунтом.
func (s *ProfileServiceImpl) recompute(ctx context.Context, tx repositories.Store, profile *models.Profile) algorithms.CompletionResult {
	result := algorithms.CalculateCompletion(profile, s.opts.WeightsFor(profile.Role))
	profile.CompletionPercentage = result.Percentage

	if result.Percentage < 100 &&
		(profile.VerificationStatus == models.VerificationStatusSubmitted ||
			profile.VerificationStatus == models.VerificationStatusApproved) {
		wasApproved := profile.VerificationStatus == models.VerificationStatusApproved
		profile.VerificationStatus = models.VerificationStatusIncomplete
		profile.SubmittedAt = nil
		profile.VerifiedAt = nil
		profile.VerifiedBy = nil

		if wasApproved {
			if err := tx.Users().SetApprovalStatus(ctx, profile.UserID, models.ApprovalStatusPending); err != nil {
				logger.CtxWithError(ctx, "Failed to reset account approval", err, "user_id", profile.UserID)
			}
		}
		logger.CtxInfo(ctx, "Profile reverted to incomplete", "user_id", profile.UserID, "completion", result.Percentage)
	}
	return result
}

func documentAllowed(role models.UserRole, docType models.DocumentType) bool {
	for _, allowed := range models.AllowedDocumentsFor(role) {
		if allowed == docType {
			return true
		}
	}
	return false
}

// displayName - имя владельца профиля для уведомлений
func displayName(profile *models.Profile) string {
	if profile.Role == models.UserRoleCompany {
		if name := profile.CompanyInfo.Data().CompanyName; name != "" {
			return name
		}
	} else if name := profile.StudentInfo.Data().FullName; name != "" {
		return name
	}
	return profile.UserID
}

// toAppError - ошибки из транзакций: AppError как есть, остальное в 500
func toAppError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NewNotFoundError("resource", "Resource not found")
	}
	return apperrors.DatabaseError(err)
}
