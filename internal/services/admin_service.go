package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seribro_backend/internal/email"
	"seribro_backend/internal/logger"
	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/services/dto"
	"seribro_backend/internal/storage"
	"seribro_backend/pkg/apperrors"
)

type AdminService interface {
	ListVerifications(ctx context.Context, query *dto.VerificationQueueQuery) (*dto.VerificationQueueResponse, error)
	Approve(ctx context.Context, adminID, userID string, role models.UserRole) (*dto.ProfileResponse, error)
	Reject(ctx context.Context, adminID, userID string, role models.UserRole, reason string) (*dto.ProfileResponse, error)

	PlatformStats(ctx context.Context) (*dto.PlatformStats, error)
	ListProjects(ctx context.Context, query *dto.AdminProjectsQuery) (*dto.ProjectListResponse, error)
	GetProject(ctx context.Context, projectID string) (*dto.AdminProjectDetail, error)
	ListProjectApplications(ctx context.Context, projectID string, query *dto.ApplicationsQuery) (*dto.ApplicationListResponse, error)
	ListApplications(ctx context.Context, query *dto.AdminApplicationsQuery) (*dto.ApplicationListResponse, error)
	GetApplication(ctx context.Context, applicationID string) (*dto.ApplicationResponse, error)
}

// proofLinkTTL - время жизни ссылки на документ регистрации в очереди
const proofLinkTTL = 15 * time.Minute

type AdminServiceImpl struct {
	store         repositories.Store
	storage       storage.Storage
	emailProvider email.Provider
	notifications NotificationService
	opts          Options
	now           func() time.Time
}

func NewAdminService(store repositories.Store, fileStorage storage.Storage, emailProvider email.Provider, notifications NotificationService, opts Options) *AdminServiceImpl {
	return &AdminServiceImpl{
		store:         store,
		storage:       fileStorage,
		emailProvider: emailProvider,
		notifications: notifications,
		opts:          opts,
		now:           time.Now,
	}
}

// ListVerifications - по умолчанию очередь submitted-профилей, самые старые первыми
func (s *AdminServiceImpl) ListVerifications(ctx context.Context, query *dto.VerificationQueueQuery) (*dto.VerificationQueueResponse, error) {
	page, limit := s.opts.Page(query.Page, query.Limit)
	status := query.Status
	if status == "" {
		status = models.VerificationStatusSubmitted
	}

	profiles, total, err := s.store.Profiles().List(ctx, repositories.ProfileFilter{
		Role:       query.Role,
		Status:     status,
		Pagination: repositories.Pagination{Page: page, Limit: limit},
	})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	resp := &dto.VerificationQueueResponse{
		Items:      make([]dto.VerificationItem, 0, len(profiles)),
		Pagination: dto.NewPagination(page, limit, total),
	}
	for i := range profiles {
		p := &profiles[i]
		item := dto.VerificationItem{
			UserID:             p.UserID,
			Role:               p.Role,
			DisplayName:        displayName(p),
			ProfileCompletion:  p.CompletionPercentage,
			VerificationStatus: p.VerificationStatus,
			SubmittedAt:        p.SubmittedAt,
			Documents:          p.DocumentMap(),
		}
		if user, err := s.store.Users().FindByID(ctx, p.UserID); err == nil {
			item.Email = user.Email
			item.ProofDocumentURL = s.proofLink(ctx, user.ProofDocumentKey)
		}
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

// proofLink - пустая строка, если документа нет или подписать не вышло
func (s *AdminServiceImpl) proofLink(ctx context.Context, key string) string {
	if key == "" || s.storage == nil {
		return ""
	}
	link, err := s.storage.GetSignedURL(ctx, key, proofLinkTTL)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to sign proof document link", err, "key", key)
		return ""
	}
	return link
}

func (s *AdminServiceImpl) Approve(ctx context.Context, adminID, userID string, role models.UserRole) (*dto.ProfileResponse, error) {
	return s.decide(ctx, adminID, userID, role, true, "")
}

func (s *AdminServiceImpl) Reject(ctx context.Context, adminID, userID string, role models.UserRole, reason string) (*dto.ProfileResponse, error) {
	return s.decide(ctx, adminID, userID, role, false, reason)
}

// decide: submitted -> approved|rejected, решение зеркалится в users.admin_approval_status
func (s *AdminServiceImpl) decide(ctx context.Context, adminID, userID string, role models.UserRole, approve bool, reason string) (*dto.ProfileResponse, error) {
	var (
		profile *models.Profile
		user    *models.User
	)

	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		profile, err = tx.Profiles().FindByUserIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrProfileNotFound
			}
			return err
		}
		// Путь /admin/student/:id не должен трогать компанию
		if profile.Role != role {
			return apperrors.ErrProfileNotFound
		}
		if profile.VerificationStatus != models.VerificationStatusSubmitted {
			return apperrors.NewInvalidStatusError("profile",
				fmt.Sprintf("Only submitted profiles can be reviewed, current status is %s", profile.VerificationStatus))
		}

		user, err = tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}

		now := s.now()
		by := adminID
		profile.VerifiedBy = &by
		profile.VerifiedAt = &now
		if approve {
			profile.VerificationStatus = models.VerificationStatusApproved
			profile.RejectionReason = ""
			user.AdminApprovalStatus = models.ApprovalStatusApproved
		} else {
			profile.VerificationStatus = models.VerificationStatusRejected
			profile.RejectionReason = reason
			user.AdminApprovalStatus = models.ApprovalStatusRejected
		}

		if err := tx.Profiles().Update(ctx, profile); err != nil {
			return err
		}
		return tx.Users().SetApprovalStatus(ctx, user.ID, user.AdminApprovalStatus)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	logger.CtxInfo(ctx, "Profile verification decided",
		"user_id", userID, "admin_id", adminID, "status", profile.VerificationStatus)

	s.notifyDecision(ctx, user, profile, approve, reason)
	return dto.NewProfileResponse(profile, nil), nil
}

func (s *AdminServiceImpl) notifyDecision(ctx context.Context, user *models.User, profile *models.Profile, approved bool, reason string) {
	if approved {
		s.notifications.Notify(ctx, user.ID, models.NotificationTypeProfileApproved,
			"Profile verified",
			"Your profile has been verified by our team.",
			map[string]interface{}{"status": profile.VerificationStatus})
	} else {
		s.notifications.Notify(ctx, user.ID, models.NotificationTypeProfileRejected,
			"Profile verification rejected",
			"Your profile verification was rejected. Reason: "+reason,
			map[string]interface{}{"status": profile.VerificationStatus, "reason": reason})
	}

	// Письмо тоже best effort
	err := s.emailProvider.SendTemplate(ctx, []string{user.Email}, "Profile verification update",
		email.TemplateProfileDecision, email.TemplateData{
			"Name":     user.FullName,
			"Approved": approved,
			"Reason":   reason,
		})
	if err != nil {
		logger.CtxWithError(ctx, "Failed to send profile decision email", err, "user_id", user.ID)
	}
}
