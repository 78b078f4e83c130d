package services

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"seribro_backend/internal/algorithms"
	"seribro_backend/internal/auth"
	"seribro_backend/internal/email"
	"seribro_backend/internal/logger"
	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/services/dto"
	"seribro_backend/internal/storage"
	"seribro_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest, document *storage.Upload) (*dto.RegisterResponse, error)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context, userID string) (*dto.UserDTO, error)
	// VerifyToken - подпись, срок жизни и список отозванных jti
	VerifyToken(ctx context.Context, token string) (*auth.Claims, error)
	// EnsureAdmin создает первого администратора, если его еще нет
	EnsureAdmin(ctx context.Context, email, password string) error
}

type AuthServiceImpl struct {
	store         repositories.Store
	storage       storage.Storage
	emailProvider email.Provider
	notifications NotificationService
	opts          Options
	now           func() time.Time
}

func NewAuthService(
	store repositories.Store,
	fileStorage storage.Storage,
	emailProvider email.Provider,
	notifications NotificationService,
	opts Options,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		store:         store,
		storage:       fileStorage,
		emailProvider: emailProvider,
		notifications: notifications,
		opts:          opts,
		now:           time.Now,
	}
}

// proofDocumentField - имя multipart-поля с документом для роли
func proofDocumentField(role models.UserRole) string {
	if role == models.UserRoleCompany {
		return "verificationDocument"
	}
	return "collegeId"
}

// Register - аккаунт и пустой профиль в одной транзакции, документ в хранилище, OTP после коммита
func (s *AuthServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest, document *storage.Upload) (*dto.RegisterResponse, error) {
	if !req.Role.IsSignupRole() {
		return nil, apperrors.ValidationError(map[string]string{"role": "Must be one of: student, company"})
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ValidationError(map[string]string{"password": err.Error()})
	}
	if document == nil || document.Size() == 0 {
		field := proofDocumentField(req.Role)
		return nil, apperrors.ValidationError(map[string]string{field: "This file is required"})
	}

	emailAddr := repositories.NormalizeEmail(req.Email)
	if _, err := s.store.Users().FindByEmail(ctx, emailAddr); err == nil {
		return nil, apperrors.ErrDuplicateEmail
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.DatabaseError(err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// ID нужен заранее: по нему строится ключ документа
	userID := uuid.NewString()
	documentKey := storage.ObjectKey(userID, "proof", document.ContentType)
	if err := s.storage.Save(ctx, documentKey, document.Reader(), document.ContentType); err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		BaseModel:           models.BaseModel{ID: userID},
		Email:               emailAddr,
		PasswordHash:        hashedPassword,
		Role:                req.Role,
		FullName:            req.FullName,
		Phone:               req.Phone,
		EmailVerified:       false,
		AdminApprovalStatus: models.ApprovalStatusPending,
		ProofDocumentKey:    documentKey,
	}

	profile := models.NewProfile(userID, req.Role)
	switch req.Role {
	case models.UserRoleStudent:
		profile.StudentInfo = datatypes.NewJSONType(models.StudentBasicInfo{
			FullName: req.FullName,
			Phone:    req.Phone,
		})
	case models.UserRoleCompany:
		profile.CompanyInfo = datatypes.NewJSONType(models.CompanyBasicInfo{
			CompanyName: req.CompanyName,
			Mobile:      req.Phone,
		})
		profile.AuthorizedPerson = datatypes.NewJSONType(models.AuthorizedPerson{
			Name:  req.FullName,
			Email: emailAddr,
		})
	}
	profile.CompletionPercentage = algorithms.CalculateCompletion(profile, s.opts.WeightsFor(req.Role)).Percentage

	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return tx.Profiles().Create(ctx, profile)
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, documentKey); delErr != nil {
			logger.CtxWithError(ctx, "Failed to remove orphaned proof document", delErr, "key", documentKey)
		}
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "User registered", "user_id", user.ID, "role", user.Role)

	resp := &dto.RegisterResponse{UserID: user.ID, Email: user.Email, Role: user.Role}

	// Письмо с кодом - best effort, регистрация уже состоялась
	if err := s.issueOTP(ctx, user, models.OTPPurposeSignup); err != nil {
		logger.CtxWithError(ctx, "Failed to send signup OTP", err, "user_id", user.ID)
	} else {
		resp.OTPSent = true
	}
	return resp, nil
}

func (s *AuthServiceImpl) SendOTP(ctx context.Context, emailAddr string) error {
	user, err := s.store.Users().FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewNotFoundError("auth", "No account found with this email")
		}
		return apperrors.DatabaseError(err)
	}
	if user.EmailVerified {
		return apperrors.ValidationError(map[string]string{"email": "Email is already verified"}).
			WithMessage("Email is already verified")
	}

	existing, err := s.store.OTPs().FindByEmail(ctx, user.Email)
	switch {
	case err == nil:
		if s.now().Sub(existing.LastSentAt) < s.opts.OTPResendInterval {
			return apperrors.ErrOTPTooSoon
		}
	case !errors.Is(err, repositories.ErrNotFound):
		return apperrors.DatabaseError(err)
	}

	if err := s.issueOTP(ctx, user, models.OTPPurposeVerify); err != nil {
		return err
	}
	return nil
}

// issueOTP заменяет активный код новым и отправляет его письмом
func (s *AuthServiceImpl) issueOTP(ctx context.Context, user *models.User, purpose models.OTPPurpose) error {
	code, err := auth.GenerateOTP()
	if err != nil {
		return apperrors.InternalError(err)
	}
	codeHash, err := auth.HashOTP(code)
	if err != nil {
		return apperrors.InternalError(err)
	}

	ttl, send := s.opts.OTPTTL, s.emailProvider.SendOTP
	if purpose == models.OTPPurposeReset {
		ttl, send = s.opts.PasswordResetTTL, s.emailProvider.SendPasswordReset
	}

	now := s.now()
	otp := &models.OTPCode{
		Email:      user.Email,
		CodeHash:   codeHash,
		Purpose:    purpose,
		ExpiresAt:  now.Add(ttl),
		LastSentAt: now,
	}
	if err := s.store.OTPs().Replace(ctx, otp); err != nil {
		return apperrors.DatabaseError(err)
	}

	if err := send(ctx, user.Email, code, ttl); err != nil {
		// Неотправленный код не должен блокировать повторный запрос
		if delErr := s.store.OTPs().DeleteByEmail(ctx, user.Email); delErr != nil {
			logger.CtxWithError(ctx, "Failed to drop undelivered OTP", delErr, "email", user.Email)
		}
		return apperrors.Wrap(err, apperrors.CodeExternalServiceError, "email",
			"Failed to send verification email", http.StatusBadGateway)
	}

	if purpose != models.OTPPurposeReset {
		s.notifications.Notify(ctx, user.ID, models.NotificationTypeOTPSent,
			"Verification code sent",
			"We sent a 6-digit verification code to "+user.Email,
			map[string]interface{}{"expiresAt": otp.ExpiresAt})
	}
	return nil
}

// consumeOTP проверяет и гасит код в одной транзакции под FOR UPDATE.
// Неверная попытка коммитится (счетчик), верный код достается только одному запросу,
// onValid выполняется в той же транзакции.
func (s *AuthServiceImpl) consumeOTP(
	ctx context.Context,
	emailAddr, code string,
	purposes []models.OTPPurpose,
	onValid func(tx repositories.Store) error,
) error {
	var rejected error

	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		otp, err := tx.OTPs().FindByEmailForUpdate(ctx, emailAddr)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrInvalidOTP
			}
			return err
		}
		if !slices.Contains(purposes, otp.Purpose) {
			return apperrors.ErrInvalidOTP
		}

		if otp.Attempts >= s.opts.OTPMaxAttempts {
			if _, err := tx.OTPs().Consume(ctx, otp.ID); err != nil {
				return err
			}
			rejected = apperrors.ErrInvalidOTP
			return nil
		}
		if otp.IsExpired(s.now()) {
			return apperrors.ErrExpiredOTP
		}

		if !auth.CheckOTP(code, otp.CodeHash) {
			counted, err := tx.OTPs().IncrementAttempts(ctx, otp.ID, s.opts.OTPMaxAttempts)
			if err != nil {
				return err
			}
			// Исчерпан лимит попыток - код сгорает
			if !counted || otp.Attempts+1 >= s.opts.OTPMaxAttempts {
				if _, err := tx.OTPs().Consume(ctx, otp.ID); err != nil {
					return err
				}
				logger.CtxWarn(ctx, "OTP burned after too many attempts", "email", emailAddr)
			}
			rejected = apperrors.ErrInvalidOTP
			return nil
		}

		consumed, err := tx.OTPs().Consume(ctx, otp.ID)
		if err != nil {
			return err
		}
		if !consumed {
			return apperrors.ErrInvalidOTP
		}
		return onValid(tx)
	})
	if err != nil {
		return toAppError(err)
	}
	return rejected
}

func (s *AuthServiceImpl) VerifyOTP(ctx context.Context, emailAddr, code string) error {
	emailAddr = repositories.NormalizeEmail(emailAddr)

	var userID string
	err := s.consumeOTP(ctx, emailAddr, code,
		[]models.OTPPurpose{models.OTPPurposeSignup, models.OTPPurposeVerify},
		func(tx repositories.Store) error {
			user, err := tx.Users().FindByEmail(ctx, emailAddr)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return apperrors.ErrInvalidOTP
				}
				return err
			}
			userID = user.ID
			if user.EmailVerified {
				return nil
			}
			return tx.Users().MarkEmailVerified(ctx, user.ID)
		})
	if err != nil {
		return err
	}

	logger.CtxInfo(ctx, "Email verified", "user_id", userID)
	s.notifications.Notify(ctx, userID, models.NotificationTypeEmailVerified,
		"Email verified", "Your email address has been verified. You can now log in.", nil)
	return nil
}

// ForgotPassword отвечает одинаково для любого email, чтобы не раскрывать аккаунты.
// Код получают только подтвержденные аккаунты: у неподтвержденного активен код регистрации.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.store.Users().FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.CtxDebug(ctx, "Password reset requested for unknown email")
			return nil
		}
		return apperrors.DatabaseError(err)
	}
	if !user.EmailVerified {
		logger.CtxInfo(ctx, "Password reset skipped for unverified account", "user_id", user.ID)
		return nil
	}

	existing, err := s.store.OTPs().FindByEmail(ctx, user.Email)
	switch {
	case err == nil:
		if s.now().Sub(existing.LastSentAt) < s.opts.OTPResendInterval {
			logger.CtxInfo(ctx, "Password reset throttled", "user_id", user.ID)
			return nil
		}
	case !errors.Is(err, repositories.ErrNotFound):
		return apperrors.DatabaseError(err)
	}

	if err := s.issueOTP(ctx, user, models.OTPPurposeReset); err != nil {
		logger.CtxWithError(ctx, "Failed to send password reset code", err, "user_id", user.ID)
		return nil
	}
	logger.CtxInfo(ctx, "Password reset code sent", "user_id", user.ID)
	return nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return apperrors.ValidationError(map[string]string{"password": err.Error()})
	}
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.InternalError(err)
	}

	emailAddr := repositories.NormalizeEmail(req.Email)
	var userID string
	err = s.consumeOTP(ctx, emailAddr, req.OTP,
		[]models.OTPPurpose{models.OTPPurposeReset},
		func(tx repositories.Store) error {
			user, err := tx.Users().FindByEmail(ctx, emailAddr)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return apperrors.ErrInvalidOTP
				}
				return err
			}
			userID = user.ID
			return tx.Users().SetPasswordHash(ctx, user.ID, hashedPassword)
		})
	if err != nil {
		return err
	}

	logger.CtxInfo(ctx, "Password reset", "user_id", userID)
	s.notifications.Notify(ctx, userID, models.NotificationTypePasswordChanged,
		"Password changed", "Your password was reset. If this was not you, contact support.", nil)
	return nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.store.Users().FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.DatabaseError(err)
	}

	if !auth.PasswordMatches(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Role != req.Role {
		return nil, apperrors.ErrRoleMismatch
	}
	if !user.EmailVerified {
		return nil, apperrors.ErrEmailNotVerified
	}

	issued, err := auth.GenerateToken(user.ID, user.Role, s.opts.JWTSecret, s.opts.JWTTTL)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.store.Users().SetLastLogin(ctx, user.ID, now); err != nil {
		logger.CtxWithError(ctx, "Failed to update last login", err, "user_id", user.ID)
	}

	logger.CtxInfo(ctx, "User logged in", "user_id", user.ID, "role", user.Role)

	return &dto.LoginResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		User:      dto.NewUserDTO(user),
	}, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperrors.ErrUnauthenticated
	}
	err := s.store.RevokedTokens().Revoke(ctx, &models.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAtTime(),
	})
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	logger.CtxInfo(ctx, "User logged out", "user_id", claims.UserID)
	return nil
}

func (s *AuthServiceImpl) Me(ctx context.Context, userID string) (*dto.UserDTO, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("auth", "User not found")
		}
		return nil, apperrors.DatabaseError(err)
	}
	resp := dto.NewUserDTO(user)
	return &resp, nil
}

func (s *AuthServiceImpl) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, s.opts.JWTSecret)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.ErrUnauthenticated.WithMessage("Token has expired")
		}
		return nil, apperrors.ErrUnauthenticated.WithMessage("Invalid token")
	}

	revoked, err := s.store.RevokedTokens().IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if revoked {
		return nil, apperrors.ErrUnauthenticated.WithMessage("Token has been revoked")
	}
	return claims, nil
}

func (s *AuthServiceImpl) EnsureAdmin(ctx context.Context, emailAddr, password string) error {
	count, err := s.store.Users().CountByRole(ctx, models.UserRoleAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.CtxInfo(ctx, "Admin user already exists, skipping seeding")
		return nil
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:               repositories.NormalizeEmail(emailAddr),
		PasswordHash:        hashedPassword,
		Role:                models.UserRoleAdmin,
		FullName:            "Administrator",
		EmailVerified:       true,
		AdminApprovalStatus: models.ApprovalStatusApproved,
	}
	if err := s.store.Users().Create(ctx, admin); err != nil {
		return err
	}

	logger.CtxInfo(ctx, "First admin user created", "email", admin.Email)
	return nil
}
