package services

import (
	"time"

	"seribro_backend/internal/algorithms"
	"seribro_backend/internal/config"
	"seribro_backend/internal/models"
)

// Options - параметры политики, которые сервисы берут из конфига
type Options struct {
	JWTSecret []byte
	JWTTTL    time.Duration

	OTPTTL            time.Duration
	OTPResendInterval time.Duration
	OTPMaxAttempts    int
	PasswordResetTTL  time.Duration

	StudentWeights algorithms.Weights
	CompanyWeights algorithms.Weights

	AllowWithdrawAfterShortlist bool

	UploadMaxSize      int64
	UploadAllowedTypes []string
	ImageQuality       int
	LogoSize           int

	DefaultPageLimit int
	MaxPageLimit     int
}

// OptionsFromConfig - cfg уже прошел ApplyDefaults и Validate
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		JWTSecret:                   []byte(cfg.JWT.Secret),
		JWTTTL:                      cfg.JWT.TTL,
		OTPTTL:                      cfg.OTP.TTL,
		OTPResendInterval:           cfg.OTP.ResendInterval,
		OTPMaxAttempts:              cfg.OTP.MaxAttempts,
		PasswordResetTTL:            cfg.OTP.ResetTTL,
		StudentWeights:              toWeights(cfg.Profile.StudentWeights),
		CompanyWeights:              toWeights(cfg.Profile.CompanyWeights),
		AllowWithdrawAfterShortlist: cfg.AllowWithdrawAfterShortlist(),
		UploadMaxSize:               cfg.Upload.MaxSize,
		UploadAllowedTypes:          cfg.Upload.AllowedTypes,
		ImageQuality:                cfg.Upload.ImageQuality,
		LogoSize:                    cfg.Upload.LogoSize,
		DefaultPageLimit:            cfg.Pagination.DefaultLimit,
		MaxPageLimit:                cfg.Pagination.MaxLimit,
	}
}

// WeightsFor - веса секций для роли
func (o Options) WeightsFor(role models.UserRole) algorithms.Weights {
	if role == models.UserRoleCompany {
		return o.CompanyWeights
	}
	return o.StudentWeights
}

// Page нормализует page/limit запроса по лимитам пагинации
func (o Options) Page(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = o.DefaultPageLimit
	}
	if o.MaxPageLimit > 0 && limit > o.MaxPageLimit {
		limit = o.MaxPageLimit
	}
	return page, limit
}

func toWeights(raw map[string]int) algorithms.Weights {
	weights := make(algorithms.Weights, len(raw))
	for section, w := range raw {
		weights[models.SectionName(section)] = w
	}
	return weights
}
