package dto

import (
	"time"

	"seribro_backend/internal/models"
)

// StudentRegisterRequest - multipart-форма регистрации студента (файл collegeId идет отдельно)
type StudentRegisterRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required,min=8,max=72"`
	FullName string `form:"fullName" json:"fullName" validate:"required,min=2,max=100"`
	Phone    string `form:"phone" json:"phone" validate:"required,is-phone"`
}

func (r *StudentRegisterRequest) ToRegister() *RegisterRequest {
	return &RegisterRequest{
		Role:     models.UserRoleStudent,
		Email:    r.Email,
		Password: r.Password,
		FullName: r.FullName,
		Phone:    r.Phone,
	}
}

// CompanyRegisterRequest - multipart-форма регистрации компании (файл verificationDocument)
type CompanyRegisterRequest struct {
	Email         string `form:"email" json:"email" validate:"required,email"`
	Password      string `form:"password" json:"password" validate:"required,min=8,max=72"`
	CompanyName   string `form:"companyName" json:"companyName" validate:"required,min=2,max=150"`
	ContactPerson string `form:"contactPerson" json:"contactPerson" validate:"required,min=2,max=100"`
	Phone         string `form:"phone" json:"phone" validate:"required,is-phone"`
}

func (r *CompanyRegisterRequest) ToRegister() *RegisterRequest {
	return &RegisterRequest{
		Role:        models.UserRoleCompany,
		Email:       r.Email,
		Password:    r.Password,
		FullName:    r.ContactPerson,
		Phone:       r.Phone,
		CompanyName: r.CompanyName,
	}
}

// RegisterRequest - общий вход AuthService.Register для обеих ролей
type RegisterRequest struct {
	Role        models.UserRole `validate:"required,is-signup-role"`
	Email       string          `validate:"required,email"`
	Password    string          `validate:"required,min=8,max=72"`
	FullName    string          `validate:"required"`
	Phone       string          `validate:"required,is-phone"`
	CompanyName string          `validate:"required_if=Role company"`
}

type RegisterResponse struct {
	UserID  string          `json:"userId"`
	Email   string          `json:"email"`
	Role    models.UserRole `json:"role"`
	OTPSent bool            `json:"otpSent"`
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,is-otp"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest - код из письма forgot-password и новый пароль
type ResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	OTP      string `json:"otp" validate:"required,is-otp"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,is-user-role"`
}

// LoginResponse - токен дублируется в http-only cookie
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

// UserDTO - сводка аккаунта без чувствительных полей
type UserDTO struct {
	ID                  string                `json:"id"`
	Email               string                `json:"email"`
	Role                models.UserRole       `json:"role"`
	FullName            string                `json:"fullName"`
	Phone               string                `json:"phone,omitempty"`
	EmailVerified       bool                  `json:"emailVerified"`
	AdminApprovalStatus models.ApprovalStatus `json:"adminApprovalStatus"`
	LastLoginAt         *time.Time            `json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time             `json:"createdAt"`
}

func NewUserDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:                  user.ID,
		Email:               user.Email,
		Role:                user.Role,
		FullName:            user.FullName,
		Phone:               user.Phone,
		EmailVerified:       user.EmailVerified,
		AdminApprovalStatus: user.AdminApprovalStatus,
		LastLoginAt:         user.LastLoginAt,
		CreatedAt:           user.CreatedAt,
	}
}
