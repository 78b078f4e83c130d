package handlers

import (
	"net/http"
	"time"

	"seribro_backend/internal/middleware"
	"seribro_backend/internal/services"
	"seribro_backend/internal/services/dto"
	"seribro_backend/internal/storage"
	"seribro_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// SessionCookie - параметры http-only cookie с токеном
type SessionCookie struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
	cookie      SessionCookie
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
		cookie:      cookie,
	}
}

// RegisterRoutes регистрирует маршруты /auth
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	auth := rg.Group("/auth")
	{
		limited := auth.Group("")
		limited.Use(guards.AuthRateLimit)
		{
			limited.POST("/student/register", h.RegisterStudent)
			limited.POST("/company/register", h.RegisterCompany)
			limited.POST("/send-otp", h.SendOTP)
			limited.POST("/verify-otp", h.VerifyOTP)
			limited.POST("/login", h.Login)
			limited.POST("/forgot-password", h.ForgotPassword)
			limited.POST("/reset-password", h.ResetPassword)
		}

		protected := auth.Group("")
		protected.Use(guards.Auth)
		{
			protected.POST("/logout", h.Logout)
			protected.GET("/me", h.Me)
		}
	}
}

// RegisterStudent godoc
// @Summary Регистрация студента
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param fullName formData string true "Full name"
// @Param phone formData string true "Phone"
// @Param collegeId formData file true "College ID card"
// @Success 201 {object} SuccessResponse{data=dto.RegisterResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /auth/student/register [post]
func (h *AuthHandler) RegisterStudent(c *gin.Context) {
	var req dto.StudentRegisterRequest
	if !h.BindAndValidate_Form(c, &req) {
		return
	}
	document, ok := h.ReadFormFile(c, "collegeId")
	if !ok {
		return
	}
	h.register(c, req.ToRegister(), document)
}

// RegisterCompany godoc
// @Summary Регистрация компании
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param companyName formData string true "Company name"
// @Param contactPerson formData string true "Contact person"
// @Param phone formData string true "Phone"
// @Param verificationDocument formData file true "Company verification document"
// @Success 201 {object} SuccessResponse{data=dto.RegisterResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /auth/company/register [post]
func (h *AuthHandler) RegisterCompany(c *gin.Context) {
	var req dto.CompanyRegisterRequest
	if !h.BindAndValidate_Form(c, &req) {
		return
	}
	document, ok := h.ReadFormFile(c, "verificationDocument")
	if !ok {
		return
	}
	h.register(c, req.ToRegister(), document)
}

func (h *AuthHandler) register(c *gin.Context, req *dto.RegisterRequest, document *storage.Upload) {
	resp, err := h.authService.Register(c.Request.Context(), req, document)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	message := "Registration successful. Please verify your email with the OTP sent to you"
	if !resp.OTPSent {
		message = "Registration successful. We could not send the OTP, please request a new one"
	}
	h.Respond(c, http.StatusCreated, message, resp)
}

// SendOTP godoc
// @Summary Отправить OTP повторно
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SendOTPRequest true "Email"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 429 {object} apperrors.ErrorResponse
// @Router /auth/send-otp [post]
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req dto.SendOTPRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	if err := h.authService.SendOTP(c.Request.Context(), req.Email); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "OTP sent to your email", nil)
}

// VerifyOTP godoc
// @Summary Подтвердить email кодом
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyOTPRequest true "Email and code"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	if err := h.authService.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "Email verified successfully", nil)
}

// ForgotPassword godoc
// @Summary Запросить код сброса пароля
// @Description Ответ одинаковый для любого email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Email"
// @Success 200 {object} SuccessResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "If an account with this email exists, a reset code has been sent", nil)
}

// ResetPassword godoc
// @Summary Сбросить пароль по коду из письма
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Email, code and new password"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	if err := h.authService.ResetPassword(c.Request.Context(), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "Password reset successful, please log in again", nil)
}

// Login godoc
// @Summary Вход
// @Description Токен возвращается в теле и в http-only cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} SuccessResponse{data=dto.LoginResponse}
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	maxAge := int(time.Until(resp.ExpiresAt).Seconds())
	h.setCookie(c, resp.Token, maxAge)
	h.OK(c, "Login successful", resp)
}

// Logout godoc
// @Summary Выход
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		apperrors.HandleError(c, apperrors.ErrUnauthenticated)
		return
	}
	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.setCookie(c, "", -1)
	h.OK(c, "Logged out successfully", nil)
}

// Me godoc
// @Summary Текущий пользователь
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=dto.UserDTO}
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", user)
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
