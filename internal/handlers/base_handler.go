package handlers

import (
	"errors"
	"net/http"

	"seribro_backend/internal/logger"
	"seribro_backend/internal/middleware"
	"seribro_backend/internal/models"
	"seribro_backend/internal/storage"
	"seribro_backend/internal/validator"
	"seribro_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

type BaseHandler struct {
	validator          *validator.Validator
	uploadMaxSize      int64
	uploadAllowedTypes []string
}

func NewBaseHandler(v *validator.Validator, uploadMaxSize int64, uploadAllowedTypes []string) *BaseHandler {
	return &BaseHandler{
		validator:          v,
		uploadMaxSize:      uploadMaxSize,
		uploadAllowedTypes: uploadAllowedTypes,
	}
}

// RouteGuards - middleware, которые хэндлеры вешают на свои группы
type RouteGuards struct {
	Auth          gin.HandlerFunc
	AuthRateLimit gin.HandlerFunc
}

// SuccessResponse - конверт успешного ответа
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ============================================================================
// 2. Методы привязки и валидации
// ============================================================================

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	return h.bindAndValidate(c, obj, binding.JSON, "request body")
}

func (h *BaseHandler) BindAndValidate_Query(c *gin.Context, obj interface{}) bool {
	return h.bindAndValidate(c, obj, binding.Query, "query parameters")
}

// BindAndValidate_Form - текстовые поля multipart-формы
func (h *BaseHandler) BindAndValidate_Form(c *gin.Context, obj interface{}) bool {
	return h.bindAndValidate(c, obj, binding.Form, "form data")
}

// bindAndValidate: ошибка разбора -> 400 с текстом binder'а, ошибки тегов -> 400 с картой полей
func (h *BaseHandler) bindAndValidate(c *gin.Context, obj interface{}, b binding.Binding, what string) bool {
	ctx := c.Request.Context()
	path := c.Request.URL.Path

	if err := c.ShouldBindWith(obj, b); err != nil {
		logger.CtxWithError(ctx, "Failed to bind "+what, err, "path", path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid "+what+": "+err.Error()))
		return false
	}

	err := h.validator.Validate(obj)
	if err == nil {
		return true
	}
	var vErr *validator.ValidationError
	if !errors.As(err, &vErr) {
		logger.CtxWithError(ctx, "Internal validator error", err, "path", path)
		apperrors.HandleError(c, apperrors.InternalError(err))
		return false
	}
	logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", path)
	apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
	return false
}

// ============================================================================
// 3. Файлы из multipart
// ============================================================================

// ReadFormFile читает и проверяет файл формы. Размер и тип определяются
// по содержимому, лимиты берутся из конфига загрузок.
func (h *BaseHandler) ReadFormFile(c *gin.Context, field string) (*storage.Upload, bool) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile(field)
	if err != nil {
		apperrors.HandleError(c, apperrors.ValidationError(map[string]string{field: "file is required"}))
		return nil, false
	}
	if fileHeader.Size > h.uploadMaxSize {
		apperrors.HandleError(c, apperrors.ErrFileTooLarge)
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.CtxWithError(ctx, "Failed to open uploaded file", err, "field", field)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read uploaded file"))
		return nil, false
	}
	defer file.Close()

	upload, err := storage.ReadUpload(file, fileHeader.Filename, h.uploadMaxSize, h.uploadAllowedTypes)
	switch {
	case err == nil:
		return upload, true
	case errors.Is(err, storage.ErrFileTooLarge):
		apperrors.HandleError(c, apperrors.ErrFileTooLarge)
	case errors.Is(err, storage.ErrInvalidFileType):
		apperrors.HandleError(c, apperrors.ErrInvalidFileType)
	case errors.Is(err, storage.ErrEmptyFile):
		apperrors.HandleError(c, apperrors.ValidationError(map[string]string{field: "file is empty"}))
	default:
		logger.CtxWithError(ctx, "Failed to read uploaded file", err, "field", field)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read uploaded file"))
	}
	return nil, false
}

// ============================================================================
// 4. Ответы и ошибки
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	if appErr, ok := apperrors.AsAppError(err); ok {
		logger.CtxWarn(ctx, "Service error",
			"error", appErr.Message,
			"code", appErr.Code,
			"path", c.Request.URL.Path,
		)
		apperrors.HandleError(c, appErr)
		return
	}
	logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
	apperrors.HandleError(c, apperrors.InternalError(err))
}

func (h *BaseHandler) Respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{Success: true, Message: message, Data: data})
}

func (h *BaseHandler) OK(c *gin.Context, message string, data interface{}) {
	h.Respond(c, http.StatusOK, message, data)
}

// ============================================================================
// 5. Вспомогательные функции
// ============================================================================

func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		logger.CtxWarn(c.Request.Context(), "Unauthorized access: userID not found in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.ErrUnauthenticated)
		return "", false
	}
	return userID, true
}

// RoleOf - роль из токена, без нее запрос дальше не идет
func (h *BaseHandler) RoleOf(c *gin.Context) (models.UserRole, bool) {
	role, ok := middleware.GetRole(c)
	if !ok {
		apperrors.HandleError(c, apperrors.ErrUnauthenticated)
		return "", false
	}
	return role, true
}
