package apperrors

import (
	"net/http"

	"seribro_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - конверт ответа об ошибке
type ErrorResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    ErrorCode   `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HandleError пишет ошибку в gin.Context. Все, что не AppError, и любые
// 5xx отдаются как "Internal server error" без деталей.
func HandleError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= http.StatusInternalServerError {
		logger.CtxWithError(c.Request.Context(), "Server error", err, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{
			Success: false,
			Message: "Internal server error",
			Code:    CodeInternalError,
		})
		return
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}

// RecoveryHandler - для gin.CustomRecovery: паника превращается в 500 без деталей
func RecoveryHandler(c *gin.Context, recovered any) {
	logger.CtxError(c.Request.Context(), "Panic recovered", "panic", recovered, "path", c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Message: "Internal server error",
		Code:    CodeInternalError,
	})
}
