package middleware

import (
	"context"
	"strings"
	"time"

	"seribro_backend/internal/auth"
	"seribro_backend/internal/logger"
	"seribro_backend/internal/models"
	"seribro_backend/pkg/apperrors"
	"seribro_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier - проверка подписи, срока и отзыва токена (AuthService)
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthMiddleware - токен из заголовка Bearer или из cookie сессии
func AuthMiddleware(verifier TokenVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			apperrors.HandleError(c, apperrors.ErrUnauthenticated.WithMessage("Authorization token missing"))
			return
		}

		claims, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		// Сохраняем claims в контекст
		c.Set(contextkeys.UserIDKey, claims.UserID)
		c.Set(contextkeys.RoleKey, claims.Role)
		c.Set(contextkeys.TokenIDKey, claims.ID)
		c.Set(contextkeys.TokenExpKey, claims.ExpiresAtTime())
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil {
			return cookie
		}
	}
	// Браузер не умеет ставить заголовки при upgrade
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}

// RequireRoles - доступ только для перечисленных ролей
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			apperrors.HandleError(c, apperrors.ErrUnauthenticated)
			return
		}
		if !roleSet[role] {
			apperrors.HandleError(c, apperrors.ErrUnauthorized.WithMessage("Access denied: insufficient role"))
			return
		}
		c.Next()
	}
}

// RequirePermission - проверка через таблицу разрешений ролей
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			apperrors.HandleError(c, apperrors.ErrUnauthenticated)
			return
		}
		if !auth.HasPermission(role, permission) {
			apperrors.HandleError(c, apperrors.ErrUnauthorized.WithMessage("Access denied: insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	return c.GetString(contextkeys.UserIDKey)
}

func GetRole(c *gin.Context) (models.UserRole, bool) {
	roleVal, exists := c.Get(contextkeys.RoleKey)
	if !exists {
		return "", false
	}
	switch role := roleVal.(type) {
	case models.UserRole:
		return role, true
	case string:
		return models.UserRole(role), true
	default:
		return "", false
	}
}

// GetClaims восстанавливает claims текущего запроса (нужны для logout)
func GetClaims(c *gin.Context) *auth.Claims {
	userID := GetUserID(c)
	if userID == "" {
		return nil
	}
	role, _ := GetRole(c)
	claims := &auth.Claims{UserID: userID, Role: role}
	claims.ID = c.GetString(contextkeys.TokenIDKey)
	if exp, ok := c.Get(contextkeys.TokenExpKey); ok {
		if t, ok := exp.(time.Time); ok {
			claims.ExpiresAt = jwt.NewNumericDate(t)
		}
	}
	return claims
}
