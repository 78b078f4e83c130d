package auth

import "seribro_backend/internal/models"

// Разрешения по ролям
const (
	PermProfileWrite       = "profile:write"
	PermProjectsWrite      = "projects:write"
	PermProjectsBrowse     = "projects:browse"
	PermApplicationsWrite  = "applications:write"
	PermApplicationsReview = "applications:review"
	PermVerificationReview = "verification:review"
	PermPlatformOversight  = "platform:oversight"
	PermNotificationsRead  = "notifications:read"
	PermDashboardView      = "dashboard:view"
)

// Permissions список разрешений
var Permissions = map[models.UserRole][]string{
	models.UserRoleAdmin: {
		PermVerificationReview,
		PermPlatformOversight,
		PermNotificationsRead,
	},
	models.UserRoleCompany: {
		PermProfileWrite,
		PermProjectsWrite,
		PermApplicationsReview,
		PermNotificationsRead,
		PermDashboardView,
	},
	models.UserRoleStudent: {
		PermProfileWrite,
		PermProjectsBrowse,
		PermApplicationsWrite,
		PermNotificationsRead,
		PermDashboardView,
	},
}

// HasPermission проверяет есть ли у роли указанное разрешение
func HasPermission(role models.UserRole, permission string) bool {
	permissions, exists := Permissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CanPerformAction проверяет может ли пользователь выполнить действие
func CanPerformAction(claims *Claims, permission string) bool {
	return claims != nil && HasPermission(claims.Role, permission)
}

// IsAdmin проверяет является ли пользователь администратором
func IsAdmin(claims *Claims) bool {
	return claims != nil && claims.Role == models.UserRoleAdmin
}
