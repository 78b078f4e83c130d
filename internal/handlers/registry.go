package handlers

import (
	"seribro_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	ProfileHandler      *ProfileHandler
	AdminHandler        *AdminHandler
	ProjectHandler      *ProjectHandler
	ApplicationHandler  *ApplicationHandler
	NotificationHandler *NotificationHandler
	DashboardHandler    *DashboardHandler
}

func NewAppHandlers(base *BaseHandler, svc *services.ServiceContainer, cookie SessionCookie) *AppHandlers {
	return &AppHandlers{
		AuthHandler:         NewAuthHandler(base, svc.AuthService, cookie),
		ProfileHandler:      NewProfileHandler(base, svc.ProfileService),
		AdminHandler:        NewAdminHandler(base, svc.AdminService),
		ProjectHandler:      NewProjectHandler(base, svc.ProjectService),
		ApplicationHandler:  NewApplicationHandler(base, svc.ApplicationService),
		NotificationHandler: NewNotificationHandler(base, svc.NotificationService),
		DashboardHandler:    NewDashboardHandler(base, svc.DashboardService),
	}
}

// RegisterRoutes вешает все REST-маршруты на группу /api
func (h *AppHandlers) RegisterRoutes(api *gin.RouterGroup, guards RouteGuards) {
	h.AuthHandler.RegisterRoutes(api, guards)
	h.ProfileHandler.RegisterRoutes(api, guards)
	h.AdminHandler.RegisterRoutes(api, guards)
	h.ProjectHandler.RegisterRoutes(api, guards)
	h.ApplicationHandler.RegisterRoutes(api, guards)
	h.NotificationHandler.RegisterRoutes(api, guards)
	h.DashboardHandler.RegisterRoutes(api, guards)
}
