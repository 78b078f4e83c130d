package services

import (
	"seribro_backend/internal/alerts"
	"seribro_backend/internal/email"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/storage"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService         AuthService
	ProfileService      ProfileService
	AdminService        AdminService
	ProjectService      ProjectService
	ApplicationService  ApplicationService
	NotificationService NotificationService
	DashboardService    DashboardService
	EmailService        email.Provider
	Storage             storage.Storage

	// Notifications - конкретный тип для NotifyAdmins и тестов
	Notifications *NotificationServiceImpl
}

// Dependencies - внешние зависимости сервисного слоя
type Dependencies struct {
	Store     repositories.Store
	Storage   storage.Storage
	Email     email.Provider
	Alerter   alerts.Alerter
	Publisher Publisher
	Options   Options
}

func NewServiceContainer(deps Dependencies) *ServiceContainer {
	// Один набор замков на accept и close
	locks := NewProjectLocks()

	notifications := NewNotificationService(deps.Store, deps.Publisher, deps.Alerter, deps.Options)

	return &ServiceContainer{
		AuthService:         NewAuthService(deps.Store, deps.Storage, deps.Email, notifications, deps.Options),
		ProfileService:      NewProfileService(deps.Store, deps.Storage, notifications, deps.Options),
		AdminService:        NewAdminService(deps.Store, deps.Storage, deps.Email, notifications, deps.Options),
		ProjectService:      NewProjectService(deps.Store, locks, notifications, deps.Options),
		ApplicationService:  NewApplicationService(deps.Store, locks, deps.Email, notifications, deps.Options),
		NotificationService: notifications,
		DashboardService:    NewDashboardService(deps.Store, deps.Options),
		EmailService:        deps.Email,
		Storage:             deps.Storage,
		Notifications:       notifications,
	}
}
