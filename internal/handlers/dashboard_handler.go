package handlers

import (
	"seribro_backend/internal/auth"
	"seribro_backend/internal/middleware"
	"seribro_backend/internal/models"
	"seribro_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	*BaseHandler
	dashboardService services.DashboardService
}

func NewDashboardHandler(base *BaseHandler, dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:      base,
		dashboardService: dashboardService,
	}
}

func (h *DashboardHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	student := rg.Group("/student")
	student.Use(guards.Auth, middleware.RequireRoles(models.UserRoleStudent), middleware.RequirePermission(auth.PermDashboardView))
	{
		student.GET("/dashboard", h.StudentDashboard)
		student.GET("/applications/stats", h.ApplicationStats)
	}

	company := rg.Group("/company")
	company.Use(guards.Auth, middleware.RequireRoles(models.UserRoleCompany), middleware.RequirePermission(auth.PermDashboardView))
	{
		company.GET("/dashboard", h.CompanyDashboard)
	}
}

// StudentDashboard godoc
// @Summary Дашборд студента
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=dto.StudentDashboard}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /student/dashboard [get]
func (h *DashboardHandler) StudentDashboard(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	dashboard, err := h.dashboardService.StudentDashboard(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", dashboard)
}

// CompanyDashboard godoc
// @Summary Дашборд компании
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=dto.CompanyDashboard}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /company/dashboard [get]
func (h *DashboardHandler) CompanyDashboard(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	dashboard, err := h.dashboardService.CompanyDashboard(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", dashboard)
}

// ApplicationStats godoc
// @Summary Заявки студента по статусам
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=dto.ApplicationStats}
// @Router /student/applications/stats [get]
func (h *DashboardHandler) ApplicationStats(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	stats, err := h.dashboardService.ApplicationStats(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", stats)
}
