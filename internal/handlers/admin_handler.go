package handlers

import (
	"seribro_backend/internal/auth"
	"seribro_backend/internal/middleware"
	"seribro_backend/internal/models"
	"seribro_backend/internal/services"
	"seribro_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	*BaseHandler
	adminService services.AdminService
}

func NewAdminHandler(base *BaseHandler, adminService services.AdminService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  base,
		adminService: adminService,
	}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	admin := rg.Group("/admin")
	admin.Use(guards.Auth, middleware.RequireRoles(models.UserRoleAdmin))

	review := admin.Group("", middleware.RequirePermission(auth.PermVerificationReview))
	{
		review.GET("/verifications", h.ListVerifications)

		for _, role := range []models.UserRole{models.UserRoleStudent, models.UserRoleCompany} {
			target := review.Group("/" + string(role))
			target.POST("/:id/approve", h.Approve(role))
			target.POST("/:id/reject", h.Reject(role))
		}
	}

	// Проекты и заявки всей платформы, только чтение
	oversight := admin.Group("", middleware.RequirePermission(auth.PermPlatformOversight))
	{
		oversight.GET("/stats", h.PlatformStats)
		oversight.GET("/projects", h.ListProjects)
		oversight.GET("/projects/:id", h.GetProject)
		oversight.GET("/projects/:id/applications", h.ListProjectApplications)
		oversight.GET("/applications", h.ListApplications)
		oversight.GET("/applications/:id", h.GetApplication)
	}
}

// ListVerifications godoc
// @Summary Очередь верификации
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "student | company"
// @Param status query string false "submitted (default) | approved | rejected | incomplete"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} SuccessResponse{data=dto.VerificationQueueResponse}
// @Router /admin/verifications [get]
func (h *AdminHandler) ListVerifications(c *gin.Context) {
	var query dto.VerificationQueueQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	queue, err := h.adminService.ListVerifications(c.Request.Context(), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", queue)
}

// Approve godoc
// @Summary Одобрить профиль
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} SuccessResponse{data=dto.ProfileResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /admin/student/{id}/approve [post]
// @Router /admin/company/{id}/approve [post]
func (h *AdminHandler) Approve(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := h.GetAndAuthorizeUserID(c)
		if !ok {
			return
		}
		profile, err := h.adminService.Approve(c.Request.Context(), adminID, c.Param("id"), role)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		h.OK(c, "Profile approved", profile)
	}
}

// Reject godoc
// @Summary Отклонить профиль
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body dto.RejectProfileRequest true "Reason"
// @Success 200 {object} SuccessResponse{data=dto.ProfileResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /admin/student/{id}/reject [post]
// @Router /admin/company/{id}/reject [post]
func (h *AdminHandler) Reject(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := h.GetAndAuthorizeUserID(c)
		if !ok {
			return
		}
		var req dto.RejectProfileRequest
		if !h.BindAndValidate_JSON(c, &req) {
			return
		}
		profile, err := h.adminService.Reject(c.Request.Context(), adminID, c.Param("id"), role, req.Reason)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		h.OK(c, "Profile rejected", profile)
	}
}

// PlatformStats godoc
// @Summary Статистика платформы
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=dto.PlatformStats}
// @Router /admin/stats [get]
func (h *AdminHandler) PlatformStats(c *gin.Context) {
	stats, err := h.adminService.PlatformStats(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", stats)
}

// ListProjects godoc
// @Summary Все проекты
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "open | assigned | closed"
// @Param companyId query string false "Company user ID"
// @Param search query string false "Title or description"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} SuccessResponse{data=dto.ProjectListResponse}
// @Router /admin/projects [get]
func (h *AdminHandler) ListProjects(c *gin.Context) {
	var query dto.AdminProjectsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	projects, err := h.adminService.ListProjects(c.Request.Context(), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", projects)
}

// GetProject godoc
// @Summary Проект и сводка по заявкам
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} SuccessResponse{data=dto.AdminProjectDetail}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /admin/projects/{id} [get]
func (h *AdminHandler) GetProject(c *gin.Context) {
	project, err := h.adminService.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", project)
}

// ListProjectApplications godoc
// @Summary Заявки на проект
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param status query string false "pending | shortlisted | accepted | rejected | withdrawn"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} SuccessResponse{data=dto.ApplicationListResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /admin/projects/{id}/applications [get]
func (h *AdminHandler) ListProjectApplications(c *gin.Context) {
	var query dto.ApplicationsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	apps, err := h.adminService.ListProjectApplications(c.Request.Context(), c.Param("id"), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", apps)
}

// ListApplications godoc
// @Summary Все заявки
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending | shortlisted | accepted | rejected | withdrawn"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} SuccessResponse{data=dto.ApplicationListResponse}
// @Router /admin/applications [get]
func (h *AdminHandler) ListApplications(c *gin.Context) {
	var query dto.AdminApplicationsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	apps, err := h.adminService.ListApplications(c.Request.Context(), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", apps)
}

// GetApplication godoc
// @Summary Заявка
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} SuccessResponse{data=dto.ApplicationResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /admin/applications/{id} [get]
func (h *AdminHandler) GetApplication(c *gin.Context) {
	app, err := h.adminService.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", app)
}
