package handlers

import (
	"net/http"

	"seribro_backend/internal/auth"
	"seribro_backend/internal/middleware"
	"seribro_backend/internal/models"
	"seribro_backend/internal/services"
	"seribro_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	*BaseHandler
	applicationService services.ApplicationService
}

func NewApplicationHandler(base *BaseHandler, applicationService services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler:        base,
		applicationService: applicationService,
	}
}

func (h *ApplicationHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	student := rg.Group("/student")
	student.Use(guards.Auth, middleware.RequireRoles(models.UserRoleStudent), middleware.RequirePermission(auth.PermApplicationsWrite))
	{
		student.POST("/projects/:id/apply", h.Apply)
		student.GET("/applications", h.ListMyApplications)
		student.PUT("/projects/applications/:id/withdraw", h.Withdraw)
		student.POST("/projects/applications/:id/withdraw", h.Withdraw)
	}

	company := rg.Group("/company/applications")
	company.Use(guards.Auth, middleware.RequireRoles(models.UserRoleCompany), middleware.RequirePermission(auth.PermApplicationsReview))
	{
		company.GET("/projects/:id/applications", h.ListProjectApplications)
		company.POST("/:id/shortlist", h.Shortlist)
		company.POST("/:id/approve", h.Accept)
		company.POST("/:id/accept", h.Accept)
		company.POST("/:id/reject", h.Reject)
	}
}

// Apply godoc
// @Summary Откликнуться на проект
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body dto.ApplyRequest true "Proposal"
// @Success 201 {object} SuccessResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /student/projects/{id}/apply [post]
func (h *ApplicationHandler) Apply(c *gin.Context) {
	studentID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.ApplyRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	app, err := h.applicationService.Apply(c.Request.Context(), studentID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Respond(c, http.StatusCreated, "Application submitted", app)
}

// ListMyApplications godoc
// @Summary Мои заявки
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending | shortlisted | accepted | rejected | withdrawn"
// @Success 200 {object} SuccessResponse{data=dto.ApplicationListResponse}
// @Router /student/applications [get]
func (h *ApplicationHandler) ListMyApplications(c *gin.Context) {
	studentID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var query dto.ApplicationsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	apps, err := h.applicationService.ListMine(c.Request.Context(), studentID, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", apps)
}

// Withdraw godoc
// @Summary Отозвать заявку
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} SuccessResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /student/projects/applications/{id}/withdraw [put]
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	studentID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	app, err := h.applicationService.Withdraw(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "Application withdrawn", app)
}

// ListProjectApplications godoc
// @Summary Заявки на проект
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param status query string false "Status filter"
// @Success 200 {object} SuccessResponse{data=dto.ApplicationListResponse}
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /company/applications/projects/{id}/applications [get]
func (h *ApplicationHandler) ListProjectApplications(c *gin.Context) {
	companyID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var query dto.ApplicationsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	apps, err := h.applicationService.ListForProject(c.Request.Context(), companyID, c.Param("id"), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", apps)
}

// Shortlist godoc
// @Summary Добавить в шорт-лист
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} SuccessResponse{data=dto.ApplicationResponse}
// @Router /company/applications/{id}/shortlist [post]
func (h *ApplicationHandler) Shortlist(c *gin.Context) {
	companyID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	app, err := h.applicationService.Shortlist(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "Application shortlisted", app)
}

// Accept godoc
// @Summary Принять заявку
// @Description Проект назначается студенту, остальные ожидающие заявки отклоняются
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} SuccessResponse{data=dto.AcceptResult}
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /company/applications/{id}/approve [post]
func (h *ApplicationHandler) Accept(c *gin.Context) {
	companyID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	result, err := h.applicationService.Accept(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "Application accepted", result)
}

// Reject godoc
// @Summary Отклонить заявку
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param request body dto.RejectApplicationRequest false "Reason"
// @Success 200 {object} SuccessResponse{data=dto.ApplicationResponse}
// @Router /company/applications/{id}/reject [post]
func (h *ApplicationHandler) Reject(c *gin.Context) {
	companyID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	// Тело необязательно
	var req dto.RejectApplicationRequest
	if c.Request.ContentLength > 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}

	app, err := h.applicationService.Reject(c.Request.Context(), companyID, c.Param("id"), req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "Application rejected", app)
}
