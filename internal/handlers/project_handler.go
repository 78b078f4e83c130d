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

type ProjectHandler struct {
	*BaseHandler
	projectService services.ProjectService
}

func NewProjectHandler(base *BaseHandler, projectService services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		BaseHandler:    base,
		projectService: projectService,
	}
}

func (h *ProjectHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	// Компания управляет своими проектами
	company := rg.Group("/company/projects")
	company.Use(guards.Auth, middleware.RequireRoles(models.UserRoleCompany))
	{
		company.POST("/create", middleware.RequirePermission(auth.PermProjectsWrite), h.CreateProject)
		company.GET("", h.ListMyProjects)
		company.GET("/:id", h.GetCompanyProject)
		company.POST("/:id/close", middleware.RequirePermission(auth.PermProjectsWrite), h.CloseProject)
	}

	// Лента открытых проектов для студента
	student := rg.Group("/student/projects")
	student.Use(guards.Auth, middleware.RequireRoles(models.UserRoleStudent), middleware.RequirePermission(auth.PermProjectsBrowse))
	{
		student.GET("/browse", h.BrowseProjects)
		student.GET("/recommended", h.RecommendedProjects)
		student.GET("/:id", h.GetStudentProject)
	}
}

// CreateProject godoc
// @Summary Создать проект
// @Description Только для компании с одобренным профилем
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateProjectRequest true "Project"
// @Success 201 {object} SuccessResponse{data=dto.ProjectResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /company/projects/create [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	companyID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.CreateProjectRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), companyID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Respond(c, http.StatusCreated, "Project created", project)
}

// ListMyProjects godoc
// @Summary Проекты компании
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param status query string false "open | assigned | closed"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} SuccessResponse{data=dto.ProjectListResponse}
// @Router /company/projects [get]
func (h *ProjectHandler) ListMyProjects(c *gin.Context) {
	companyID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var query dto.CompanyProjectsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	projects, err := h.projectService.ListMine(c.Request.Context(), companyID, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", projects)
}

// GetCompanyProject godoc
// @Summary Проект компании
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} SuccessResponse{data=dto.ProjectResponse}
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /company/projects/{id} [get]
func (h *ProjectHandler) GetCompanyProject(c *gin.Context) {
	companyID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	project, err := h.projectService.GetForCompany(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", project)
}

// CloseProject godoc
// @Summary Закрыть проект
// @Description Идемпотентно. Все ожидающие заявки отклоняются.
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} SuccessResponse{data=dto.ProjectResponse}
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /company/projects/{id}/close [post]
func (h *ProjectHandler) CloseProject(c *gin.Context) {
	companyID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	project, err := h.projectService.Close(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "Project closed", project)
}

// BrowseProjects godoc
// @Summary Открытые проекты
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param search query string false "Title or description"
// @Param skill query string false "Required skill"
// @Param category query string false "Category"
// @Param minBudget query number false "Min budget"
// @Param maxBudget query number false "Max budget"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} SuccessResponse{data=dto.ProjectListResponse}
// @Router /student/projects/browse [get]
func (h *ProjectHandler) BrowseProjects(c *gin.Context) {
	studentID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var query dto.BrowseProjectsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	projects, err := h.projectService.ListOpen(c.Request.Context(), studentID, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", projects)
}

// RecommendedProjects godoc
// @Summary Подходящие по навыкам проекты
// @Description Открытые проекты без отклика студента, по убыванию matchScore
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit (default 10, max 50)"
// @Success 200 {object} SuccessResponse{data=[]dto.ProjectResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /student/projects/recommended [get]
func (h *ProjectHandler) RecommendedProjects(c *gin.Context) {
	studentID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var query dto.RecommendedProjectsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	projects, err := h.projectService.Recommended(c.Request.Context(), studentID, query.Limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", projects)
}

// GetStudentProject godoc
// @Summary Проект глазами студента
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} SuccessResponse{data=dto.ProjectResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /student/projects/{id} [get]
func (h *ProjectHandler) GetStudentProject(c *gin.Context) {
	studentID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	project, err := h.projectService.GetForStudent(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", project)
}
