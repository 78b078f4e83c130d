package handlers

import (
	"net/http"

	"seribro_backend/internal/auth"
	"seribro_backend/internal/middleware"
	"seribro_backend/internal/models"
	"seribro_backend/internal/services"
	"seribro_backend/internal/services/dto"
	"seribro_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	*BaseHandler
	profileService services.ProfileService
}

func NewProfileHandler(base *BaseHandler, profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    base,
		profileService: profileService,
	}
}

// RegisterRoutes - одинаковый набор маршрутов профиля для /student и /company
func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	for _, role := range []models.UserRole{models.UserRoleStudent, models.UserRoleCompany} {
		profile := rg.Group("/" + string(role) + "/profile")
		profile.Use(guards.Auth, middleware.RequireRoles(role))
		{
			profile.GET("", h.GetProfile)
			profile.PUT("/:section", middleware.RequirePermission(auth.PermProfileWrite), h.UpdateSection)
			profile.POST("/documents/:type", middleware.RequirePermission(auth.PermProfileWrite), h.UploadDocument)
			profile.POST("/submit-verification", middleware.RequirePermission(auth.PermProfileWrite), h.SubmitForVerification)
		}
	}

	companies := rg.Group("/student/companies")
	companies.Use(guards.Auth, middleware.RequireRoles(models.UserRoleStudent))
	{
		companies.GET("/:id", h.GetPublicCompany)
	}
}

// GetProfile godoc
// @Summary Свой профиль
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=dto.ProfileResponse}
// @Router /student/profile [get]
// @Router /company/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	profile, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", profile)
}

// UpdateSection godoc
// @Summary Обновить секцию профиля
// @Description Схема тела зависит от секции: basic-info, skills, tech-stack, projects, authorized-person
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param section path string true "Section name"
// @Success 200 {object} SuccessResponse{data=dto.ProfileResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /student/profile/{section} [put]
// @Router /company/profile/{section} [put]
func (h *ProfileHandler) UpdateSection(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	role, ok := h.RoleOf(c)
	if !ok {
		return
	}

	section := models.SectionName(c.Param("section"))
	payload, ok := dto.NewSectionPayload(role, section)
	if !ok {
		apperrors.HandleError(c, apperrors.ValidationError(map[string]string{
			"section": "Unknown profile section: " + string(section),
		}))
		return
	}
	if !h.BindAndValidate_JSON(c, payload) {
		return
	}

	profile, err := h.profileService.UpdateSection(c.Request.Context(), userID, payload)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "Profile updated", profile)
}

// UploadDocument godoc
// @Summary Загрузить документ профиля
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param type path string true "resume | certificates | registration-certificate | logo"
// @Param file formData file true "Document"
// @Success 200 {object} SuccessResponse{data=dto.ProfileResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 413 {object} apperrors.ErrorResponse
// @Router /student/profile/documents/{type} [post]
// @Router /company/profile/documents/{type} [post]
func (h *ProfileHandler) UploadDocument(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	upload, ok := h.ReadFormFile(c, "file")
	if !ok {
		return
	}

	docType := models.DocumentType(c.Param("type"))
	profile, err := h.profileService.UploadDocument(c.Request.Context(), userID, docType, upload)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "Document uploaded", profile)
}

// SubmitForVerification godoc
// @Summary Отправить профиль на проверку
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=dto.ProfileResponse}
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /student/profile/submit-verification [post]
// @Router /company/profile/submit-verification [post]
func (h *ProfileHandler) SubmitForVerification(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	profile, err := h.profileService.SubmitForVerification(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "Profile submitted for verification", profile)
}

// GetPublicCompany godoc
// @Summary Публичный профиль компании
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company user ID"
// @Success 200 {object} SuccessResponse{data=dto.PublicCompanyProfile}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /student/companies/{id} [get]
func (h *ProfileHandler) GetPublicCompany(c *gin.Context) {
	company, err := h.profileService.GetPublicCompanyProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: company})
}
