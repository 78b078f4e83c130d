package handlers

import (
	"seribro_backend/internal/auth"
	"seribro_backend/internal/middleware"
	"seribro_backend/internal/services"
	"seribro_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	*BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup, guards RouteGuards) {
	notifications := rg.Group("/notifications")
	notifications.Use(guards.Auth, middleware.RequirePermission(auth.PermNotificationsRead))
	{
		notifications.GET("", h.List)
		notifications.PUT("/read-all", h.ReadAll)
		notifications.PUT("/:id/read", h.Read)
	}
}

// List godoc
// @Summary Мои уведомления
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unreadOnly query bool false "Only unread"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} SuccessResponse{data=dto.NotificationListResponse}
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var query dto.NotificationsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	list, err := h.notificationService.List(c.Request.Context(), userID, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "", list)
}

// Read godoc
// @Summary Отметить прочитанным
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) Read(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "Notification marked as read", nil)
}

// ReadAll godoc
// @Summary Прочитать все
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=dto.MarkAllReadResponse}
// @Router /notifications/read-all [put]
func (h *NotificationHandler) ReadAll(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, "All notifications marked as read", dto.MarkAllReadResponse{Updated: updated})
}
