package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"seribro_backend/internal/alerts"
	"seribro_backend/internal/logger"
	"seribro_backend/internal/models"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/services/dto"
	"seribro_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

// Publisher доставляет событие в живые соединения пользователя (WebSocket hub)
type Publisher interface {
	SendToUser(userID string, payload interface{})
}

type NotificationService interface {
	// Notify - best-effort: ошибки только логируются. Вызывать после коммита.
	Notify(ctx context.Context, userID string, nType models.NotificationType, title, message string, data map[string]interface{})
	// NotifyAdmins - уведомление каждому администратору + алерт во внешний канал
	NotifyAdmins(ctx context.Context, nType models.NotificationType, title, message string, data map[string]interface{})

	List(ctx context.Context, userID string, query *dto.NotificationsQuery) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type NotificationServiceImpl struct {
	store     repositories.Store
	publisher Publisher
	alerter   alerts.Alerter
	opts      Options
	now       func() time.Time
}

func NewNotificationService(store repositories.Store, publisher Publisher, alerter alerts.Alerter, opts Options) *NotificationServiceImpl {
	if alerter == nil {
		alerter = alerts.NoopAlerter{}
	}
	return &NotificationServiceImpl{
		store:     store,
		publisher: publisher,
		alerter:   alerter,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *NotificationServiceImpl) Notify(ctx context.Context, userID string, nType models.NotificationType, title, message string, data map[string]interface{}) {
	notification := &models.Notification{
		UserID:  userID,
		Type:    nType,
		Title:   title,
		Message: message,
	}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			logger.CtxWithError(ctx, "Failed to marshal notification data", err, "type", nType)
		} else {
			notification.Data = datatypes.JSON(raw)
		}
	}

	// Собственный handle хранилища, не транзакция вызывающего
	if err := s.store.Notifications().Create(ctx, notification); err != nil {
		logger.CtxWithError(ctx, "Failed to create notification", err, "type", nType, "recipient", userID)
		return
	}

	if s.publisher != nil {
		s.publisher.SendToUser(userID, map[string]interface{}{
			"event":        "notification",
			"notification": dto.NewNotificationResponse(notification),
		})
	}
}

func (s *NotificationServiceImpl) NotifyAdmins(ctx context.Context, nType models.NotificationType, title, message string, data map[string]interface{}) {
	admins, err := s.store.Users().FindByRole(ctx, models.UserRoleAdmin)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to load admins for notification", err, "type", nType)
	}
	for i := range admins {
		s.Notify(ctx, admins[i].ID, nType, title, message, data)
	}

	if err := s.alerter.Alert(ctx, title, message); err != nil {
		logger.CtxWithError(ctx, "Failed to send admin alert", err, "type", nType)
	}
}

func (s *NotificationServiceImpl) List(ctx context.Context, userID string, query *dto.NotificationsQuery) (*dto.NotificationListResponse, error) {
	page, limit := s.opts.Page(query.Page, query.Limit)

	notifications, total, err := s.store.Notifications().FindByUser(ctx, userID, query.UnreadOnly,
		repositories.Pagination{Page: page, Limit: limit})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	unread, err := s.store.Notifications().CountUnread(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	resp := &dto.NotificationListResponse{
		Notifications: make([]*dto.NotificationResponse, 0, len(notifications)),
		UnreadCount:   unread,
		Pagination:    dto.NewPagination(page, limit, total),
	}
	for i := range notifications {
		resp.Notifications = append(resp.Notifications, dto.NewNotificationResponse(&notifications[i]))
	}
	return resp, nil
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID string) error {
	notification, err := s.store.Notifications().FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.ErrNotificationNotFound
		}
		return apperrors.DatabaseError(err)
	}

	// Чужое уведомление выглядит как несуществующее
	if notification.UserID != userID {
		return apperrors.ErrNotificationNotFound
	}
	if notification.IsRead {
		return nil
	}

	if err := s.store.Notifications().MarkAsRead(ctx, notificationID, s.now()); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	updated, err := s.store.Notifications().MarkAllAsRead(ctx, userID, s.now())
	if err != nil {
		return 0, apperrors.DatabaseError(err)
	}
	return updated, nil
}
