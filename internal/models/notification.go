package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationTypeOTPSent              NotificationType = "otp_sent"
	NotificationTypeEmailVerified        NotificationType = "email_verified"
	NotificationTypeVerificationRequest  NotificationType = "verification_requested"
	NotificationTypeProfileApproved      NotificationType = "profile_approved"
	NotificationTypeProfileRejected      NotificationType = "profile_rejected"
	NotificationTypeNewApplication       NotificationType = "new_application"
	NotificationTypeApplicationShortlist NotificationType = "application_shortlisted"
	NotificationTypeApplicationAccepted  NotificationType = "application_accepted"
	NotificationTypeApplicationRejected  NotificationType = "application_rejected"
	NotificationTypeApplicationWithdrawn NotificationType = "application_withdrawn"
	NotificationTypeProjectAssigned      NotificationType = "project_assigned"
	NotificationTypeProjectClosed        NotificationType = "project_closed"
	NotificationTypePasswordChanged      NotificationType = "password_changed"
)

// Notification - только добавление; меняются лишь IsRead/ReadAt
type Notification struct {
	BaseModel
	UserID  string           `gorm:"type:uuid;not null;index" json:"userId"`
	Type    NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `json:"message"`
	Data    datatypes.JSON   `gorm:"type:jsonb" json:"data,omitempty" swaggertype:"object"`
	IsRead  bool             `gorm:"default:false" json:"isRead"`
	ReadAt  *time.Time       `json:"readAt,omitempty"`
}
