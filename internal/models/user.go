package models

import "time"

// User - аккаунт студента, компании или администратора
type User struct {
	BaseModel
	Email               string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash        string         `gorm:"not null" json:"-"`
	Role                UserRole       `gorm:"type:varchar(20);not null" json:"role"`
	FullName            string         `json:"fullName"`
	Phone               string         `json:"phone"`
	EmailVerified       bool           `gorm:"default:false" json:"emailVerified"`
	AdminApprovalStatus ApprovalStatus `gorm:"type:varchar(20);default:'pending'" json:"adminApprovalStatus"`
	ProofDocumentKey    string         `json:"-"`
	LastLoginAt         *time.Time     `json:"lastLoginAt,omitempty"`
}

// OTPCode - единственный активный код для email; новый код заменяет старый
type OTPCode struct {
	BaseModel
	Email      string     `gorm:"uniqueIndex;not null"`
	CodeHash   string     `gorm:"not null"`
	Purpose    OTPPurpose `gorm:"type:varchar(20);not null"`
	Attempts   int        `gorm:"default:0"`
	ExpiresAt  time.Time  `gorm:"not null;index"`
	LastSentAt time.Time  `gorm:"not null"`
}

func (o *OTPCode) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// RevokedToken - jti разлогиненного токена, живет до истечения самого токена
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;type:varchar(64)"`
	UserID    string    `gorm:"type:uuid;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
