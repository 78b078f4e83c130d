package models

import "time"

// Application - заявка студента на проект.
// Не больше одной не-withdrawn заявки на пару (project, student).
type Application struct {
	BaseModel
	ProjectID       string            `gorm:"type:uuid;not null;index" json:"projectId"`
	StudentID       string            `gorm:"type:uuid;not null;index" json:"studentId"`
	CompanyID       string            `gorm:"type:uuid;not null;index" json:"companyId"`
	Proposal        string            `gorm:"type:text;not null" json:"proposal"`
	ProposedPrice   float64           `gorm:"not null" json:"proposedPrice"`
	EstimatedTime   string            `json:"estimatedTime"`
	Status          ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	ShortlistedAt   *time.Time        `json:"shortlistedAt,omitempty"`
	DecidedAt       *time.Time        `json:"decidedAt,omitempty"`
	WithdrawnAt     *time.Time        `json:"withdrawnAt,omitempty"`
}

func (a *Application) IsOutstanding() bool {
	return a.Status == ApplicationStatusPending || a.Status == ApplicationStatusShortlisted
}
