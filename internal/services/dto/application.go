package dto

import (
	"time"

	"seribro_backend/internal/models"
)

// --- Application Requests ---

type ApplyRequest struct {
	Proposal      string  `json:"proposal" validate:"required,min=20,max=5000"`
	ProposedPrice float64 `json:"proposedPrice" validate:"required,gt=0"`
	EstimatedTime string  `json:"estimatedTime" validate:"omitempty,max=100"`
}

type RejectApplicationRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type ApplicationsQuery struct {
	Status models.ApplicationStatus `form:"status" validate:"omitempty,is-application-status"`
	PaginationQuery
}

// --- Application Responses ---

type ApplicationResponse struct {
	ID              string                   `json:"id"`
	ProjectID       string                   `json:"projectId"`
	ProjectTitle    string                   `json:"projectTitle,omitempty"`
	StudentID       string                   `json:"studentId"`
	StudentName     string                   `json:"studentName,omitempty"`
	CompanyID       string                   `json:"companyId"`
	Proposal        string                   `json:"proposal"`
	ProposedPrice   float64                  `json:"proposedPrice"`
	EstimatedTime   string                   `json:"estimatedTime,omitempty"`
	Status          models.ApplicationStatus `json:"status"`
	RejectionReason string                   `json:"rejectionReason,omitempty"`
	MatchScore      *float64                 `json:"matchScore,omitempty"`
	ShortlistedAt   *time.Time               `json:"shortlistedAt,omitempty"`
	DecidedAt       *time.Time               `json:"decidedAt,omitempty"`
	WithdrawnAt     *time.Time               `json:"withdrawnAt,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
}

func NewApplicationResponse(a *models.Application) *ApplicationResponse {
	return &ApplicationResponse{
		ID:              a.ID,
		ProjectID:       a.ProjectID,
		StudentID:       a.StudentID,
		CompanyID:       a.CompanyID,
		Proposal:        a.Proposal,
		ProposedPrice:   a.ProposedPrice,
		EstimatedTime:   a.EstimatedTime,
		Status:          a.Status,
		RejectionReason: a.RejectionReason,
		ShortlistedAt:   a.ShortlistedAt,
		DecidedAt:       a.DecidedAt,
		WithdrawnAt:     a.WithdrawnAt,
		CreatedAt:       a.CreatedAt,
	}
}

type ApplicationListResponse struct {
	Applications []*ApplicationResponse `json:"applications"`
	Pagination   Pagination             `json:"pagination"`
}

// AcceptResult - итог эксклюзивного принятия заявки
type AcceptResult struct {
	Application *ApplicationResponse `json:"application"`
	Project     *ProjectResponse     `json:"project"`
	RejectedIDs []string             `json:"rejectedApplicationIds"`
}
