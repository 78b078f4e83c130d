package dto

import (
	"time"

	"seribro_backend/internal/models"
)

// --- Project Requests ---

type CreateProjectRequest struct {
	Title        string    `json:"title" validate:"required,min=5,max=150"`
	Description  string    `json:"description" validate:"required,min=20,max=5000"`
	Requirements string    `json:"requirements" validate:"omitempty,max=5000"`
	Category     string    `json:"category" validate:"omitempty,max=100"`
	Budget       float64   `json:"budget" validate:"required,gt=0"`
	Deadline     time.Time `json:"deadline" validate:"required"`
	Skills       []string  `json:"skills" validate:"required,min=1,max=20,dive,required,max=50"`
	TechStack    []string  `json:"techStack" validate:"omitempty,max=20,dive,required,max=50"`
}

// BrowseProjectsQuery - лента открытых проектов для студента
type BrowseProjectsQuery struct {
	Search    string   `form:"search" validate:"omitempty,max=100"`
	Skill     string   `form:"skill" validate:"omitempty,max=50"`
	Category  string   `form:"category" validate:"omitempty,max=100"`
	MinBudget *float64 `form:"minBudget" validate:"omitempty,min=0"`
	MaxBudget *float64 `form:"maxBudget" validate:"omitempty,min=0"`
	PaginationQuery
}

type CompanyProjectsQuery struct {
	Status models.ProjectStatus `form:"status" validate:"omitempty,is-project-status"`
	PaginationQuery
}

// --- Project Responses ---

type ProjectResponse struct {
	ID                string               `json:"id"`
	CompanyID         string               `json:"companyId"`
	CompanyName       string               `json:"companyName,omitempty"`
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	Requirements      string               `json:"requirements,omitempty"`
	Category          string               `json:"category,omitempty"`
	Budget            float64              `json:"budget"`
	Deadline          time.Time            `json:"deadline"`
	Skills            []string             `json:"skills"`
	TechStack         []string             `json:"techStack"`
	Status            models.ProjectStatus `json:"status"`
	ApplicationCount  int                  `json:"applicationCount"`
	AssignedStudentID *string              `json:"assignedStudentId,omitempty"`
	AssignedAt        *time.Time           `json:"assignedAt,omitempty"`
	ClosedAt          *time.Time           `json:"closedAt,omitempty"`
	ClosedReason      string               `json:"closedReason,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`

	// Только для студента
	MatchScore   *float64 `json:"matchScore,omitempty"`
	MatchReasons []string `json:"matchReasons,omitempty"`
	HasApplied   *bool    `json:"hasApplied,omitempty"`
}

func NewProjectResponse(p *models.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:                p.ID,
		CompanyID:         p.CompanyID,
		Title:             p.Title,
		Description:       p.Description,
		Requirements:      p.Requirements,
		Category:          p.Category,
		Budget:            p.Budget,
		Deadline:          p.Deadline,
		Skills:            nonNil(p.Skills),
		TechStack:         nonNil(p.TechStack),
		Status:            p.Status,
		ApplicationCount:  p.ApplicationCount,
		AssignedStudentID: p.AssignedStudentID,
		AssignedAt:        p.AssignedAt,
		ClosedAt:          p.ClosedAt,
		ClosedReason:      p.ClosedReason,
		CreatedAt:         p.CreatedAt,
	}
}

type ProjectListResponse struct {
	Projects   []*ProjectResponse `json:"projects"`
	Pagination Pagination         `json:"pagination"`
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
