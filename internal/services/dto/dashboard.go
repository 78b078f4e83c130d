package dto

import (
	"time"

	"seribro_backend/internal/models"
)

// VerificationSummary - состояние проверки профиля для дашборда
type VerificationSummary struct {
	Status          models.VerificationStatus `json:"status"`
	StatusMessage   string                    `json:"statusMessage"`
	SubmittedAt     *time.Time                `json:"submittedAt,omitempty"`
	VerifiedAt      *time.Time                `json:"verifiedAt,omitempty"`
	RejectionReason string                    `json:"rejectionReason,omitempty"`
}

type CompletionSummary struct {
	Percentage      int                  `json:"percentage"`
	MissingSections []models.SectionName `json:"missingSections"`
}

type ApplicationStats struct {
	Total    int64                              `json:"total"`
	ByStatus map[models.ApplicationStatus]int64 `json:"byStatus"`
}

// NewApplicationStats - все статусы присутствуют, даже с нулем
func NewApplicationStats(counts map[models.ApplicationStatus]int64) ApplicationStats {
	stats := ApplicationStats{ByStatus: make(map[models.ApplicationStatus]int64, len(models.AllApplicationStatuses))}
	for _, status := range models.AllApplicationStatuses {
		stats.ByStatus[status] = counts[status]
		stats.Total += counts[status]
	}
	return stats
}

type ProjectStats struct {
	Total    int64                          `json:"total"`
	ByStatus map[models.ProjectStatus]int64 `json:"byStatus"`
}

func NewProjectStats(counts map[models.ProjectStatus]int64) ProjectStats {
	stats := ProjectStats{ByStatus: make(map[models.ProjectStatus]int64, len(models.AllProjectStatuses))}
	for _, status := range models.AllProjectStatuses {
		stats.ByStatus[status] = counts[status]
		stats.Total += counts[status]
	}
	return stats
}

// Alert - подсказка на дашборде: что сделать дальше
type Alert struct {
	Level   string `json:"level"` // info | warning
	Message string `json:"message"`
}

type StudentDashboard struct {
	Verification        VerificationSummary     `json:"verification"`
	ProfileCompletion   CompletionSummary       `json:"profileCompletion"`
	Documents           models.Documents        `json:"documents"`
	Applications        ApplicationStats        `json:"applications"`
	OpenProjects        int64                   `json:"openProjects"`
	Alerts              []Alert                 `json:"alerts"`
	RecentNotifications []*NotificationResponse `json:"recentNotifications"`
	UnreadNotifications int64                   `json:"unreadNotifications"`
}

type CompanyDashboard struct {
	CompanyName         string                  `json:"companyName"`
	Verification        VerificationSummary     `json:"verification"`
	ProfileCompletion   CompletionSummary       `json:"profileCompletion"`
	Documents           models.Documents        `json:"documents"`
	Projects            ProjectStats            `json:"projects"`
	Applications        ApplicationStats        `json:"applications"`
	Alerts              []Alert                 `json:"alerts"`
	RecentNotifications []*NotificationResponse `json:"recentNotifications"`
	UnreadNotifications int64                   `json:"unreadNotifications"`
}

// RecommendedProjectsQuery - сколько проектов вернуть (по умолчанию 10)
type RecommendedProjectsQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=50"`
}

// --- Admin oversight ---

type AdminProjectsQuery struct {
	Status    models.ProjectStatus `form:"status" validate:"omitempty,is-project-status"`
	CompanyID string               `form:"companyId" validate:"omitempty,max=64"`
	Search    string               `form:"search" validate:"omitempty,max=100"`
	PaginationQuery
}

type AdminApplicationsQuery struct {
	Status models.ApplicationStatus `form:"status" validate:"omitempty,is-application-status"`
	PaginationQuery
}

// AdminProjectDetail - проект и сводка по его заявкам
type AdminProjectDetail struct {
	Project      *ProjectResponse `json:"project"`
	Applications ApplicationStats `json:"applications"`
}

type PlatformStats struct {
	Users                map[models.UserRole]int64 `json:"users"`
	PendingVerifications int64                     `json:"pendingVerifications"`
	Projects             ProjectStats              `json:"projects"`
	Applications         ApplicationStats          `json:"applications"`
}
