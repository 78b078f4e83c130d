package models

import (
	"time"

	"github.com/lib/pq"
)

// Project - заказ компании. Version растет на каждом переходе статуса
// и служит для compare-and-set при назначении исполнителя.
type Project struct {
	BaseModel
	CompanyID         string         `gorm:"type:uuid;not null;index" json:"companyId"`
	Title             string         `gorm:"not null" json:"title"`
	Description       string         `gorm:"type:text;not null" json:"description"`
	Requirements      string         `gorm:"type:text" json:"requirements"`
	Category          string         `gorm:"index" json:"category,omitempty"`
	Budget            float64        `gorm:"not null" json:"budget"`
	Deadline          time.Time      `gorm:"not null;index" json:"deadline"`
	Skills            pq.StringArray `gorm:"type:text[]" json:"skills"`
	TechStack         pq.StringArray `gorm:"type:text[]" json:"techStack"`
	Status            ProjectStatus  `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	ApplicationCount  int            `gorm:"not null;default:0" json:"applicationCount"`
	AssignedStudentID *string        `gorm:"type:uuid" json:"assignedStudentId,omitempty"`
	AssignedAt        *time.Time     `json:"assignedAt,omitempty"`
	ClosedAt          *time.Time     `json:"closedAt,omitempty"`
	ClosedReason      string         `json:"closedReason,omitempty"`
	Version           int            `gorm:"not null;default:1" json:"-"`
}

func (p *Project) IsOpen() bool {
	return p.Status == ProjectStatusOpen
}

func (p *Project) Clone() *Project {
	cp := *p
	cp.Skills = append(pq.StringArray{}, p.Skills...)
	cp.TechStack = append(pq.StringArray{}, p.TechStack...)
	if p.AssignedStudentID != nil {
		id := *p.AssignedStudentID
		cp.AssignedStudentID = &id
	}
	return &cp
}
