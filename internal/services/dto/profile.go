package dto

import (
	"strings"
	"time"

	"seribro_backend/internal/models"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// SectionPayload - вариант секции профиля со своей схемой валидации.
// Каждая реализация знает, к какой секции и каким ролям относится.
type SectionPayload interface {
	Section() models.SectionName
	AppliesTo(role models.UserRole) bool
	ApplyTo(profile *models.Profile)
}

// NewSectionPayload возвращает пустой DTO секции для заполнения из тела запроса.
// ok=false - секция не существует, не принадлежит роли или не обновляется через PUT.
func NewSectionPayload(role models.UserRole, section models.SectionName) (SectionPayload, bool) {
	var payload SectionPayload
	switch section {
	case models.SectionBasicInfo:
		if role == models.UserRoleCompany {
			payload = &CompanyBasicInfoRequest{}
		} else {
			payload = &StudentBasicInfoRequest{}
		}
	case models.SectionSkills:
		payload = &SkillsRequest{}
	case models.SectionTechStack:
		payload = &TechStackRequest{}
	case models.SectionProjects:
		payload = &PortfolioProjectsRequest{}
	case models.SectionAuthorizedPerson:
		payload = &AuthorizedPersonRequest{}
	default:
		// documents загружаются только через multipart
		return nil, false
	}
	if !payload.AppliesTo(role) {
		return nil, false
	}
	return payload, true
}

// --- basic-info ---

type StudentBasicInfoRequest struct {
	FullName       string `json:"fullName" validate:"required,min=2,max=100"`
	Phone          string `json:"phone" validate:"required,is-phone"`
	CollegeName    string `json:"collegeName" validate:"required,max=200"`
	Degree         string `json:"degree" validate:"required,max=100"`
	GraduationYear int    `json:"graduationYear" validate:"required,min=1950,max=2100"`
	Bio            string `json:"bio" validate:"omitempty,max=1000"`
	Location       string `json:"location" validate:"omitempty,max=200"`
}

func (r *StudentBasicInfoRequest) Section() models.SectionName { return models.SectionBasicInfo }

func (r *StudentBasicInfoRequest) AppliesTo(role models.UserRole) bool {
	return role == models.UserRoleStudent
}

func (r *StudentBasicInfoRequest) ApplyTo(p *models.Profile) {
	p.StudentInfo = datatypes.NewJSONType(models.StudentBasicInfo{
		FullName:       strings.TrimSpace(r.FullName),
		Phone:          r.Phone,
		CollegeName:    strings.TrimSpace(r.CollegeName),
		Degree:         strings.TrimSpace(r.Degree),
		GraduationYear: r.GraduationYear,
		Bio:            r.Bio,
		Location:       r.Location,
	})
}

type CompanyBasicInfoRequest struct {
	CompanyName  string `json:"companyName" validate:"required,min=2,max=150"`
	IndustryType string `json:"industryType" validate:"required,max=100"`
	Mobile       string `json:"mobile" validate:"required,is-phone"`
	Website      string `json:"website" validate:"omitempty,url"`
	Description  string `json:"description" validate:"omitempty,max=2000"`
	Location     string `json:"location" validate:"omitempty,max=200"`
}

func (r *CompanyBasicInfoRequest) Section() models.SectionName { return models.SectionBasicInfo }

func (r *CompanyBasicInfoRequest) AppliesTo(role models.UserRole) bool {
	return role == models.UserRoleCompany
}

func (r *CompanyBasicInfoRequest) ApplyTo(p *models.Profile) {
	p.CompanyInfo = datatypes.NewJSONType(models.CompanyBasicInfo{
		CompanyName:  strings.TrimSpace(r.CompanyName),
		IndustryType: strings.TrimSpace(r.IndustryType),
		Mobile:       r.Mobile,
		Website:      r.Website,
		Description:  r.Description,
		Location:     r.Location,
	})
}

// --- skills / tech-stack ---

type SkillsRequest struct {
	Skills []string `json:"skills" validate:"required,min=1,max=50,dive,required,max=50"`
}

func (r *SkillsRequest) Section() models.SectionName { return models.SectionSkills }

func (r *SkillsRequest) AppliesTo(role models.UserRole) bool { return role == models.UserRoleStudent }

func (r *SkillsRequest) ApplyTo(p *models.Profile) {
	p.Skills = pq.StringArray(Dedupe(r.Skills))
}

type TechStackRequest struct {
	TechStack []string `json:"techStack" validate:"required,min=1,max=50,dive,required,max=50"`
}

func (r *TechStackRequest) Section() models.SectionName { return models.SectionTechStack }

func (r *TechStackRequest) AppliesTo(role models.UserRole) bool { return role == models.UserRoleStudent }

func (r *TechStackRequest) ApplyTo(p *models.Profile) {
	p.TechStack = pq.StringArray(Dedupe(r.TechStack))
}

// --- projects ---

type PortfolioProjectRequest struct {
	Title        string   `json:"title" validate:"required,min=3,max=150"`
	Description  string   `json:"description" validate:"required,min=10,max=2000"`
	Link         string   `json:"link" validate:"omitempty,url"`
	Technologies []string `json:"technologies" validate:"omitempty,max=20,dive,required,max=50"`
}

type PortfolioProjectsRequest struct {
	Projects []PortfolioProjectRequest `json:"projects" validate:"required,min=1,max=10,dive"`
}

func (r *PortfolioProjectsRequest) Section() models.SectionName { return models.SectionProjects }

func (r *PortfolioProjectsRequest) AppliesTo(role models.UserRole) bool {
	return role == models.UserRoleStudent
}

func (r *PortfolioProjectsRequest) ApplyTo(p *models.Profile) {
	projects := make([]models.PortfolioProject, 0, len(r.Projects))
	for _, pr := range r.Projects {
		projects = append(projects, models.PortfolioProject{
			Title:        strings.TrimSpace(pr.Title),
			Description:  strings.TrimSpace(pr.Description),
			Link:         pr.Link,
			Technologies: Dedupe(pr.Technologies),
		})
	}
	p.Projects = datatypes.NewJSONType(projects)
}

// --- authorized-person ---

type AuthorizedPersonRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Designation string `json:"designation" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
}

func (r *AuthorizedPersonRequest) Section() models.SectionName {
	return models.SectionAuthorizedPerson
}

func (r *AuthorizedPersonRequest) AppliesTo(role models.UserRole) bool {
	return role == models.UserRoleCompany
}

func (r *AuthorizedPersonRequest) ApplyTo(p *models.Profile) {
	p.AuthorizedPerson = datatypes.NewJSONType(models.AuthorizedPerson{
		Name:        strings.TrimSpace(r.Name),
		Designation: strings.TrimSpace(r.Designation),
		Email:       strings.ToLower(strings.TrimSpace(r.Email)),
	})
}

// Dedupe убирает пустые строки и повторы (без учета регистра), порядок сохраняется
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// --- Responses ---

// ProfileResponse - все секции профиля плюс производные поля
type ProfileResponse struct {
	ID                 string                    `json:"id"`
	UserID             string                    `json:"userId"`
	Role               models.UserRole           `json:"role"`
	BasicInfo          interface{}               `json:"basicInfo"`
	Skills             []string                  `json:"skills,omitempty"`
	TechStack          []string                  `json:"techStack,omitempty"`
	Projects           []models.PortfolioProject `json:"projects,omitempty"`
	AuthorizedPerson   *models.AuthorizedPerson  `json:"authorizedPerson,omitempty"`
	Documents          models.Documents          `json:"documents"`
	ProfileCompletion  int                       `json:"profileCompletion"`
	MissingSections    []models.SectionName      `json:"missingSections"`
	VerificationStatus models.VerificationStatus `json:"verificationStatus"`
	RejectionReason    string                    `json:"rejectionReason,omitempty"`
	SubmittedAt        *time.Time                `json:"submittedAt,omitempty"`
	VerifiedAt         *time.Time                `json:"verifiedAt,omitempty"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
}

func NewProfileResponse(p *models.Profile, missing []models.SectionName) *ProfileResponse {
	resp := &ProfileResponse{
		ID:                 p.ID,
		UserID:             p.UserID,
		Role:               p.Role,
		Documents:          p.DocumentMap(),
		ProfileCompletion:  p.CompletionPercentage,
		MissingSections:    missing,
		VerificationStatus: p.VerificationStatus,
		RejectionReason:    p.RejectionReason,
		SubmittedAt:        p.SubmittedAt,
		VerifiedAt:         p.VerifiedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if resp.MissingSections == nil {
		resp.MissingSections = []models.SectionName{}
	}

	if p.Role == models.UserRoleCompany {
		resp.BasicInfo = p.CompanyInfo.Data()
		person := p.AuthorizedPerson.Data()
		resp.AuthorizedPerson = &person
	} else {
		resp.BasicInfo = p.StudentInfo.Data()
		resp.Skills = []string(p.Skills)
		resp.TechStack = []string(p.TechStack)
		resp.Projects = p.Projects.Data()
	}
	return resp
}

// PublicCompanyProfile - то, что студент видит о компании
type PublicCompanyProfile struct {
	UserID      string `json:"userId"`
	CompanyName string `json:"companyName"`
	Industry    string `json:"industryType"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
	Verified    bool   `json:"verified"`
}

func NewPublicCompanyProfile(p *models.Profile) *PublicCompanyProfile {
	info := p.CompanyInfo.Data()
	resp := &PublicCompanyProfile{
		UserID:      p.UserID,
		CompanyName: info.CompanyName,
		Industry:    info.IndustryType,
		Website:     info.Website,
		Description: info.Description,
		Location:    info.Location,
		Verified:    p.VerificationStatus == models.VerificationStatusApproved,
	}
	if logo, ok := p.DocumentMap()[models.DocumentLogo]; ok {
		resp.LogoURL = logo.URL
	}
	return resp
}

// --- Admin verification queue ---

type VerificationQueueQuery struct {
	Role   models.UserRole           `form:"role" validate:"omitempty,is-signup-role"`
	Status models.VerificationStatus `form:"status" validate:"omitempty,is-verification-status"`
	PaginationQuery
}

type VerificationItem struct {
	UserID             string                    `json:"userId"`
	Email              string                    `json:"email"`
	Role               models.UserRole           `json:"role"`
	DisplayName        string                    `json:"displayName"`
	ProfileCompletion  int                       `json:"profileCompletion"`
	VerificationStatus models.VerificationStatus `json:"verificationStatus"`
	SubmittedAt        *time.Time                `json:"submittedAt,omitempty"`
	Documents          models.Documents          `json:"documents"`
	ProofDocumentURL   string                    `json:"proofDocumentUrl,omitempty"`
}

type VerificationQueueResponse struct {
	Items      []VerificationItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
}

type RejectProfileRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}
