package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// SectionName - тег варианта секции профиля
type SectionName string

const (
	SectionBasicInfo        SectionName = "basic-info"
	SectionSkills           SectionName = "skills"
	SectionTechStack        SectionName = "tech-stack"
	SectionProjects         SectionName = "projects"
	SectionAuthorizedPerson SectionName = "authorized-person"
	SectionDocuments        SectionName = "documents"
)

// DocumentType - ключ в карте документов профиля
type DocumentType string

const (
	DocumentResume                  DocumentType = "resume"
	DocumentCertificates            DocumentType = "certificates"
	DocumentRegistrationCertificate DocumentType = "registration-certificate"
	DocumentLogo                    DocumentType = "logo"
)

// SectionsFor - секции, которые принадлежат роли
func SectionsFor(role UserRole) []SectionName {
	switch role {
	case UserRoleStudent:
		return []SectionName{SectionBasicInfo, SectionSkills, SectionTechStack, SectionProjects, SectionDocuments}
	case UserRoleCompany:
		return []SectionName{SectionBasicInfo, SectionAuthorizedPerson, SectionDocuments}
	default:
		return nil
	}
}

// RequiredDocumentsFor - документы, без которых секция documents не заполнена
func RequiredDocumentsFor(role UserRole) []DocumentType {
	switch role {
	case UserRoleStudent:
		return []DocumentType{DocumentResume}
	case UserRoleCompany:
		return []DocumentType{DocumentRegistrationCertificate}
	default:
		return nil
	}
}

// AllowedDocumentsFor - все документы, которые роль может загрузить
func AllowedDocumentsFor(role UserRole) []DocumentType {
	switch role {
	case UserRoleStudent:
		return []DocumentType{DocumentResume, DocumentCertificates}
	case UserRoleCompany:
		return []DocumentType{DocumentRegistrationCertificate, DocumentLogo}
	default:
		return nil
	}
}

type StudentBasicInfo struct {
	FullName       string `json:"fullName"`
	Phone          string `json:"phone"`
	CollegeName    string `json:"collegeName"`
	Degree         string `json:"degree"`
	GraduationYear int    `json:"graduationYear"`
	Bio            string `json:"bio,omitempty"`
	Location       string `json:"location,omitempty"`
}

// IsComplete - все обязательные поля заполнены
func (b StudentBasicInfo) IsComplete() bool {
	return b.FullName != "" && b.Phone != "" && b.CollegeName != "" &&
		b.Degree != "" && b.GraduationYear > 0
}

type CompanyBasicInfo struct {
	CompanyName  string `json:"companyName"`
	IndustryType string `json:"industryType"`
	Mobile       string `json:"mobile"`
	Website      string `json:"website,omitempty"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location,omitempty"`
}

func (b CompanyBasicInfo) IsComplete() bool {
	return b.CompanyName != "" && b.IndustryType != "" && len(b.Mobile) == 10
}

type AuthorizedPerson struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Email       string `json:"email"`
}

func (a AuthorizedPerson) IsComplete() bool {
	return a.Name != "" && a.Designation != "" && a.Email != ""
}

// PortfolioProject - проект из портфолио студента (не путать с Project)
type PortfolioProject struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Link         string   `json:"link,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Document - ссылка на файл в хранилище
type Document struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type Documents map[DocumentType]Document

// Profile - один на аккаунт студента или компании
type Profile struct {
	BaseModel
	UserID               string                                `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Role                 UserRole                              `gorm:"type:varchar(20);not null;index" json:"role"`
	StudentInfo          datatypes.JSONType[StudentBasicInfo]  `gorm:"type:jsonb;not null" json:"-"`
	CompanyInfo          datatypes.JSONType[CompanyBasicInfo]  `gorm:"type:jsonb;not null" json:"-"`
	Skills               pq.StringArray                        `gorm:"type:text[]" json:"skills"`
	TechStack            pq.StringArray                        `gorm:"type:text[]" json:"techStack"`
	Projects             datatypes.JSONType[[]PortfolioProject] `gorm:"type:jsonb;not null" json:"-"`
	AuthorizedPerson     datatypes.JSONType[AuthorizedPerson]  `gorm:"type:jsonb;not null" json:"-"`
	Documents            datatypes.JSONType[Documents]         `gorm:"type:jsonb;not null" json:"-"`
	CompletionPercentage int                                   `gorm:"not null;default:0" json:"profileCompletion"`
	VerificationStatus   VerificationStatus                    `gorm:"type:varchar(20);not null;default:'incomplete';index" json:"verificationStatus"`
	RejectionReason      string                                `json:"rejectionReason,omitempty"`
	SubmittedAt          *time.Time                            `json:"submittedAt,omitempty"`
	VerifiedAt           *time.Time                            `json:"verifiedAt,omitempty"`
	VerifiedBy           *string                               `gorm:"type:uuid" json:"verifiedBy,omitempty"`
}

// NewProfile - пустой профиль сразу после регистрации
func NewProfile(userID string, role UserRole) *Profile {
	return &Profile{
		UserID:             userID,
		Role:               role,
		StudentInfo:        datatypes.NewJSONType(StudentBasicInfo{}),
		CompanyInfo:        datatypes.NewJSONType(CompanyBasicInfo{}),
		Skills:             pq.StringArray{},
		TechStack:          pq.StringArray{},
		Projects:           datatypes.NewJSONType([]PortfolioProject{}),
		AuthorizedPerson:   datatypes.NewJSONType(AuthorizedPerson{}),
		Documents:          datatypes.NewJSONType(Documents{}),
		VerificationStatus: VerificationStatusIncomplete,
	}
}

// DocumentMap никогда не возвращает nil
func (p *Profile) DocumentMap() Documents {
	docs := p.Documents.Data()
	if docs == nil {
		docs = Documents{}
	}
	return docs
}

// SetDocument кладет документ в копию карты, чтобы не делить ее с другими копиями профиля
func (p *Profile) SetDocument(docType DocumentType, doc Document) {
	docs := Documents{}
	for k, v := range p.DocumentMap() {
		docs[k] = v
	}
	docs[docType] = doc
	p.Documents = datatypes.NewJSONType(docs)
}

// Clone - глубокая копия (нужна in-memory хранилищу)
func (p *Profile) Clone() *Profile {
	cp := *p
	cp.Skills = append(pq.StringArray{}, p.Skills...)
	cp.TechStack = append(pq.StringArray{}, p.TechStack...)

	projects := make([]PortfolioProject, 0, len(p.Projects.Data()))
	for _, pr := range p.Projects.Data() {
		pr.Technologies = append([]string(nil), pr.Technologies...)
		projects = append(projects, pr)
	}
	cp.Projects = datatypes.NewJSONType(projects)

	docs := Documents{}
	for k, v := range p.DocumentMap() {
		docs[k] = v
	}
	cp.Documents = datatypes.NewJSONType(docs)

	if p.VerifiedBy != nil {
		by := *p.VerifiedBy
		cp.VerifiedBy = &by
	}
	return &cp
}
