package algorithms

import (
	"testing"
	"time"

	"seribro_backend/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

var studentWeights = Weights{
	models.SectionBasicInfo: 25,
	models.SectionSkills:    15,
	models.SectionTechStack: 10,
	models.SectionProjects:  30,
	models.SectionDocuments: 20,
}

var companyWeights = Weights{
	models.SectionBasicInfo:        40,
	models.SectionAuthorizedPerson: 30,
	models.SectionDocuments:        30,
}

func completeStudent() *models.Profile {
	p := models.NewProfile("student-1", models.UserRoleStudent)
	p.StudentInfo = datatypes.NewJSONType(models.StudentBasicInfo{
		FullName:       "Asha Rao",
		Phone:          "9876543210",
		CollegeName:    "IIT Bombay",
		Degree:         "B.Tech",
		GraduationYear: 2026,
	})
	p.Skills = pq.StringArray{"Go", "SQL"}
	p.TechStack = pq.StringArray{"PostgreSQL"}
	p.Projects = datatypes.NewJSONType([]models.PortfolioProject{{Title: "Tracker", Description: "Habit tracker"}})
	p.SetDocument(models.DocumentResume, models.Document{Key: "docs/resume.pdf", UploadedAt: time.Now()})
	return p
}

func TestCalculateCompletion_EmptyStudentIsZero(t *testing.T) {
	p := models.NewProfile("student-1", models.UserRoleStudent)

	res := CalculateCompletion(p, studentWeights)

	assert.Equal(t, 0, res.Percentage)
	assert.Len(t, res.MissingSections, 5)
}

func TestCalculateCompletion_FullStudentIsHundred(t *testing.T) {
	res := CalculateCompletion(completeStudent(), studentWeights)

	assert.Equal(t, 100, res.Percentage)
	assert.Empty(t, res.MissingSections)
}

func TestCalculateCompletion_EachMissingSectionDropsBelowHundred(t *testing.T) {
	mutators := map[models.SectionName]func(p *models.Profile){
		models.SectionBasicInfo: func(p *models.Profile) {
			info := p.StudentInfo.Data()
			info.Degree = ""
			p.StudentInfo = datatypes.NewJSONType(info)
		},
		models.SectionSkills:    func(p *models.Profile) { p.Skills = pq.StringArray{} },
		models.SectionTechStack: func(p *models.Profile) { p.TechStack = nil },
		models.SectionProjects: func(p *models.Profile) {
			p.Projects = datatypes.NewJSONType([]models.PortfolioProject{})
		},
		models.SectionDocuments: func(p *models.Profile) {
			p.Documents = datatypes.NewJSONType(models.Documents{})
		},
	}

	for section, mutate := range mutators {
		section, mutate := section, mutate
		t.Run(string(section), func(t *testing.T) {
			p := completeStudent()
			mutate(p)

			res := CalculateCompletion(p, studentWeights)

			assert.Equal(t, 100-studentWeights[section], res.Percentage)
			assert.Equal(t, []models.SectionName{section}, res.MissingSections)
		})
	}
}

func TestCalculateCompletion_CompanySections(t *testing.T) {
	p := models.NewProfile("company-1", models.UserRoleCompany)
	p.CompanyInfo = datatypes.NewJSONType(models.CompanyBasicInfo{
		CompanyName:  "Acme",
		IndustryType: "Software",
		Mobile:       "9876543210",
	})

	res := CalculateCompletion(p, companyWeights)
	assert.Equal(t, 40, res.Percentage)

	p.AuthorizedPerson = datatypes.NewJSONType(models.AuthorizedPerson{Name: "R. Mehta", Designation: "CTO", Email: "cto@acme.io"})
	p.SetDocument(models.DocumentRegistrationCertificate, models.Document{Key: "docs/reg.pdf"})

	res = CalculateCompletion(p, companyWeights)
	assert.Equal(t, 100, res.Percentage)
}

func TestCalculateCompletion_OptionalDocumentDoesNotCount(t *testing.T) {
	p := completeStudent()
	p.Documents = datatypes.NewJSONType(models.Documents{
		models.DocumentCertificates: {Key: "docs/cert.pdf"},
	})

	res := CalculateCompletion(p, studentWeights)

	assert.Equal(t, 80, res.Percentage)
	assert.Contains(t, res.MissingSections, models.SectionDocuments)
}

func TestCalculateMatchScore(t *testing.T) {
	project := &models.Project{
		Skills:    pq.StringArray{"Go", "SQL"},
		TechStack: pq.StringArray{"PostgreSQL", "Redis"},
	}
	profile := completeStudent()

	score, reasons := CalculateMatchScore(project, profile)

	// 60 * 2/2 + 40 * 1/2
	assert.Equal(t, 80.0, score)
	assert.Len(t, reasons, 2)

	score, _ = CalculateMatchScore(project, nil)
	assert.Zero(t, score)
}
