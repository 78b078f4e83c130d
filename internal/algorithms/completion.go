package algorithms

import (
	"sort"

	"seribro_backend/internal/models"
)

// Weights - вес каждой обязательной секции; сумма равна 100
type Weights map[models.SectionName]int

// CompletionResult - производные данные профиля
type CompletionResult struct {
	Percentage      int
	MissingSections []models.SectionName
}

// IsSectionComplete - секция считается заполненной только целиком
func IsSectionComplete(profile *models.Profile, section models.SectionName) bool {
	switch section {
	case models.SectionBasicInfo:
		if profile.Role == models.UserRoleCompany {
			return profile.CompanyInfo.Data().IsComplete()
		}
		return profile.StudentInfo.Data().IsComplete()
	case models.SectionSkills:
		return len(profile.Skills) > 0
	case models.SectionTechStack:
		return len(profile.TechStack) > 0
	case models.SectionProjects:
		return len(profile.Projects.Data()) > 0
	case models.SectionAuthorizedPerson:
		return profile.AuthorizedPerson.Data().IsComplete()
	case models.SectionDocuments:
		docs := profile.DocumentMap()
		for _, required := range models.RequiredDocumentsFor(profile.Role) {
			if doc, ok := docs[required]; !ok || doc.Key == "" {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// CalculateCompletion детерминированно считает процент по весам секций роли.
// 100 возвращается только если заполнены все секции с ненулевым весом.
func CalculateCompletion(profile *models.Profile, weights Weights) CompletionResult {
	result := CompletionResult{MissingSections: []models.SectionName{}}
	if profile == nil {
		return result
	}

	total := 0
	earned := 0
	for _, section := range models.SectionsFor(profile.Role) {
		w, ok := weights[section]
		if !ok || w <= 0 {
			continue
		}
		total += w
		if IsSectionComplete(profile, section) {
			earned += w
		} else {
			result.MissingSections = append(result.MissingSections, section)
		}
	}

	if total == 0 {
		return result
	}

	if len(result.MissingSections) == 0 {
		result.Percentage = 100
	} else {
		// Округляем вниз, чтобы неполный профиль никогда не показал 100
		result.Percentage = earned * 100 / total
		if result.Percentage >= 100 {
			result.Percentage = 99
		}
	}

	sort.Slice(result.MissingSections, func(i, j int) bool {
		return result.MissingSections[i] < result.MissingSections[j]
	})
	return result
}
