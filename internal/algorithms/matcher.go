package algorithms

import (
	"fmt"
	"strings"

	"seribro_backend/internal/models"
)

// CalculateMatchScore - насколько студент подходит под проект (0-100)
func CalculateMatchScore(project *models.Project, profile *models.Profile) (float64, []string) {
	if project == nil || profile == nil {
		return 0, nil
	}

	score := 0.0
	reasons := []string{}

	// Навыки (60 баллов)
	if len(project.Skills) > 0 {
		matched := overlap(project.Skills, profile.Skills)
		score += 60 * float64(len(matched)) / float64(len(project.Skills))
		if len(matched) > 0 {
			reasons = append(reasons, fmt.Sprintf("Skills match: %s", strings.Join(matched, ", ")))
		}
	} else {
		score += 30
	}

	// Стек (40 баллов)
	if len(project.TechStack) > 0 {
		matched := overlap(project.TechStack, profile.TechStack)
		score += 40 * float64(len(matched)) / float64(len(project.TechStack))
		if len(matched) > 0 {
			reasons = append(reasons, fmt.Sprintf("Tech stack match: %s", strings.Join(matched, ", ")))
		}
	} else {
		score += 20
	}

	if score > 100 {
		score = 100
	}
	return float64(int(score*10+0.5)) / 10, reasons
}

// overlap - элементы wanted, которые есть у have (без учета регистра)
func overlap(wanted, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}

	var matched []string
	for _, w := range wanted {
		if _, ok := set[strings.ToLower(strings.TrimSpace(w))]; ok {
			matched = append(matched, w)
		}
	}
	return matched
}
