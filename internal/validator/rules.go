package validator

import (
	"fmt"
	"regexp"

	"seribro_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	phoneRegexp = regexp.MustCompile(`^[0-9]{10}$`)
	otpRegexp   = regexp.MustCompile(`^[0-9]{6}$`)
)

// registerCustomRules регистрирует кастомные функции валидации.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Без правила приложение запускать нельзя
			panic(fmt.Sprintf("validator: register tag %q: %v", tag, err))
		}
	}

	// ➡️ Правила на основе statuses.go
	mustRegister("is-user-role", optional(func(s string) bool { return models.UserRole(s).IsValid() }))
	mustRegister("is-signup-role", optional(func(s string) bool { return models.UserRole(s).IsSignupRole() }))
	mustRegister("is-project-status", optional(func(s string) bool { return models.ProjectStatus(s).IsValid() }))
	mustRegister("is-application-status", optional(func(s string) bool { return models.ApplicationStatus(s).IsValid() }))
	mustRegister("is-verification-status", optional(func(s string) bool { return models.VerificationStatus(s).IsValid() }))

	// ➡️ Профиль
	mustRegister("is-section", optional(validSection))
	mustRegister("is-document-type", optional(validDocumentType))

	// ➡️ Форматы
	mustRegister("is-phone", optional(phoneRegexp.MatchString))
	mustRegister("is-otp", optional(otpRegexp.MatchString))
}

// optional - пустое значение пропускаем, для этого есть 'required'
func optional(check func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		return check(value)
	}
}

func validSection(s string) bool {
	for _, role := range []models.UserRole{models.UserRoleStudent, models.UserRoleCompany} {
		for _, section := range models.SectionsFor(role) {
			if string(section) == s {
				return true
			}
		}
	}
	return false
}

func validDocumentType(s string) bool {
	for _, role := range []models.UserRole{models.UserRoleStudent, models.UserRoleCompany} {
		for _, doc := range models.AllowedDocumentsFor(role) {
			if string(doc) == s {
				return true
			}
		}
	}
	return false
}
