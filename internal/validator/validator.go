package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError: путь поля как в JSON запроса -> сообщение для клиента
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("Validation failed: ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "field '%s': %s", f, e.Errors[f])
	}
	return b.String()
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	registerCustomRules(v)
	return &Validator{validate: v}
}

// jsonFieldName - имя поля из json-тега, для multipart-форм из form-тега
func jsonFieldName(fld reflect.StructField) string {
	tag := fld.Tag.Get("json")
	if tag == "" {
		tag = fld.Tag.Get("form")
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

// Validate возвращает *ValidationError, если DTO не прошел проверку
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationError{Errors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Errors[fieldPath(fe)] = message(fe)
	}
	return out
}

// fieldPath: "UpdateProjectsRequest.projects[0].title" -> "projects[0].title"
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

// Сообщения без параметров
var fixedMessages = map[string]string{
	"required":       "This field is required",
	"email":          "Must be a valid email address",
	"url":            "Must be a valid URL",
	"unique":         "Must not contain duplicates",
	"is-phone":       "Must be a 10-digit phone number",
	"is-otp":         "Must be a 6-digit code",
	"is-signup-role": "Must be one of: student, company",
}

func message(fe validator.FieldError) string {
	if msg, ok := fixedMessages[fe.Tag()]; ok {
		return msg
	}

	param := fe.Param()
	switch fe.Tag() {
	case "min":
		if hasLength(fe.Kind()) {
			return fmt.Sprintf("Must be at least %s items/characters long", param)
		}
		return "Must be at least " + param
	case "max":
		return "Must be at most " + param
	case "gt":
		return "Must be greater than " + param
	case "len":
		return fmt.Sprintf("Must be exactly %s items/characters long", param)
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(param), ", ")
	}
	return fmt.Sprintf("Invalid value (failed on '%s' tag)", fe.Tag())
}

func hasLength(k reflect.Kind) bool {
	return k == reflect.String || k == reflect.Slice || k == reflect.Map
}
