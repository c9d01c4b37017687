package validation

import (
	"errors"
	"fmt"
	"strings"

	"career-catalog-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// enumValues lists accepted values per custom tag for error messages.
var enumValues = map[string]func() []string{
	"career_category":  func() []string { return toStrings(domain.CareerCategories) },
	"mean_grade":       func() []string { return toStrings(domain.MeanGrades) },
	"market_demand":    func() []string { return toStrings(domain.MarketDemands) },
	"institution_type": func() []string { return toStrings(domain.InstitutionTypes) },
	"program_level":    func() []string { return toStrings(domain.ProgramLevels) },
}

// FormatErrors converts validator.ValidationErrors to field-level messages.
func FormatErrors(err error) []FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		out = append(out, FieldError{
			Field:   fieldPath(e),
			Message: formatSingleError(e),
		})
	}
	return out
}

// fieldPath drops the root struct name: "Career.salary.entry" -> "salary.entry".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatSingleError(e validator.FieldError) string {
	param := e.Param()

	switch e.Tag() {
	case "required":
		return "is required"

	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", param)
		}
		if e.Kind().String() == "slice" {
			return fmt.Sprintf("must contain at least %s item(s)", param)
		}
		return fmt.Sprintf("must be at least %s", param)

	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", param)
		}
		return fmt.Sprintf("must be at most %s", param)

	case "email":
		return "must be a valid email address"

	case "url":
		return "must be a valid URL"

	default:
		if values, ok := enumValues[e.Tag()]; ok {
			return fmt.Sprintf("must be one of: %s", strings.Join(values(), ", "))
		}
		return fmt.Sprintf("failed validation (%s)", e.Tag())
	}
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
