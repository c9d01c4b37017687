package validation

import (
	"reflect"
	"strings"

	"career-catalog-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with the catalog's enum rules registered and
// field names reported by their JSON tag.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("career_category", CareerCategory)
	_ = v.RegisterValidation("mean_grade", MeanGrade)
	_ = v.RegisterValidation("market_demand", MarketDemand)
	_ = v.RegisterValidation("institution_type", InstitutionType)
	_ = v.RegisterValidation("program_level", ProgramLevel)
}

func CareerCategory(fl validator.FieldLevel) bool {
	return domain.CareerCategory(fl.Field().String()).Valid()
}

// MeanGrade accepts grades A through E; combine with omitempty for optional grades.
func MeanGrade(fl validator.FieldLevel) bool {
	return domain.MeanGrade(fl.Field().String()).Valid()
}

func MarketDemand(fl validator.FieldLevel) bool {
	return domain.MarketDemand(fl.Field().String()).Valid()
}

func InstitutionType(fl validator.FieldLevel) bool {
	return domain.InstitutionType(fl.Field().String()).Valid()
}

func ProgramLevel(fl validator.FieldLevel) bool {
	return domain.ProgramLevel(fl.Field().String()).Valid()
}
