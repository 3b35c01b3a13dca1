package adminsettings

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/gregoryekhator/debonairkent/core"
)

var (
	courseIDsTag   = "courseids"
	courseIDsText  = "only comma separated course ids are allowed"
	courseIDsRegex = regexp.MustCompile(`^\s*\d+(\s*,\s*\d+)*\s*,?\s*$`)
)

// InitValidators registers the validations of setting values.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(courseIDsTag, courseIDsValidation)
	core.RegisterCustomTranslation(validate, translator, courseIDsTag, courseIDsText)
}

func courseIDsValidation(fl validator.FieldLevel) bool {
	return courseIDsRegex.MatchString(fl.Field().String())
}
