package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	settingNameTag   = "settingname"
	settingNameText  = "only lowercase letters, digits and underscores are allowed"
	settingNameRegex = regexp.MustCompile(`^[a-z0-9_]+$`)

	bootstrapColorTag  = "bootstrapcolor"
	bootstrapColorText = "{0} must be one of the bootstrap colors"
	BootstrapColors    = []string{"primary", "secondary", "success", "warning", "danger", "info", "light", "dark"}

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the english translator shared by validation errors and language strings.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(settingNameTag, settingNameValidation)
	RegisterCustomTranslation(validate, translator, settingNameTag, settingNameText)

	_ = validate.RegisterValidation(bootstrapColorTag, bootstrapColorValidation)
	RegisterCustomTranslation(validate, translator, bootstrapColorTag, bootstrapColorText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// settingNameValidation only allows names usable as config keys.
func settingNameValidation(fl validator.FieldLevel) bool {
	return settingNameRegex.MatchString(fl.Field().String())
}

// bootstrapColorValidation only allows the bootstrap contextual color names.
func bootstrapColorValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, c := range BootstrapColors {
		if c == val {
			return true
		}
	}
	return false
}
