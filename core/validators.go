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

// field validation messages; {0} is the field label
const (
	MsgRequired       = "field_required"
	MsgSelectRequired = "field_select"
	MsgNumeric        = "field_numeric"
	MsgMin            = "field_min"
	MsgMax            = "field_max"
	MsgEmail          = "field_email"
	MsgURL            = "field_url"
)

var (
	// custom validation tags & texts
	SimpleEmailTag   = "simple_email"
	simpleEmailText  = "Please enter a valid email address."
	simpleEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	HTTPURLTag   = "http_url"
	httpURLText  = "Please enter a valid URL that starts with http:// or https://."
	httpURLRegex = regexp.MustCompile(`(?i)^https?://.+$`)

	fieldMessages = map[string]string{
		MsgRequired:       "{0} is required.",
		MsgSelectRequired: "Please select a {0}.",
		MsgNumeric:        "{0} must be a valid number.",
		MsgMin:            "{0} must be at least {1}.",
		MsgMax:            "{0} must be at most {1}.",
		MsgEmail:          simpleEmailText,
		MsgURL:            httpURLText,
	}
)

// NewTranslator returns the english translator used for every user facing validation message.
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
	_ = validate.RegisterValidation(SimpleEmailTag, simpleEmailValidation)
	RegisterCustomTranslation(validate, translator, SimpleEmailTag, simpleEmailText)

	_ = validate.RegisterValidation(HTTPURLTag, httpURLValidation)
	RegisterCustomTranslation(validate, translator, HTTPURLTag, httpURLText)

	for key, text := range fieldMessages {
		_ = translator.Add(key, text, true)
	}
}

// NewValidator returns a ready to use validator and its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)
	return validate, translator
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

// simpleEmailValidation accepts anything shaped like `local@domain.tld`.
func simpleEmailValidation(fl validator.FieldLevel) bool {
	return simpleEmailRegex.MatchString(fl.Field().String())
}

// httpURLValidation only accepts URLs starting with http:// or https://.
func httpURLValidation(fl validator.FieldLevel) bool {
	return httpURLRegex.MatchString(fl.Field().String())
}
