package forms

import (
	"math"
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Hoomanxj/eztutor/core"
)

type (
	// Element is what a validation rule sees of a form control.
	Element struct {
		Name  string
		Value string
		Min   string
		Max   string
		Files int
	}

	// CheckboxSource counts the checked boxes of a group.
	CheckboxSource interface {
		CountChecked(name string) int
	}

	// FieldValidator validates one control at a time and keeps the last message in Error.
	FieldValidator struct {
		validate   *validator.Validate
		translator ut.Translator
		source     CheckboxSource
		err        string
	}
)

var _ CheckboxSource = (*Form)(nil)

func NewFieldValidator(validate *validator.Validate, translator ut.Translator, source CheckboxSource) *FieldValidator {
	return &FieldValidator{validate: validate, translator: translator, source: source}
}

// Error is the message of the last validation, blank when it passed.
func (v *FieldValidator) Error() string {
	return v.err
}

func (v *FieldValidator) msg(key string, params ...string) string {
	s, err := v.translator.T(key, params...)
	if err != nil {
		return key
	}
	return s
}

func (v *FieldValidator) present(value string) bool {
	return v.validate.Var(value, "required") == nil
}

func (v *FieldValidator) matches(value, tag string) bool {
	return v.validate.Var(value, tag) == nil
}

func (v *FieldValidator) set(msg string) {
	v.err = msg
}

func (v *FieldValidator) ValidateField(el Element, label string, required bool) {
	if required && !v.present(strings.TrimSpace(el.Value)) {
		v.set(v.msg(core.MsgRequired, label))
		return
	}
	v.set("")
}

func (v *FieldValidator) ValidateNumber(el Element, label string, required bool) {
	value := strings.TrimSpace(el.Value)
	if required && value == "" {
		v.set(v.msg(core.MsgRequired, label))
		return
	}
	if value == "" {
		v.set("")
		return
	}

	num, ok := parseNumber(value)
	if !ok {
		v.set(v.msg(core.MsgNumeric, label))
		return
	}
	if min, ok := parseNumber(el.Min); ok && num < min {
		v.set(v.msg(core.MsgMin, label, formatNumber(min)))
		return
	}
	if max, ok := parseNumber(el.Max); ok && num > max {
		v.set(v.msg(core.MsgMax, label, formatNumber(max)))
		return
	}
	v.set("")
}

func (v *FieldValidator) ValidateFile(el Element, label string, required bool) {
	if required && el.Files == 0 {
		v.set(v.msg(core.MsgRequired, label))
		return
	}
	v.set("")
}

func (v *FieldValidator) ValidateSelect(el Element, label string, required bool) {
	v.selectRule(el, label, required)
}

func (v *FieldValidator) ValidateTime(el Element, label string, required bool) {
	v.selectRule(el, label, required)
}

func (v *FieldValidator) ValidateDate(el Element, label string, required bool) {
	v.selectRule(el, label, required)
}

func (v *FieldValidator) selectRule(el Element, label string, required bool) {
	if required && !v.present(el.Value) {
		v.set(v.msg(core.MsgSelectRequired, label))
		return
	}
	v.set("")
}

// ValidateSelectMultiple checks the `<name>[]` checkbox group of el.
func (v *FieldValidator) ValidateSelectMultiple(el Element, label string, required bool) {
	checked := 0
	if v.source != nil {
		checked = v.source.CountChecked(el.Name + "[]")
	}
	if required && checked == 0 {
		v.set(v.msg(core.MsgRequired, label))
		return
	}
	v.set("")
}

func (v *FieldValidator) ValidateEmail(el Element, label string, required bool) {
	email := strings.TrimSpace(el.Value)
	switch {
	case required && email == "":
		v.set(v.msg(core.MsgRequired, label))
	case email != "" && !v.matches(email, core.SimpleEmailTag):
		v.set(v.msg(core.MsgEmail))
	default:
		v.set("")
	}
}

// ValidatePassword checks the raw value, whitespace counts.
func (v *FieldValidator) ValidatePassword(el Element, label string, required bool) {
	if required && !v.present(el.Value) {
		v.set(v.msg(core.MsgRequired, label))
		return
	}
	v.set("")
}

func (v *FieldValidator) ValidateURL(el Element, label string, required bool) {
	url := strings.TrimSpace(el.Value)
	switch {
	case required && url == "":
		v.set(v.msg(core.MsgRequired, label))
	case url != "" && !v.matches(url, core.HTTPURLTag):
		v.set(v.msg(core.MsgURL))
	default:
		v.set("")
	}
}

// ValidateForm runs the rule of each enabled control's type over f and returns
// the failures in document order. A `name[]` checkbox group is checked once.
func (v *FieldValidator) ValidateForm(f *Form) []core.FieldError {
	fv := &FieldValidator{validate: v.validate, translator: v.translator, source: f}

	var errs []core.FieldError
	seen := make(map[string]bool)
	for _, fld := range f.Fields {
		if fld.Name == "" || fld.Disabled || seen[fld.Name] {
			continue
		}
		seen[fld.Name] = true

		el := f.Element(fld.Name)
		label := core.FirstNonEmpty(fld.Label, fld.Name)
		switch fld.Type {
		case "hidden", "radio":
			continue
		case "checkbox":
			if !strings.HasSuffix(fld.Name, "[]") {
				continue
			}
			el.Name = strings.TrimSuffix(fld.Name, "[]")
			fv.ValidateSelectMultiple(el, core.FirstNonEmpty(fld.Label, el.Name), groupRequired(f, fld.Name))
		case "number", "range":
			fv.ValidateNumber(el, label, fld.Required)
		case "file":
			fv.ValidateFile(el, label, fld.Required)
		case "select":
			fv.ValidateSelect(el, label, fld.Required)
		case "time":
			fv.ValidateTime(el, label, fld.Required)
		case "date":
			fv.ValidateDate(el, label, fld.Required)
		case "email":
			fv.ValidateEmail(el, label, fld.Required)
		case "password":
			fv.ValidatePassword(el, label, fld.Required)
		case "url":
			fv.ValidateURL(el, label, fld.Required)
		default:
			fv.ValidateField(el, label, fld.Required)
		}
		if msg := fv.Error(); msg != "" {
			errs = append(errs, core.FieldError{Field: fld.Name, Error: msg})
		}
	}
	return errs
}

func groupRequired(f *Form, name string) bool {
	for _, fld := range f.named(name) {
		if fld.Required {
			return true
		}
	}
	return false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
