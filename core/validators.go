package core

import (
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	dateTag  = "date"
	dateText = "invalid date, expected YYYY-MM-DD"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

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
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(dateTag, dateValidation)
	RegisterCustomTranslation(validate, translator, dateTag, dateText)

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

// RegisterEnumValidation registers `tag` as a validator accepting only the provided values.
// It applies to strings; use it with `dive` for slices.
func RegisterEnumValidation(validate *validator.Validate, translator ut.Translator, tag, text string, values []string) {
	allowed := make([]string, len(values))
	copy(allowed, values)
	sort.Strings(allowed)

	_ = validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return StringInSlice(fl.Field().String(), allowed)
	})
	RegisterCustomTranslation(validate, translator, tag, text)
}

// Messages maps "field.tag" keys to fixed user-facing messages.
// A "field" key applies to every tag of that field.
type Messages map[string]string

// Lookup returns the message of `field` for the failed `tag`.
func (m Messages) Lookup(field, tag string) (string, bool) {
	if msg, ok := m[field+"."+tag]; ok {
		return msg, true
	}
	msg, ok := m[field]
	return msg, ok
}

// FieldErrors converts validator errors into a {field: message} map.
// Fixed messages take precedence over the translator. The first error of each field wins.
func FieldErrors(err error, translator ut.Translator, msgs Messages) (map[string]string, bool) {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return nil, false
	}
	fldErrs := make(map[string]string, len(vErrs))
	for _, vErr := range vErrs {
		field := vErr.Field()
		if i := strings.IndexByte(field, '['); i > 0 {
			field = field[:i] // dive errors: "skill_tracks[1]" -> "skill_tracks"
		}
		if _, ok := fldErrs[field]; ok {
			continue
		}
		if msg, ok := msgs.Lookup(field, vErr.Tag()); ok {
			fldErrs[field] = msg
		} else if translator != nil {
			fldErrs[field] = vErr.Translate(translator)
		} else {
			fldErrs[field] = vErr.Error()
		}
	}
	return fldErrs, true
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// dateValidation accepts YYYY-MM-DD strings.
func dateValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}
