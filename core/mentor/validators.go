package mentor

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/upskillhub/upskill/core"
)

const (
	expertiseTag  = "expertise"
	expertiseText = "{0} contains an unknown expertise area"

	sessionTypeTag  = "sessiontype"
	sessionTypeText = "{0} must be one of one-on-one, group or workshop"

	sessionStatusTag  = "sessionstatus"
	sessionStatusText = "{0} must be one of available, booked, completed or cancelled"

	verificationTag  = "verification"
	verificationText = "{0} must be one of pending, verified or rejected"

	clockTag  = "clock"
	clockText = "{0} must be a time of day, HH:MM"

	notFutureTag  = "notfuture"
	notFutureText = "{0} cannot be in the future"

	endAfterStartTag  = "endafterstart"
	endAfterStartText = "End time must be after start time"
)

// ProfileMessages are the user-facing messages of the mentor profile step.
var ProfileMessages = core.Messages{
	"phone":                     "Phone number must be at least 10 digits",
	"bio":                       "Bio must be at least 50 characters",
	"bio.max":                   "Bio must be at most 500 characters",
	"expertise_areas":           "Select at least one expertise area",
	"expertise_areas.expertise": "Unknown expertise area",
	"years_of_experience":       "Experience must be at least 1 year",
	"years_of_experience.max":   "Experience must be at most 70 years",
	"hourly_rate":               "Rate must be positive",
	"linkedin_url":              "Invalid LinkedIn URL",
	"portfolio_url":             "Invalid portfolio URL",
}

// QualificationMessages are the user-facing messages of a qualification.
var QualificationMessages = core.Messages{
	"qualifications":  "Please add at least one qualification.",
	"title":           "Title is required",
	"title.max":       "Title must be at most 200 characters",
	"institution":     "Institution is required",
	"institution.max": "Institution must be at most 200 characters",
	"year_obtained":   "Year must be between 1950 and the current year",
	"certificate_url": "Invalid certificate URL",
}

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterEnumValidation(validate, translator, expertiseTag, expertiseText, ExpertiseAreas)
	core.RegisterEnumValidation(validate, translator, sessionTypeTag, sessionTypeText, SessionTypes)
	core.RegisterEnumValidation(validate, translator, sessionStatusTag, sessionStatusText, SessionStatuses)
	core.RegisterEnumValidation(validate, translator, verificationTag, verificationText, VerificationStatuses)

	_ = validate.RegisterValidation(clockTag, clockValidation)
	core.RegisterCustomTranslation(validate, translator, clockTag, clockText)

	_ = validate.RegisterValidation(notFutureTag, notFutureYearValidation)
	core.RegisterCustomTranslation(validate, translator, notFutureTag, notFutureText)

	validate.RegisterStructValidation(newSessionStructValidation, NewSession{})
	core.RegisterCustomTranslation(validate, translator, endAfterStartTag, endAfterStartText)
}

// clockValidation accepts HH:MM times of day.
func clockValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(core.TimeLayout, fl.Field().String())
	return err == nil
}

// notFutureYearValidation accepts years up to the current one.
func notFutureYearValidation(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= int64(time.Now().Year())
}

func newSessionStructValidation(sl validator.StructLevel) {
	ns := sl.Current().Interface().(NewSession)
	start, err1 := time.Parse(core.TimeLayout, ns.StartTime)
	end, err2 := time.Parse(core.TimeLayout, ns.EndTime)
	if err1 != nil || err2 != nil {
		return // reported by `clock`
	}
	if !end.After(start) {
		sl.ReportError(ns.EndTime, "end_time", "EndTime", endAfterStartTag, "")
	}
}
