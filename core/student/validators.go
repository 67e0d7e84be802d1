package student

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/upskillhub/upskill/core"
)

const (
	interestTag  = "interest"
	interestText = "{0} contains an unknown interest"
)

// Messages are the user-facing messages of the student onboarding fields.
var Messages = core.Messages{
	"phone":                   "Phone number must be at least 10 digits",
	"phone.max":               "Phone number must be at most 15 digits",
	"date_of_birth":           "Invalid date of birth",
	"school_name":             "School name is required",
	"school_name.max":         "School name must be at most 200 characters",
	"grade_level":             "Grade level is required",
	"skill_tracks":            "Select at least one skill track",
	"skill_tracks.skilltrack": "Unknown skill track",
	"interests":               "Unknown interest",
	"bio":                     "Bio must be at most 500 characters",
}

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterEnumValidation(validate, translator, interestTag, interestText, Interests)
}
