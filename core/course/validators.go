package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/upskillhub/upskill/core"
)

const (
	skillTrackTag  = "skilltrack"
	skillTrackText = "{0} must be one of coding, design, marketing, business, data or leadership"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterEnumValidation(validate, translator, skillTrackTag, skillTrackText, AllTracks)
}
