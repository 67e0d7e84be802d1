package mentor_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/tests"
)

func TestNewSession_validation(t *testing.T) {
	validate, _ := testutil.NewValidator()
	valid := func() mentor.NewSession {
		return mentor.NewSession{
			Title:       "Code review",
			SessionDate: "2030-05-01",
			StartTime:   "10:00",
			EndTime:     "11:00",
			SessionType: mentor.Group,
		}
	}

	tests := []struct {
		name    string
		mutate  func(ns *mentor.NewSession)
		wantTag string
	}{
		{name: "valid", mutate: func(*mentor.NewSession) {}},
		{name: "end before start", mutate: func(ns *mentor.NewSession) { ns.EndTime = "09:00" }, wantTag: "endafterstart"},
		{name: "end equals start", mutate: func(ns *mentor.NewSession) { ns.EndTime = "10:00" }, wantTag: "endafterstart"},
		{name: "bad clock", mutate: func(ns *mentor.NewSession) { ns.StartTime = "25:00" }, wantTag: "clock"},
		{name: "bad date", mutate: func(ns *mentor.NewSession) { ns.SessionDate = "01/05/2030" }, wantTag: "date"},
		{name: "unknown type", mutate: func(ns *mentor.NewSession) { ns.SessionType = "seminar" }, wantTag: "sessiontype"},
		{name: "bad meeting link", mutate: func(ns *mentor.NewSession) { ns.MeetingLink = "zoom" }, wantTag: "url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := valid()
			tt.mutate(&ns)
			err := validate.Struct(ns)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, err)
			assert.Equal(t, tt.wantTag, errs[0].Tag())
		})
	}
}

func TestQualificationInput_validation(t *testing.T) {
	validate, _ := testutil.NewValidator()

	qi := mentor.QualificationInput{Title: "BSc", Institution: "UNIKIN", YearObtained: 2015}
	assert.NoError(t, validate.Struct(qi))

	qi.YearObtained = 3000
	err := validate.Struct(qi)
	if assert.Error(t, err) {
		assert.Equal(t, "notfuture", err.(validator.ValidationErrors)[0].Tag())
	}

	qi.YearObtained = 1900
	assert.Error(t, validate.Struct(qi))
}

func TestProfileInput_validation(t *testing.T) {
	validate, _ := testutil.NewValidator()
	valid := func() mentor.ProfileInput {
		return mentor.ProfileInput{
			Phone:             "+243810000000",
			Bio:               "Ten years shipping web apps, now coaching juniors through their first code reviews.",
			ExpertiseAreas:    []string{"Web Development"},
			YearsOfExperience: 10,
			HourlyRate:        25,
		}
	}

	tests := []struct {
		name    string
		mutate  func(pi *mentor.ProfileInput)
		wantTag string
	}{
		{name: "valid", mutate: func(*mentor.ProfileInput) {}},
		{name: "long international phone", mutate: func(pi *mentor.ProfileInput) { pi.Phone = "+243 (0) 81 000 0000 ext. 1234" }},
		{name: "short phone", mutate: func(pi *mentor.ProfileInput) { pi.Phone = "081000" }, wantTag: "min"},
		{name: "short bio", mutate: func(pi *mentor.ProfileInput) { pi.Bio = "Too short." }, wantTag: "min"},
		{name: "unknown expertise", mutate: func(pi *mentor.ProfileInput) { pi.ExpertiseAreas = []string{"Knitting"} }, wantTag: "expertise"},
		{name: "no experience", mutate: func(pi *mentor.ProfileInput) { pi.YearsOfExperience = 0 }, wantTag: "min"},
		{name: "negative rate", mutate: func(pi *mentor.ProfileInput) { pi.HourlyRate = -1 }, wantTag: "min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pi := valid()
			tt.mutate(&pi)
			err := validate.Struct(pi)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, err)
			assert.Equal(t, tt.wantTag, errs[0].Tag())
		})
	}
}
