package student

import (
	"time"

	"github.com/upskillhub/upskill/core"
)

var Interests = []string{
	"Technology", "Arts", "Sports", "Music", "Science", "Writing",
	"Gaming", "Photography", "Social Media", "Entrepreneurship", "Environment", "Health",
}

type Profile struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	Phone               string    `json:"phone"`
	DateOfBirth         string    `json:"date_of_birth"` // YYYY-MM-DD
	SchoolName          string    `json:"school_name"`
	GradeLevel          string    `json:"grade_level"`
	Bio                 string    `json:"bio"`
	SkillTracks         []string  `json:"skill_tracks"`
	Interests           []string  `json:"interests"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DetailsStep is the first step of the student onboarding.
type DetailsStep struct {
	Phone       string `json:"phone" validate:"omitempty,min=10,max=15"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,date"`
	SchoolName  string `json:"school_name" validate:"required,min=2,max=200"`
	GradeLevel  string `json:"grade_level" validate:"required,max=50"`
}

type TracksStep struct {
	SkillTracks []string `json:"skill_tracks" validate:"required,min=1,dive,skilltrack"`
}

type InterestsStep struct {
	Interests []string `json:"interests" validate:"omitempty,dive,interest"`
	Bio       string   `json:"bio" validate:"max=500"`
}

// Onboarding is what the student onboarding wizard collects.
type Onboarding struct {
	DetailsStep
	TracksStep
	InterestsStep
}

func (d *DetailsStep) Clean() {
	d.Phone = core.CleanString(d.Phone)
	d.DateOfBirth = core.CleanString(d.DateOfBirth)
	d.SchoolName = core.CleanString(d.SchoolName)
	d.GradeLevel = core.CleanString(d.GradeLevel)
}

func (t *TracksStep) Clean() {
	t.SkillTracks = core.CleanStrings(t.SkillTracks, true /* lower */)
}

func (i *InterestsStep) Clean() {
	i.Interests = core.CleanStrings(i.Interests)
	i.Bio = core.CleanString(i.Bio)
}

func (o *Onboarding) Clean() {
	o.DetailsStep.Clean()
	o.TracksStep.Clean()
	o.InterestsStep.Clean()
}

func (o Onboarding) apply(p Profile) Profile {
	p.Phone = o.Phone
	p.DateOfBirth = o.DateOfBirth
	p.SchoolName = o.SchoolName
	p.GradeLevel = o.GradeLevel
	p.SkillTracks = o.SkillTracks
	p.Interests = o.Interests
	p.Bio = o.Bio
	p.OnboardingCompleted = true
	return p
}
