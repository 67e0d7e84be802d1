package school

import (
	"time"

	"github.com/upskillhub/upskill/core"
)

const DefaultName = "Your School"

type Profile struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	SchoolName          string    `json:"school_name"`
	ContactEmail        string    `json:"contact_email"`
	ContactPhone        string    `json:"contact_phone"`
	Address             string    `json:"address"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Member is a student on the roster of a school.
type Member struct {
	ID         string    `json:"id"`
	SchoolID   string    `json:"school_id"`
	StudentID  string    `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"`

	// Filled by Service.Roster
	UserID     string `json:"user_id,omitempty"`
	FullName   string `json:"full_name,omitempty"`
	Email      string `json:"email,omitempty"`
	GradeLevel string `json:"grade_level,omitempty"`
}

// Onboarding is what the school onboarding collects.
type Onboarding struct {
	SchoolName   string `json:"school_name" validate:"required,min=2,max=200"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone" validate:"omitempty,min=10,max=15"`
	Address      string `json:"address" validate:"max=500"`
}

func (o *Onboarding) Clean() {
	o.SchoolName = core.CleanString(o.SchoolName)
	o.ContactEmail = core.CleanString(o.ContactEmail, true /* lower */)
	o.ContactPhone = core.CleanString(o.ContactPhone)
	o.Address = core.CleanString(o.Address)
}

// AddStudent is the payload adding a student to the roster.
type AddStudent struct {
	Email string `json:"email" validate:"required,email"`
}

// GetFilter selects a single Profile by ID or by UserID.
type GetFilter struct {
	ID     string
	UserID string
}

// Messages are the user-facing messages of the school fields.
var Messages = core.Messages{
	"school_name":     "School name is required",
	"school_name.max": "School name must be at most 200 characters",
	"contact_email":   "Invalid contact email",
	"contact_phone":   "Phone number must be at least 10 digits",
	"address":         "Address must be at most 500 characters",
	"email":           "Enter a valid email address",
}
