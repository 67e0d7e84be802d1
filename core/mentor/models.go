package mentor

import (
	"sort"
	"time"

	"github.com/upskillhub/upskill/core"
)

// Verification statuses
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

// Session types
const (
	OneOnOne = "one-on-one"
	Group    = "group"
	Workshop = "workshop"
)

// Session statuses
const (
	SessionAvailable = "available"
	SessionBooked    = "booked"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

var (
	ExpertiseAreas = []string{
		"Web Development", "Mobile Development", "Data Science", "Machine Learning",
		"UI/UX Design", "Cloud Computing", "Cybersecurity", "DevOps",
		"Blockchain", "Game Development", "Digital Marketing", "Product Management",
	}

	VerificationStatuses = []string{StatusPending, StatusVerified, StatusRejected}
	SessionTypes         = []string{OneOnOne, Group, Workshop}
	SessionStatuses      = []string{SessionAvailable, SessionBooked, SessionCompleted, SessionCancelled}
)

type Profile struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"user_id"`
	Phone               string          `json:"phone"`
	Bio                 string          `json:"bio"`
	ExpertiseAreas      []string        `json:"expertise_areas"`
	YearsOfExperience   int             `json:"years_of_experience"`
	HourlyRate          float64         `json:"hourly_rate"`
	LinkedinURL         string          `json:"linkedin_url"`
	PortfolioURL        string          `json:"portfolio_url"`
	IsAvailable         bool            `json:"is_available"`
	VerificationStatus  string          `json:"verification_status"`
	OnboardingCompleted bool            `json:"onboarding_completed"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Qualifications      []Qualification `json:"qualifications,omitempty"`
}

func (p Profile) IsVerified() bool { return p.VerificationStatus == StatusVerified }

type Qualification struct {
	ID             string    `json:"id"`
	MentorID       string    `json:"mentor_id"`
	Title          string    `json:"title"`
	Institution    string    `json:"institution"`
	YearObtained   int       `json:"year_obtained"`
	CertificateURL string    `json:"certificate_url"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProfileInput is the first step of the mentor onboarding.
type ProfileInput struct {
	Phone             string   `json:"phone" validate:"required,min=10"`
	Bio               string   `json:"bio" validate:"required,min=50,max=500"`
	ExpertiseAreas    []string `json:"expertise_areas" validate:"required,min=1,dive,expertise"`
	YearsOfExperience int      `json:"years_of_experience" validate:"min=1,max=70"`
	HourlyRate        float64  `json:"hourly_rate" validate:"min=0"`
	LinkedinURL       string   `json:"linkedin_url" validate:"omitempty,url"`
	PortfolioURL      string   `json:"portfolio_url" validate:"omitempty,url"`
}

func (pi *ProfileInput) Clean() {
	pi.Phone = core.CleanString(pi.Phone)
	pi.Bio = core.CleanString(pi.Bio)
	pi.ExpertiseAreas = core.CleanStrings(pi.ExpertiseAreas)
	pi.LinkedinURL = core.CleanString(pi.LinkedinURL)
	pi.PortfolioURL = core.CleanString(pi.PortfolioURL)
}

type QualificationInput struct {
	Title          string `json:"title" validate:"required,min=2,max=200"`
	Institution    string `json:"institution" validate:"required,min=2,max=200"`
	YearObtained   int    `json:"year_obtained" validate:"min=1950,notfuture"`
	CertificateURL string `json:"certificate_url" validate:"omitempty,url"`
}

func (qi *QualificationInput) Clean() {
	qi.Title = core.CleanString(qi.Title)
	qi.Institution = core.CleanString(qi.Institution)
	qi.CertificateURL = core.CleanString(qi.CertificateURL)
}

// QualificationsStep is the second step of the mentor onboarding.
type QualificationsStep struct {
	Qualifications []QualificationInput `json:"qualifications" validate:"required,min=1,dive"`
}

func (qs *QualificationsStep) Clean() {
	for i := range qs.Qualifications {
		qs.Qualifications[i].Clean()
	}
}

// Onboarding is what the mentor onboarding wizard collects.
type Onboarding struct {
	ProfileInput
	QualificationsStep
}

func (o *Onboarding) Clean() {
	o.ProfileInput.Clean()
	o.QualificationsStep.Clean()
}

type Session struct {
	ID              string    `json:"id"`
	MentorID        string    `json:"mentor_id"`
	StudentID       string    `json:"student_id,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	SessionDate     string    `json:"session_date"` // YYYY-MM-DD
	StartTime       string    `json:"start_time"`   // HH:MM
	EndTime         string    `json:"end_time"`     // HH:MM
	SessionType     string    `json:"session_type"`
	MaxParticipants int       `json:"max_participants"`
	MeetingLink     string    `json:"meeting_link"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsUpcoming reports whether the session is still open or booked.
func (s Session) IsUpcoming() bool {
	return s.Status == SessionAvailable || s.Status == SessionBooked
}

type NewSession struct {
	Title           string `json:"title" validate:"required,min=2,max=200"`
	Description     string `json:"description" validate:"max=1000"`
	SessionDate     string `json:"session_date" validate:"required,date"`
	StartTime       string `json:"start_time" validate:"required,clock"`
	EndTime         string `json:"end_time" validate:"required,clock"`
	SessionType     string `json:"session_type" validate:"required,sessiontype"`
	MaxParticipants int    `json:"max_participants" validate:"omitempty,min=1,max=500"`
	MeetingLink     string `json:"meeting_link" validate:"omitempty,url"`
}

func (ns *NewSession) Clean() {
	ns.Title = core.CleanString(ns.Title)
	ns.Description = core.CleanString(ns.Description)
	ns.SessionDate = core.CleanString(ns.SessionDate)
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
	ns.SessionType = core.CleanString(ns.SessionType, true /* lower */)
	ns.MeetingLink = core.CleanString(ns.MeetingLink)
	if ns.SessionType == "" {
		ns.SessionType = OneOnOne
	}
	if ns.SessionType == OneOnOne || ns.MaxParticipants <= 0 {
		ns.MaxParticipants = 1
	}
}

// SessionFilter applies AND operation on its set fields.
type SessionFilter struct {
	MentorID string
	Statuses []string
	FromDate string // YYYY-MM-DD, inclusive
}

// GetFilter selects a single Profile by ID or by UserID.
type GetFilter struct {
	ID     string
	UserID string
}

// SplitSessions separates upcoming (available, booked) sessions from past (completed, cancelled) ones.
// The order of `sessions` is preserved.
func SplitSessions(sessions []Session) (upcoming, past []Session) {
	upcoming, past = make([]Session, 0, len(sessions)), make([]Session, 0)
	for _, s := range sessions {
		if s.IsUpcoming() {
			upcoming = append(upcoming, s)
		} else {
			past = append(past, s)
		}
	}
	return upcoming, past
}

// SortSessions orders sessions by date, then start time.
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].SessionDate != sessions[j].SessionDate {
			return sessions[i].SessionDate < sessions[j].SessionDate
		}
		return sessions[i].StartTime < sessions[j].StartTime
	})
}
