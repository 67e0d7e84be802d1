package course

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
)

// Skill tracks
const (
	TrackCoding     = "coding"
	TrackDesign     = "design"
	TrackMarketing  = "marketing"
	TrackBusiness   = "business"
	TrackData       = "data"
	TrackLeadership = "leadership"
)

type Track struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var (
	Tracks = []Track{
		{Value: TrackCoding, Label: "Coding", Description: "Web, mobile and software development"},
		{Value: TrackDesign, Label: "Design", Description: "UI/UX, graphic and product design"},
		{Value: TrackMarketing, Label: "Marketing", Description: "Digital marketing and social media"},
		{Value: TrackBusiness, Label: "Business", Description: "Entrepreneurship and management"},
		{Value: TrackData, Label: "Data", Description: "Data analysis and visualisation"},
		{Value: TrackLeadership, Label: "Leadership", Description: "Communication and team leadership"},
	}

	AllTracks = []string{TrackCoding, TrackDesign, TrackMarketing, TrackBusiness, TrackData, TrackLeadership}
)

// LookupTrack returns the Track of `value`; unknown values get their raw value as label.
func LookupTrack(value string) (Track, bool) {
	for _, t := range Tracks {
		if t.Value == value {
			return t, true
		}
	}
	return Track{Value: value, Label: value}, false
}

type Course struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	SkillTrack     string    `json:"skill_track"`
	InstructorName string    `json:"instructor_name"`
	ThumbnailURL   string    `json:"thumbnail_url"`
	TotalLessons   int       `json:"total_lessons"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type NewCourse struct {
	Title          string `json:"title" yaml:"title" validate:"required,min=2,max=200"`
	Description    string `json:"description" yaml:"description" validate:"max=2000"`
	SkillTrack     string `json:"skill_track" yaml:"skill_track" validate:"required,skilltrack"`
	InstructorName string `json:"instructor_name" yaml:"instructor_name" validate:"max=200"`
	ThumbnailURL   string `json:"thumbnail_url" yaml:"thumbnail_url" validate:"omitempty,url"`
	TotalLessons   int    `json:"total_lessons" yaml:"total_lessons" validate:"min=0,max=1000"`
}

func (nc *NewCourse) Clean() {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.SkillTrack = core.CleanString(nc.SkillTrack, true /* lower */)
	nc.InstructorName = core.CleanString(nc.InstructorName)
	nc.ThumbnailURL = core.CleanString(nc.ThumbnailURL)
}

// UpdateCourse holds the fields of a Course that may change. Nil fields are left untouched.
type UpdateCourse struct {
	Title          *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description    *string `json:"description" validate:"omitempty,max=2000"`
	SkillTrack     *string `json:"skill_track" validate:"omitempty,skilltrack"`
	InstructorName *string `json:"instructor_name" validate:"omitempty,max=200"`
	ThumbnailURL   *string `json:"thumbnail_url" validate:"omitempty,url"`
	TotalLessons   *int    `json:"total_lessons" validate:"omitempty,min=0,max=1000"`
}

func (uc UpdateCourse) apply(c Course) Course {
	if uc.Title != nil {
		c.Title = core.CleanString(*uc.Title)
	}
	if uc.Description != nil {
		c.Description = core.CleanString(*uc.Description)
	}
	if uc.SkillTrack != nil {
		c.SkillTrack = core.CleanString(*uc.SkillTrack, true /* lower */)
	}
	if uc.InstructorName != nil {
		c.InstructorName = core.CleanString(*uc.InstructorName)
	}
	if uc.ThumbnailURL != nil {
		c.ThumbnailURL = core.CleanString(*uc.ThumbnailURL)
	}
	if uc.TotalLessons != nil {
		c.TotalLessons = *uc.TotalLessons
	}
	return c
}

type QueryFilter struct {
	Search     string   `query:"search"`
	SkillTrack []string `query:"track"`
	IDs        []string `query:"-"`
}

type Enrollment struct {
	ID               string    `json:"id"`
	StudentID        string    `json:"student_id"`
	CourseID         string    `json:"course_id"`
	LessonsCompleted int       `json:"lessons_completed"`
	Progress         int       `json:"progress"`
	EnrolledAt       time.Time `json:"enrolled_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Course           *Course   `json:"course,omitempty"`
}

// Completed reports whether every lesson of the course was completed.
func (e Enrollment) Completed() bool { return e.Progress >= 100 }

// Advance completes `n` more lessons of a course of `total` lessons.
// lessons_completed never exceeds `total` and Progress is recomputed.
// It returns the number of lessons that were actually added.
func (e *Enrollment) Advance(n, total int) (int, error) {
	if n <= 0 {
		return 0, errLessonsNotPositive
	}
	before := e.LessonsCompleted
	e.LessonsCompleted += n
	if e.LessonsCompleted > total {
		e.LessonsCompleted = total
	}
	e.Progress = Progress(e.LessonsCompleted, total)
	if added := e.LessonsCompleted - before; added > 0 {
		return added, nil
	}
	return 0, nil
}

// clamp re-applies the invariant after the course total changed.
func (e *Enrollment) clamp(total int) bool {
	lessons := e.LessonsCompleted
	if lessons > total {
		lessons = total
	}
	progress := Progress(lessons, total)
	if lessons == e.LessonsCompleted && progress == e.Progress {
		return false
	}
	e.LessonsCompleted, e.Progress = lessons, progress
	return true
}

type EnrollmentFilter struct {
	StudentIDs []string
	CourseID   string
}

// LessonCompletion records lessons completed at once on an Enrollment.
type LessonCompletion struct {
	ID           string    `json:"id"`
	EnrollmentID string    `json:"enrollment_id"`
	Lessons      int       `json:"lessons"`
	CompletedAt  time.Time `json:"completed_at"`
}

var errLessonsNotPositive = errors.New("lessons must be a positive number")

// Progress returns round(100 × completed / total), 0 when total is 0.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
