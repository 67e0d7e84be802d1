package achievement

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upskillhub/upskill/core/course"
)

func TestParseBadgeKind(t *testing.T) {
	for _, k := range AllBadgeKinds() {
		got, err := ParseBadgeKind(k.String())
		assert.NoError(t, err)
		assert.Equal(t, k, got)
	}

	for _, s := range []string{"", "unknown", "First_Steps", "gold_star"} {
		_, err := ParseBadgeKind(s)
		assert.Equal(t, ErrUnknownBadge, errors.Cause(err), s)
	}
}

func TestBadgeKind_JSON(t *testing.T) {
	data, err := json.Marshal(StudentAchievement{Badge: InternshipReady})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"badge":"internship_ready"`)

	var sa StudentAchievement
	require.NoError(t, json.Unmarshal([]byte(`{"badge": "fast_learner"}`), &sa))
	assert.Equal(t, FastLearner, sa.Badge)

	assert.Error(t, json.Unmarshal([]byte(`{"badge": "nope"}`), &sa))

	_, err = json.Marshal(BadgeKind(0))
	assert.Error(t, err)
}

func TestBadgeKind_Descriptor(t *testing.T) {
	assert.False(t, BadgeKind(0).Valid())
	assert.Equal(t, Descriptor{}, BadgeKind(42).Descriptor())
	assert.Equal(t, "unknown", BadgeKind(42).String())

	for _, k := range AllBadgeKinds() {
		assert.True(t, k.Valid())
		assert.NotEmpty(t, k.Descriptor().Title, k.String())
	}
	assert.Equal(t, "Course Finisher", CourseFinisher.Descriptor().Title)
}

func TestQualifies(t *testing.T) {
	courses := []course.Course{
		{ID: "go", SkillTrack: course.TrackCoding},
		{ID: "figma", SkillTrack: course.TrackDesign},
		{ID: "ads", SkillTrack: course.TrackMarketing},
		{ID: "rust", SkillTrack: course.TrackCoding},
	}
	enr := func(courseID string, lessons, progress int) course.Enrollment {
		return course.Enrollment{CourseID: courseID, LessonsCompleted: lessons, Progress: progress}
	}

	tests := []struct {
		name         string
		enrollments  []course.Enrollment
		lessonsToday int
		want         []BadgeKind
	}{
		{name: "nothing yet", enrollments: []course.Enrollment{enr("go", 0, 0)}},
		{name: "first lesson", enrollments: []course.Enrollment{enr("go", 1, 10)}, lessonsToday: 1, want: []BadgeKind{FirstSteps}},
		{name: "busy day", enrollments: []course.Enrollment{enr("go", 5, 50)}, lessonsToday: 5, want: []BadgeKind{FirstSteps, FastLearner}},
		{name: "course done", enrollments: []course.Enrollment{enr("go", 10, 100)}, want: []BadgeKind{FirstSteps, CourseFinisher}},
		{
			name:        "two tracks are not enough",
			enrollments: []course.Enrollment{enr("go", 10, 100), enr("rust", 3, 100), enr("figma", 4, 100), enr("ads", 1, 20)},
			want:        []BadgeKind{FirstSteps, CourseFinisher},
		},
		{
			name:         "three tracks",
			enrollments:  []course.Enrollment{enr("go", 10, 100), enr("figma", 4, 100), enr("ads", 6, 100)},
			lessonsToday: 7,
			want:         []BadgeKind{FirstSteps, FastLearner, CourseFinisher, InternshipReady},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Qualifies(tt.enrollments, courses, tt.lessonsToday))
		})
	}
}
