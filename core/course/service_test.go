package course_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/achievement"
	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/tests"
)

func TestService_Enroll(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	_, prof := testutil.CreateStudent(t, env, "Hero", "hero@test.cd")
	crs := testutil.CreateCourse(t, env, "Go for Beginners", course.TrackCoding, 4)

	_, err := env.CourseSvc.Enroll(ctx, prof.ID, "c0ffee00-0000-0000-0000-000000000000")
	if assert.True(t, core.IsValidationError(err)) {
		assert.Equal(t, map[string]string{"course_id": "course not found"}, errors.Cause(err).(*core.ValidationError).FieldMap())
	}

	enr, err := env.CourseSvc.Enroll(ctx, prof.ID, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, enr.Progress)
	assert.Equal(t, &crs, enr.Course)

	_, err = env.CourseSvc.Enroll(ctx, prof.ID, crs.ID)
	if assert.True(t, core.IsValidationError(err)) {
		assert.Equal(t, course.ErrAlreadyEnrolled, errors.Cause(err).(*core.ValidationError).Err)
	}
}

func TestService_CompleteLessons(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	_, prof := testutil.CreateStudent(t, env, "Hero", "hero@test.cd")
	_, other := testutil.CreateStudent(t, env, "Other", "other@test.cd")
	crs := testutil.CreateCourse(t, env, "Go for Beginners", course.TrackCoding, 8)

	enr, err := env.CourseSvc.Enroll(ctx, prof.ID, crs.ID)
	require.NoError(t, err)

	_, err = env.CourseSvc.CompleteLessons(ctx, prof.ID, enr.ID, 0)
	assert.True(t, core.IsValidationError(err))

	_, err = env.CourseSvc.CompleteLessons(ctx, other.ID, enr.ID, 1)
	assert.Equal(t, course.ErrEnrollmentNotFound, errors.Cause(err))

	_, err = env.CourseSvc.CompleteLessons(ctx, prof.ID, "c0ffee00-0000-0000-0000-000000000000", 1)
	assert.Equal(t, course.ErrEnrollmentNotFound, errors.Cause(err))

	enr, err = env.CourseSvc.CompleteLessons(ctx, prof.ID, enr.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, enr.LessonsCompleted)
	assert.Equal(t, 63, enr.Progress)

	// progress badges are awarded by the observer
	badges, err := env.AchievementSvc.ForStudent(ctx, prof.ID)
	require.NoError(t, err)
	kinds := make([]achievement.BadgeKind, 0, len(badges))
	for _, b := range badges {
		kinds = append(kinds, b.Badge)
	}
	assert.ElementsMatch(t, []achievement.BadgeKind{achievement.FirstSteps, achievement.FastLearner}, kinds)
}

func TestService_UpdateCourse(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	_, prof := testutil.CreateStudent(t, env, "Hero", "hero@test.cd")
	crs := testutil.CreateCourse(t, env, "Go for Beginners", course.TrackCoding, 10)

	enr, err := env.CourseSvc.Enroll(ctx, prof.ID, crs.ID)
	require.NoError(t, err)
	_, err = env.CourseSvc.CompleteLessons(ctx, prof.ID, enr.ID, 6)
	require.NoError(t, err)

	_, err = env.CourseSvc.UpdateCourse(ctx, "c0ffee00-0000-0000-0000-000000000000", course.UpdateCourse{})
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))

	// shrinking the course re-clamps its enrollments
	lessons := 4
	updated, err := env.CourseSvc.UpdateCourse(ctx, crs.ID, course.UpdateCourse{TotalLessons: &lessons})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.TotalLessons)

	enrollments, err := env.CourseSvc.StudentEnrollments(ctx, prof.ID)
	require.NoError(t, err)
	if assert.Len(t, enrollments, 1) {
		assert.Equal(t, 4, enrollments[0].LessonsCompleted)
		assert.Equal(t, 100, enrollments[0].Progress)
		if assert.NotNil(t, enrollments[0].Course) {
			assert.Equal(t, 4, enrollments[0].Course.TotalLessons)
		}
	}
}

func TestService_ListCourses(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	goCrs := testutil.CreateCourse(t, env, "Go for Beginners", course.TrackCoding, 10)
	testutil.CreateCourse(t, env, "Figma Basics", course.TrackDesign, 4)
	sql := testutil.CreateCourse(t, env, "Intro to SQL", course.TrackData, 6)

	all, err := env.CourseSvc.ListCourses(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := env.CourseSvc.ListCourses(ctx, &course.QueryFilter{SkillTrack: []string{" CODING", "data"}})
	require.NoError(t, err)
	ids := make([]string, 0, len(filtered))
	for _, c := range filtered {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{goCrs.ID, sql.ID}, ids)

	found, err := env.CourseSvc.ListCourses(ctx, &course.QueryFilter{Search: " figma "})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
