package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upskillhub/upskill/core/achievement"
	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/dashboard"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/user"
	"github.com/upskillhub/upskill/tests"
)

func Test_studentApi_learning(t *testing.T) {
	app, env := setup(t)
	hero, _ := testutil.CreateStudent(t, env, "Hero", "hero@test.cd", course.TrackCoding, course.TrackDesign)
	other, _ := testutil.CreateStudent(t, env, "Other", "other@test.cd")
	mentorUsr := testutil.CreateUser(t, env.UserRepo, "Grace", "grace@test.cd", testutil.Password, []string{user.RoleMentor}, true)
	token := getToken(t, env, hero)

	goCrs := testutil.CreateCourse(t, env, "Go for Beginners", course.TrackCoding, 4)
	figma := testutil.CreateCourse(t, env, "Figma Basics", course.TrackDesign, 10)
	testutil.CreateCourse(t, env, "Growth Hacking", course.TrackMarketing, 5)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/v1/student/enrollments", wantCode: http.StatusUnauthorized},
		{
			name: "student role required", path: "/v1/student/enrollments", token: getToken(t, env, mentorUsr),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "no enrollments", path: "/v1/student/enrollments", token: token, wantData: []byte(`[]`)},
		{
			name: "enroll: course required", method: http.MethodPost, path: "/v1/student/enrollments", token: token,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "enroll: unknown course", method: http.MethodPost, path: "/v1/student/enrollments", token: token,
			body:     marshalObj(t, EnrollRequest{CourseID: "c0ffee00-0000-0000-0000-000000000000"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"course_id": "course not found"}),
		},
	})

	var enr course.Enrollment
	t.Run("enroll", func(t *testing.T) {
		rec := do(app, http.MethodPost, "/v1/student/enrollments", token, marshalObj(t, EnrollRequest{CourseID: goCrs.ID}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &enr)
		assert.Equal(t, goCrs.ID, enr.CourseID)
		assert.Equal(t, 0, enr.Progress)
		assert.Equal(t, 0, enr.LessonsCompleted)
		if assert.NotNil(t, enr.Course) {
			assert.Equal(t, goCrs.Title, enr.Course.Title)
		}

		rec = do(app, http.MethodPost, "/v1/student/enrollments", token, marshalObj(t, EnrollRequest{CourseID: goCrs.ID}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"course_id": "already enrolled in this course"}`, rec.Body.String())
	})
	require.NotEmpty(t, enr.ID)

	t.Run("complete lessons", func(t *testing.T) {
		path := "/v1/student/enrollments/" + enr.ID + "/lessons"

		rec := do(app, http.MethodPost, path, token, []byte(`{"lessons": -1}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		// defaults to one lesson
		rec = do(app, http.MethodPost, path, token, []byte(`{}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshal(t, rec, &enr)
		assert.Equal(t, 1, enr.LessonsCompleted)
		assert.Equal(t, 25, enr.Progress)

		// clamped to the course length
		rec = do(app, http.MethodPost, path, token, []byte(`{"lessons": 10}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshal(t, rec, &enr)
		assert.Equal(t, 4, enr.LessonsCompleted)
		assert.Equal(t, 100, enr.Progress)
		assert.True(t, enr.Completed())

		// someone else's enrollment
		rec = do(app, http.MethodPost, path, getToken(t, env, other), []byte(`{"lessons": 1}`))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("badges", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/v1/student/badges", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var badges []achievement.StudentAchievement
		unmarshal(t, rec, &badges)

		kinds := make([]achievement.BadgeKind, 0, len(badges))
		for _, b := range badges {
			kinds = append(kinds, b.Badge)
			assert.Equal(t, b.Badge.Descriptor(), b.Display)
		}
		assert.ElementsMatch(t, []achievement.BadgeKind{achievement.FirstSteps, achievement.CourseFinisher}, kinds)
	})

	t.Run("dashboard", func(t *testing.T) {
		rec := do(app, http.MethodGet, "/v1/student/dashboard", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var view dashboard.StudentView
		unmarshal(t, rec, &view)
		assert.Equal(t, "Hero", view.DisplayName)
		assert.Equal(t, 100, view.AverageProgress)
		assert.Equal(t, 4, view.LessonsCompleted)
		assert.Equal(t, 1, view.CoursesCompleted)
		assert.Len(t, view.Enrollments, 1)
		assert.Len(t, view.Badges, 2)
		assert.Len(t, view.Tracks, 2)
		// enrolled courses and other tracks are not recommended
		if assert.Len(t, view.Recommended, 1) {
			assert.Equal(t, figma.ID, view.Recommended[0].ID)
		}
	})
}

func Test_studentApi_sessions(t *testing.T) {
	app, env := setup(t)
	hero, heroProf := testutil.CreateStudent(t, env, "Hero", "hero@test.cd")
	_, mentorProf := testutil.CreateMentor(t, env, "Grace", "grace@test.cd", mentor.StatusVerified)
	token := getToken(t, env, hero)

	sess, err := env.MentorSvc.CreateSession(context.Background(), mentorProf.ID, mentor.NewSession{
		Title:       "Career chat",
		SessionDate: "2099-01-15",
		StartTime:   "10:00",
		EndTime:     "11:00",
	})
	require.NoError(t, err)
	_, err = env.MentorSvc.CreateSession(context.Background(), mentorProf.ID, mentor.NewSession{
		Title:       "Old one",
		SessionDate: "2001-01-15",
		StartTime:   "10:00",
		EndTime:     "11:00",
	})
	require.NoError(t, err)

	rec := do(app, http.MethodGet, "/v1/student/sessions", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var open []mentor.Session
	unmarshal(t, rec, &open)
	if assert.Len(t, open, 1) {
		assert.Equal(t, sess.ID, open[0].ID)
	}

	rec = do(app, http.MethodPost, "/v1/student/sessions/"+sess.ID+"/book", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var booked mentor.Session
	unmarshal(t, rec, &booked)
	assert.Equal(t, mentor.SessionBooked, booked.Status)
	assert.Equal(t, heroProf.ID, booked.StudentID)

	rec = do(app, http.MethodPost, "/v1/student/sessions/"+sess.ID+"/book", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "session is not available"}`, rec.Body.String())

	rec = do(app, http.MethodGet, "/v1/student/sessions", token)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
