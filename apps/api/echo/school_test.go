package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/dashboard"
	"github.com/upskillhub/upskill/core/school"
	"github.com/upskillhub/upskill/core/user"
	"github.com/upskillhub/upskill/tests"
)

func Test_schoolApi(t *testing.T) {
	app, env := setup(t)
	schoolUsr, _ := testutil.CreateSchool(t, env, "Lycée Wima", "wima@test.cd")
	hero, heroProf := testutil.CreateStudent(t, env, "Hero", "hero@test.cd", course.TrackCoding)
	testutil.CreateStudent(t, env, "Other", "other@test.cd")
	testutil.CreateUser(t, env.UserRepo, "Grace", "grace@test.cd", testutil.Password, []string{user.RoleMentor}, true)
	token := getToken(t, env, schoolUsr)

	notFound := map[string]string{"email": "Student not found"}

	runHTTPTests(t, app, []httpTest{
		{name: "school role required", path: "/v1/school/students", token: getToken(t, env, hero), wantCode: http.StatusForbidden},
		{name: "empty roster", path: "/v1/school/students", token: token, wantData: []byte(`[]`)},
		{
			name: "invalid email", method: http.MethodPost, path: "/v1/school/students", token: token,
			body: marshalObj(t, school.AddStudent{Email: "nope"}), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/school/students", token: token,
			body:     marshalObj(t, school.AddStudent{Email: "nobody@test.cd"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, notFound),
		},
		{
			name: "not a student", method: http.MethodPost, path: "/v1/school/students", token: token,
			body:     marshalObj(t, school.AddStudent{Email: "grace@test.cd"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, notFound),
		},
		{
			name: "remove a non member", method: http.MethodDelete, path: "/v1/school/students/" + heroProf.ID, token: token,
			wantCode: http.StatusNotFound,
		},
	})

	t.Run("add", func(t *testing.T) {
		rec := do(app, http.MethodPost, "/v1/school/students", token, marshalObj(t, school.AddStudent{Email: " HERO@test.cd "}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var roster []school.Member
		unmarshal(t, rec, &roster)
		if assert.Len(t, roster, 1) {
			assert.Equal(t, heroProf.ID, roster[0].StudentID)
			assert.Equal(t, hero.ID, roster[0].UserID)
			assert.Equal(t, "Hero", roster[0].FullName)
			assert.Equal(t, "hero@test.cd", roster[0].Email)
		}

		rec = do(app, http.MethodPost, "/v1/school/students", token, marshalObj(t, school.AddStudent{Email: "hero@test.cd"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"email": "Student is already on the roster"}`, rec.Body.String())

		rec = do(app, http.MethodPost, "/v1/school/students", token, marshalObj(t, school.AddStudent{Email: "other@test.cd"}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &roster)
		assert.Len(t, roster, 2)
	})

	t.Run("dashboard", func(t *testing.T) {
		crs := testutil.CreateCourse(t, env, "Go for Beginners", course.TrackCoding, 2)
		enr, err := env.CourseSvc.Enroll(context.Background(), heroProf.ID, crs.ID)
		require.NoError(t, err)
		_, err = env.CourseSvc.CompleteLessons(context.Background(), heroProf.ID, enr.ID, 1)
		require.NoError(t, err)

		rec := do(app, http.MethodGet, "/v1/school/dashboard", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var view dashboard.SchoolView
		unmarshal(t, rec, &view)
		assert.Equal(t, "Lycée Wima", view.SchoolName)
		assert.Equal(t, 2, view.RosterSize)
		assert.Equal(t, 50, view.AverageProgress)
		if assert.Len(t, view.TrackStats, 1) {
			assert.Equal(t, course.TrackCoding, view.TrackStats[0].Track.Value)
			assert.Equal(t, 1, view.TrackStats[0].Students)
			assert.Equal(t, 0, view.TrackStats[0].Completion)
		}
		if assert.NotEmpty(t, view.TopPerformers) {
			assert.Equal(t, "Hero", view.TopPerformers[0].Name)
			assert.Equal(t, 1, view.TopPerformers[0].Rank)
		}
		assert.NotEmpty(t, view.RecentActivity)
	})

	t.Run("remove", func(t *testing.T) {
		rec := do(app, http.MethodDelete, "/v1/school/students/"+heroProf.ID, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var roster []school.Member
		unmarshal(t, rec, &roster)
		if assert.Len(t, roster, 1) {
			assert.Equal(t, "other@test.cd", roster[0].Email)
		}
	})
}
