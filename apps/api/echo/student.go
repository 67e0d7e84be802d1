package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/achievement"
	"github.com/upskillhub/upskill/core/auth"
	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/dashboard"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/onboarding"
	"github.com/upskillhub/upskill/core/student"
	"github.com/upskillhub/upskill/core/user"
)

type studentApi struct {
	svc            student.Service
	courseSvc      course.Service
	achievementSvc achievement.Service
	mentorSvc      mentor.Service
	dashboardSvc   dashboard.Service
	validate       *validator.Validate
}

func registerStudentAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:            deps.StudentSvc,
		courseSvc:      deps.CourseSvc,
		achievementSvc: deps.AchievementSvc,
		mentorSvc:      deps.MentorSvc,
		dashboardSvc:   deps.DashboardSvc,
		validate:       deps.Validate,
	}

	mw := append(append([]echo.MiddlewareFunc{}, authed...),
		roleMiddleware(user.RoleStudent),
		onboardingMiddleware(deps.OnboardingSvc, onboarding.Student),
	)
	sg := g.Group("/student", mw...)
	sg.GET("/dashboard", withSession(api.dashboard))
	sg.GET("/badges", withSession(api.queryBadges))
	sg.GET("/enrollments", withSession(api.queryEnrollments))
	sg.POST("/enrollments", withSession(api.enroll))
	sg.POST("/enrollments/:id/lessons", withSession(api.completeLessons))
	sg.GET("/sessions", api.queryOpenSessions)
	sg.POST("/sessions/:id/book", withSession(api.bookSession))
}

// profile is the student profile of the session's user.
func (api *studentApi) profile(ctx echo.Context, sess auth.Session) (student.Profile, error) {
	prof, err := api.svc.GetByUserID(ctx.Request().Context(), sess.User.ID)
	if err != nil {
		return student.Profile{}, errors.Wrap(err, "finding student profile")
	}
	return prof, nil
}

// Handlers

func (api *studentApi) dashboard(ctx echo.Context, sess auth.Session) error {
	view, err := api.dashboardSvc.Student(ctx.Request().Context(), sess.User)
	if err != nil {
		return errors.Wrap(err, "building student dashboard")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *studentApi) queryBadges(ctx echo.Context, sess auth.Session) error {
	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	badges, err := api.achievementSvc.ForStudent(ctx.Request().Context(), prof.ID)
	if err != nil {
		return errors.Wrap(err, "querying badges")
	}
	return ctx.JSON(http.StatusOK, badges)
}

func (api *studentApi) queryEnrollments(ctx echo.Context, sess auth.Session) error {
	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	enrollments, err := api.courseSvc.StudentEnrollments(ctx.Request().Context(), prof.ID)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *studentApi) enroll(ctx echo.Context, sess auth.Session) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	data.CourseID = core.CleanString(data.CourseID)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	enr, err := api.courseSvc.Enroll(ctx.Request().Context(), prof.ID, data.CourseID)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *studentApi) completeLessons(ctx echo.Context, sess auth.Session) error {
	var data CompleteLessonsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteLessonsRequest")
	}
	if data.Lessons == 0 {
		data.Lessons = 1
	}

	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	enr, err := api.courseSvc.CompleteLessons(ctx.Request().Context(), prof.ID, ctx.Param("id"), data.Lessons)
	if err != nil {
		return errors.Wrap(err, "completing lessons")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *studentApi) queryOpenSessions(ctx echo.Context) error {
	sessions, err := api.mentorSvc.ListOpenSessions(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying open sessions")
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *studentApi) bookSession(ctx echo.Context, sess auth.Session) error {
	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	booked, err := api.mentorSvc.BookSession(ctx.Request().Context(), ctx.Param("id"), prof.ID)
	if err != nil {
		return errors.Wrap(err, "booking session")
	}
	return ctx.JSON(http.StatusOK, booked)
}

type (
	EnrollRequest struct {
		CourseID string `json:"course_id" validate:"required"`
	}

	CompleteLessonsRequest struct {
		Lessons int `json:"lessons"`
	}
)
