package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/auth"
	"github.com/upskillhub/upskill/core/dashboard"
	"github.com/upskillhub/upskill/core/onboarding"
	"github.com/upskillhub/upskill/core/school"
	"github.com/upskillhub/upskill/core/user"
)

type schoolApi struct {
	svc          school.Service
	dashboardSvc dashboard.Service
	validate     *validator.Validate
}

func registerSchoolAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := schoolApi{svc: deps.SchoolSvc, dashboardSvc: deps.DashboardSvc, validate: deps.Validate}

	mw := append(append([]echo.MiddlewareFunc{}, authed...),
		roleMiddleware(user.RoleSchool),
		onboardingMiddleware(deps.OnboardingSvc, onboarding.School),
	)
	sg := g.Group("/school", mw...)
	sg.GET("/dashboard", withSession(api.dashboard))
	sg.GET("/students", withSession(api.queryRoster))
	sg.POST("/students", withSession(api.addStudent))
	sg.DELETE("/students/:id", withSession(api.removeStudent))
}

func (api *schoolApi) profile(ctx echo.Context, sess auth.Session) (school.Profile, error) {
	prof, err := api.svc.GetByUserID(ctx.Request().Context(), sess.User.ID)
	if err != nil {
		return school.Profile{}, errors.Wrap(err, "finding school profile")
	}
	return prof, nil
}

// Handlers

func (api *schoolApi) dashboard(ctx echo.Context, sess auth.Session) error {
	view, err := api.dashboardSvc.School(ctx.Request().Context(), sess.User)
	if err != nil {
		return errors.Wrap(err, "building school dashboard")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *schoolApi) queryRoster(ctx echo.Context, sess auth.Session) error {
	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	roster, err := api.svc.Roster(ctx.Request().Context(), prof.ID)
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}
	return ctx.JSON(http.StatusOK, roster)
}

func (api *schoolApi) addStudent(ctx echo.Context, sess auth.Session) error {
	var data school.AddStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddStudent")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	roster, err := api.svc.AddStudentByEmail(ctx.Request().Context(), prof.ID, data.Email)
	if err != nil {
		return errors.Wrap(err, "adding student")
	}
	return ctx.JSON(http.StatusCreated, roster)
}

func (api *schoolApi) removeStudent(ctx echo.Context, sess auth.Session) error {
	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	roster, err := api.svc.RemoveStudent(ctx.Request().Context(), prof.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "removing student")
	}
	return ctx.JSON(http.StatusOK, roster)
}
