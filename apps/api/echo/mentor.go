package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/auth"
	"github.com/upskillhub/upskill/core/dashboard"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/onboarding"
	"github.com/upskillhub/upskill/core/user"
)

type mentorApi struct {
	svc          mentor.Service
	dashboardSvc dashboard.Service
	validate     *validator.Validate
}

func registerMentorAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := mentorApi{svc: deps.MentorSvc, dashboardSvc: deps.DashboardSvc, validate: deps.Validate}

	mw := append(append([]echo.MiddlewareFunc{}, authed...),
		roleMiddleware(user.RoleMentor),
		onboardingMiddleware(deps.OnboardingSvc, onboarding.Mentor),
	)
	mg := g.Group("/mentor", mw...)
	mg.GET("/dashboard", withSession(api.dashboard))
	mg.PUT("/availability", withSession(api.setAvailability))
	mg.GET("/sessions", withSession(api.querySessions))
	mg.POST("/sessions", withSession(api.createSession))
	mg.PUT("/sessions/:id/status", withSession(api.updateSessionStatus))
	mg.DELETE("/sessions/:id", withSession(api.destroySession))
}

func (api *mentorApi) profile(ctx echo.Context, sess auth.Session) (mentor.Profile, error) {
	prof, err := api.svc.GetByUserID(ctx.Request().Context(), sess.User.ID)
	if err != nil {
		return mentor.Profile{}, errors.Wrap(err, "finding mentor profile")
	}
	return prof, nil
}

// Handlers

func (api *mentorApi) dashboard(ctx echo.Context, sess auth.Session) error {
	view, err := api.dashboardSvc.Mentor(ctx.Request().Context(), sess.User)
	if err != nil {
		return errors.Wrap(err, "building mentor dashboard")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *mentorApi) setAvailability(ctx echo.Context, sess auth.Session) error {
	var data AvailabilityRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AvailabilityRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	prof, err := api.svc.SetAvailability(ctx.Request().Context(), sess.User.ID, *data.IsAvailable)
	if err != nil {
		return errors.Wrap(err, "setting availability")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *mentorApi) querySessions(ctx echo.Context, sess auth.Session) error {
	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	sessions, err := api.svc.ListSessions(ctx.Request().Context(), prof.ID)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *mentorApi) createSession(ctx echo.Context, sess auth.Session) error {
	var data mentor.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	data.Clean()
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	created, err := api.svc.CreateSession(ctx.Request().Context(), prof.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, created)
}

func (api *mentorApi) updateSessionStatus(ctx echo.Context, sess auth.Session) error {
	var data SessionStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SessionStatusRequest")
	}
	data.Status = core.CleanString(data.Status, true /* lower */)

	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	updated, err := api.svc.UpdateSessionStatus(ctx.Request().Context(), prof.ID, ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "updating session status")
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (api *mentorApi) destroySession(ctx echo.Context, sess auth.Session) error {
	prof, err := api.profile(ctx, sess)
	if err != nil {
		return err
	}
	remaining, err := api.svc.DeleteSession(ctx.Request().Context(), prof.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return ctx.JSON(http.StatusOK, remaining)
}

type (
	AvailabilityRequest struct {
		IsAvailable *bool `json:"is_available" validate:"required"`
	}

	SessionStatusRequest struct {
		Status string `json:"status"`
	}
)
