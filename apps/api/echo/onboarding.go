package echoapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/auth"
	"github.com/upskillhub/upskill/core/onboarding"
)

var errInvalidBody = echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")

type onboardingApi struct {
	svc onboarding.Service
}

func registerOnboardingAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := onboardingApi{svc: deps.OnboardingSvc}

	vg := g.Group("/onboarding/:variant", authed...)
	vg.GET("", withSession(api.state))
	vg.POST("/next", withSession(api.next))
	vg.POST("/back", withSession(api.back))
	vg.POST("/complete", withSession(api.complete))
	// mentor only
	vg.POST("/qualifications", withSession(api.addQualification))
	vg.DELETE("/qualifications/:index", withSession(api.removeQualification))
}

// variant returns the wizard variant of the request, which must match one of the user's roles.
func (api *onboardingApi) variant(ctx echo.Context, sess auth.Session) (string, error) {
	variant := ctx.Param("variant")
	if _, ok := onboarding.Dashboards[variant]; !ok {
		return "", onboarding.ErrUnknownVariant
	}
	if !sess.User.HasRole(variant) {
		return "", errHttpForbidden
	}
	return variant, nil
}

// Handlers

func (api *onboardingApi) state(ctx echo.Context, sess auth.Session) error {
	variant, err := api.variant(ctx, sess)
	if err != nil {
		return err
	}
	st, err := api.svc.State(ctx.Request().Context(), sess.User.ID, variant)
	if err != nil {
		return errors.Wrap(err, "loading onboarding state")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *onboardingApi) next(ctx echo.Context, sess auth.Session) error {
	variant, err := api.variant(ctx, sess)
	if err != nil {
		return err
	}
	input, err := bindFields(ctx)
	if err != nil {
		return err
	}
	st, ok, err := api.svc.Next(ctx.Request().Context(), sess.User.ID, variant, input)
	if err != nil {
		return errors.Wrap(err, "advancing onboarding")
	}
	return ctx.JSON(stepCode(ok), st)
}

func (api *onboardingApi) back(ctx echo.Context, sess auth.Session) error {
	variant, err := api.variant(ctx, sess)
	if err != nil {
		return err
	}
	st, err := api.svc.Back(ctx.Request().Context(), sess.User.ID, variant)
	if err != nil {
		return errors.Wrap(err, "going back")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *onboardingApi) complete(ctx echo.Context, sess auth.Session) error {
	variant, err := api.variant(ctx, sess)
	if err != nil {
		return err
	}
	res, st, err := api.svc.Complete(ctx.Request().Context(), sess.User.ID, variant)
	if err != nil {
		// the wizard moved back to the failing step
		if core.IsValidationError(err) && len(st.Errors) > 0 {
			return ctx.JSON(http.StatusBadRequest, st)
		}
		return errors.Wrap(err, "completing onboarding")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *onboardingApi) mentorOnly(ctx echo.Context, sess auth.Session) error {
	variant, err := api.variant(ctx, sess)
	if err != nil {
		return err
	}
	if variant != onboarding.Mentor {
		return errHttpNotFound
	}
	return nil
}

func (api *onboardingApi) addQualification(ctx echo.Context, sess auth.Session) error {
	if err := api.mentorOnly(ctx, sess); err != nil {
		return err
	}
	input, err := bindFields(ctx)
	if err != nil {
		return err
	}
	st, ok, err := api.svc.AddQualification(ctx.Request().Context(), sess.User.ID, input)
	if err != nil {
		return errors.Wrap(err, "adding qualification")
	}
	return ctx.JSON(stepCode(ok), st)
}

func (api *onboardingApi) removeQualification(ctx echo.Context, sess auth.Session) error {
	if err := api.mentorOnly(ctx, sess); err != nil {
		return err
	}
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return onboarding.ErrQualificationNotFound
	}
	st, err := api.svc.RemoveQualification(ctx.Request().Context(), sess.User.ID, index)
	if err != nil {
		return errors.Wrap(err, "removing qualification")
	}
	return ctx.JSON(http.StatusOK, st)
}

// bindFields decodes the JSON body into wizard fields.
func bindFields(ctx echo.Context) (onboarding.Fields, error) {
	fields := onboarding.Fields{}
	if ctx.Request().ContentLength == 0 {
		return fields, nil
	}
	if err := json.NewDecoder(ctx.Request().Body).Decode(&fields); err != nil {
		return nil, errInvalidBody
	}
	return fields, nil
}

// stepCode is the status of a step: 400 when it was blocked by validation errors.
func stepCode(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusBadRequest
}
