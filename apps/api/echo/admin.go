package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/achievement"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/student"
)

type adminApi struct {
	mentorSvc      mentor.Service
	studentSvc     student.Service
	achievementSvc achievement.Service
}

func registerAdminAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{mentorSvc: deps.MentorSvc, studentSvc: deps.StudentSvc, achievementSvc: deps.AchievementSvc}

	mw := append(append([]echo.MiddlewareFunc{}, authed...), adminMiddleware())
	ag := g.Group("/admin", mw...)
	ag.GET("/mentors", api.queryMentors)
	ag.PUT("/mentors/:id/verification", api.setVerification)
	ag.GET("/badges", api.queryBadges)
	ag.POST("/students/:id/badges", api.awardBadge)
}

// Handlers

func (api *adminApi) queryMentors(ctx echo.Context) error {
	status := core.CleanString(ctx.QueryParam("status"), true /* lower */)
	mentors, err := api.mentorSvc.Query(ctx.Request().Context(), status)
	if err != nil {
		return errors.Wrap(err, "querying mentors")
	}
	return ctx.JSON(http.StatusOK, mentors)
}

func (api *adminApi) setVerification(ctx echo.Context) error {
	var data VerificationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerificationRequest")
	}
	status := core.CleanString(data.Status, true /* lower */)

	prof, err := api.mentorSvc.SetVerification(ctx.Request().Context(), ctx.Param("id"), status)
	if err != nil {
		return errors.Wrap(err, "setting verification")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *adminApi) queryBadges(ctx echo.Context) error {
	kinds := achievement.AllBadgeKinds()
	badges := make([]BadgeResponse, 0, len(kinds))
	for _, k := range kinds {
		badges = append(badges, BadgeResponse{Badge: k, Descriptor: k.Descriptor()})
	}
	return ctx.JSON(http.StatusOK, badges)
}

func (api *adminApi) awardBadge(ctx echo.Context) error {
	var data AwardRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AwardRequest")
	}
	kind, err := achievement.ParseBadgeKind(core.CleanString(data.Badge, true /* lower */))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "badge", Error: achievement.ErrUnknownBadge.Error()})
	}

	reqCtx := ctx.Request().Context()
	prof, err := api.studentSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student profile")
	}
	badges, err := api.achievementSvc.Award(reqCtx, prof.ID, kind)
	if err != nil {
		return errors.Wrap(err, "awarding badge")
	}
	return ctx.JSON(http.StatusOK, badges)
}

type (
	VerificationRequest struct {
		Status string `json:"status"`
	}

	AwardRequest struct {
		Badge string `json:"badge"`
	}

	BadgeResponse struct {
		Badge achievement.BadgeKind `json:"badge"`
		achievement.Descriptor
	}
)
