package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core/course"
)

type courseApi struct {
	svc      course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{svc: deps.CourseSvc, validate: deps.Validate}

	cg := g.Group("/courses")

	// un-authed endpoints
	cg.GET("", api.query)
	cg.GET("/tracks", api.queryTracks)
	cg.GET("/:id", api.retrieve)

	// admin endpoints
	mw := append(append([]echo.MiddlewareFunc{}, authed...), adminMiddleware())
	cg.POST("", api.create, mw...)
	cg.PUT("/:id", api.update, mw...)
	cg.DELETE("/:id", api.destroy, mw...)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	courses, err := api.svc.ListCourses(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) queryTracks(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, course.Tracks)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	data.Clean()
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	crs, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	crs, err := api.svc.UpdateCourse(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteCourse(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}
