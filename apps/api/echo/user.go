package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/auth"
	"github.com/upskillhub/upskill/core/onboarding"
	"github.com/upskillhub/upskill/core/user"
)

var (
	errUsrNotFoundInCtx  = errors.New("user object not found in echo.Context")
	errNoPermsToSetRoles = "not enough rights to set these roles"

	passwordResetRequested = "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."
)

type userApi struct {
	svc           user.Service
	manager       *auth.Manager
	onboardingSvc onboarding.Service
	logger        core.Logger
	validate      *validator.Validate
	translator    ut.Translator
}

func newUserApi(deps ServerDeps) *userApi {
	return &userApi{
		svc:           deps.UserSvc,
		manager:       deps.AuthManager,
		onboardingSvc: deps.OnboardingSvc,
		logger:        deps.Logger,
		validate:      deps.Validate,
		translator:    deps.Translator,
	}
}

func registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := newUserApi(deps)

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/login`, `/password-reset` & `/password-reset-confirm`
	ag.POST("/signup", api.signup)
	ag.POST("/login", api.login)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	sg := ag.Group("", authed...)
	sg.GET("/me", withSession(api.me))
	sg.POST("/token-refresh", withSession(api.refreshToken))
	sg.POST("/logout", withSession(api.logout))
}

func registerUserAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := newUserApi(deps)

	ug := g.Group("/users", authed...)
	ug.POST("", withSession(api.create), adminMiddleware())
	ug.GET("", api.query, adminMiddleware())
	ug.DELETE("", withSession(api.destroyMultiple), adminMiddleware())
	ug.GET("/roles", api.queryRoles, adminMiddleware())

	// detail endpoints
	dg := ug.Group("/:id", ctxUserOrAdminMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", withSession(api.update))
	dg.DELETE("", withSession(api.destroy), adminMiddleware())
}

// Handlers

func (api *userApi) signup(ctx echo.Context) error {
	var data user.SignUp
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignUp")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.SignUp(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	_, token, err := api.manager.Issue(usr)
	if err != nil {
		return errors.Wrap(err, "issuing session")
	}
	redirect, err := api.redirectFor(reqCtx, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, LoginResponse{Token: token, User: usr, Redirect: redirect})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	sess, token, err := api.manager.SignIn(reqCtx, data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "signing in")
	}
	redirect, err := api.redirectFor(reqCtx, sess.User)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: sess.User, Redirect: redirect})
}

func (api *userApi) me(ctx echo.Context, sess auth.Session) error {
	redirect, err := api.redirectFor(ctx.Request().Context(), sess.User)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{User: sess.User, Redirect: redirect})
}

func (api *userApi) refreshToken(ctx echo.Context, sess auth.Session) error {
	_, token, err := api.manager.Refresh(ctx.Request().Context(), sess)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: sess.User})
}

func (api *userApi) logout(ctx echo.Context, sess auth.Session) error {
	if err := api.manager.SignOut(sess); err != nil {
		return errors.Wrap(err, "signing out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: passwordResetRequested})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) create(ctx echo.Context, sess auth.Session) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	// ctxUser cannot set a role > their own max role
	if user.MaxRolePriority(data.Roles) > user.MaxRolePriority(sess.User.Roles) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: errNoPermsToSetRoles})
	}

	usr, err := api.svc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, user.OrderingFields); err != nil {
		return err
	}

	users, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context, sess auth.Session) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	if !sess.IsAdmin() {
		// `IsActive`, `Roles` & `Email` can only be changed by admin
		if data.IsActive != nil || data.Roles != nil || data.Email != "" {
			return errHttpForbidden
		}
	}

	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, usr, api.validate, api.svc); err != nil {
		return err
	}

	// ctxUser cannot set a role > their own max role
	if user.MaxRolePriority(data.Roles) > user.MaxRolePriority(sess.User.Roles) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: errNoPermsToSetRoles})
	}

	usr, err := api.svc.Update(reqCtx, usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context, sess auth.Session) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// ctxUser cannot delete themselves
	if usr.ID == sess.User.ID {
		return errHttpForbidden
	}

	if _, err := api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) destroyMultiple(ctx echo.Context, sess auth.Session) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// ctxUser cannot delete themselves
	for _, id := range query.IDs {
		if id == sess.User.ID {
			return errHttpForbidden
		}
	}

	if _, err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

// redirectFor is the page the user should land on: their onboarding until it is completed, else their dashboard.
func (api *userApi) redirectFor(ctx context.Context, usr user.User) (string, error) {
	variant := userVariant(usr)
	if variant == "" {
		return "/", nil
	}
	done, err := api.onboardingSvc.Completed(ctx, usr.ID, variant)
	if err != nil {
		return "", errors.Wrap(err, "checking onboarding status")
	}
	if done {
		return onboarding.Dashboards[variant], nil
	}
	return user.OnboardingPaths[variant], nil
}

// userVariant is the onboarding variant of the user's highest role, if any.
func userVariant(usr user.User) string {
	switch {
	case usr.IsSchool():
		return onboarding.School
	case usr.IsMentor():
		return onboarding.Mentor
	case usr.IsStudent():
		return onboarding.Student
	}
	return ""
}

func ctxUserOrAdminMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return withSession(func(ctx echo.Context, sess auth.Session) error {
			if ctx.Param("id") == sess.User.ID || sess.IsAdmin() {
				if usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", usr)
					return next(ctx)
				} else if errors.Cause(err) != user.ErrNotFound {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		})
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token    string    `json:"token,omitempty"`
		User     user.User `json:"user"`
		Redirect string    `json:"redirect,omitempty"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
