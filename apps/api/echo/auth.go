package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core/auth"
	"github.com/upskillhub/upskill/core/onboarding"
	"github.com/upskillhub/upskill/core/user"
)

const (
	contextTokenKey   = "userToken"
	contextSessionKey = "session"
)

// sessionHandler is a handler that needs the authenticated Session.
type sessionHandler func(ctx echo.Context, sess auth.Session) error

func newJWTConfig(manager *auth.Manager) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    manager.SigningKey(),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(auth.Claims),
	}
}

func getContextClaims(ctx echo.Context) (*auth.Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*auth.Claims); ok {
			return claims, nil
		}
	}
	return nil, errUnauthorized
}

// sessionMiddleware turns the verified JWT into an auth.Session.
func sessionMiddleware(manager *auth.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			sess, err := manager.Resolve(ctx.Request().Context(), claims)
			if err != nil {
				return errors.Wrap(err, "resolving session")
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

// withSession hands the request Session to `h`.
func withSession(h sessionHandler) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sess, ok := ctx.Get(contextSessionKey).(auth.Session)
		if !ok {
			return errUnauthorized
		}
		return h(ctx, sess)
	}
}

// roleMiddleware only lets through sessions having any of `roles`. Admins always pass.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return withSession(func(ctx echo.Context, sess auth.Session) error {
			if sess.IsAdmin() {
				return next(ctx)
			}
			for _, role := range roles {
				if sess.HasRole(role) {
					return next(ctx)
				}
			}
			return errHttpForbidden
		})
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return withSession(func(ctx echo.Context, sess auth.Session) error {
			if sess.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		})
	}
}

// onboardingMiddleware keeps users out of their dashboard until they completed the onboarding of `variant`.
func onboardingMiddleware(svc onboarding.Service, variant string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return withSession(func(ctx echo.Context, sess auth.Session) error {
			done, err := svc.Completed(ctx.Request().Context(), sess.User.ID, variant)
			if err != nil {
				return errors.Wrap(err, "checking onboarding status")
			}
			if !done {
				return ctx.JSON(http.StatusForbidden, OnboardingRequiredResponse{
					Error:    "onboarding not completed",
					Redirect: user.OnboardingPaths[variant],
				})
			}
			return next(ctx)
		})
	}
}

type OnboardingRequiredResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}
