package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/achievement"
	"github.com/upskillhub/upskill/core/auth"
	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/onboarding"
	"github.com/upskillhub/upskill/core/school"
	"github.com/upskillhub/upskill/core/student"
	"github.com/upskillhub/upskill/core/user"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")

	// status codes of the domain errors
	errorCodes = map[error]int{
		auth.ErrInvalidCredentials: http.StatusBadRequest,
		auth.ErrAccountDeactivated: http.StatusForbidden,
		auth.ErrRefreshExpired:     http.StatusForbidden,
		auth.ErrSessionRevoked:     http.StatusUnauthorized,
		auth.ErrManagerClosed:      http.StatusServiceUnavailable,

		user.ErrNotFound:                    http.StatusNotFound,
		course.ErrNotFound:                  http.StatusNotFound,
		course.ErrEnrollmentNotFound:        http.StatusNotFound,
		student.ErrNotFound:                 http.StatusNotFound,
		mentor.ErrNotFound:                  http.StatusNotFound,
		mentor.ErrSessionNotFound:           http.StatusNotFound,
		school.ErrNotFound:                  http.StatusNotFound,
		school.ErrMemberNotFound:            http.StatusNotFound,
		onboarding.ErrUnknownVariant:        http.StatusNotFound,
		onboarding.ErrQualificationNotFound: http.StatusNotFound,

		course.ErrAlreadyEnrolled:     http.StatusConflict,
		achievement.ErrAlreadyAwarded: http.StatusConflict,
		core.ErrOnboardingCompleted:   http.StatusConflict,

		mentor.ErrNotVerified:       http.StatusForbidden,
		achievement.ErrUnknownBadge: http.StatusBadRequest,
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs, _ := core.FieldErrors(origErr, translator, nil)
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if len(origErr.Fields) > 0 {
				message = origErr.FieldMap()
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *onboarding.PersistError:
			code = http.StatusServiceUnavailable
			message = onboarding.ErrPersist.Error()
			logger.Error("persisting onboarding", errors.Wrap(err, "completing onboarding"), sessionUser(ctx))
		default:
			if c, ok := errorCode(origErr); ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), sessionUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func errorCode(err error) (int, bool) {
	for e, code := range errorCodes {
		if err == e {
			return code, true
		}
	}
	return 0, false
}

// sessionUser is the user of the request, if authenticated, for error reports.
func sessionUser(ctx echo.Context) user.User {
	if sess, ok := ctx.Get(contextSessionKey).(auth.Session); ok {
		return sess.User
	}
	var usr user.User
	if claims, err := getContextClaims(ctx); err == nil {
		usr.ID = claims.Subject
		usr.Email = claims.Email
	}
	return usr
}
