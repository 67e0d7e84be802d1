package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/achievement"
	"github.com/upskillhub/upskill/core/auth"
	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/dashboard"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/onboarding"
	"github.com/upskillhub/upskill/core/school"
	"github.com/upskillhub/upskill/core/student"
	"github.com/upskillhub/upskill/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		AuthManager    *auth.Manager
		UserSvc        user.Service
		CourseSvc      course.Service
		AchievementSvc achievement.Service
		StudentSvc     student.Service
		MentorSvc      mentor.Service
		SchoolSvc      school.Service
		OnboardingSvc  onboarding.Service
		DashboardSvc   dashboard.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil) // interface compliance check

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	authed := []echo.MiddlewareFunc{
		middleware.JWTWithConfig(newJWTConfig(s.deps.AuthManager)),
		sessionMiddleware(s.deps.AuthManager),
	}

	registerAuthAPI(v1, authed, s.deps)
	registerUserAPI(v1, authed, s.deps)
	registerOnboardingAPI(v1, authed, s.deps)
	registerCourseAPI(v1, authed, s.deps)
	registerStudentAPI(v1, authed, s.deps)
	registerMentorAPI(v1, authed, s.deps)
	registerSchoolAPI(v1, authed, s.deps)
	registerAdminAPI(v1, authed, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown asks main to stop the server gracefully.
func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Upskill API!")
}
