package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/upskillhub/upskill/apps/api/echo"
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
	appfs "github.com/upskillhub/upskill/fs"
	emailsvc "github.com/upskillhub/upskill/services/email"
	logsvc "github.com/upskillhub/upskill/services/logger"
	"github.com/upskillhub/upskill/storage/database"
	sqlxrepos "github.com/upskillhub/upskill/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zl := logsvc.NewZapLogger(conf)
	logger := logsvc.NewRollbarLogger(zl.Named("API"), conf)
	logger.Enable(!conf.Debug)
	defer func() { _ = logger.Sync() }()

	dbLogger := logsvc.NewRollbarLogger(zl.Named("DB"), conf)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := newValidator()

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)

	user.LoadCommonPasswords(appfs.FS, appfs.CommonPasswords, logger)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	tx := database.NewTransactor(db)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)
	courseRepo := sqlxrepos.NewCourseRepository(db)
	achievementSvc := achievement.NewService(sqlxrepos.NewAchievementRepository(db), courseRepo, logger)
	courseSvc := course.NewService(courseRepo, tx, achievementSvc, logger)
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db))
	mentorSvc := mentor.NewService(sqlxrepos.NewMentorRepository(db), tx, usrSvc, mailSvc)
	schoolSvc := school.NewService(sqlxrepos.NewSchoolRepository(db), tx, usrSvc, studentSvc)

	store := onboarding.NewStore(conf.Onboarding.StateTTL)
	onboardingSvc := onboarding.NewService(store, validate, translator, studentSvc, mentorSvc, schoolSvc)
	dashboardSvc := dashboard.NewService(courseSvc, achievementSvc, studentSvc, mentorSvc, schoolSvc, logger)

	authManager := auth.NewManager(conf, usrSvc, logger)
	if err = authManager.Init(); err != nil {
		logger.Fatal(fmt.Sprintf("starting session manager: %v", err), err)
	}
	defer func() {
		if err = authManager.Close(); err != nil {
			logger.Error(fmt.Sprintf("stopping session manager: %v", err), err)
		}
	}()

	stopPurge := purgeOnboarding(store, conf.Server.SessionSweepInterval, logger)
	defer stopPurge()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			AuthManager:    authManager,
			UserSvc:        usrSvc,
			CourseSvc:      courseSvc,
			AchievementSvc: achievementSvc,
			StudentSvc:     studentSvc,
			MentorSvc:      mentorSvc,
			SchoolSvc:      schoolSvc,
			OnboardingSvc:  onboardingSvc,
			DashboardSvc:   dashboardSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(context.Background(), db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	mentor.InitValidators(validate, translator)
	return validate, translator
}

// purgeOnboarding drops abandoned onboarding states every `interval` until the returned func is called.
func purgeOnboarding(store *onboarding.Store, interval time.Duration, logger core.Logger) (stop func()) {
	if interval <= 0 {
		return func() {}
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if n := store.Purge(); n > 0 {
					logger.Debug(fmt.Sprintf("purged %d onboarding states", n))
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
