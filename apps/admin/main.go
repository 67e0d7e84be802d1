package main

import (
	"fmt"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/achievement"
	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/mentor"
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
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf).Named("ADMIN"), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	tx := database.NewTransactor(db)
	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	courseRepo := sqlxrepos.NewCourseRepository(db)
	achievementSvc := achievement.NewService(sqlxrepos.NewAchievementRepository(db), courseRepo, logger)
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db))

	// start CLI
	cli := commandLine{
		db:         db.DB,
		out:        os.Stdout,
		validate:   newValidator(),
		usrRepo:    usrRepo,
		courseSvc:  course.NewService(courseRepo, tx, achievementSvc, logger),
		studentSvc: studentSvc,
		mentorSvc:  mentor.NewService(sqlxrepos.NewMentorRepository(db), tx, usrSvc, mailSvc),
		schoolSvc:  school.NewService(sqlxrepos.NewSchoolRepository(db), tx, usrSvc, studentSvc),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	_ = logger.Sync()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func newValidator() *validator.Validate {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	return validate
}
