package testutil

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

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
	"github.com/upskillhub/upskill/fs"
	"github.com/upskillhub/upskill/services/email"
	"github.com/upskillhub/upskill/services/logger"
	"github.com/upskillhub/upskill/storage/database/dummy"
)

const Password = "Sup3r-s3cret!pass"

// NewConfig returns the configuration used by tests. It does not read the environment.
func NewConfig() *core.Config {
	conf := &core.Config{
		TestMode:                  true,
		Env:                       core.EnvTest,
		Build:                     "test",
		AppName:                   "Upskill",
		SecretKey:                 "test-only-secret-key",
		FrontendBaseURL:           "http://localhost:8080",
		PasswordResetTimeoutDelta: time.Hour,
	}
	conf.DefaultFromEmail = mail.Address{Name: conf.AppName, Address: "noreply@test.local"}
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = 24 * time.Hour
	conf.Server.SessionSweepInterval = time.Minute
	conf.Onboarding.StateTTL = time.Hour
	return conf
}

func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// NewValidator returns a validator with every custom tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	mentor.InitValidators(validate, translator)
	return validate, translator
}

// Env wires every service over the in-memory repositories.
type Env struct {
	Conf       *core.Config
	DB         *dummydb.DB
	Validate   *validator.Validate
	Translator ut.Translator
	MailSvc    core.EmailService

	UserRepo        user.Repository
	CourseRepo      course.Repository
	AchievementRepo achievement.Repository
	StudentRepo     student.Repository
	MentorRepo      mentor.Repository
	SchoolRepo      school.Repository

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

func NewEnv(t *testing.T) *Env {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	env := &Env{Conf: NewConfig(), DB: db}
	env.Validate, env.Translator = NewValidator()
	log := logsvc.NopLogger{}
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, env.Conf, log)
	user.LoadCommonPasswords(appfs.FS, appfs.CommonPasswords, log)
	env.MailSvc = emailsvc.NewConsoleServiceMock(env.Conf, log)
	emailsvc.ResetSent()

	env.UserRepo = dummydb.NewUserRepository(db)
	env.CourseRepo = dummydb.NewCourseRepository(db)
	env.AchievementRepo = dummydb.NewAchievementRepository(db)
	env.StudentRepo = dummydb.NewStudentRepository(db)
	env.MentorRepo = dummydb.NewMentorRepository(db)
	env.SchoolRepo = dummydb.NewSchoolRepository(db)

	env.UserSvc = user.NewService(env.UserRepo, env.MailSvc, env.Conf)
	env.AchievementSvc = achievement.NewService(env.AchievementRepo, env.CourseRepo, log)
	env.CourseSvc = course.NewService(env.CourseRepo, db, env.AchievementSvc, log)
	env.StudentSvc = student.NewService(env.StudentRepo)
	env.MentorSvc = mentor.NewService(env.MentorRepo, db, env.UserSvc, env.MailSvc)
	env.SchoolSvc = school.NewService(env.SchoolRepo, db, env.UserSvc, env.StudentSvc)
	env.OnboardingSvc = onboarding.NewService(
		onboarding.NewStore(env.Conf.Onboarding.StateTTL),
		env.Validate,
		env.Translator,
		env.StudentSvc,
		env.MentorSvc,
		env.SchoolSvc,
	)
	env.DashboardSvc = dashboard.NewService(env.CourseSvc, env.AchievementSvc, env.StudentSvc, env.MentorSvc, env.SchoolSvc, log)

	env.AuthManager = auth.NewManager(env.Conf, env.UserSvc, log)
	if err = env.AuthManager.Init(); err != nil {
		t.Fatalf("AuthManager.Init() failed: %v", err)
	}
	t.Cleanup(func() { _ = env.AuthManager.Close() })
	return env
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FullName:  name,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateStudent creates a student account with an onboarded profile.
func CreateStudent(t *testing.T, env *Env, name, email string, tracks ...string) (user.User, student.Profile) {
	t.Helper()

	usr := CreateUser(t, env.UserRepo, name, email, Password, []string{user.RoleStudent}, true)
	now := time.Now().UTC()
	prof, err := env.StudentRepo.UpsertProfile(context.Background(), student.Profile{
		UserID:              usr.ID,
		SchoolName:          "Hillside High",
		GradeLevel:          "Grade 10",
		SkillTracks:         tracks,
		Interests:           []string{},
		OnboardingCompleted: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return usr, prof
}

// CreateMentor creates a mentor account with an onboarded profile in the given verification status.
func CreateMentor(t *testing.T, env *Env, name, email, status string) (user.User, mentor.Profile) {
	t.Helper()

	usr := CreateUser(t, env.UserRepo, name, email, Password, []string{user.RoleMentor}, true)
	now := time.Now().UTC()
	prof, err := env.MentorRepo.UpsertProfile(context.Background(), mentor.Profile{
		UserID:              usr.ID,
		Phone:               "0812345678",
		Bio:                 "Senior engineer who has been mentoring junior developers for years.",
		ExpertiseAreas:      []string{"Web Development"},
		YearsOfExperience:   8,
		HourlyRate:          40,
		IsAvailable:         true,
		VerificationStatus:  status,
		OnboardingCompleted: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err != nil {
		t.Fatalf("createMentor() failed: %v", err)
	}
	return usr, prof
}

// CreateSchool creates a school account with an onboarded profile.
func CreateSchool(t *testing.T, env *Env, name, email string) (user.User, school.Profile) {
	t.Helper()

	usr := CreateUser(t, env.UserRepo, name, email, Password, []string{user.RoleSchool}, true)
	now := time.Now().UTC()
	prof, err := env.SchoolRepo.UpsertProfile(context.Background(), school.Profile{
		UserID:              usr.ID,
		SchoolName:          name,
		OnboardingCompleted: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err != nil {
		t.Fatalf("createSchool() failed: %v", err)
	}
	return usr, prof
}

func CreateCourse(t *testing.T, env *Env, title, track string, lessons int) course.Course {
	t.Helper()

	crs, err := env.CourseSvc.CreateCourse(context.Background(), course.NewCourse{
		Title:        title,
		SkillTrack:   track,
		TotalLessons: lessons,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}
