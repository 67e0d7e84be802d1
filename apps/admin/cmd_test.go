package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/user"
	"github.com/upskillhub/upskill/services/email"
	"github.com/upskillhub/upskill/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer, *testutil.Env) {
	env := testutil.NewEnv(t)
	out := new(bytes.Buffer)
	validate, _ := testutil.NewValidator()

	// start CLI
	return &commandLine{
		out:        out,
		validate:   validate,
		usrRepo:    env.UserRepo,
		courseSvc:  env.CourseSvc,
		studentSvc: env.StudentSvc,
		mentorSvc:  env.MentorSvc,
		schoolSvc:  env.SchoolSvc,
	}, out, env
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()

	for _, tt := range tests {
		tt := tt
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func mockPassword(t *testing.T, pwd *string) {
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(*pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func Test_commandLine_usage(t *testing.T) {
	cli, out, _ := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"inspect", "-lol"}, wantErr: errHelp},
	})
	assert.Contains(t, out.String(), "Usage:")
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	orig := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = orig })
	gooseRunFunc = func(_ context.Context, _ *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli, _, env := setup(t)
	var pwd string
	mockPassword(t, &pwd)

	getUser := func(t *testing.T, email string) user.User {
		usr, err := env.UserRepo.GetUser(context.Background(), user.GetFilter{Email: email})
		require.NoError(t, err)
		return usr
	}

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "ada@test.cd"}, wantErr: errHelp},
	})

	pwd = "s3cret"
	runCLITests(t, cli, []cliTest{
		{name: "unknown role", args: []string{"adduser", "-email", "ada@test.cd", "-role", "teacher"}, wantErr: errUnknownRole},
	})

	t.Run("create", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "adduser", "-email", " Ada@Test.cd", "-name", "Ada", "-role", "mentor"}))
		usr := getUser(t, "ada@test.cd")
		assert.Equal(t, "Ada", usr.FullName)
		assert.Equal(t, []string{user.RoleMentor}, usr.Roles)
		assert.True(t, usr.Active())
		assert.NoError(t, usr.CheckPassword("s3cret"))
	})

	pwd = "n3w-s3cret"
	t.Run("update as admin", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "adduser", "-email", "ada@test.cd", "-admin"}))
		usr := getUser(t, "ada@test.cd")
		assert.Equal(t, "Ada", usr.FullName)
		assert.Equal(t, user.AllRoles, usr.Roles)
		assert.NoError(t, usr.CheckPassword("n3w-s3cret"))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "User", "awe@test.cd", "mdr", nil, true)
	var pwd string
	mockPassword(t, &pwd)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol"}, wantErr: errHelp},
	})

	pwd = "lol"
	t.Run("user not found", func(t *testing.T) {
		err := cli.run([]string{"admin", "resetpassword", "-email", "lol@test.cd"})
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	})

	pwd = "lmao"
	t.Run("reset", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "resetpassword", "-email", "AWE@test.cd"}))
		refreshed, err := env.UserRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash))
		assert.NoError(t, refreshed.CheckPassword("lmao"))
	})
}

func Test_commandLine_verifyMentor(t *testing.T) {
	cli, out, env := setup(t)
	_, prof := testutil.CreateMentor(t, env, "Grace", "grace@test.cd", mentor.StatusPending)
	testutil.CreateStudent(t, env, "Hero", "hero@test.cd")

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"verifymentor"}, wantErr: errHelp},
		{name: "unknown user", args: []string{"verifymentor", "-email", "nobody@test.cd"}, wantErr: user.ErrNotFound},
		{name: "not a mentor", args: []string{"verifymentor", "-email", "hero@test.cd"}, wantErr: mentor.ErrNotFound},
		{name: "invalid status", args: []string{"verifymentor", "-email", "grace@test.cd", "-status", "approved"}, wantErrStr: "status must be one of pending, verified or rejected"},
	})

	emailsvc.ResetSent()
	require.NoError(t, cli.run([]string{"admin", "verifymentor", "-email", "grace@test.cd"}))
	updated, err := env.MentorSvc.GetByID(context.Background(), prof.ID)
	require.NoError(t, err)
	assert.Equal(t, mentor.StatusVerified, updated.VerificationStatus)
	assert.Len(t, emailsvc.Sent(), 1)
	assert.Contains(t, out.String(), "mentor grace@test.cd is verified")
}

func Test_commandLine_seed(t *testing.T) {
	cli, out, env := setup(t)
	testutil.CreateCourse(t, env, "Figma Basics", course.TrackDesign, 4)

	dir := t.TempDir()
	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	good := writeFile("catalog.yaml", `
courses:
  - title: "  Go for Beginners "
    skill_track: Coding
    instructor_name: Rob
    total_lessons: 12
  - title: figma basics
    skill_track: design
    total_lessons: 4
  - title: Growth Hacking
    skill_track: marketing
`)
	badTrack := writeFile("bad.yaml", `
courses:
  - title: Cooking
    skill_track: cooking
`)
	notYAML := writeFile("broken.yaml", "courses: [")

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"seed"}, wantErr: errHelp},
	})

	t.Run("missing file", func(t *testing.T) {
		err := cli.run([]string{"admin", "seed", "-file", filepath.Join(dir, "nope.yaml")})
		assert.True(t, os.IsNotExist(errors.Cause(err)))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		err := cli.run([]string{"admin", "seed", "-file", notYAML})
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "parsing catalog")
		}
	})
	t.Run("invalid course", func(t *testing.T) {
		err := cli.run([]string{"admin", "seed", "-file", badTrack})
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "course #1")
		}
	})
	t.Run("seed", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "seed", "-file", good}))
		assert.Contains(t, out.String(), "2 courses created, 1 skipped")

		courses, err := env.CourseSvc.ListCourses(context.Background(), &course.QueryFilter{Search: "go for"})
		require.NoError(t, err)
		if assert.Len(t, courses, 1) {
			assert.Equal(t, "Go for Beginners", courses[0].Title)
			assert.Equal(t, course.TrackCoding, courses[0].SkillTrack)
			assert.Equal(t, 12, courses[0].TotalLessons)
		}

		// seeding twice is a no-op
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "seed", "-file", good}))
		assert.Contains(t, out.String(), "0 courses created, 3 skipped")
	})
}

func Test_commandLine_inspect(t *testing.T) {
	cli, out, env := setup(t)
	testutil.CreateStudent(t, env, "Hero", "hero@test.cd", course.TrackCoding)
	testutil.CreateUser(t, env.UserRepo, "Grace", "grace@test.cd", testutil.Password, []string{user.RoleMentor}, true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"inspect"}, wantErr: errHelp},
		{name: "unknown user", args: []string{"inspect", "-email", "nobody@test.cd"}, wantErr: user.ErrNotFound},
	})

	t.Run("student", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "inspect", "-email", "hero@test.cd"}))
		dump := out.String()
		assert.Contains(t, dump, "hero@test.cd")
		assert.Contains(t, dump, "student.Profile")
		assert.Contains(t, dump, "coding")
		assert.NotContains(t, dump, "PasswordHash: ([]uint8) (len=")
	})

	t.Run("mentor without profile", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "inspect", "-email", "grace@test.cd"}))
		assert.Contains(t, out.String(), "no profile (mentor profile not found)")
		assert.NotContains(t, out.String(), "<*>")
	})
}
