package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/upskillhub/upskill/core/course"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/school"
	"github.com/upskillhub/upskill/core/student"
	"github.com/upskillhub/upskill/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	out        io.Writer
	validate   *validator.Validate
	usrRepo    user.Repository
	courseSvc  course.Service
	studentSvc student.Service
	mentorSvc  mentor.Service
	schoolSvc  school.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command: up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL [-name NAME] [-role ROLE] [-admin] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  verifymentor -email EMAIL -status STATUS - set the verification status of a mentor")
	fmt.Fprintln(cli.out, "  seed -file FILE - add the courses of a YAML catalog")
	fmt.Fprintln(cli.out, "  inspect -email EMAIL - dump a user and their profiles")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRole := addUserCmd.String("role", user.RoleStudent, "One of admin, mentor, school, student.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant every role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	verifyMentorCmd := flag.NewFlagSet("verifymentor", flag.ContinueOnError)
	verifyMentorEmail := verifyMentorCmd.String("email", "", "The mentor's email.")
	verifyMentorStatus := verifyMentorCmd.String("status", mentor.StatusVerified, "One of pending, verified, rejected.")

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedFile := seedCmd.String("file", "", "The YAML catalog.")

	inspectCmd := flag.NewFlagSet("inspect", flag.ContinueOnError)
	inspectEmail := inspectCmd.String("email", "", "The user's email.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, verifyMentorCmd, seedCmd, inspectCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail, pwd, *addUserRole, *addUserAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "verifymentor":
		if err := verifyMentorCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *verifyMentorEmail == "" {
			verifyMentorCmd.Usage()
			return errHelp
		}
		return cli.verifyMentor(*verifyMentorEmail, *verifyMentorStatus)

	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *seedFile == "" {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seed(*seedFile)

	case "inspect":
		if err := inspectCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *inspectEmail == "" {
			inspectCmd.Usage()
			return errHelp
		}
		return cli.inspect(*inspectEmail)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
