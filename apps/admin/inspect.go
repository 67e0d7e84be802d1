package main

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/mentor"
	"github.com/upskillhub/upskill/core/school"
	"github.com/upskillhub/upskill/core/student"
	"github.com/upskillhub/upskill/core/user"
)

var dumper = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

// inspect dumps the account and the role profiles of a user.
func (cli *commandLine) inspect(email string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	usr.PasswordHash = nil
	dumper.Fdump(cli.out, usr)

	if usr.IsStudent() {
		prof, err := cli.studentSvc.GetByUserID(ctx, usr.ID)
		if err = dumpProfile(cli, prof, err, student.ErrNotFound); err != nil {
			return err
		}
	}
	if usr.IsMentor() {
		prof, err := cli.mentorSvc.GetByUserID(ctx, usr.ID)
		if err = dumpProfile(cli, prof, err, mentor.ErrNotFound); err != nil {
			return err
		}
	}
	if usr.IsSchool() {
		prof, err := cli.schoolSvc.GetByUserID(ctx, usr.ID)
		if err = dumpProfile(cli, prof, err, school.ErrNotFound); err != nil {
			return err
		}
	}
	return nil
}

func dumpProfile(cli *commandLine, prof interface{}, err, notFound error) error {
	switch {
	case err == nil:
		dumper.Fdump(cli.out, prof)
	case errors.Cause(err) == notFound:
		fmt.Fprintf(cli.out, "no profile (%v)\n", notFound)
	default:
		return err
	}
	return nil
}
