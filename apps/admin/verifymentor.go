package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/user"
)

// verifyMentor sets the verification status of the mentor with this email. The mentor is e-mailed.
func (cli *commandLine) verifyMentor(email, status string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	prof, err := cli.mentorSvc.GetByUserID(ctx, usr.ID)
	if err != nil {
		return errors.Wrap(err, "finding mentor profile")
	}
	if prof, err = cli.mentorSvc.SetVerification(ctx, prof.ID, core.CleanString(status, true /* lower */)); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "mentor %s is %s\n", usr.Email, prof.VerificationStatus)
	return nil
}
