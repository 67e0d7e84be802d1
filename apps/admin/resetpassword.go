package main

import (
	"context"
	"fmt"
	"time"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := cli.usrRepo.UpdateUser(ctx, usr); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s reset\n", email)
	return nil
}
