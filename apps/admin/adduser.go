package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/user"
)

var errUnknownRole = errors.New("role must be one of admin, mentor, school or student")

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, pwd, role string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)

	roles := []string{role}
	if isAdmin {
		roles = user.AllRoles
	} else if !core.StringInSlice(role, user.AllRoles) {
		return errUnknownRole
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	exists := err == nil
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		return err
	}
	if !exists {
		usr = user.User{Email: email, CreatedAt: time.Now().UTC()}
	}
	if name != "" {
		usr.FullName = name
	}
	usr.Roles = roles
	usr.SetActive(true)
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()

	if exists {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "saved %s %v\n", email, roles)
	return nil
}
