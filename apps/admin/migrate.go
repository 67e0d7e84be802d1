package main

import (
	"context"

	"github.com/upskillhub/upskill/storage/database"
)

var gooseRunFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(context.Background(), cli.db, args[0], args[1:]...)
}
