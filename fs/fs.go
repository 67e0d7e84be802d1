// Package appfs embeds the SQL migrations and e-mail templates into the binaries.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/* assets/*
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
	CommonPasswords   = "assets/common-passwords.txt"
)
