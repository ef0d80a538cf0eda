// Package migrations embeds the SQL migration files so a deployed binary
// can bring its own schema up to date without a migrations directory on
// disk.
package migrations

import "embed"

// FS holds the goose migration files.
//
//go:embed *.sql
var FS embed.FS
