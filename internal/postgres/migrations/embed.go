// Package migrations embeds the goose SQL migration files so the
// binary can run them without shipping a separate migrations directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
