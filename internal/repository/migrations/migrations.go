// Package migrations embeds the goose SQL migrations for the matching schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
