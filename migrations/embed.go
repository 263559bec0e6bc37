// Package migrations embeds the goose SQL migrations for the calendar schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
