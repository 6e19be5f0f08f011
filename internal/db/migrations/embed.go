// Package migrations contains the embedded goose migrations for the postgres store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
