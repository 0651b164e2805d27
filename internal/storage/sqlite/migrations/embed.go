package migrations

import "embed"

// FS contains embedded SQLite migrations for weekplan storage.
//
//go:embed *.sql
var FS embed.FS
