// Package schema embeds the SQL migrations for the SQLite report store.
package schema

import "embed"

// FS contains all SQL migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
