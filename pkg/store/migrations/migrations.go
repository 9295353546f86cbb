// Package migrations embeds the database schema files for both supported
// backends. The sqlite directory holds idempotent DDL applied on every
// startup; the postgres directory holds versioned migrations consumed by
// golang-migrate.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
