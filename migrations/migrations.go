// Package migrations embeds the goose SQL migrations.
package migrations

import "embed"

// Postgres holds the reference backend schema.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds the on-device key/value schema.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
