// Package db holds the SQL migrations applied by cmd/migrate and, when
// AUTO_MIGRATE is set, by cmd/api at start-up.
package db

import "embed"

// MigrationsDir is the directory inside Migrations that goose reads.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var Migrations embed.FS
