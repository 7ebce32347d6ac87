// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: persist/migrate.go
// Summary: Applies the embedded schema migrations to a space_snapshots
// database before the Store is allowed to serve requests, so an older
// restore file is upgraded in place rather than read against a schema
// it wasn't written for.

package persist

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// applyMigrations brings db up to the latest embedded schema version.
// Safe to call every time the store opens: migrate reports ErrNoChange
// when the schema is already current.
func applyMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("persist: load embedded migrations: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("persist: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "skyline", driver)
	if err != nil {
		return fmt.Errorf("persist: migration init: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("persist: migration up: %w", err)
	}
	return nil
}
