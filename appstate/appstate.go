// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package appstate holds the mutable record a parcel lifecycle owns and
// the shared database context render code reads from.
package appstate

import (
	"log/slog"

	"github.com/eldrin-io/parcel/internal/slogfield"
	"github.com/eldrin-io/parcel/migrate"

	"github.com/uptrace/bun"
)

// State is the record exclusively owned by one lifecycle instance. It is
// mutated only from within the single bootstrap and mount call stack.
type State struct {
	DB                 *bun.DB
	MigrationsComplete bool
	MigrationResult    *migrate.Result

	// RendererHandle references the mounted UI instance, if any.
	RendererHandle any
}

// DBContext is the reactive mirror of [State]'s externally relevant
// fields. It is shared between the bootstrap sequencer and every
// accessor invocation during the lifecycle's lifetime: readers may call
// concurrently, but only the bootstrap call stack writes.
type DBContext struct {
	DB                 *bun.DB
	MigrationsComplete bool
	MigrationResult    *migrate.Result
}

// SetDB records the database handle in both the state record and the
// shared context in one step, so no reader observes one without the other.
func SetDB(s *State, c *DBContext, db *bun.DB) {
	s.DB = db
	c.DB = db
}

// Publish records the migration outcome in both the state record and the
// shared context in one step.
func Publish(s *State, c *DBContext, res *migrate.Result, complete bool) {
	s.MigrationResult = res
	s.MigrationsComplete = complete
	c.MigrationResult = res
	c.MigrationsComplete = complete
}

// Database returns the current database handle or nil. A nil context
// means no store is reachable from the calling site; that is reported
// as a diagnostic warning, not an error.
func Database(c *DBContext) *bun.DB {
	if c == nil {
		slog.Warn("no database context is reachable from this call site", slogfield.String("accessor", "Database"))
		return nil
	}
	return c.DB
}

// Snapshot returns a copy of the full three field record. When no
// context is reachable a zero value record is returned along with a
// diagnostic warning.
func Snapshot(c *DBContext) DBContext {
	if c == nil {
		slog.Warn("no database context is reachable from this call site", slogfield.String("accessor", "Snapshot"))
		return DBContext{}
	}
	return *c
}

// MigrationsComplete reports whether the bootstrap phase finished its
// migration work. Unlike [Database] and [Snapshot] this tolerates an
// unreachable context silently since it is often polled before
// bootstrap finishes.
func MigrationsComplete(c *DBContext) bool {
	if c == nil {
		return false
	}
	return c.MigrationsComplete
}
