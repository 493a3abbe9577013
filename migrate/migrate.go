// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package migrate defines the boundary contract between a parcel and the
// schema migration engine the shell provides.
package migrate

import (
	"context"

	"github.com/uptrace/bun"
)

// File is a named unit of schema change script. Names are expected to
// carry a sortable timestamp prefix so lexicographic order is
// application order.
type File struct {
	Name    string
	Content string
}

// Error describes why a migration run reported failure.
type Error struct {
	Message string
}

// Error implements the [builtin.error] interface.
func (e *Error) Error() string {
	return e.Message
}

// Result is produced exactly once per run and is immutable afterwards.
type Result struct {
	// Success reports whether every supplied file was either applied
	// or already recorded as applied.
	Success bool

	// Executed counts the files applied during this run, excluding
	// ones skipped as already applied.
	Executed int

	// Err is populated when Success is false.
	Err *Error
}

// Runner represents the external migration engine. A Runner may report
// failure either through the returned [Result] or by returning an error
// for faults outside the migration scripts themselves.
type Runner interface {
	Run(ctx context.Context, db *bun.DB, files []File) (Result, error)
}

// RunnerFunc is a func variant of the [Runner] interface.
type RunnerFunc func(context.Context, *bun.DB, []File) (Result, error)

// Run implements the [Runner] interface.
func (f RunnerFunc) Run(ctx context.Context, db *bun.DB, files []File) (Result, error) {
	return f(ctx, db, files)
}
