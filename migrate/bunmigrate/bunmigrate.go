// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package bunmigrate provides a reference [migrate.Runner] which applies
// migration files against a bun.DB in lexicographic name order.
package bunmigrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/eldrin-io/parcel/migrate"

	"github.com/uptrace/bun"
)

const defaultTable = "schema_migrations"

type options struct {
	table string
}

// Option are used to configure a Runner.
type Option func(*options)

// Table overrides the name of the bookkeeping table which records
// applied migration versions.
func Table(name string) Option {
	return func(o *options) {
		o.table = name
	}
}

// Runner applies migration files one transaction at a time, skipping
// files whose name is already recorded in the bookkeeping table.
type Runner struct {
	table string
}

// New returns a fully initialized Runner.
func New(opts ...Option) *Runner {
	o := &options{
		table: defaultTable,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Runner{
		table: o.table,
	}
}

// Run implements the [migrate.Runner] interface.
//
// Infrastructure faults, such as failing to reach the database or to
// create the bookkeeping table, are returned as errors. A migration
// script failing to execute is reported through the returned
// [migrate.Result] instead.
func (r *Runner) Run(ctx context.Context, db *bun.DB, files []migrate.File) (migrate.Result, error) {
	if db == nil {
		return migrate.Result{}, errors.New("bunmigrate: nil database handle")
	}

	err := r.ensureTable(ctx, db)
	if err != nil {
		return migrate.Result{}, err
	}

	ordered := make([]migrate.File, len(files))
	copy(ordered, files)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	executed := 0
	for _, f := range ordered {
		applied, err := r.isApplied(ctx, db, f.Name)
		if err != nil {
			return migrate.Result{}, err
		}
		if applied {
			continue
		}

		err = r.apply(ctx, db, f)
		if err != nil {
			return migrate.Result{
				Success:  false,
				Executed: executed,
				Err:      &migrate.Error{Message: err.Error()},
			}, nil
		}
		executed++
	}

	return migrate.Result{
		Success:  true,
		Executed: executed,
	}, nil
}

func (r *Runner) ensureTable(ctx context.Context, db *bun.DB) error {
	query := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (version VARCHAR(255) PRIMARY KEY, applied_at TIMESTAMP NOT NULL)",
		r.table,
	)
	_, err := db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to ensure %s table: %w", r.table, err)
	}
	return nil
}

func (r *Runner) isApplied(ctx context.Context, db *bun.DB, version string) (bool, error) {
	var exists int
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE version = ?", r.table)
	err := db.QueryRowContext(ctx, query, version).Scan(&exists)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check migration version %s: %w", version, err)
}

func (r *Runner) apply(ctx context.Context, db *bun.DB, f migrate.File) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %s: %w", f.Name, err)
	}
	_, err = tx.ExecContext(ctx, f.Content)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute migration %s: %w", f.Name, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s(version, applied_at) VALUES(?, ?)", r.table)
	_, err = tx.ExecContext(ctx, insert, f.Name, time.Now())
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", f.Name, err)
	}

	err = tx.Commit()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to commit migration %s: %w", f.Name, err)
	}
	return nil
}
