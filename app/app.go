// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app wires a parcel's UI bridge and its schema migrations into
// a single conformant [parcel.Lifecycle].
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eldrin-io/parcel"
	"github.com/eldrin-io/parcel/appstate"
	"github.com/eldrin-io/parcel/internal/slogfield"
	"github.com/eldrin-io/parcel/migrate"
	"github.com/eldrin-io/parcel/migrate/bunmigrate"

	"go.opentelemetry.io/otel"
)

// Handle is an opaque reference to a mounted UI instance.
type Handle any

// Bridge is the external UI bridge a parcel delegates its mount and
// unmount phases to. The database context passed to Mount is live: it
// reflects the current store state on every read.
type Bridge interface {
	Mount(ctx context.Context, props parcel.Props, dbctx *appstate.DBContext) (Handle, error)
	Unmount(ctx context.Context, handle Handle) error
}

// BridgeFunc adapts a plain render func into a [Bridge] with a no-op
// unmount.
type BridgeFunc func(context.Context, parcel.Props, *appstate.DBContext) (Handle, error)

// Mount implements the [Bridge] interface.
func (f BridgeFunc) Mount(ctx context.Context, props parcel.Props, dbctx *appstate.DBContext) (Handle, error) {
	return f(ctx, props, dbctx)
}

// Unmount implements the [Bridge] interface.
func (f BridgeFunc) Unmount(ctx context.Context, handle Handle) error {
	return nil
}

// Option are used to configure an App.
type Option func(*App)

// WithBridge registers the UI bridge mount and unmount delegate to.
func WithBridge(b Bridge) Option {
	return func(a *App) {
		a.bridge = b
	}
}

// WithMigrations registers the migration files to apply during bootstrap.
func WithMigrations(files ...migrate.File) Option {
	return func(a *App) {
		a.files = append(a.files, files...)
	}
}

// WithRunner overrides the migration engine used during bootstrap.
// The default is [bunmigrate.New].
func WithRunner(r migrate.Runner) Option {
	return func(a *App) {
		a.runner = r
	}
}

// OnMigrationsComplete registers a callback invoked exactly once when
// the migration engine reports success.
func OnMigrationsComplete(f func(migrate.Result)) Option {
	return func(a *App) {
		a.onComplete = f
	}
}

// OnMigrationError registers a callback invoked exactly once when the
// migration engine reports failure, returns an error or panics.
func OnMigrationError(f func(error)) Option {
	return func(a *App) {
		a.onError = f
	}
}

// LogHandler overrides where diagnostic log records are written.
func LogHandler(h slog.Handler) Option {
	return func(a *App) {
		a.log = slog.New(h)
	}
}

// App owns one parcel's state record and database context and produces
// the three phase lifecycle object the host orchestrator consumes.
type App struct {
	log    *slog.Logger
	bridge Bridge
	files  []migrate.File
	runner migrate.Runner

	onComplete func(migrate.Result)
	onError    func(error)

	state appstate.State
	dbctx appstate.DBContext
}

// New returns a fully initialized App.
func New(opts ...Option) *App {
	a := &App{
		log:    slog.Default(),
		runner: bunmigrate.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DBContext returns the shared database context. Render code reads it
// through the [appstate] accessors; it must never write to it.
func (a *App) DBContext() *appstate.DBContext {
	return &a.dbctx
}

// Lifecycle returns the conformant three phase lifecycle object for
// this App.
func (a *App) Lifecycle() parcel.Lifecycle {
	return parcel.Lifecycle{
		Bootstrap: parcel.HookFunc(a.Bootstrap),
		Mount:     parcel.HookFunc(a.Mount),
		Unmount:   parcel.HookFunc(a.Unmount),
	}
}

// Bootstrap runs schema migrations before the first mount. Every failure
// path is swallowed into state and callback notification; Bootstrap
// never returns an error to the host.
//
// The host guarantees Bootstrap is invoked at most once per App. That
// guarantee is received, not enforced: a second invocation re-runs the
// migration engine.
func (a *App) Bootstrap(ctx context.Context, props parcel.Props) error {
	if props.DB == nil {
		a.log.WarnContext(ctx, "no database handle supplied, skipping migrations",
			slogfield.String("parcel", props.Name))
		appstate.Publish(&a.state, &a.dbctx, nil, true)
		return nil
	}

	appstate.SetDB(&a.state, &a.dbctx, props.DB)

	if len(a.files) == 0 {
		appstate.Publish(&a.state, &a.dbctx, nil, true)
		return nil
	}

	res, err := a.runMigrations(ctx, props)
	switch {
	case err != nil:
		a.log.ErrorContext(ctx, "migration engine failed",
			slogfield.String("parcel", props.Name),
			slogfield.Error(err))
		appstate.Publish(&a.state, &a.dbctx, nil, false)
		if a.onError != nil {
			a.onError(err)
		}
	case res.Success:
		result := res
		appstate.Publish(&a.state, &a.dbctx, &result, true)
		a.log.InfoContext(ctx, "migrations complete",
			slogfield.String("parcel", props.Name),
			slogfield.Int("executed", res.Executed))
		if a.onComplete != nil {
			a.onComplete(res)
		}
	default:
		result := res
		appstate.Publish(&a.state, &a.dbctx, &result, false)
		msg := "migration failed"
		if res.Err != nil {
			msg = res.Err.Message
		}
		a.log.ErrorContext(ctx, "migrations reported failure",
			slogfield.String("parcel", props.Name),
			slogfield.String("message", msg))
		if a.onError != nil {
			a.onError(errors.New(msg))
		}
	}
	return nil
}

func (a *App) runMigrations(ctx context.Context, props parcel.Props) (_ migrate.Result, err error) {
	tracer := otel.Tracer("app")
	spanCtx, span := tracer.Start(ctx, "App.runMigrations")
	defer span.End()

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		rerr, ok := r.(error)
		if !ok {
			rerr = parcel.PanicError{Value: r}
		}
		err = rerr
	}()

	return a.runner.Run(spanCtx, props.DB, a.files)
}

// Mount delegates to the UI bridge and records the returned renderer
// handle. The bridge reads current store state at render time through
// the shared database context.
func (a *App) Mount(ctx context.Context, props parcel.Props) error {
	if a.bridge == nil {
		return parcel.MountError{Cause: errors.New("no bridge configured")}
	}

	tracer := otel.Tracer("app")
	spanCtx, span := tracer.Start(ctx, "App.Mount")
	defer span.End()

	handle, err := a.bridge.Mount(spanCtx, props, &a.dbctx)
	if err != nil {
		return parcel.MountError{Cause: err}
	}
	a.state.RendererHandle = handle
	return nil
}

// Unmount delegates to the UI bridge with the recorded renderer handle
// and clears it. Unmounting an app that was never mounted is a no-op.
func (a *App) Unmount(ctx context.Context, props parcel.Props) error {
	if a.bridge == nil || a.state.RendererHandle == nil {
		return nil
	}

	handle := a.state.RendererHandle
	a.state.RendererHandle = nil

	err := a.bridge.Unmount(ctx, handle)
	if err != nil {
		return parcel.UnmountError{Cause: err}
	}
	return nil
}
