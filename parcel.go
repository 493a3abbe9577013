// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package parcel

import (
	"context"
	"errors"
	"fmt"

	"github.com/eldrin-io/parcel/manifest"

	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

// Props carry the host orchestrator provided values which are passed,
// unchanged, to every lifecycle phase of a parcel.
type Props struct {
	// Name is the host assigned name for this parcel.
	Name string

	// DB is the shell provided database handle. It may be nil for
	// parcels which have no database dependency.
	DB *bun.DB

	// Manifest describes where the parcel's assets live. It may be nil.
	Manifest *manifest.Manifest

	// Host and MountParcel are opaque facilities owned by the
	// orchestrator. Parcels pass them through to the UI bridge untouched.
	Host        any
	MountParcel any
}

// Hook represents functionality that needs to be performed during a
// single lifecycle phase of a parcel.
type Hook interface {
	Run(context.Context, Props) error
}

// HookFunc is a func variant of the [Hook] interface.
type HookFunc func(context.Context, Props) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context, props Props) error {
	return f(ctx, props)
}

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context, props Props) error {
	errs := make([]error, 0, len(mh))
	for _, h := range mh {
		if h == nil {
			continue
		}
		err := h.Run(ctx, props)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// MultiHook returns a [Hook] that's the logical concatenation of the
// provided [Hook]s. They're applied sequentially and every hook runs
// regardless of whether an earlier one returned an error.
func MultiHook(hooks ...Hook) Hook {
	return multiHook(hooks)
}

// Lifecycle is the three phase contract which the host orchestrator
// expects every parcel to conform to. The host guarantees Bootstrap has
// fully completed before Mount is invoked; this package relies on that
// ordering rather than enforcing it.
type Lifecycle struct {
	Bootstrap Hook
	Mount     Hook
	Unmount   Hook
}

// Combine merges two independently constructed [Lifecycle]s into one.
//
// The merged bootstrap runs a's bootstrap to completion and then b's, so
// b observes any mutation made by a. The merged mount and unmount are b's
// alone: a is assumed to exist solely for preparatory work, such as
// running schema migrations, while b owns the actual UI presence.
func Combine(a, b Lifecycle) Lifecycle {
	return Lifecycle{
		Bootstrap: MultiHook(a.Bootstrap, b.Bootstrap),
		Mount:     b.Mount,
		Unmount:   b.Unmount,
	}
}

// MountAll takes inspiration from io.MultiWriter to allow hosts to mount
// multiple independent parcels concurrently. Lifecycles with no mount
// phase are skipped.
func MountAll(ctx context.Context, props Props, ls ...Lifecycle) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, l := range ls {
		mount := l.Mount
		if mount == nil {
			continue
		}
		g.Go(func() (err error) {
			defer errRecover(&err)
			return mount.Run(gctx, props)
		})
	}
	return g.Wait()
}

// BootstrapError
type BootstrapError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BootstrapError) Error() string {
	return fmt.Sprintf("failed to bootstrap parcel: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BootstrapError) Unwrap() error {
	return e.Cause
}

// MountError
type MountError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e MountError) Error() string {
	return fmt.Sprintf("failed to mount parcel: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e MountError) Unwrap() error {
	return e.Cause
}

// UnmountError
type UnmountError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e UnmountError) Error() string {
	return fmt.Sprintf("failed to unmount parcel: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e UnmountError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a non-error value recovered from a panicking phase.
type PanicError struct {
	Value any
}

// Error implements the [builtin.error] interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("parcel: recovered from a panic caused by: %v", e.Value)
}

func errRecover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	rerr, ok := r.(error)
	if !ok {
		*err = PanicError{Value: r}
		return
	}
	*err = rerr
}
