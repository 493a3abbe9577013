// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package parcel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiHook(t *testing.T) {
	t.Run("will run hooks sequentially", func(t *testing.T) {
		t.Run("if multiple hooks are registered", func(t *testing.T) {
			var order []string
			one := HookFunc(func(ctx context.Context, props Props) error {
				order = append(order, "one")
				return nil
			})
			two := HookFunc(func(ctx context.Context, props Props) error {
				order = append(order, "two")
				return nil
			})

			err := MultiHook(one, two).Run(context.Background(), Props{})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []string{"one", "two"}, order) {
				return
			}
		})
	})

	t.Run("will run every hook", func(t *testing.T) {
		t.Run("if an earlier hook returns an error", func(t *testing.T) {
			oneErr := errors.New("one failed")
			ranTwo := false

			one := HookFunc(func(ctx context.Context, props Props) error {
				return oneErr
			})
			two := HookFunc(func(ctx context.Context, props Props) error {
				ranTwo = true
				return nil
			})

			err := MultiHook(one, two).Run(context.Background(), Props{})
			if !assert.ErrorIs(t, err, oneErr) {
				return
			}
			if !assert.True(t, ranTwo) {
				return
			}
		})
	})

	t.Run("will join errors", func(t *testing.T) {
		t.Run("if multiple hooks fail", func(t *testing.T) {
			oneErr := errors.New("one failed")
			twoErr := errors.New("two failed")

			mh := MultiHook(
				HookFunc(func(ctx context.Context, props Props) error {
					return oneErr
				}),
				HookFunc(func(ctx context.Context, props Props) error {
					return twoErr
				}),
			)

			err := mh.Run(context.Background(), Props{})
			if !assert.ErrorIs(t, err, oneErr) {
				return
			}
			if !assert.ErrorIs(t, err, twoErr) {
				return
			}
		})
	})

	t.Run("will skip nil hooks", func(t *testing.T) {
		t.Run("if one is provided", func(t *testing.T) {
			ran := false
			mh := MultiHook(nil, HookFunc(func(ctx context.Context, props Props) error {
				ran = true
				return nil
			}))

			err := mh.Run(context.Background(), Props{})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.True(t, ran) {
				return
			}
		})
	})
}

func TestCombine(t *testing.T) {
	t.Run("will run the first bootstrap fully before the second", func(t *testing.T) {
		t.Run("if both lifecycles have multiple bootstrap steps", func(t *testing.T) {
			var order []string
			record := func(name string) Hook {
				return HookFunc(func(ctx context.Context, props Props) error {
					order = append(order, name)
					return nil
				})
			}

			a := Lifecycle{
				Bootstrap: MultiHook(record("a1"), record("a2")),
			}
			b := Lifecycle{
				Bootstrap: MultiHook(record("b1"), record("b2")),
			}

			err := Combine(a, b).Bootstrap.Run(context.Background(), Props{})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []string{"a1", "a2", "b1", "b2"}, order) {
				return
			}
		})
	})

	t.Run("will only keep the second lifecycles mount and unmount", func(t *testing.T) {
		t.Run("if both lifecycles define them", func(t *testing.T) {
			var order []string
			record := func(name string) Hook {
				return HookFunc(func(ctx context.Context, props Props) error {
					order = append(order, name)
					return nil
				})
			}

			a := Lifecycle{
				Bootstrap: record("a.bootstrap"),
				Mount:     record("a.mount"),
				Unmount:   record("a.unmount"),
			}
			b := Lifecycle{
				Mount:   record("b.mount"),
				Unmount: record("b.unmount"),
			}

			merged := Combine(a, b)

			err := merged.Mount.Run(context.Background(), Props{})
			if !assert.Nil(t, err) {
				return
			}
			err = merged.Unmount.Run(context.Background(), Props{})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []string{"b.mount", "b.unmount"}, order) {
				return
			}
		})
	})
}

func TestMountAll(t *testing.T) {
	t.Run("will mount every lifecycle", func(t *testing.T) {
		t.Run("if none of them fail", func(t *testing.T) {
			var mu sync.Mutex
			mounted := make(map[string]bool)
			mount := func(name string) Lifecycle {
				return Lifecycle{
					Mount: HookFunc(func(ctx context.Context, props Props) error {
						mu.Lock()
						defer mu.Unlock()
						mounted[name] = true
						return nil
					}),
				}
			}

			err := MountAll(context.Background(), Props{}, mount("one"), mount("two"), Lifecycle{})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Len(t, mounted, 2) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if a mount fails", func(t *testing.T) {
			mountErr := errors.New("failed to mount")
			l := Lifecycle{
				Mount: HookFunc(func(ctx context.Context, props Props) error {
					return mountErr
				}),
			}

			err := MountAll(context.Background(), Props{}, l)
			if !assert.ErrorIs(t, err, mountErr) {
				return
			}
		})

		t.Run("if a mount panics with a non-error value", func(t *testing.T) {
			l := Lifecycle{
				Mount: HookFunc(func(ctx context.Context, props Props) error {
					panic("hello world")
				}),
			}

			err := MountAll(context.Background(), Props{}, l)

			var perr PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "hello world", perr.Value) {
				return
			}
		})
	})
}

func TestPhaseErrors(t *testing.T) {
	t.Run("will unwrap to their cause", func(t *testing.T) {
		t.Run("for every phase error type", func(t *testing.T) {
			cause := errors.New("cause")

			if !assert.ErrorIs(t, BootstrapError{Cause: cause}, cause) {
				return
			}
			if !assert.ErrorIs(t, MountError{Cause: cause}, cause) {
				return
			}
			if !assert.ErrorIs(t, UnmountError{Cause: cause}, cause) {
				return
			}
		})
	})
}
