// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package parcel

import (
	"context"
	"fmt"
)

func ExampleMultiHook() {
	one := HookFunc(func(ctx context.Context, props Props) error {
		fmt.Println("one")
		return nil
	})

	two := HookFunc(func(ctx context.Context, props Props) error {
		fmt.Println("two")
		return nil
	})

	mh := MultiHook(one, two)

	err := mh.Run(context.Background(), Props{})
	if err != nil {
		fmt.Println(err)
		return
	}

	// Output: one
	// two
}

func ExampleCombine() {
	prep := Lifecycle{
		Bootstrap: HookFunc(func(ctx context.Context, props Props) error {
			fmt.Println("prepare")
			return nil
		}),
	}

	ui := Lifecycle{
		Bootstrap: HookFunc(func(ctx context.Context, props Props) error {
			fmt.Println("ui bootstrap")
			return nil
		}),
		Mount: HookFunc(func(ctx context.Context, props Props) error {
			fmt.Println("ui mount")
			return nil
		}),
	}

	merged := Combine(prep, ui)

	err := merged.Bootstrap.Run(context.Background(), Props{})
	if err != nil {
		fmt.Println(err)
		return
	}

	err = merged.Mount.Run(context.Background(), Props{})
	if err != nil {
		fmt.Println(err)
		return
	}

	// Output: prepare
	// ui bootstrap
	// ui mount
}
