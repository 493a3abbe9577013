// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package parcel binds embeddable applications to the Eldrin shell's
// three phase lifecycle protocol.
//
// The package is built around three core abstractions:
//
//   - Hook: a single step of one lifecycle phase
//   - Lifecycle: the bootstrap/mount/unmount contract the host expects
//   - Combine: merging a preparatory lifecycle with a presenting one
//
// The subpackages supply the pieces a parcel needs around that contract:
// app runs schema migrations before first mount and delegates rendering
// to a UI bridge, appstate exposes the shared database context to render
// code, shell reads the host published global (auth headers, user
// identity), and manifest parses parcel manifests.
//
// # Basic Usage
//
// Build a lifecycle whose bootstrap applies migrations and whose mount
// delegates to a UI bridge:
//
//	a := app.New(
//		app.WithBridge(bridge),
//		app.WithMigrations(files...),
//	)
//	host.Register(name, a.Lifecycle())
//
// Combine it with an independently supplied presentation lifecycle:
//
//	merged := parcel.Combine(a.Lifecycle(), ui)
package parcel
