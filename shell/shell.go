// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package shell reads the process wide global the hosting shell
// publishes for its parcels.
package shell

import "sync"

// Key is the well known registry key the hosting shell publishes its
// [Global] under.
const Key = "eldrin"

// User identifies the authenticated shell user.
type User struct {
	ID    string
	Email string
	Name  string
}

// Global is the object the hosting shell exposes to every parcel in the
// process. Parcels only ever read it; the write side exists for the
// shell itself and for tests.
type Global struct {
	// AuthHeaders, when present, returns the headers a parcel should
	// attach to requests against shell owned APIs.
	AuthHeaders func() map[string]string

	// User is the authenticated user, if the shell knows one.
	User *User
}

var (
	mu       sync.RWMutex
	registry = make(map[string]*Global)
)

// Publish registers the given [Global] under [Key]. It replaces any
// previously published value.
func Publish(g *Global) {
	mu.Lock()
	defer mu.Unlock()
	registry[Key] = g
}

// Reset removes any published [Global].
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	delete(registry, Key)
}

// Lookup returns the published [Global] or nil if the shell has not
// published one. It is safe to call from any goroutine and outside any
// lifecycle phase.
func Lookup() *Global {
	mu.RLock()
	defer mu.RUnlock()
	return registry[Key]
}

// AuthHeaders returns the shell's auth headers verbatim. When no
// [Global] is published, or the published one carries no AuthHeaders
// capability, an empty mapping is returned instead.
func AuthHeaders() map[string]string {
	g := Lookup()
	if g == nil || g.AuthHeaders == nil {
		return map[string]string{}
	}
	return g.AuthHeaders()
}

// CurrentUser returns the authenticated shell user or nil.
func CurrentUser() *User {
	g := Lookup()
	if g == nil {
		return nil
	}
	return g.User
}
