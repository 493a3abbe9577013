// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package manifest reads and merges parcel manifests published by the
// hosting shell.
package manifest

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Manifest describes where a parcel's assets live and how the host
// should address them. Fields the host publishes beyond the well known
// ones are collected into Extra.
type Manifest struct {
	Name    string         `manifest:"name"`
	BaseURL string         `manifest:"base_url"`
	Entry   string         `manifest:"entry"`
	Extra   map[string]any `manifest:",remain"`
}

// Map represents a set of parsed manifest values.
type Map map[string]any

// Apply implements the [Source] interface.
func (m Map) Apply(store Map) error {
	merge(store, m)
	return nil
}

// Source defines valid manifest sources as those who can serialize
// themselves into a key value like structure.
type Source interface {
	Apply(Map) error
}

// Read parses the given sources and unmarshals the merged result.
// Subsequent sources override previous sources.
func Read(srcs ...Source) (*Manifest, error) {
	store := make(Map)
	for _, src := range srcs {
		err := src.Apply(store)
		if err != nil {
			return nil, err
		}
	}

	var m Manifest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "manifest",
		Result:  &m,
	})
	if err != nil {
		return nil, err
	}
	err = dec.Decode(map[string]any(store))
	if err != nil {
		return nil, UnmarshalError{Cause: err}
	}
	return &m, nil
}

// UnmarshalError occurs when merged manifest values can not be
// represented by the [Manifest] type.
type UnmarshalError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e UnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal manifest: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e UnmarshalError) Unwrap() error {
	return e.Cause
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		dsub, ok := dst[k].(map[string]any)
		if !ok {
			dsub = make(map[string]any)
			dst[k] = dsub
		}
		merge(dsub, sub)
	}
}
