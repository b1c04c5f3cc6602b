// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

// Package lazy provides the registry of deferred variable resolvers
package lazy

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Resolver computes the final value of a lazy variable
//
// The seed is the variable's raw value after template substitution. A resolver
// must be a pure function of its seed plus ambient read-only state, it gets no
// access to the resolution context and must not share mutable state across
// invocations.
type Resolver func(ctx context.Context, seed any) (any, error)

// UnknownTypeError indicates a lazy variable named a code with no registered
// resolver
//
// This is a configuration error, not a data error, so it aborts the whole
// resolution pass instead of failing a single entry
type UnknownTypeError struct {
	Code  string
	Known []string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("no lazy resolver registered for %q, registered: [%s]", e.Code, strings.Join(e.Known, ", "))
}

// Fatal marks the error as pass-aborting
func (e *UnknownTypeError) Fatal() bool { return true }

var _register sync.RWMutex

var _registrations = map[string]Resolver{
	"env":       envLookup,
	"timestamp": timestamp,
	"uuid":      newUUID,
}

// Get retrieves a registered resolver
//
// Returns nil if the code is not registered
func Get(code string) Resolver {
	_register.RLock()
	defer _register.RUnlock()

	return _registrations[code]
}

// Register associates a resolver with a globally unique code
func Register(code string, resolver Resolver) error {
	_register.Lock()
	defer _register.Unlock()

	if code == "" {
		return fmt.Errorf("resolver code cannot be empty")
	}

	if resolver == nil {
		return fmt.Errorf("resolver function cannot be nil")
	}

	if _, exists := _registrations[code]; exists {
		return fmt.Errorf("%q is already registered", code)
	}

	_registrations[code] = resolver
	return nil
}

// Resolve invokes the resolver registered under code with the given seed
func Resolve(ctx context.Context, code string, seed any) (any, error) {
	resolver := Get(code)
	if resolver == nil {
		return nil, &UnknownTypeError{Code: code, Known: Codes()}
	}
	return resolver(ctx, seed)
}

// Codes returns all registered resolver codes in alphabetical order
func Codes() []string {
	_register.RLock()
	defer _register.RUnlock()

	result := make([]string, 0, len(_registrations))
	for code := range _registrations {
		result = append(result, code)
	}
	slices.Sort(result)
	return result
}
