// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package splice

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/splice-run/splice/lazy"
)

// state tracks an entry through one resolution pass
type state int

const (
	stateUnresolved state = iota
	stateResolving
	stateResolved
	stateFailed
)

// Context is the per-pass scope of all named values visible during resolution
//
// A Context is owned by exactly one pass and must not be shared, construct a
// fresh one per node-execution event. Resolution is memoized: each key is
// computed at most once no matter how many entries depend on it.
type Context struct {
	vars    map[string]Variable
	globals *GlobalStore
	strict  bool

	states   map[string]state
	resolved map[string]any
	failed   map[string]error
	stack    []string
}

// ContextOption configures a Context
type ContextOption func(*Context)

// WithGlobals lets lookups fall back to a workflow-level store of already
// computed values shared across concurrently resolving contexts
func WithGlobals(store *GlobalStore) ContextOption {
	return func(c *Context) {
		c.globals = store
	}
}

// WithStrict aborts the pass on the first per-entry error instead of
// collecting partial results
func WithStrict() ContextOption {
	return func(c *Context) {
		c.strict = true
	}
}

// NewContext creates a resolution context over a set of named variables
func NewContext(vars map[string]Variable, opts ...ContextOption) *Context {
	c := &Context{
		vars:     maps.Clone(vars),
		states:   make(map[string]state, len(vars)),
		resolved: make(map[string]any, len(vars)),
		failed:   map[string]error{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Errors returns the per-entry resolution errors from the last pass
func (c *Context) Errors() map[string]error {
	return maps.Clone(c.failed)
}

// ResolveAll resolves every entry in dependency order and returns the mapping
// of reference key to resolved value
//
// Per-entry failures (template errors, unresolved references, cycles) do not
// stop unrelated entries, the partial result is returned together with a
// joined error and the per-entry breakdown stays available via Errors. Fatal
// errors such as an unregistered lazy resolver abort the pass immediately.
func (c *Context) ResolveAll(ctx context.Context) (map[string]any, error) {
	logger := log.FromContext(ctx)

	keys := sortedMapKeys(c.vars)
	for _, key := range keys {
		if _, err := c.resolveKey(ctx, key); err != nil {
			if IsFatal(err) {
				return nil, err
			}
			if c.strict {
				return nil, fmt.Errorf("resolving %q: %w", key, err)
			}
			logger.Debug("entry failed", "key", key, "err", err)
		}
	}

	if len(c.failed) > 0 {
		errs := make([]error, 0, len(c.failed))
		for _, key := range sortedMapKeys(c.failed) {
			errs = append(errs, fmt.Errorf("resolving %q: %w", key, c.failed[key]))
		}
		return maps.Clone(c.resolved), errors.Join(errs...)
	}

	return maps.Clone(c.resolved), nil
}

// Resolve resolves a single entry and anything it depends on
func (c *Context) Resolve(ctx context.Context, key string) (any, error) {
	return c.resolveKey(ctx, key)
}

func (c *Context) resolveKey(ctx context.Context, key string) (any, error) {
	switch c.states[key] {
	case stateResolved:
		return c.resolved[key], nil
	case stateFailed:
		return nil, c.failed[key]
	case stateResolving:
		return nil, c.failCycle(key)
	}

	v, ok := c.vars[key]
	if !ok {
		if c.globals != nil {
			if value, found := c.globals.Get(key); found {
				return value, nil
			}
		}
		return nil, &UnresolvedReferenceError{Key: key, RequestedBy: c.requester()}
	}

	c.states[key] = stateResolving
	c.stack = append(c.stack, key)

	value, err := c.resolveVar(ctx, key, v)

	c.stack = c.stack[:len(c.stack)-1]

	if err != nil {
		// failCycle may have already recorded a more precise error
		if c.states[key] != stateFailed {
			c.states[key] = stateFailed
			c.failed[key] = err
		}
		return nil, c.failed[key]
	}

	c.states[key] = stateResolved
	c.resolved[key] = value
	return value, nil
}

// failCycle marks every entry on the cycle through key as failed with the
// full cycle path, the explicit resolving state guarantees termination
func (c *Context) failCycle(key string) error {
	start := slices.Index(c.stack, key)
	cycle := append(slices.Clone(c.stack[start:]), key)

	err := &CyclicReferenceError{Cycle: cycle}
	for _, member := range c.stack[start:] {
		c.states[member] = stateFailed
		c.failed[member] = err
	}
	return err
}

func (c *Context) resolveVar(ctx context.Context, key string, v Variable) (any, error) {
	logger := log.FromContext(ctx)

	switch v.Kind {
	case KindPlain:
		return v.Value, nil
	case KindSplice, KindLazy:
		refs, err := Refs(v.Value, c.declared)
		if err != nil {
			return nil, err
		}

		bindings := make(map[string]any, len(refs))
		for _, ref := range refs {
			value, err := c.resolveKey(ctx, ref)
			if err != nil {
				return nil, err
			}
			bindings[ref] = value
		}

		logger.Debug("templating", "key", key, "refs", refs)

		rendered, err := Render(v.Value, bindings)
		if err != nil {
			return nil, err
		}

		if v.Kind == KindSplice {
			return rendered, nil
		}

		logger.Debug("deferring", "key", key, "custom_type", v.CustomType)

		return lazy.Resolve(ctx, v.CustomType, rendered)
	default:
		return nil, v.Validate()
	}
}

// declared reports whether a key is visible in this pass
func (c *Context) declared(key string) bool {
	if _, ok := c.vars[key]; ok {
		return true
	}
	if c.globals != nil {
		if _, ok := c.globals.Get(key); ok {
			return true
		}
	}
	return false
}

// sortedMapKeys returns the keys of m in sorted order
func sortedMapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// requester is the entry currently resolving, empty at the top level
func (c *Context) requester() string {
	if len(c.stack) == 0 {
		return ""
	}
	return c.stack[len(c.stack)-1]
}
