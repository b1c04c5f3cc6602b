// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

// Package splice resolves declared workflow node inputs into concrete values
package splice

import (
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Kind tags how a Variable's raw value becomes a concrete one
//
// A Variable's kind is fixed at creation, resolution derives a new value and
// never mutates the raw one
type Kind string

// Variable kinds, the wire names are plain/splice/lazy
const (
	// KindPlain resolves to the raw value unchanged
	KindPlain Kind = "plain"
	// KindSplice substitutes ${...} markers in the raw value before use
	KindSplice Kind = "splice"
	// KindLazy template-resolves the raw value into a seed, then invokes the
	// resolver registered under CustomType
	KindLazy Kind = "lazy"
)

// Variable is a single declared node input
type Variable struct {
	// Kind of the variable
	Kind Kind `json:"type"`
	// Value is an arbitrary structured raw value, for splice and lazy kinds
	// any string at any depth may contain ${...} markers
	Value any `json:"value"`
	// CustomType names the registered lazy resolver, lazy kind only
	CustomType string `json:"custom_type,omitempty"`
}

// JSONSchemaExtend documents the wire format of a variable
func (Variable) JSONSchemaExtend(schema *jsonschema.Schema) {
	if kind, ok := schema.Properties.Get("type"); ok && kind != nil {
		kind.Description = "How the value becomes concrete: plain is used as-is, splice substitutes ${...} markers, lazy substitutes then invokes the resolver named by custom_type"
		kind.Enum = []any{KindPlain, KindSplice, KindLazy}
	}

	if value, ok := schema.Properties.Get("value"); ok && value != nil {
		value.Description = "Raw value, any shape"
	}

	if customType, ok := schema.Properties.Get("custom_type"); ok && customType != nil {
		customType.Description = "Registered lazy resolver code, only valid when type is lazy"
	}
}

// Plain creates a literal variable
func Plain(value any) Variable {
	return Variable{Kind: KindPlain, Value: value}
}

// Splice creates a template variable
func Splice(value any) Variable {
	return Variable{Kind: KindSplice, Value: value}
}

// Lazy creates a deferred variable whose seed is resolved by the resolver
// registered under code
func Lazy(code string, seed any) Variable {
	return Variable{Kind: KindLazy, Value: seed, CustomType: code}
}

// Validate checks the wire-level shape of a variable
func (v Variable) Validate() error {
	switch v.Kind {
	case KindPlain, KindSplice:
		if v.CustomType != "" {
			return fmt.Errorf("custom_type is only valid for %s variables, got type %q", KindLazy, v.Kind)
		}
	case KindLazy:
		if v.CustomType == "" {
			return errors.New("lazy variables must declare a custom_type")
		}
	default:
		return fmt.Errorf("type must be one of [%s, %s, %s], got %q", KindPlain, KindSplice, KindLazy, v.Kind)
	}
	return nil
}
