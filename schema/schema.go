// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

// Package schema provides recursively composable type descriptors and
// validation of dynamic values against them.
package schema

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/invopop/jsonschema"
)

// Type is the set of value types a Node can describe
type Type string

// Node types
const (
	TypeString  Type = "string"
	TypeInt     Type = "int"
	TypeFloat   Type = "float"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Types returns all valid node types
func Types() []Type {
	return []Type{TypeString, TypeInt, TypeFloat, TypeBoolean, TypeArray, TypeObject}
}

// Scalar reports whether the type is a leaf type
func (t Type) Scalar() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBoolean:
		return true
	}
	return false
}

// Node is a recursive type descriptor
//
// A Node is immutable once constructed, construction must be finite (a tree
// must not reference itself)
type Node struct {
	// Type of value this node describes
	Type Type `json:"type"`
	// Description of the value for documentation purposes
	Description string `json:"description,omitempty"`
	// Enum restricts a scalar to a set of allowed values, empty means unconstrained
	Enum []any `json:"enum,omitempty"`
	// Items describes every element of an array
	Items *Node `json:"items,omitempty"`
	// Properties describes an object's properties by name, empty means any
	// properties are accepted unchecked
	Properties map[string]*Node `json:"properties,omitempty"`
}

// JSONSchemaExtend restricts the type field to known node types
func (Node) JSONSchemaExtend(schema *jsonschema.Schema) {
	if typ, ok := schema.Properties.Get("type"); ok && typ != nil {
		enum := make([]any, 0, len(Types()))
		for _, t := range Types() {
			enum = append(enum, t)
		}
		typ.Enum = enum
	}
}

// String creates a string node
func String(description string) *Node {
	return &Node{Type: TypeString, Description: description}
}

// Int creates an int node
func Int(description string) *Node {
	return &Node{Type: TypeInt, Description: description}
}

// Float creates a float node
func Float(description string) *Node {
	return &Node{Type: TypeFloat, Description: description}
}

// Boolean creates a boolean node
func Boolean(description string) *Node {
	return &Node{Type: TypeBoolean, Description: description}
}

// Array creates an array node whose elements are described by items
func Array(description string, items *Node) *Node {
	return &Node{Type: TypeArray, Description: description, Items: items}
}

// Object creates an object node, a nil/empty properties map accepts anything
func Object(description string, properties map[string]*Node) *Node {
	return &Node{Type: TypeObject, Description: description, Properties: properties}
}

// Parse decodes a node from its wire format (YAML or JSON) and validates it
func Parse(data []byte) (*Node, error) {
	var n Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// Validate checks that the tree is structurally sound: known types, enum only
// on scalars, items present on (and only on) arrays, properties only on
// objects, and no self-referential nodes
func (n *Node) Validate() error {
	return n.validate(map[*Node]bool{})
}

func (n *Node) validate(path map[*Node]bool) error {
	if n == nil {
		return errors.New("schema node is nil")
	}
	if path[n] {
		return errors.New("schema tree references itself")
	}
	path[n] = true
	defer delete(path, n)

	switch n.Type {
	case TypeString, TypeInt, TypeFloat, TypeBoolean:
		if n.Items != nil {
			return fmt.Errorf("%s node cannot declare items", n.Type)
		}
		if len(n.Properties) > 0 {
			return fmt.Errorf("%s node cannot declare properties", n.Type)
		}
	case TypeArray:
		if len(n.Enum) > 0 {
			return errors.New("enum is only applicable to scalar types")
		}
		if len(n.Properties) > 0 {
			return errors.New("array node cannot declare properties")
		}
		if n.Items == nil {
			return errors.New("array node must declare items")
		}
		if err := n.Items.validate(path); err != nil {
			return fmt.Errorf("items: %w", err)
		}
	case TypeObject:
		if len(n.Enum) > 0 {
			return errors.New("enum is only applicable to scalar types")
		}
		if n.Items != nil {
			return errors.New("object node cannot declare items")
		}
		for name, prop := range n.Properties {
			if err := prop.validate(path); err != nil {
				return fmt.Errorf("properties.%s: %w", name, err)
			}
		}
	default:
		return fmt.Errorf("type must be one of %v, got %q", Types(), n.Type)
	}

	return nil
}
