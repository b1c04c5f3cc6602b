// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package schema

import (
	"encoding/json"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeValidate(t *testing.T) {
	tests := []struct {
		name          string
		node          *Node
		expectedError string
	}{
		{
			name: "scalar",
			node: String("a name"),
		},
		{
			name: "scalar with enum",
			node: &Node{Type: TypeString, Enum: []any{"red", "green"}},
		},
		{
			name: "array of ints",
			node: Array("ports", Int("")),
		},
		{
			name: "object with properties",
			node: Object("job", map[string]*Node{
				"branch":  String("git branch"),
				"timeout": Int("seconds"),
			}),
		},
		{
			name: "open object",
			node: Object("anything goes", nil),
		},
		{
			name: "deep composition",
			node: Object("", map[string]*Node{
				"matrix": Array("", Array("", Object("", map[string]*Node{
					"enabled": Boolean(""),
					"weight":  Float(""),
				}))),
			}),
		},
		{
			name:          "unknown type",
			node:          &Node{Type: "decimal"},
			expectedError: `got "decimal"`,
		},
		{
			name:          "array without items",
			node:          &Node{Type: TypeArray},
			expectedError: "array node must declare items",
		},
		{
			name:          "enum on array",
			node:          &Node{Type: TypeArray, Items: String(""), Enum: []any{1}},
			expectedError: "enum is only applicable to scalar types",
		},
		{
			name:          "enum on object",
			node:          &Node{Type: TypeObject, Enum: []any{1}},
			expectedError: "enum is only applicable to scalar types",
		},
		{
			name:          "items on scalar",
			node:          &Node{Type: TypeInt, Items: String("")},
			expectedError: "int node cannot declare items",
		},
		{
			name:          "properties on scalar",
			node:          &Node{Type: TypeString, Properties: map[string]*Node{"a": Int("")}},
			expectedError: "string node cannot declare properties",
		},
		{
			name:          "properties on array",
			node:          &Node{Type: TypeArray, Items: Int(""), Properties: map[string]*Node{"a": Int("")}},
			expectedError: "array node cannot declare properties",
		},
		{
			name:          "nested invalid node",
			node:          Object("", map[string]*Node{"bad": {Type: TypeArray}}),
			expectedError: "properties.bad: array node must declare items",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.node.Validate()
			if tc.expectedError != "" {
				require.ErrorContains(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNodeValidateRejectsSelfReference(t *testing.T) {
	n := &Node{Type: TypeArray}
	n.Items = n

	require.ErrorContains(t, n.Validate(), "references itself")

	deep := Object("", map[string]*Node{"child": Array("", n)})
	require.ErrorContains(t, deep.Validate(), "references itself")
}

func TestNodeValidateAllowsSharedSubtrees(t *testing.T) {
	shared := String("reused leaf")
	n := Object("", map[string]*Node{
		"a": shared,
		"b": shared,
		"c": Array("", shared),
	})

	require.NoError(t, n.Validate())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		data          string
		expected      *Node
		expectedError string
	}{
		{
			name: "yaml object",
			data: `
type: object
description: jenkins job params
properties:
  branch:
    type: string
    enum: [master, develop]
  timeout:
    type: int
`,
			expected: &Node{
				Type:        TypeObject,
				Description: "jenkins job params",
				Properties: map[string]*Node{
					"branch":  {Type: TypeString, Enum: []any{"master", "develop"}},
					"timeout": {Type: TypeInt},
				},
			},
		},
		{
			name: "json array",
			data: `{"type": "array", "items": {"type": "float"}}`,
			expected: &Node{
				Type:  TypeArray,
				Items: &Node{Type: TypeFloat},
			},
		},
		{
			name:          "invalid tree",
			data:          `{"type": "array"}`,
			expectedError: "array node must declare items",
		},
		{
			name:          "unknown type",
			data:          `{"type": "blob"}`,
			expectedError: `got "blob"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, err := Parse([]byte(tc.data))
			if tc.expectedError != "" {
				require.ErrorContains(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, n)
		})
	}
}

func TestWireRoundTrip(t *testing.T) {
	original := Object("root", map[string]*Node{
		"name":   {Type: TypeString, Description: "a name", Enum: []any{"a", "b"}},
		"weight": Float("kg"),
		"tags":   Array("labels", String("")),
		"nested": Object("", map[string]*Node{
			"grid": Array("", Array("", Int("cell"))),
			"open": Object("accepts anything", nil),
		}),
	})
	require.NoError(t, original.Validate())

	t.Run("json", func(t *testing.T) {
		b, err := json.Marshal(original)
		require.NoError(t, err)

		parsed, err := Parse(b)
		require.NoError(t, err)
		assert.Equal(t, original, parsed)
	})

	t.Run("yaml", func(t *testing.T) {
		b, err := yaml.Marshal(original)
		require.NoError(t, err)

		parsed, err := Parse(b)
		require.NoError(t, err)
		assert.Equal(t, original, parsed)
	})
}
