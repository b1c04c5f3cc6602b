// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package splice

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/spf13/cast"
)

// marker is one ${...} occurrence inside a string, start/end bound the whole
// marker including delimiters, src is the expression body
type marker struct {
	start, end int
	src        string
}

// findMarkers locates every ${...} marker in s
//
// Braces nested inside the expression and braces inside quoted strings do not
// terminate the marker
func findMarkers(s string) ([]marker, error) {
	var markers []marker

	for i := 0; i < len(s)-1; i++ {
		if s[i] != '$' || s[i+1] != '{' {
			continue
		}

		depth := 1
		var quote byte
		j := i + 2
		for ; j < len(s); j++ {
			c := s[j]
			if quote != 0 {
				if c == '\\' {
					j++
				} else if c == quote {
					quote = 0
				}
				continue
			}
			switch c {
			case '\'', '"', '`':
				quote = c
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				break
			}
		}
		if depth != 0 {
			return nil, &TemplateEvalError{Expr: s[i+2:], Err: errors.New("unterminated ${ marker")}
		}

		markers = append(markers, marker{start: i, end: j + 1, src: strings.TrimSpace(s[i+2 : j])})
		i = j
	}

	return markers, nil
}

// refCollector gathers reference keys from an expression AST
//
// Member chains built from constant string properties (a.b, a["b"]) collapse
// to dotted keys, everything else roots at its leading identifier
type refCollector struct {
	declared func(string) bool
	idents   map[*ast.IdentifierNode]string
	chains   map[*ast.IdentifierNode][]string
}

func (c *refCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		c.idents[n] = n.Value
	case *ast.MemberNode:
		chain, root := flattenChain(n)
		if root == nil || chain == nil {
			return
		}
		if current, ok := c.chains[root]; !ok || len(chain) > len(current) {
			c.chains[root] = chain
		}
	}
}

// flattenChain collapses a member access into its dotted parts, stopping at
// the first dynamic or numeric property
func flattenChain(n ast.Node) ([]string, *ast.IdentifierNode) {
	switch m := n.(type) {
	case *ast.IdentifierNode:
		return []string{m.Value}, m
	case *ast.MemberNode:
		base, root := flattenChain(m.Node)
		if base == nil || root == nil {
			return nil, root
		}
		prop, ok := m.Property.(*ast.StringNode)
		if !ok {
			return nil, root
		}
		return append(base, prop.Value), root
	}
	return nil, nil
}

func (c *refCollector) refs() []string {
	consumed := make(map[*ast.IdentifierNode]bool, len(c.chains))
	seen := make(map[string]bool)
	var refs []string

	record := func(key string) {
		if !seen[key] {
			seen[key] = true
			refs = append(refs, key)
		}
	}

	for root, chain := range c.chains {
		consumed[root] = true
		record(c.referenceKey(chain))
	}
	for node, name := range c.idents {
		if consumed[node] {
			continue
		}
		record(name)
	}

	slices.Sort(refs)
	return refs
}

// referenceKey picks the longest declared dotted prefix of a member chain,
// contexts may key entries by opaque dotted names (a.b.c) or by structured
// root values (a), both spell the same in a template
func (c *refCollector) referenceKey(chain []string) string {
	for i := len(chain); i > 1; i-- {
		key := strings.Join(chain[:i], ".")
		if c.declared(key) {
			return key
		}
	}
	return chain[0]
}

// refsInExpr parses one expression and returns the reference keys it uses
func refsInExpr(src string, declared func(string) bool) ([]string, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, &TemplateEvalError{Expr: src, Err: err}
	}

	collector := &refCollector{
		declared: declared,
		idents:   map[*ast.IdentifierNode]string{},
		chains:   map[*ast.IdentifierNode][]string{},
	}
	ast.Walk(&tree.Node, collector)

	return collector.refs(), nil
}

// Refs returns the sorted set of reference keys a value depends on, scanning
// strings at any depth of nested maps and slices
//
// declared reports whether a key exists in the surrounding context and is only
// used to group dotted member chains, keys are returned whether declared or not
func Refs(value any, declared func(string) bool) ([]string, error) {
	if declared == nil {
		declared = func(string) bool { return false }
	}

	seen := make(map[string]bool)
	var refs []string
	if err := collectRefs(value, declared, seen, &refs); err != nil {
		return nil, err
	}

	slices.Sort(refs)
	return refs, nil
}

func collectRefs(value any, declared func(string) bool, seen map[string]bool, refs *[]string) error {
	switch val := value.(type) {
	case string:
		markers, err := findMarkers(val)
		if err != nil {
			return err
		}
		for _, m := range markers {
			found, err := refsInExpr(m.src, declared)
			if err != nil {
				return err
			}
			for _, ref := range found {
				if !seen[ref] {
					seen[ref] = true
					*refs = append(*refs, ref)
				}
			}
		}
	case map[string]any:
		for _, v := range val {
			if err := collectRefs(v, declared, seen, refs); err != nil {
				return err
			}
		}
	case []any:
		for _, v := range val {
			if err := collectRefs(v, declared, seen, refs); err != nil {
				return err
			}
		}
	}
	return nil
}

// Render substitutes every ${...} marker in value using the given bindings and
// returns the derived value, the input is never mutated
//
// A string that is exactly one marker yields the referenced value with its
// type intact, markers embedded in surrounding text are stringified. Values
// produced by substitution are not re-expanded.
func Render(value any, bindings map[string]any) (any, error) {
	return renderValue(value, exprEnv(bindings))
}

func renderValue(value any, env map[string]any) (any, error) {
	switch val := value.(type) {
	case string:
		return renderString(val, env)
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			rendered, err := renderValue(v, env)
			if err != nil {
				return nil, err
			}
			result[k] = rendered
		}
		return result, nil
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			rendered, err := renderValue(v, env)
			if err != nil {
				return nil, err
			}
			result[i] = rendered
		}
		return result, nil
	default:
		return value, nil
	}
}

func renderString(s string, env map[string]any) (any, error) {
	markers, err := findMarkers(s)
	if err != nil {
		return nil, err
	}
	if len(markers) == 0 {
		return s, nil
	}

	// a lone marker spanning the whole string keeps the value's type
	if len(markers) == 1 && markers[0].start == 0 && markers[0].end == len(s) {
		return evalExpr(markers[0].src, env)
	}

	var result strings.Builder
	prev := 0
	for _, m := range markers {
		result.WriteString(s[prev:m.start])

		out, err := evalExpr(m.src, env)
		if err != nil {
			return nil, err
		}
		text, err := cast.ToStringE(out)
		if err != nil {
			return nil, &TemplateEvalError{Expr: m.src, Err: fmt.Errorf("cannot splice %T into a string: %w", out, err)}
		}
		result.WriteString(text)

		prev = m.end
	}
	result.WriteString(s[prev:])

	return result.String(), nil
}

func evalExpr(src string, env map[string]any) (any, error) {
	program, err := expr.Compile(src)
	if err != nil {
		return nil, &TemplateEvalError{Expr: src, Err: err}
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, &TemplateEvalError{Expr: src, Err: err}
	}
	return out, nil
}

// exprEnv shapes a binding map into an expression environment, dotted keys
// become nested maps so ${a.b} works whether the context declared "a.b" or an
// "a" holding a map
func exprEnv(bindings map[string]any) map[string]any {
	env := make(map[string]any, len(bindings))

	keys := make([]string, 0, len(bindings))
	for key := range bindings {
		keys = append(keys, key)
	}
	// shorter keys first so a structured value lands before dotted overrides
	slices.SortFunc(keys, func(a, b string) int {
		if d := len(strings.Split(a, ".")) - len(strings.Split(b, ".")); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})

	for _, key := range keys {
		parts := strings.Split(key, ".")
		m := env
		for _, part := range parts[:len(parts)-1] {
			switch next := m[part].(type) {
			case map[string]any:
				// clone before descending, the map may be caller data
				clone := make(map[string]any, len(next)+1)
				for k, v := range next {
					clone[k] = v
				}
				m[part] = clone
				m = clone
			default:
				clone := make(map[string]any)
				m[part] = clone
				m = clone
			}
		}
		m[parts[len(parts)-1]] = bindings[key]
	}

	return env
}
