// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package schema

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Violation is a single schema mismatch finding
//
// Violations are data, not errors: validation always returns a full report
// instead of stopping at the first mismatch
type Violation struct {
	// Path of property names and indexes from the root to the offending value
	Path []string `json:"path"`
	// Expected summarizes the schema node the value was checked against
	Expected string `json:"expected"`
	// Actual is the observed type tag of the value
	Actual string `json:"actual"`
	// Message is a human readable description of the mismatch
	Message string `json:"message"`
}

// String renders the violation in ".foo[0].bar: message" form
func (v Violation) String() string {
	var b strings.Builder
	for _, seg := range v.Path {
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		b.WriteString("." + seg)
	}
	if b.Len() == 0 {
		b.WriteString(".")
	}
	return fmt.Sprintf("%s: %s", b.String(), v.Message)
}

// Report is the result of checking one value against one schema tree
type Report []Violation

// OK reports whether the value satisfied the schema
func (r Report) OK() bool {
	return len(r) == 0
}

// String renders the report one violation per line
func (r Report) String() string {
	lines := make([]string, 0, len(r))
	for _, v := range r {
		lines = append(lines, v.String())
	}
	return strings.Join(lines, "\n")
}

// Check validates a value against a node, returning a possibly empty report
//
// The value is never mutated. Unknown object properties are accepted silently
// and absent declared properties are not violations, the schema is descriptive
// rather than a closed-world constraint.
func Check(n *Node, value any) Report {
	return check(n, value, nil)
}

func check(n *Node, value any, path []string) Report {
	switch n.Type {
	case TypeString, TypeInt, TypeFloat, TypeBoolean:
		return checkScalar(n, value, path)
	case TypeArray:
		return checkArray(n, value, path)
	case TypeObject:
		return checkObject(n, value, path)
	}
	return Report{violation(n, value, path, fmt.Sprintf("unknown schema type %q", n.Type))}
}

func checkScalar(n *Node, value any, path []string) Report {
	var ok bool
	switch n.Type {
	case TypeString:
		_, ok = value.(string)
	case TypeInt:
		ok = isInt(value)
	case TypeFloat:
		ok = isNumber(value)
	case TypeBoolean:
		_, ok = value.(bool)
	}
	if !ok {
		return Report{violation(n, value, path, fmt.Sprintf("expected %s, got %s", n.Type, typeTag(value)))}
	}

	if len(n.Enum) == 0 {
		return nil
	}
	for _, allowed := range n.Enum {
		if scalarEqual(n.Type, allowed, value) {
			return nil
		}
	}
	return Report{violation(n, value, path, fmt.Sprintf("value %v is not one of %v", value, n.Enum))}
}

func checkArray(n *Node, value any, path []string) Report {
	rv := reflect.ValueOf(value)
	if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return Report{violation(n, value, path, fmt.Sprintf("expected array, got %s", typeTag(value)))}
	}

	var report Report
	for i := 0; i < rv.Len(); i++ {
		report = append(report, check(n.Items, rv.Index(i).Interface(), extend(path, strconv.Itoa(i)))...)
	}
	return report
}

func checkObject(n *Node, value any, path []string) Report {
	m, ok := value.(map[string]any)
	if !ok {
		var err error
		m, err = cast.ToStringMapE(value)
		if err != nil {
			return Report{violation(n, value, path, fmt.Sprintf("expected object, got %s", typeTag(value)))}
		}
	}

	var report Report
	for _, name := range sortedKeys(n.Properties) {
		prop, present := m[name]
		if !present {
			continue
		}
		report = append(report, check(n.Properties[name], prop, extend(path, name))...)
	}
	return report
}

func violation(n *Node, value any, path []string, message string) Violation {
	return Violation{
		Path:     append([]string(nil), path...),
		Expected: string(n.Type),
		Actual:   typeTag(value),
		Message:  message,
	}
}

func extend(path []string, seg string) []string {
	next := make([]string, 0, len(path)+1)
	next = append(next, path...)
	return append(next, seg)
}

func sortedKeys(m map[string]*Node) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// scalarEqual compares an enum member against a value after normalizing both
// through the schema's type, wire decoding may hand back differing Go types
// for the same logical value (e.g. float64 vs uint64 for an int)
func scalarEqual(t Type, allowed, value any) bool {
	switch t {
	case TypeString:
		a, err1 := cast.ToStringE(allowed)
		b, err2 := cast.ToStringE(value)
		return err1 == nil && err2 == nil && a == b
	case TypeInt:
		a, err1 := cast.ToInt64E(allowed)
		b, err2 := cast.ToInt64E(value)
		return err1 == nil && err2 == nil && a == b
	case TypeFloat:
		a, err1 := cast.ToFloat64E(allowed)
		b, err2 := cast.ToFloat64E(value)
		return err1 == nil && err2 == nil && a == b
	case TypeBoolean:
		a, err1 := cast.ToBoolE(allowed)
		b, err2 := cast.ToBoolE(value)
		return err1 == nil && err2 == nil && a == b
	}
	return false
}

// isInt accepts Go integer types and integral floats, encoding/json decodes
// every number to float64 so 3600 must still count as an int
func isInt(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return n == float64(int64(n))
	case float32:
		return n == float32(int32(n))
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// typeTag is the observed type of a dynamic value, used in violation reports
func typeTag(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
