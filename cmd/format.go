// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package cmd

import "fmt"

// OutputFormat is the serialization used when printing resolved values
type OutputFormat string

// Available output formats
const (
	FormatYAML OutputFormat = "yaml"
	FormatJSON OutputFormat = "json"
)

// String implements pflag.Value
func (o OutputFormat) String() string {
	return string(o)
}

// Set implements pflag.Value
func (o *OutputFormat) Set(value string) error {
	switch OutputFormat(value) {
	case FormatYAML, FormatJSON:
		*o = OutputFormat(value)
		return nil
	default:
		return fmt.Errorf(`must be one of "%s", "%s"`, FormatYAML, FormatJSON)
	}
}

// Type implements pflag.Value
func (o OutputFormat) Type() string {
	return "format"
}

// Lexer is the chroma lexer name for the format
func (o OutputFormat) Lexer() string {
	return string(o)
}
