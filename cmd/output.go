// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/goccy/go-yaml"
	"github.com/muesli/termenv"

	"github.com/splice-run/splice/schema"
)

// renderValues serializes resolved values for display
func renderValues(values map[string]any, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(values, "", "  ")
		return string(b), err
	default:
		b, err := yaml.MarshalWithOptions(values, yaml.Indent(2), yaml.IndentSequence(true))
		return string(b), err
	}
}

// printHighlighted writes text with syntax highlighting unless colors are off
func printHighlighted(w io.Writer, text, lang string) {
	text = strings.TrimSpace(text)

	if termenv.EnvNoColor() {
		fmt.Fprintln(w, text)
		return
	}

	style := "tokyonight-day"
	if lipgloss.HasDarkBackground() {
		style = "tokyonight-moon"
	}

	var buf strings.Builder
	if err := quick.Highlight(&buf, text, lang, "terminal256", style); err != nil {
		fmt.Fprintln(w, text)
		return
	}

	fmt.Fprintln(w, strings.TrimSpace(buf.String()))
}

// printReports logs every schema violation, one line per finding
func printReports(logger *log.Logger, reports map[string]schema.Report) {
	keys := make([]string, 0, len(reports))
	for key := range reports {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		header := key
		if !termenv.EnvNoColor() {
			header = KeyStyle.Render(key)
		}
		for _, v := range reports[key] {
			logger.Warn(v.String(), "key", header)
		}
	}
}
