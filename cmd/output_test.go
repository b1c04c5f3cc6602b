// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package cmd

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderValues(t *testing.T) {
	values := map[string]any{
		"branch": "main",
		"ports":  []any{80, 443},
	}

	t.Run("yaml", func(t *testing.T) {
		out, err := renderValues(values, FormatYAML)
		require.NoError(t, err)
		assert.Contains(t, out, "branch: main")
		assert.Contains(t, out, "- 80")
	})

	t.Run("json", func(t *testing.T) {
		out, err := renderValues(values, FormatJSON)
		require.NoError(t, err)
		assert.Contains(t, out, `"branch": "main"`)
	})
}

func TestPrintHighlighted(t *testing.T) {
	t.Run("no color", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")

		var buf strings.Builder
		printHighlighted(&buf, "branch: main\n", "yaml")
		assert.Equal(t, "branch: main\n", buf.String())
	})

	t.Run("highlighted output keeps the text", func(t *testing.T) {
		var buf strings.Builder
		printHighlighted(&buf, "branch: main\n", "yaml")
		assert.Contains(t, ansi.Strip(buf.String()), "branch: main")
	})
}

func TestOutputFormat(t *testing.T) {
	var f OutputFormat

	require.NoError(t, f.Set("json"))
	assert.Equal(t, FormatJSON, f)
	assert.Equal(t, "json", f.String())
	assert.Equal(t, "json", f.Lexer())
	assert.Equal(t, "format", f.Type())

	require.NoError(t, f.Set("yaml"))
	assert.Equal(t, FormatYAML, f)

	require.ErrorContains(t, f.Set("toml"), "must be one of")
}
