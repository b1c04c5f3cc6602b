// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package splice

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAndValidateDocument(t *testing.T) {
	tests := []struct {
		name          string
		doc           string
		expectedError string
	}{
		{
			name: "valid document",
			doc: `
vars:
  branch:
    type: plain
    value: main
  image:
    type: splice
    value: registry.local/app:${branch}
schemas:
  branch:
    type: string
    description: git branch to build
`,
		},
		{
			name:          "empty document",
			doc:           `{}`,
			expectedError: "no vars declared",
		},
		{
			name: "unknown variable type",
			doc: `
vars:
  a:
    type: eager
    value: 1
`,
			expectedError: ".vars.a: type must be one of",
		},
		{
			name: "lazy without custom_type",
			doc: `
vars:
  a:
    type: lazy
    value: 1
`,
			expectedError: ".vars.a: lazy variables must declare a custom_type",
		},
		{
			name: "schema without matching var",
			doc: `
vars:
  a:
    type: plain
    value: 1
schemas:
  b:
    type: int
`,
			expectedError: ".schemas.b has no matching var",
		},
		{
			name: "invalid schema tree",
			doc: `
vars:
  a:
    type: plain
    value: [1]
schemas:
  a:
    type: array
`,
			expectedError: ".schemas.a: array node must declare items",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadAndValidateDocument(strings.NewReader(tc.doc))
			if tc.expectedError != "" {
				require.ErrorContains(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDocumentResolve(t *testing.T) {
	doc, err := ReadAndValidateDocument(strings.NewReader(`
vars:
  branch:
    type: plain
    value: master
  timeout:
    type: plain
    value: 3600
  job:
    type: splice
    value:
      branch: ${branch}
      timeout: ${timeout}
schemas:
  job:
    type: object
    properties:
      branch:
        type: string
      timeout:
        type: int
`))
	require.NoError(t, err)

	resolved, reports, err := doc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)

	job, ok := resolved["job"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "master", job["branch"])
}

func TestDocumentResolveReportsViolations(t *testing.T) {
	doc, err := ReadAndValidateDocument(strings.NewReader(`
vars:
  timeout:
    type: plain
    value: "3600"
schemas:
  timeout:
    type: int
`))
	require.NoError(t, err)

	resolved, reports, err := doc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3600", resolved["timeout"])

	require.Len(t, reports, 1)
	report := reports["timeout"]
	require.Len(t, report, 1)
	assert.Equal(t, "int", report[0].Expected)
	assert.Equal(t, "string", report[0].Actual)
}

func TestDocumentResolvePartialFailureStillReports(t *testing.T) {
	doc, err := ReadAndValidateDocument(strings.NewReader(`
vars:
  ok:
    type: plain
    value: fine
  broken:
    type: splice
    value: ${missing}
schemas:
  ok:
    type: string
`))
	require.NoError(t, err)

	resolved, reports, err := doc.Resolve(context.Background())
	require.Error(t, err)
	assert.Equal(t, "fine", resolved["ok"])
	assert.Empty(t, reports)
}

func TestDocumentSchema(t *testing.T) {
	s := DocumentSchema()
	require.NotNil(t, s)
	assert.Equal(t, "https://raw.githubusercontent.com/splice-run/splice/main/splice.schema.json", string(s.ID))
}
