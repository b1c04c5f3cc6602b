// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

package splice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/splice-run/splice/schema"
)

// Document is the boundary with the surrounding workflow definition: the
// variables visible to one resolution pass plus optional per-key schemas their
// resolved values must satisfy
type Document struct {
	// Vars maps reference keys to declared variables
	Vars map[string]Variable `json:"vars"`
	// Schemas maps reference keys to the schema their resolved value is
	// checked against
	Schemas map[string]*schema.Node `json:"schemas,omitempty"`
}

// JSONSchemaExtend documents the document wire format
func (Document) JSONSchemaExtend(s *jsonschema.Schema) {
	if vars, ok := s.Properties.Get("vars"); ok && vars != nil {
		vars.Description = "Variables visible to one resolution pass, keyed by reference key"
	}

	if schemas, ok := s.Properties.Get("schemas"); ok && schemas != nil {
		schemas.Description = "Schemas resolved values are checked against, keyed by reference key"
	}
}

// DocumentSchema returns a JSON schema for a splice document
func DocumentSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{ExpandedStruct: true}
	s := reflector.Reflect(&Document{})

	s.ID = "https://raw.githubusercontent.com/splice-run/splice/main/splice.schema.json"

	return s
}

var schemaOnce = sync.OnceValues(func() (string, error) {
	s := DocumentSchema()
	b, err := json.Marshal(s)
	return string(b), err
})

// ReadDocument reads a document from YAML or JSON
func ReadDocument(r io.Reader) (Document, error) {
	if rs, ok := r.(io.Seeker); ok {
		_, err := rs.Seek(0, io.SeekStart)
		if err != nil {
			return Document{}, err
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}

	var doc Document
	return doc, yaml.Unmarshal(data, &doc)
}

// ValidateDocument validates a document
func ValidateDocument(doc Document) error {
	if len(doc.Vars) == 0 {
		return errors.New("no vars declared")
	}

	for key, v := range doc.Vars {
		if err := v.Validate(); err != nil {
			return fmt.Errorf(".vars.%s: %w", key, err)
		}
	}

	for key, node := range doc.Schemas {
		if _, ok := doc.Vars[key]; !ok {
			return fmt.Errorf(".schemas.%s has no matching var", key)
		}
		if err := node.Validate(); err != nil {
			return fmt.Errorf(".schemas.%s: %w", key, err)
		}
	}

	metaSchema, err := schemaOnce()
	if err != nil {
		return err
	}

	schemaLoader := gojsonschema.NewStringLoader(metaSchema)

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}

	if result.Valid() {
		return nil
	}

	var resErr error
	for _, err := range result.Errors() {
		resErr = errors.Join(resErr, errors.New(err.String()))
	}

	return resErr
}

// ReadAndValidateDocument reads and validates a document
func ReadAndValidateDocument(r io.Reader) (Document, error) {
	doc, err := ReadDocument(r)
	if err != nil {
		return Document{}, err
	}
	return doc, ValidateDocument(doc)
}

// Resolve runs one resolution pass over the document and checks resolved
// values against their declared schemas
//
// Schema reports are returned only for keys with at least one violation.
// Resolution errors and violation reports are independent: a partially failed
// pass still reports on whatever resolved.
func (d Document) Resolve(ctx context.Context, opts ...ContextOption) (map[string]any, map[string]schema.Report, error) {
	rc := NewContext(d.Vars, opts...)

	resolved, err := rc.ResolveAll(ctx)
	if resolved == nil {
		return nil, nil, err
	}

	reports := make(map[string]schema.Report)
	for key, node := range d.Schemas {
		value, ok := resolved[key]
		if !ok {
			continue
		}
		if report := schema.Check(node, value); !report.OK() {
			reports[key] = report
		}
	}

	return resolved, reports, err
}
