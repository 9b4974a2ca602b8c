// Package schema wraps Avro parsing for the deployment pipeline. Every parse uses its own named
// type cache so that two topics declaring the same record name never see each other's types.
package schema

import (
	"fmt"

	"github.com/hamba/avro/v2"
)

type Schema struct {
	parsed avro.Schema
}

// Parse parses raw Avro schema JSON.
func Parse(raw string) (*Schema, error) {
	parsed, err := avro.ParseWithCache(raw, "", &avro.SchemaCache{})
	if err != nil {
		return nil, fmt.Errorf("invalid avro schema: %w", err)
	}

	return &Schema{parsed: parsed}, nil
}

// IsRecord reports whether the top level type is an Avro record.
func (s *Schema) IsRecord() bool {
	return s.parsed.Type() == avro.Record
}

// Type returns the Avro type name of the top level schema, e.g. "record" or "string".
func (s *Schema) Type() string {
	return string(s.parsed.Type())
}

// CanonicalForm returns the Parsing Canonical Form of the schema, which is what gets sent to
// the registry.
func (s *Schema) CanonicalForm() string {
	return s.parsed.String()
}
