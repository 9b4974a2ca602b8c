package pipeline

import (
	"fmt"
	"os"

	"github.com/cloudhut/kdeploy/schema"
	"github.com/cloudhut/kdeploy/topic"
)

func schemaItem(phase Phase, f topic.SchemaFile) Item {
	return Item{
		Phase:   phase,
		Topic:   f.Topic,
		Role:    f.RoleName,
		Subject: f.Subject(),
		Path:    f.Path,
	}
}

// loadSchema reads and parses a schema file from disk. Every phase calls it again so that changes
// between phases are picked up. On failure the returned outcome classifies the error.
func loadSchema(f topic.SchemaFile) (*schema.Schema, Outcome, error) {
	if f.Err != nil {
		return nil, OutcomeFormatError, f.Err
	}

	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, OutcomeReadError, fmt.Errorf("failed to read schema file: %w", err)
	}

	parsed, err := schema.Parse(string(raw))
	if err != nil {
		return nil, OutcomeParseError, err
	}

	return parsed, "", nil
}
