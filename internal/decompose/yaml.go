package decompose

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileDecomposer parses a YAML project spec file into requirements. It
// ignores the free-form request text; the file is the source of truth.
type FileDecomposer struct {
	path string
}

// compile-time check
var _ Decomposer = (*FileDecomposer)(nil)

// NewFileDecomposer creates a decomposer reading the given spec file.
func NewFileDecomposer(path string) *FileDecomposer {
	return &FileDecomposer{path: path}
}

// Decompose reads and parses the configured spec file. A malformed or
// invalid spec is a fatal planning error, not something to retry.
func (d *FileDecomposer) Decompose(ctx context.Context, _ string) (*ParsedSpec, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML spec document. Requirements without an ID get a
// generated one; structural problems surface through Validate.
func Parse(data []byte) (*ParsedSpec, error) {
	var spec ParsedSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	if len(spec.Requirements) == 0 {
		return nil, fmt.Errorf("spec contains no requirements")
	}

	for i := range spec.Requirements {
		if spec.Requirements[i].ID == "" {
			spec.Requirements[i].ID = shortID()
		}
	}

	result := Validate(&spec)
	if !result.Valid {
		return nil, fmt.Errorf("invalid spec: %s", result.Errors[0])
	}
	return &spec, nil
}
