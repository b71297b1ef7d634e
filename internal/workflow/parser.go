package workflow

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ReadFromFile reads and parses a workflow definition file.
//
// The returned workflow has been validated; a definition the runner cannot
// execute is reported here, before any step runs.
func ReadFromFile(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}

	wf, err := ReadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", path, err)
	}
	return wf, nil
}

// ReadFromBytes parses a workflow definition from YAML bytes.
//
// Decoding is strict: unknown fields are rejected so that typos like
// "disbled" surface as parse errors instead of silently changing behavior.
func ReadFromBytes(data []byte) (*Workflow, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var wf Workflow
	if err := dec.Decode(&wf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("workflow definition is empty")
		}
		return nil, fmt.Errorf("failed to parse workflow: %w", err)
	}

	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return &wf, nil
}
