// Package manifest reads dependency manifests in the requirements format.
//
// A manifest lists one requirement per line, with blank lines and # comments
// ignored:
//
//	# simulation stack
//	numpy==1.21.0
//	pyyaml
//	gym>=0.21
//	ray[rllib]==1.0.0
//
// The install step parses the manifest before running any install command;
// a missing or malformed manifest fails the job before anything is
// installed. The same [ParseRequirement] grammar covers the single pinned
// extra-package spec a workflow may declare alongside the manifest.
//
// Installer option lines ("-r other.txt", "--index-url ...") are outside the
// supported grammar and are reported as parse errors.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Manifest holds the requirements parsed from a manifest file, in file order.
type Manifest struct {
	// Requirements are the declared dependencies.
	Requirements []Requirement
}

// ReadFromFile reads and parses a dependency manifest. A missing file is an
// error and fails the install step.
func ReadFromFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	m, err := readFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// ReadFromString parses a dependency manifest from a string. This is useful
// for testing and for inline manifests.
func ReadFromString(data string) (*Manifest, error) {
	return readFromReader(strings.NewReader(data))
}

func readFromReader(r io.Reader) (*Manifest, error) {
	var reqs []Requirement

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		req, err := ParseRequirement(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return &Manifest{Requirements: reqs}, nil
}

// stripComment removes a trailing # comment and surrounding whitespace.
// A # must be at line start or preceded by whitespace to open a comment, so
// version strings containing # (rare, but legal in URLs) survive.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if i == 0 || line[i-1] == ' ' || line[i-1] == '\t' {
			line = line[:i]
			break
		}
	}
	return strings.TrimSpace(line)
}

// Has reports whether the manifest declares a requirement with the given
// name. Comparison is canonical: case-insensitive with - and _ equivalent.
func (m *Manifest) Has(name string) bool {
	want := canonicalName(name)
	for _, r := range m.Requirements {
		if canonicalName(r.Name) == want {
			return true
		}
	}
	return false
}

// Names returns the requirement names in file order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Requirements))
	for i, r := range m.Requirements {
		names[i] = r.Name
	}
	return names
}

// Pinned returns the requirements that pin an exact version.
func (m *Manifest) Pinned() []Requirement {
	var pinned []Requirement
	for _, r := range m.Requirements {
		if r.Pinned() {
			pinned = append(pinned, r)
		}
	}
	return pinned
}
