package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound indicates no record exists for the requested run ID.
var ErrNotFound = errors.New("run not found")

// recordFile is the record's file name inside each run directory.
const recordFile = "run.yaml"

// Store reads and writes run records under a directory.
//
// Layout: <dir>/<run-id>/run.yaml plus <dir>/<run-id>/logs/<job-slug>/
// <NN>-<step>.log per executed step. Use [NewStore] to create one; the
// directory is created on first save.
type Store struct {
	dir string
}

// NewStore creates a [Store] rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store root.
func (s *Store) Dir() string {
	return s.dir
}

// Save persists a run record and its step logs.
//
// Step output is written to per-step log files and the record's LogPath
// fields are filled in before the record itself is written. The record
// write is atomic (temp file then rename), so an existing record is
// either fully replaced or left intact.
func (s *Store) Save(run *Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	runDir := filepath.Join(s.dir, run.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	for ji := range run.Jobs {
		job := &run.Jobs[ji]
		for si := range job.Steps {
			step := &job.Steps[si]
			if step.Output == "" {
				continue
			}

			logDir := filepath.Join(runDir, "logs", job.Slug)
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}

			name := fmt.Sprintf("%02d-%s.log", si+1, logName(step.Name))
			if err := os.WriteFile(filepath.Join(logDir, name), []byte(step.Output), 0644); err != nil {
				return fmt.Errorf("failed to write step log: %w", err)
			}
			step.LogPath = filepath.Join(run.ID, "logs", job.Slug, name)
		}
	}

	data, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	recordPath := filepath.Join(runDir, recordFile)
	tmpPath := recordPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write run record: %w", err)
	}
	if err := os.Rename(tmpPath, recordPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write run record: %w", err)
	}

	return nil
}

// Get reads the record for a run ID. Returns [ErrNotFound] when no record
// exists.
func (s *Store) Get(id string) (*Run, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id, recordFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}

	var run Run
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run record: %w", err)
	}
	return &run, nil
}

// List returns up to limit records, most recently started first. A limit
// of zero or less returns all records. Directories without a readable
// record are skipped.
func (s *Store) List(limit int) ([]*Run, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var runs []*Run
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		run, err := s.Get(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// ReadLog reads a step log by the record's LogPath. Paths escaping the
// store root are rejected.
func (s *Store) ReadLog(logPath string) ([]byte, error) {
	clean := filepath.Clean(logPath)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("invalid log path: %s", logPath)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, clean))
	if err != nil {
		return nil, fmt.Errorf("failed to read step log: %w", err)
	}
	return data, nil
}

// logName makes a step name safe for use as a file name.
func logName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	out := strings.Trim(sb.String(), "-")
	if out == "" {
		return "step"
	}
	return out
}
