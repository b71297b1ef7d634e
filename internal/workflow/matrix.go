package workflow

import (
	"sort"
	"strings"
)

// Matrix maps axis names to the values each axis takes. Expansion produces
// the cartesian product of all axes.
type Matrix map[string][]string

// Combination is one point of the expanded matrix: a single value per axis.
type Combination map[string]string

// Combinations expands the matrix to the cartesian product of its axes.
//
// A nil or empty matrix yields exactly one empty combination, so a job
// without a matrix still runs exactly once. Expansion is deterministic:
// axes are walked in sorted name order and values in declared order, with
// the last axis varying fastest.
func (m Matrix) Combinations() []Combination {
	if len(m) == 0 {
		return []Combination{{}}
	}

	axes := make([]string, 0, len(m))
	for axis := range m {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	combos := []Combination{{}}
	for _, axis := range axes {
		next := make([]Combination, 0, len(combos)*len(m[axis]))
		for _, base := range combos {
			for _, value := range m[axis] {
				combo := make(Combination, len(base)+1)
				for k, v := range base {
					combo[k] = v
				}
				combo[axis] = value
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

// String renders a combination as "axis=value, axis=value" in sorted axis
// order, or "default" for the empty combination of a matrix-less job.
func (c Combination) String() string {
	if len(c) == 0 {
		return "default"
	}

	axes := make([]string, 0, len(c))
	for axis := range c {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	parts := make([]string, len(axes))
	for i, axis := range axes {
		parts[i] = axis + "=" + c[axis]
	}
	return strings.Join(parts, ", ")
}

// Slug renders a combination as a filesystem-safe identifier, e.g.
// "python-3.7", used for workspace and log directory names.
func (c Combination) Slug() string {
	if len(c) == 0 {
		return "default"
	}

	axes := make([]string, 0, len(c))
	for axis := range c {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	parts := make([]string, len(axes))
	for i, axis := range axes {
		parts[i] = axis + "-" + sanitize(c[axis])
	}
	return strings.Join(parts, "_")
}

// sanitize replaces characters that are awkward in file names.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}
