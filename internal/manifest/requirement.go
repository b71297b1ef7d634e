package manifest

import (
	"fmt"
	"regexp"
	"strings"
)

// Requirement is one parsed dependency spec, e.g. "ray[rllib]==1.0.0".
type Requirement struct {
	// Name is the package name as written.
	Name string

	// Extras are the optional-feature qualifiers from the [...] clause.
	Extras []string

	// Constraint is the version comparator ("==", ">=", ...), empty for an
	// unconstrained requirement.
	Constraint string

	// Version is the version the constraint compares against.
	Version string
}

// constraint operators, two-character ones first so "==" is not read as "=".
var constraints = []string{"==", ">=", "<=", "~=", "!=", ">", "<"}

var (
	nameRe    = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	versionRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+!*-]*$`)
)

// ParseRequirement parses a single requirement spec.
//
// The supported grammar is name, optional [extras], optional constraint and
// version: "numpy", "gym>=0.21", "ray[rllib]==1.0.0". Whitespace around the
// constraint is tolerated. Environment markers (everything after a ";") and
// installer options are not supported and produce errors.
func ParseRequirement(s string) (Requirement, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Requirement{}, fmt.Errorf("empty requirement")
	}
	if strings.HasPrefix(raw, "-") {
		return Requirement{}, fmt.Errorf("unsupported installer option %q", raw)
	}
	if strings.Contains(raw, ";") {
		return Requirement{}, fmt.Errorf("environment markers are not supported in %q", raw)
	}

	rest := raw
	var req Requirement

	// Split off the constraint first so extras parsing sees only the head.
	for _, op := range constraints {
		if i := strings.Index(rest, op); i >= 0 {
			req.Constraint = op
			req.Version = strings.TrimSpace(rest[i+len(op):])
			rest = strings.TrimSpace(rest[:i])
			break
		}
	}

	// Extras clause: name[extra1,extra2]
	if i := strings.IndexByte(rest, '['); i >= 0 {
		if !strings.HasSuffix(rest, "]") {
			return Requirement{}, fmt.Errorf("unclosed extras clause in %q", raw)
		}
		for _, extra := range strings.Split(rest[i+1:len(rest)-1], ",") {
			extra = strings.TrimSpace(extra)
			if extra == "" {
				return Requirement{}, fmt.Errorf("empty extra in %q", raw)
			}
			if !nameRe.MatchString(extra) {
				return Requirement{}, fmt.Errorf("invalid extra %q in %q", extra, raw)
			}
			req.Extras = append(req.Extras, extra)
		}
		rest = rest[:i]
	}

	req.Name = strings.TrimSpace(rest)
	if req.Name == "" {
		return Requirement{}, fmt.Errorf("missing package name in %q", raw)
	}
	if !nameRe.MatchString(req.Name) {
		return Requirement{}, fmt.Errorf("invalid package name %q", req.Name)
	}

	if req.Constraint != "" {
		if req.Version == "" {
			return Requirement{}, fmt.Errorf("missing version after %q in %q", req.Constraint, raw)
		}
		if !versionRe.MatchString(req.Version) {
			return Requirement{}, fmt.Errorf("invalid version %q in %q", req.Version, raw)
		}
	}

	return req, nil
}

// Pinned reports whether the requirement fixes an exact version.
func (r Requirement) Pinned() bool {
	return r.Constraint == "=="
}

// String reassembles the spec in canonical form, suitable for passing to the
// installer: name[extras]==version.
func (r Requirement) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	if len(r.Extras) > 0 {
		sb.WriteByte('[')
		sb.WriteString(strings.Join(r.Extras, ","))
		sb.WriteByte(']')
	}
	if r.Constraint != "" {
		sb.WriteString(r.Constraint)
		sb.WriteString(r.Version)
	}
	return sb.String()
}

// canonicalName lowercases a package name and folds _ to -, the usual
// equivalence for package indexes.
func canonicalName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "-")
}
