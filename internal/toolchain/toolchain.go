// Package toolchain locates runtime interpreters for jobs.
//
// A job asks for a runtime by name and version ("python", "3.7"). The
// locator checks a toolcache directory first, where installations live
// under <dir>/<name>/<full-version>/bin, and falls back to versioned
// binaries on PATH ("python3.7"). Resolution failure is an
// environment-provisioning failure and is fatal to the job.
//
// Key types:
//   - [Locator]: resolves a name/version pair to an installed [Runtime]
//   - [ErrRuntimeNotFound]: sentinel for a version that is nowhere installed
package toolchain

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrRuntimeNotFound indicates no installation satisfies the requested
// name and version. Callers detect it with errors.Is.
var ErrRuntimeNotFound = errors.New("runtime not found")

// Runtime is a resolved interpreter installation.
type Runtime struct {
	// Name is the runtime name as requested, e.g. "python".
	Name string

	// Version is the resolved version. For toolcache installations this
	// is the full installed version ("3.7.12" for a "3.7" request); for
	// PATH fallbacks it is the requested version.
	Version string

	// Path is the interpreter binary.
	Path string

	// BinDir is the directory later steps prepend to PATH so that the
	// resolved interpreter shadows any system one.
	BinDir string
}

// Locator resolves runtime versions against a toolcache directory and PATH.
type Locator struct {
	dir      string
	lookPath func(file string) (string, error)
}

// NewLocator creates a [Locator] over the given toolcache directory.
// An empty dir skips the toolcache and resolves from PATH only.
func NewLocator(dir string) *Locator {
	return &Locator{
		dir:      dir,
		lookPath: exec.LookPath,
	}
}

// Resolve finds an interpreter matching the requested version.
//
// The version may be exact ("3.7.12") or a prefix ("3.7", "3"); a prefix
// matches any installed version within it and the highest match wins.
// Returns [ErrRuntimeNotFound] when neither the toolcache nor PATH has a
// matching installation.
func (l *Locator) Resolve(name, version string) (Runtime, error) {
	if name == "" {
		return Runtime{}, fmt.Errorf("runtime name is required")
	}
	if version == "" {
		return Runtime{}, fmt.Errorf("runtime version is required")
	}

	if rt, ok := l.fromCache(name, version); ok {
		return rt, nil
	}
	if rt, ok := l.fromPath(name, version); ok {
		return rt, nil
	}

	return Runtime{}, fmt.Errorf("%s %s: %w", name, version, ErrRuntimeNotFound)
}

// fromCache scans <dir>/<name> for installed versions matching the request
// and returns the highest one.
func (l *Locator) fromCache(name, version string) (Runtime, bool) {
	if l.dir == "" {
		return Runtime{}, false
	}

	entries, err := os.ReadDir(filepath.Join(l.dir, name))
	if err != nil {
		return Runtime{}, false
	}

	var best string
	var bestBin string
	for _, entry := range entries {
		if !entry.IsDir() || !versionMatches(version, entry.Name()) {
			continue
		}
		bin, ok := interpreterBin(filepath.Join(l.dir, name, entry.Name(), "bin"), name)
		if !ok {
			continue
		}
		if best == "" || compareVersions(entry.Name(), best) > 0 {
			best = entry.Name()
			bestBin = bin
		}
	}

	if best == "" {
		return Runtime{}, false
	}
	return Runtime{
		Name:    name,
		Version: best,
		Path:    bestBin,
		BinDir:  filepath.Dir(bestBin),
	}, true
}

// fromPath looks for versioned binaries on PATH, e.g. "python3.7" for a
// "3.7" request. Bare unversioned binaries are not considered because
// their version cannot be told from the name.
func (l *Locator) fromPath(name, version string) (Runtime, bool) {
	candidates := []string{name + version}
	if mm := majorMinor(version); mm != version {
		candidates = append(candidates, name+mm)
	}

	for _, candidate := range candidates {
		path, err := l.lookPath(candidate)
		if err != nil {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		return Runtime{
			Name:    name,
			Version: version,
			Path:    abs,
			BinDir:  filepath.Dir(abs),
		}, true
	}

	return Runtime{}, false
}

// interpreterBin finds the interpreter inside an installation's bin
// directory, accepting both plain ("python") and major-suffixed
// ("python3") names.
func interpreterBin(binDir, name string) (string, bool) {
	for _, base := range []string{name, name + "3"} {
		path := filepath.Join(binDir, base)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0111 == 0 {
			continue
		}
		return path, true
	}
	return "", false
}

// versionMatches reports whether an installed version satisfies the
// requested one: exact equality or a prefix at a dot boundary, so "3.7"
// matches "3.7.12" but not "3.70.1".
func versionMatches(requested, installed string) bool {
	return installed == requested || strings.HasPrefix(installed, requested+".")
}

// compareVersions orders dotted versions numerically per segment, so
// "3.7.12" sorts above "3.7.3". Non-numeric segments fall back to string
// order.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

// majorMinor trims a version to its first two segments; shorter versions
// come back unchanged.
func majorMinor(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) <= 2 {
		return version
	}
	return strings.Join(parts[:2], ".")
}
