package toolchain

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// installVersion lays out <dir>/<name>/<version>/bin/<name> the way a
// toolcache does, with an executable stub as the interpreter.
func installVersion(t *testing.T, dir, name, version string) string {
	t.Helper()
	binDir := filepath.Join(dir, name, version, "bin")
	require.NoError(t, os.MkdirAll(binDir, 0755))
	bin := filepath.Join(binDir, name)
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))
	return bin
}

func noLookPath(file string) (string, error) {
	return "", fmt.Errorf("%s: not found", file)
}

func TestLocator_Resolve_Exact(t *testing.T) {
	cache := t.TempDir()
	bin := installVersion(t, cache, "python", "3.7.3")

	loc := NewLocator(cache)
	loc.lookPath = noLookPath

	rt, err := loc.Resolve("python", "3.7.3")
	require.NoError(t, err)
	assert.Equal(t, "python", rt.Name)
	assert.Equal(t, "3.7.3", rt.Version)
	assert.Equal(t, bin, rt.Path)
	assert.Equal(t, filepath.Dir(bin), rt.BinDir)
}

func TestLocator_Resolve_PrefixPicksHighest(t *testing.T) {
	cache := t.TempDir()
	installVersion(t, cache, "python", "3.7.3")
	want := installVersion(t, cache, "python", "3.7.12")
	installVersion(t, cache, "python", "3.8.1")

	loc := NewLocator(cache)
	loc.lookPath = noLookPath

	rt, err := loc.Resolve("python", "3.7")
	require.NoError(t, err)
	assert.Equal(t, "3.7.12", rt.Version)
	assert.Equal(t, want, rt.Path)
}

func TestLocator_Resolve_PrefixRespectsDotBoundary(t *testing.T) {
	cache := t.TempDir()
	installVersion(t, cache, "python", "3.70.1")

	loc := NewLocator(cache)
	loc.lookPath = noLookPath

	_, err := loc.Resolve("python", "3.7")
	assert.ErrorIs(t, err, ErrRuntimeNotFound)
}

func TestLocator_Resolve_MajorSuffixedBinary(t *testing.T) {
	cache := t.TempDir()
	binDir := filepath.Join(cache, "python", "3.7.12", "bin")
	require.NoError(t, os.MkdirAll(binDir, 0755))
	bin := filepath.Join(binDir, "python3")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	loc := NewLocator(cache)
	loc.lookPath = noLookPath

	rt, err := loc.Resolve("python", "3.7")
	require.NoError(t, err)
	assert.Equal(t, bin, rt.Path)
}

func TestLocator_Resolve_SkipsNonExecutable(t *testing.T) {
	cache := t.TempDir()
	binDir := filepath.Join(cache, "python", "3.7.12", "bin")
	require.NoError(t, os.MkdirAll(binDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "python"), []byte("x"), 0644))

	loc := NewLocator(cache)
	loc.lookPath = noLookPath

	_, err := loc.Resolve("python", "3.7")
	assert.ErrorIs(t, err, ErrRuntimeNotFound)
}

func TestLocator_Resolve_PathFallback(t *testing.T) {
	loc := NewLocator("")
	loc.lookPath = func(file string) (string, error) {
		if file == "python3.7" {
			return "/usr/bin/python3.7", nil
		}
		return "", fmt.Errorf("%s: not found", file)
	}

	rt, err := loc.Resolve("python", "3.7")
	require.NoError(t, err)
	assert.Equal(t, "3.7", rt.Version)
	assert.Equal(t, "/usr/bin/python3.7", rt.Path)
	assert.Equal(t, "/usr/bin", rt.BinDir)
}

func TestLocator_Resolve_PathFallbackMajorMinor(t *testing.T) {
	var asked []string
	loc := NewLocator("")
	loc.lookPath = func(file string) (string, error) {
		asked = append(asked, file)
		if file == "python3.7" {
			return "/usr/bin/python3.7", nil
		}
		return "", fmt.Errorf("%s: not found", file)
	}

	rt, err := loc.Resolve("python", "3.7.12")
	require.NoError(t, err)
	assert.Equal(t, []string{"python3.7.12", "python3.7"}, asked)
	assert.Equal(t, "/usr/bin/python3.7", rt.Path)
	assert.Equal(t, "3.7.12", rt.Version)
}

func TestLocator_Resolve_CacheBeatsPath(t *testing.T) {
	cache := t.TempDir()
	want := installVersion(t, cache, "python", "3.7.12")

	loc := NewLocator(cache)
	loc.lookPath = func(file string) (string, error) {
		return "/usr/bin/" + file, nil
	}

	rt, err := loc.Resolve("python", "3.7")
	require.NoError(t, err)
	assert.Equal(t, want, rt.Path)
}

func TestLocator_Resolve_NotFound(t *testing.T) {
	loc := NewLocator(t.TempDir())
	loc.lookPath = noLookPath

	_, err := loc.Resolve("python", "3.7")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuntimeNotFound)
	assert.Contains(t, err.Error(), "python 3.7")
}

func TestLocator_Resolve_MissingArgs(t *testing.T) {
	loc := NewLocator("")
	loc.lookPath = noLookPath

	_, err := loc.Resolve("", "3.7")
	assert.Error(t, err)

	_, err = loc.Resolve("python", "")
	assert.Error(t, err)
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"3.7.3", "3.7.12", -1},
		{"3.7.12", "3.7.3", 1},
		{"3.7.12", "3.7.12", 0},
		{"3.8", "3.7.12", 1},
		{"3.7", "3.7.1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, compareVersions(tt.a, tt.b))
		})
	}
}
