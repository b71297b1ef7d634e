package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFromString(t *testing.T) {
	m, err := ReadFromString(`# simulation stack
numpy==1.21.0

pyyaml
gym>=0.21
ray[rllib]==1.0.0  # pinned for the trainer
`)
	require.NoError(t, err)

	assert.Equal(t, []string{"numpy", "pyyaml", "gym", "ray"}, m.Names())

	ray := m.Requirements[3]
	assert.Equal(t, "ray", ray.Name)
	assert.Equal(t, []string{"rllib"}, ray.Extras)
	assert.Equal(t, "==", ray.Constraint)
	assert.Equal(t, "1.0.0", ray.Version)
	assert.True(t, ray.Pinned())
}

func TestReadFromString_Empty(t *testing.T) {
	m, err := ReadFromString("")
	require.NoError(t, err)
	assert.Empty(t, m.Requirements)

	m, err = ReadFromString("# only comments\n\n# and blanks\n")
	require.NoError(t, err)
	assert.Empty(t, m.Requirements)
}

func TestReadFromString_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{
			name:    "missing version after pin",
			data:    "numpy==\n",
			wantMsg: "line 1",
		},
		{
			name:    "installer option line",
			data:    "numpy\n-r extra-requirements.txt\n",
			wantMsg: "line 2",
		},
		{
			name:    "unclosed extras",
			data:    "ray[rllib==1.0.0\n",
			wantMsg: "line 1",
		},
		{
			name:    "environment marker",
			data:    "dataclasses; python_version < \"3.7\"\n",
			wantMsg: "environment markers",
		},
		{
			name:    "garbage line",
			data:    "numpy\n=== not a requirement ===\n",
			wantMsg: "line 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFromString(tt.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestReadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("numpy==1.21.0\n"), 0644))

	m, err := ReadFromFile(path)
	require.NoError(t, err)
	require.Len(t, m.Requirements, 1)
	assert.Equal(t, "numpy", m.Requirements[0].Name)
}

func TestReadFromFile_Missing(t *testing.T) {
	_, err := ReadFromFile(filepath.Join(t.TempDir(), "requirements.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open manifest")
}

func TestManifest_Has(t *testing.T) {
	m, err := ReadFromString("PyYAML\nscikit_learn==1.0\n")
	require.NoError(t, err)

	assert.True(t, m.Has("pyyaml"))
	assert.True(t, m.Has("scikit-learn"))
	assert.True(t, m.Has("SCIKIT_LEARN"))
	assert.False(t, m.Has("torch"))
}

func TestManifest_Pinned(t *testing.T) {
	m, err := ReadFromString("numpy==1.21.0\ngym>=0.21\npyyaml\n")
	require.NoError(t, err)

	pinned := m.Pinned()
	require.Len(t, pinned, 1)
	assert.Equal(t, "numpy", pinned[0].Name)
}
