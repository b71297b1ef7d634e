package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix_Combinations(t *testing.T) {
	tests := []struct {
		name   string
		matrix Matrix
		want   []Combination
	}{
		{
			name:   "nil matrix yields one empty combination",
			matrix: nil,
			want:   []Combination{{}},
		},
		{
			name:   "single axis single value",
			matrix: Matrix{"python": {"3.7"}},
			want:   []Combination{{"python": "3.7"}},
		},
		{
			name:   "single axis multiple values keeps declared order",
			matrix: Matrix{"python": {"3.7", "3.8", "3.9"}},
			want: []Combination{
				{"python": "3.7"},
				{"python": "3.8"},
				{"python": "3.9"},
			},
		},
		{
			name: "two axes expand to cartesian product in sorted axis order",
			matrix: Matrix{
				"python": {"3.7", "3.8"},
				"os":     {"linux", "darwin"},
			},
			want: []Combination{
				{"os": "linux", "python": "3.7"},
				{"os": "linux", "python": "3.8"},
				{"os": "darwin", "python": "3.7"},
				{"os": "darwin", "python": "3.8"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.matrix.Combinations()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatrix_CombinationsDeterministic(t *testing.T) {
	m := Matrix{
		"python": {"3.7", "3.8"},
		"os":     {"linux"},
		"arch":   {"amd64", "arm64"},
	}

	first := m.Combinations()
	require.Len(t, first, 4)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Combinations())
	}
}

func TestCombination_String(t *testing.T) {
	assert.Equal(t, "default", Combination{}.String())
	assert.Equal(t, "python=3.7", Combination{"python": "3.7"}.String())
	assert.Equal(t,
		"os=linux, python=3.7",
		Combination{"python": "3.7", "os": "linux"}.String(),
	)
}

func TestCombination_Slug(t *testing.T) {
	assert.Equal(t, "default", Combination{}.Slug())
	assert.Equal(t, "python-3.7", Combination{"python": "3.7"}.Slug())
	assert.Equal(t,
		"os-ubuntu-20.04_python-3.7",
		Combination{"python": "3.7", "os": "ubuntu 20.04"}.Slug(),
	)
}
