package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Requirement
	}{
		{
			name:  "bare name",
			input: "numpy",
			want:  Requirement{Name: "numpy"},
		},
		{
			name:  "pinned",
			input: "numpy==1.21.0",
			want:  Requirement{Name: "numpy", Constraint: "==", Version: "1.21.0"},
		},
		{
			name:  "lower bound",
			input: "gym>=0.21",
			want:  Requirement{Name: "gym", Constraint: ">=", Version: "0.21"},
		},
		{
			name:  "compatible release",
			input: "requests~=2.26",
			want:  Requirement{Name: "requests", Constraint: "~=", Version: "2.26"},
		},
		{
			name:  "extras with pin",
			input: "ray[rllib]==1.0.0",
			want:  Requirement{Name: "ray", Extras: []string{"rllib"}, Constraint: "==", Version: "1.0.0"},
		},
		{
			name:  "multiple extras",
			input: "ray[rllib,serve,tune]==1.0.0",
			want:  Requirement{Name: "ray", Extras: []string{"rllib", "serve", "tune"}, Constraint: "==", Version: "1.0.0"},
		},
		{
			name:  "whitespace around constraint",
			input: "torch == 1.9.0",
			want:  Requirement{Name: "torch", Constraint: "==", Version: "1.9.0"},
		},
		{
			name:  "wildcard version",
			input: "pandas==1.3.*",
			want:  Requirement{Name: "pandas", Constraint: "==", Version: "1.3.*"},
		},
		{
			name:  "dotted name",
			input: "backports.zoneinfo",
			want:  Requirement{Name: "backports.zoneinfo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequirement(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRequirement_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace only", input: "   "},
		{name: "option line", input: "--index-url https://example.com/simple"},
		{name: "nested requirements", input: "-r more.txt"},
		{name: "environment marker", input: `dataclasses; python_version < "3.7"`},
		{name: "unclosed extras", input: "ray[rllib==1.0.0"},
		{name: "empty extra", input: "ray[]==1.0.0"},
		{name: "invalid extra", input: "ray[rl lib]==1.0.0"},
		{name: "missing version", input: "numpy=="},
		{name: "bad version characters", input: "numpy==1.0 beta"},
		{name: "name starts with dot", input: ".numpy"},
		{name: "single equals", input: "numpy=1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequirement(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestRequirement_String(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "numpy", want: "numpy"},
		{input: "gym >= 0.21", want: "gym>=0.21"},
		{input: "ray[rllib]==1.0.0", want: "ray[rllib]==1.0.0"},
		{input: "ray[rllib,serve] == 1.0.0", want: "ray[rllib,serve]==1.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			req, err := ParseRequirement(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.String())
		})
	}
}
