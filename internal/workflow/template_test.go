package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowci/internal/trigger"
)

func TestExpand(t *testing.T) {
	data := TemplateData{
		Matrix:    Combination{"python": "3.7"},
		Event:     &trigger.PushEvent{Repo: "acme/rice-env", Ref: "refs/heads/main", After: "abc123"},
		Workspace: "/tmp/ws",
	}

	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{
			name:  "plain string passes through",
			value: "pytest",
			want:  "pytest",
		},
		{
			name:  "matrix axis",
			value: "{{.Matrix.python}}",
			want:  "3.7",
		},
		{
			name:  "event field",
			value: "building {{.Event.Repo}}@{{.Event.After}}",
			want:  "building acme/rice-env@abc123",
		},
		{
			name:  "workspace",
			value: "{{.Workspace}}/requirements.txt",
			want:  "/tmp/ws/requirements.txt",
		},
		{
			name:    "unknown matrix axis errors",
			value:   "{{.Matrix.node}}",
			wantErr: true,
		},
		{
			name:    "malformed template errors",
			value:   "{{.Matrix.python",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.value, data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandAll(t *testing.T) {
	data := TemplateData{Matrix: Combination{"python": "3.7"}}

	got, err := ExpandAll(map[string]string{
		"runtime": "python",
		"version": "{{.Matrix.python}}",
	}, data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"runtime": "python", "version": "3.7"}, got)

	_, err = ExpandAll(map[string]string{"version": "{{.Matrix.absent}}"}, data)
	assert.Error(t, err)

	got, err = ExpandAll(nil, data)
	require.NoError(t, err)
	assert.Nil(t, got)
}
