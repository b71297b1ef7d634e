package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFilter_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name         string
		yaml         string
		wantEvents   []EventType
		wantBranches []string
		wantErr      bool
	}{
		{
			name:       "scalar form",
			yaml:       `on: push`,
			wantEvents: []EventType{EventPush},
		},
		{
			name:       "sequence form",
			yaml:       `on: [push]`,
			wantEvents: []EventType{EventPush},
		},
		{
			name: "mapping form with branches",
			yaml: `on:
  push:
    branches: [main, "release/*"]`,
			wantEvents:   []EventType{EventPush},
			wantBranches: []string{"main", "release/*"},
		},
		{
			name: "mapping form without branches",
			yaml: `on:
  push: {}`,
			wantEvents: []EventType{EventPush},
		},
		{
			name:    "invalid nested shape",
			yaml:    `on: {push: [not, a, mapping]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc struct {
				On Filter `yaml:"on"`
			}
			err := yaml.Unmarshal([]byte(tt.yaml), &doc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEvents, doc.On.Events)
			assert.Equal(t, tt.wantBranches, doc.On.Branches)
		})
	}
}

func TestFilter_Validate(t *testing.T) {
	tests := []struct {
		name      string
		filter    Filter
		wantErr   bool
		wantErrIs error
	}{
		{
			name:   "push is deliverable",
			filter: Filter{Events: []EventType{EventPush}},
		},
		{
			name:    "no events",
			filter:  Filter{},
			wantErr: true,
		},
		{
			name:      "unknown event",
			filter:    Filter{Events: []EventType{"pull_request"}},
			wantErr:   true,
			wantErrIs: ErrUnknownEvent,
		},
		{
			name:      "typo in event name",
			filter:    Filter{Events: []EventType{"psuh"}},
			wantErr:   true,
			wantErrIs: ErrUnknownEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			}
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	push := func(ref string) *PushEvent {
		return &PushEvent{Repo: "acme/rice-env", Ref: ref}
	}

	tests := []struct {
		name   string
		filter Filter
		event  *PushEvent
		want   bool
	}{
		{
			name:   "bare push matches any branch",
			filter: Filter{Events: []EventType{EventPush}},
			event:  push("refs/heads/main"),
			want:   true,
		},
		{
			name:   "bare push matches feature branch",
			filter: Filter{Events: []EventType{EventPush}},
			event:  push("refs/heads/fix/typos"),
			want:   true,
		},
		{
			name:   "branch filter exact match",
			filter: Filter{Events: []EventType{EventPush}, Branches: []string{"main"}},
			event:  push("refs/heads/main"),
			want:   true,
		},
		{
			name:   "branch filter rejects other branch",
			filter: Filter{Events: []EventType{EventPush}, Branches: []string{"main"}},
			event:  push("refs/heads/dev"),
			want:   false,
		},
		{
			name:   "branch filter glob match",
			filter: Filter{Events: []EventType{EventPush}, Branches: []string{"release/*"}},
			event:  push("refs/heads/release/1.2"),
			want:   true,
		},
		{
			name:   "no declared events never matches",
			filter: Filter{},
			event:  push("refs/heads/main"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.event))
		})
	}
}

func TestPushEvent_Branch(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"refs/heads/main", "main"},
		{"refs/heads/release/1.2", "release/1.2"},
		{"refs/tags/v1.0.0", "refs/tags/v1.0.0"},
	}

	for _, tt := range tests {
		e := &PushEvent{Ref: tt.ref}
		assert.Equal(t, tt.want, e.Branch())
	}
}

func TestLocalPush(t *testing.T) {
	e := LocalPush("acme/rice-env", "")
	assert.Equal(t, "refs/heads/local", e.Ref)
	assert.Equal(t, "local", e.Pusher)
	require.NoError(t, e.Validate())
	assert.False(t, e.ReceivedAt.IsZero())

	e = LocalPush("acme/rice-env", "main")
	assert.Equal(t, "main", e.Branch())
}
