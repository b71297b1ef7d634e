// Package trigger defines the events that start workflow runs and the
// matching rules that decide whether an event activates a workflow.
//
// The runner delivers push events only: a webhook delivery in serve mode, or
// a synthesized local push for CLI runs. A workflow declares the events it
// responds to in its "on" clause, optionally narrowed by a branch filter.
//
// Key types:
//   - [PushEvent] - the push delivery payload
//   - [Filter] - a workflow's trigger declaration with matching logic
package trigger

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventType identifies the kind of event that can start a run.
type EventType string

// EventPush is the only event type the runner delivers. Workflows declaring
// other event names fail validation, which catches typos in the "on" clause.
const EventPush EventType = "push"

// ErrUnknownEvent is a sentinel error indicating a workflow declares an event
// type the runner never delivers. Callers should report this as a definition
// error, as it likely indicates a typo in the workflow file.
var ErrUnknownEvent = errors.New("unknown event type")

// knownEvents is the set of event types the runner can deliver.
var knownEvents = map[EventType]bool{
	EventPush: true,
}

// Known reports whether the runner can deliver events of the given type.
func Known(t EventType) bool {
	return knownEvents[t]
}

// Commit describes one commit carried by a push event. Only the fields the
// runner consumes are modeled; anything else in a delivery is ignored.
type Commit struct {
	SHA     string `json:"sha" yaml:"sha"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Author  string `json:"author,omitempty" yaml:"author,omitempty"`
}

// PushEvent is the payload of a push delivery.
//
// In serve mode this is decoded from the webhook request body. For CLI runs,
// [LocalPush] synthesizes one pointing at the working tree.
type PushEvent struct {
	// Repo is the repository identifier, e.g. "acme/rice-env".
	Repo string `json:"repository" yaml:"repository"`

	// Ref is the full git ref that was pushed, e.g. "refs/heads/main".
	Ref string `json:"ref" yaml:"ref"`

	// Before and After are the commit SHAs the push moved the ref between.
	Before string `json:"before,omitempty" yaml:"before,omitempty"`
	After  string `json:"after,omitempty" yaml:"after,omitempty"`

	// Pusher is the user who pushed, informational only.
	Pusher string `json:"pusher,omitempty" yaml:"pusher,omitempty"`

	// CloneURL, when set, is where the checkout step clones from. Local
	// runs leave it empty and check out the source directory instead.
	CloneURL string `json:"clone_url,omitempty" yaml:"clone_url,omitempty"`

	// ReceivedAt is when the runner accepted the event.
	ReceivedAt time.Time `json:"received_at,omitempty" yaml:"received_at,omitempty"`

	Commits []Commit `json:"commits,omitempty" yaml:"commits,omitempty"`
}

// Type returns the event type of a push delivery. Every PushEvent is an
// [EventPush]; the method exists so matching code does not special-case the
// payload struct.
func (e *PushEvent) Type() EventType {
	return EventPush
}

// Branch returns the branch name for the pushed ref, stripping the
// "refs/heads/" prefix. Refs outside refs/heads (tags, notes) are returned
// as-is so branch filters can still name them explicitly.
func (e *PushEvent) Branch() string {
	return strings.TrimPrefix(e.Ref, "refs/heads/")
}

// Validate checks the fields the runner depends on.
func (e *PushEvent) Validate() error {
	if e.Ref == "" {
		return fmt.Errorf("push event: ref is required")
	}
	return nil
}

// LocalPush synthesizes a push event for a CLI run against a local source
// directory. The ref defaults to refs/heads/local when branch is empty.
func LocalPush(repo, branch string) *PushEvent {
	if branch == "" {
		branch = "local"
	}
	return &PushEvent{
		Repo:       repo,
		Ref:        "refs/heads/" + branch,
		Pusher:     "local",
		ReceivedAt: time.Now().UTC(),
	}
}
