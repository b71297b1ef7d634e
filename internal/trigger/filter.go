package trigger

import (
	"fmt"
	"path"

	"gopkg.in/yaml.v3"
)

// Filter is a workflow's trigger declaration: the events it responds to and
// an optional branch filter narrowing push events.
//
// The YAML "on" clause accepts three shapes, all common in workflow files:
//
//	on: push
//	on: [push]
//	on:
//	  push:
//	    branches: [main, "release/*"]
//
// An empty Branches list matches every branch, which is the behavior of a
// bare "on: push".
type Filter struct {
	// Events are the event types that activate the workflow.
	Events []EventType

	// Branches optionally restricts push events to branches matching one of
	// the listed names. Entries may be exact names or path.Match patterns
	// such as "release/*".
	Branches []string
}

// UnmarshalYAML decodes the scalar, sequence, and mapping forms of the "on"
// clause.
func (f *Filter) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var event string
		if err := value.Decode(&event); err != nil {
			return fmt.Errorf("invalid trigger: %w", err)
		}
		f.Events = []EventType{EventType(event)}
		return nil

	case yaml.SequenceNode:
		var events []string
		if err := value.Decode(&events); err != nil {
			return fmt.Errorf("invalid trigger list: %w", err)
		}
		for _, e := range events {
			f.Events = append(f.Events, EventType(e))
		}
		return nil

	case yaml.MappingNode:
		var m map[string]struct {
			Branches []string `yaml:"branches"`
		}
		if err := value.Decode(&m); err != nil {
			return fmt.Errorf("invalid trigger mapping: %w", err)
		}
		for event, opts := range m {
			f.Events = append(f.Events, EventType(event))
			f.Branches = append(f.Branches, opts.Branches...)
		}
		return nil

	default:
		return fmt.Errorf("invalid trigger: unsupported YAML node kind %d", value.Kind)
	}
}

// Validate checks that the filter declares at least one event and that every
// declared event is one the runner delivers.
//
// Returns [ErrUnknownEvent] (wrapped with the offending name) for event types
// outside the deliverable set.
func (f Filter) Validate() error {
	if len(f.Events) == 0 {
		return fmt.Errorf("trigger: at least one event is required")
	}
	for _, e := range f.Events {
		if !Known(e) {
			return fmt.Errorf("trigger %q: %w", e, ErrUnknownEvent)
		}
	}
	return nil
}

// Matches reports whether a push event activates a workflow with this filter.
//
// The event type must appear in Events. When a branch filter is declared the
// pushed branch must equal one of the entries or match it as a path.Match
// pattern; with no branch filter every push matches, per standard CI
// semantics.
func (f Filter) Matches(e *PushEvent) bool {
	if !f.hasEvent(e.Type()) {
		return false
	}
	if len(f.Branches) == 0 {
		return true
	}

	branch := e.Branch()
	for _, pattern := range f.Branches {
		if pattern == branch {
			return true
		}
		if ok, err := path.Match(pattern, branch); err == nil && ok {
			return true
		}
	}
	return false
}

func (f Filter) hasEvent(t EventType) bool {
	for _, e := range f.Events {
		if e == t {
			return true
		}
	}
	return false
}
