package model

import "time"

type PassStatus string

const (
	PassSuccess PassStatus = "SUCCESS"
	PassAborted PassStatus = "ABORTED"
	PassPartial PassStatus = "PARTIAL"
)

type ActionKind string

const (
	ActionLink   ActionKind = "LINK"
	ActionMkdir  ActionKind = "MKDIR"
	ActionUnlink ActionKind = "UNLINK"
)

// Action is a single filesystem mutation made, or simulated in dry-run, by a pass.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Path   string     `json:"path"`
	Target string     `json:"target,omitempty"`
	DryRun bool       `json:"dry_run"`
}

// Outcome is the result of one synchronization pass.
// Err is set only when a guard aborted the pass; Failures holds
// external operation errors that did not stop it.
type Outcome struct {
	Status     PassStatus
	Trigger    string
	DryRun     bool
	Err        error
	Failures   []error
	Actions    []Action
	StartedAt  time.Time
	FinishedAt time.Time
}

func (o Outcome) Count(kind ActionKind) int {
	n := 0
	for _, a := range o.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

func (o Outcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}
