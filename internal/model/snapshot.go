package model

import "time"

type DispatcherState string

const (
	StateIdle    DispatcherState = "IDLE"
	StateSyncing DispatcherState = "SYNCING"
)

type Snapshot struct {
	State      DispatcherState `json:"state"`
	Sources    []string        `json:"sources"`
	Targets    []string        `json:"targets"`
	DryRun     bool            `json:"dry_run"`
	StartedAt  time.Time       `json:"started_at"`
	Passes     int             `json:"passes"`
	Aborted    int             `json:"aborted"`
	Partial    int             `json:"partial"`
	LastStatus PassStatus      `json:"last_status,omitempty"`
	LastError  string          `json:"last_error,omitempty"`
	LastPass   *time.Time      `json:"last_pass"`
}
