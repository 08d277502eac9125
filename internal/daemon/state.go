package daemon

import (
	"sync"
	"time"

	"softlink/internal/config"
	"softlink/internal/model"
)

type State struct {
	mu        sync.RWMutex
	sources   []string
	targets   []string
	dryRun    bool
	status    model.DispatcherState
	startedAt time.Time
	passes    int
	aborted   int
	partial   int
	last      *model.Outcome
}

func NewState(cfg *config.Config) *State {
	return &State{
		sources:   cfg.Sources,
		targets:   cfg.Targets,
		dryRun:    cfg.DryRun,
		status:    model.StateIdle,
		startedAt: time.Now(),
	}
}

func (s *State) SetStatus(status model.DispatcherState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *State) RecordPass(outcome model.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.passes++
	switch outcome.Status {
	case model.PassAborted:
		s.aborted++
	case model.PassPartial:
		s.partial++
	}
	s.last = &outcome
}

func (s *State) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.Snapshot{
		State:     s.status,
		Sources:   s.sources,
		Targets:   s.targets,
		DryRun:    s.dryRun,
		StartedAt: s.startedAt,
		Passes:    s.passes,
		Aborted:   s.aborted,
		Partial:   s.partial,
	}

	if s.last != nil {
		snap.LastStatus = s.last.Status
		snap.LastPass = new(s.last.FinishedAt)
		if s.last.Err != nil {
			snap.LastError = s.last.Err.Error()
		} else if len(s.last.Failures) > 0 {
			snap.LastError = s.last.Failures[0].Error()
		}
	}

	return snap
}
