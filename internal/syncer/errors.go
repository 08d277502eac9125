package syncer

import (
	"fmt"
	"time"
)

const (
	OpMirror  = "mirror"
	OpCleanup = "cleanup"
)

// ExternalOperationError is a failed mirror or cleanup call. It never
// stops the rest of a pass.
type ExternalOperationError struct {
	Op     string
	Source string
	Target string
	Err    error
}

func (e *ExternalOperationError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s of %s failed: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s %s -> %s failed: %v", e.Op, e.Source, e.Target, e.Err)
}

func (e *ExternalOperationError) Unwrap() error {
	return e.Err
}

type errTimeout struct {
	after time.Duration
	err   error
}

func (e errTimeout) Error() string {
	return fmt.Sprintf("timed out after %s", e.after)
}

func (e errTimeout) Unwrap() error {
	return e.err
}
