package guard

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindDangerousPath         Kind = "DANGEROUS_PATH"
	KindUnexpectedRegularFile Kind = "UNEXPECTED_REGULAR_FILE"
	KindSourceTooLarge        Kind = "SOURCE_TOO_LARGE"
	KindOverlappingPaths      Kind = "OVERLAPPING_PATHS"
)

var (
	ErrDangerousPath         = errors.New("dangerous path")
	ErrUnexpectedRegularFile = errors.New("unexpected regular file in target")
	ErrSourceTooLarge        = errors.New("source tree too large")
	ErrOverlappingPaths      = errors.New("source and target overlap")
)

// Error is returned by every check in this package. Count and Limit are
// only meaningful for KindSourceTooLarge, Other for KindOverlappingPaths.
type Error struct {
	Kind  Kind
	Path  string
	Other string
	Count int
	Limit int
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindDangerousPath:
		return fmt.Sprintf("refusing to use dangerous path %q as a source or target", e.Path)
	case KindUnexpectedRegularFile:
		return fmt.Sprintf("target contains a regular file: %s", e.Path)
	case KindSourceTooLarge:
		return fmt.Sprintf("source %s contains more than %d files (counted %d)", e.Path, e.Limit, e.Count)
	case KindOverlappingPaths:
		return fmt.Sprintf("target %s overlaps source %s", e.Path, e.Other)
	default:
		return fmt.Sprintf("guard %s failed for %s", e.Kind, e.Path)
	}
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrDangerousPath:
		return e.Kind == KindDangerousPath
	case ErrUnexpectedRegularFile:
		return e.Kind == KindUnexpectedRegularFile
	case ErrSourceTooLarge:
		return e.Kind == KindSourceTooLarge
	case ErrOverlappingPaths:
		return e.Kind == KindOverlappingPaths
	}
	return false
}
