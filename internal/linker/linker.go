// Package linker implements the two filesystem operations a pass is made
// of: mirroring a source tree into a target as symlinks, and removing
// symlinks whose referent is gone.
package linker

import (
	"context"
	"fmt"

	"softlink/internal/model"
)

const (
	EngineNative = "native"
	EngineExec   = "exec"
)

type Linker interface {
	// Mirror links every entry under src into dst. It only adds entries and
	// leaves anything already present at the destination alone.
	Mirror(ctx context.Context, src, dst string, dryRun bool) ([]model.Action, error)
	// RemoveDangling removes symlinks under target that no longer resolve.
	RemoveDangling(ctx context.Context, target string, dryRun bool) ([]model.Action, error)
}

func New(engine string) (Linker, error) {
	switch engine {
	case "", EngineNative:
		return &Native{}, nil
	case EngineExec:
		return &Command{}, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
}
