package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"softlink/internal/config"
	"softlink/internal/guard"
	"softlink/internal/linker"
	"softlink/internal/logger"
	"softlink/internal/model"

	"go.uber.org/zap"
)

// TreeSyncer runs guarded synchronization passes. Only one pass runs at a
// time; concurrent callers wait for the one in flight.
type TreeSyncer struct {
	mu     sync.Mutex
	cfg    *config.Config
	linker linker.Linker
	now    func() time.Time
}

func NewTreeSyncer(cfg *config.Config, l linker.Linker) *TreeSyncer {
	return &TreeSyncer{
		cfg:    cfg,
		linker: l,
		now:    time.Now,
	}
}

// Sync brings every target in line with every source. trigger names what
// caused the pass and is only used for logging and history.
func (s *TreeSyncer) Sync(ctx context.Context, trigger string) model.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := model.Outcome{
		Trigger:   trigger,
		DryRun:    s.cfg.DryRun,
		StartedAt: s.now(),
	}

	logger.Log.Info("sync pass started",
		zap.String("trigger", trigger),
		zap.Bool("dry_run", s.cfg.DryRun))

	if err := s.checkGuards(); err != nil {
		outcome.Status = model.PassAborted
		outcome.Err = err
		outcome.FinishedAt = s.now()

		logger.Log.Error("sync pass aborted",
			zap.String("trigger", trigger),
			zap.Error(err))
		return outcome
	}

	for _, src := range s.cfg.Sources {
		for _, dst := range s.cfg.Targets {
			if err := ctx.Err(); err != nil {
				outcome.Failures = append(outcome.Failures, err)
				return s.finish(outcome)
			}

			logger.Log.Info("syncing",
				zap.String("src", src),
				zap.String("dst", dst))

			actions, err := s.run(ctx, func(ctx context.Context) ([]model.Action, error) {
				return s.linker.Mirror(ctx, src, dst, s.cfg.DryRun)
			})
			outcome.Actions = append(outcome.Actions, actions...)
			if err != nil {
				s.fail(&outcome, &ExternalOperationError{Op: OpMirror, Source: src, Target: dst, Err: err})
			}
		}
	}

	if s.cfg.RmBrokenLinks {
		for _, dst := range s.cfg.Targets {
			if err := ctx.Err(); err != nil {
				outcome.Failures = append(outcome.Failures, err)
				return s.finish(outcome)
			}

			actions, err := s.run(ctx, func(ctx context.Context) ([]model.Action, error) {
				return s.linker.RemoveDangling(ctx, dst, s.cfg.DryRun)
			})
			outcome.Actions = append(outcome.Actions, actions...)
			if err != nil {
				s.fail(&outcome, &ExternalOperationError{Op: OpCleanup, Target: dst, Err: err})
			}
		}
	}

	return s.finish(outcome)
}

// checkGuards runs the enabled guards in order and returns the first failure.
func (s *TreeSyncer) checkGuards() error {
	if s.cfg.VerifyNoDangerousPaths {
		if err := guard.VerifyNoDangerousPaths(s.cfg.Paths(), s.cfg.ForbiddenPaths...); err != nil {
			return err
		}
		if err := guard.VerifyNoOverlap(s.cfg.Sources, s.cfg.Targets); err != nil {
			return err
		}
	}

	if s.cfg.VerifyNoRegularFilesInTarget {
		if err := guard.VerifyNoRegularFilesInTarget(s.cfg.Targets); err != nil {
			return err
		}
	}

	return guard.VerifyMaxFilesInSource(s.cfg.Sources, s.cfg.MaxFilesInSources)
}

func (s *TreeSyncer) run(ctx context.Context, op func(context.Context) ([]model.Action, error)) ([]model.Action, error) {
	if s.cfg.OperationTimeout <= 0 {
		return op(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	actions, err := op(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		err = errTimeout{after: s.cfg.OperationTimeout, err: err}
	}
	return actions, err
}

func (s *TreeSyncer) fail(outcome *model.Outcome, err *ExternalOperationError) {
	outcome.Failures = append(outcome.Failures, err)
	logger.Log.Error("external operation failed",
		zap.String("op", err.Op),
		zap.String("src", err.Source),
		zap.String("dst", err.Target),
		zap.Error(err.Err))
}

func (s *TreeSyncer) finish(outcome model.Outcome) model.Outcome {
	outcome.FinishedAt = s.now()
	outcome.Status = model.PassSuccess
	if len(outcome.Failures) > 0 {
		outcome.Status = model.PassPartial
	}

	logger.Log.Info("sync pass finished",
		zap.String("status", string(outcome.Status)),
		zap.Int("linked", outcome.Count(model.ActionLink)),
		zap.Int("unlinked", outcome.Count(model.ActionUnlink)),
		zap.Int("failures", len(outcome.Failures)),
		zap.Duration("took", outcome.Duration()))

	return outcome
}
