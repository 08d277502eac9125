package linker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"softlink/internal/logger"
	"softlink/internal/model"
	"softlink/internal/util"

	"go.uber.org/zap"
)

type Native struct{}

func (n *Native) Mirror(ctx context.Context, src, dst string, dryRun bool) ([]model.Action, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return nil, fmt.Errorf("invalid src path: %w", err)
	}

	// Walk the real directory; links still point below the configured path.
	root, err := filepath.EvalSymlinks(absSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source %s: %w", absSrc, err)
	}

	realDst := util.RealPath(dst)

	var actions []model.Action
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// a target nested in the source must not mirror into itself
		if d.IsDir() && path == realDst {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		srcPath := filepath.Join(absSrc, rel)
		dstPath := filepath.Join(dst, rel)

		stat := os.Lstat
		if rel == "." {
			stat = os.Stat
		}

		info, err := stat(dstPath)
		switch {
		case err == nil:
			// never descend through a link or file where a directory would go
			if d.IsDir() && !info.IsDir() {
				logger.Log.Debug("destination is not a directory, skipping subtree",
					zap.String("path", dstPath))
				return filepath.SkipDir
			}
			return nil
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("failed to stat %s: %w", dstPath, err)
		}

		if d.IsDir() {
			actions = append(actions, model.Action{Kind: model.ActionMkdir, Path: dstPath, DryRun: dryRun})
			if dryRun {
				return nil
			}
			if err := os.MkdirAll(dstPath, 0o755); err != nil {
				return fmt.Errorf("failed to create dir %s: %w", dstPath, err)
			}
			return nil
		}

		actions = append(actions, model.Action{Kind: model.ActionLink, Path: dstPath, Target: srcPath, DryRun: dryRun})
		if dryRun {
			logger.Log.Info("would link",
				zap.String("link", dstPath),
				zap.String("target", srcPath))
			return nil
		}
		if err := os.Symlink(srcPath, dstPath); err != nil {
			return fmt.Errorf("failed to link %s -> %s: %w", dstPath, srcPath, err)
		}

		logger.Log.Debug("linked",
			zap.String("link", dstPath),
			zap.String("target", srcPath))
		return nil
	})

	return actions, err
}

func (n *Native) RemoveDangling(ctx context.Context, target string, dryRun bool) ([]model.Action, error) {
	root, err := filepath.EvalSymlinks(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target %s: %w", target, err)
	}

	var actions []model.Action
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		if _, err := os.Stat(path); err == nil || !errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		link := filepath.Join(target, rel)

		dest, _ := os.Readlink(path)
		actions = append(actions, model.Action{Kind: model.ActionUnlink, Path: link, Target: dest, DryRun: dryRun})
		if dryRun {
			logger.Log.Info("would remove broken link",
				zap.String("link", link),
				zap.String("target", dest))
			return nil
		}

		if err := util.RemoveIfExists(path); err != nil {
			return err
		}

		logger.Log.Debug("removed broken link",
			zap.String("link", link),
			zap.String("target", dest))
		return nil
	})

	return actions, err
}
