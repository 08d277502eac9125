// Package guard holds the checks that run before any bulk or destructive
// filesystem operation. Checks only read the filesystem; callers decide
// whether a failure aborts what they are doing.
package guard

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"softlink/internal/util"
)

const rootPath = string(filepath.Separator)

// VerifyNoDangerousPaths fails if any path is the filesystem root, empty,
// or equal to one of the forbidden roots.
func VerifyNoDangerousPaths(paths []string, forbidden ...string) error {
	deny := map[string]bool{rootPath: true}
	for _, f := range forbidden {
		if strings.TrimSpace(f) == "" {
			continue
		}
		deny[filepath.Clean(f)] = true
	}

	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return &Error{Kind: KindDangerousPath, Path: p}
		}
		if deny[filepath.Clean(p)] {
			return &Error{Kind: KindDangerousPath, Path: p}
		}
	}

	return nil
}

// VerifyNoOverlap fails if a target is a source, lies inside one, or
// contains one. Symlinks are resolved so an alias cannot hide an overlap.
func VerifyNoOverlap(sources, targets []string) error {
	for _, target := range targets {
		realTarget := util.RealPath(target)
		for _, source := range sources {
			realSource := util.RealPath(source)
			if util.Within(realSource, realTarget) || util.Within(realTarget, realSource) {
				return &Error{Kind: KindOverlappingPaths, Path: target, Other: source}
			}
		}
	}

	return nil
}

// VerifyNoRegularFilesInTarget walks every target and fails on the first
// regular file. Directories and symlinks, dangling or not, are allowed.
// A target that does not exist yet passes. A target that is itself a
// symlink is checked at the directory it points to.
func VerifyNoRegularFilesInTarget(targets []string) error {
	for _, target := range targets {
		root, err := filepath.EvalSymlinks(target)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to resolve target %s: %w", target, err)
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.Type().IsRegular() {
				rel, _ := filepath.Rel(root, path)
				return &Error{Kind: KindUnexpectedRegularFile, Path: filepath.Join(target, rel)}
			}

			return nil
		})
		if err != nil {
			if _, ok := errors.AsType[*Error](err); ok {
				return err
			}
			return fmt.Errorf("failed to walk target %s: %w", target, err)
		}
	}

	return nil
}

// VerifyMaxFilesInSource counts non-directory entries across all sources
// and stops walking as soon as the running total exceeds limit.
// A negative limit disables the check.
func VerifyMaxFilesInSource(sources []string, limit int) error {
	if limit < 0 {
		return nil
	}

	count := 0
	for _, source := range sources {
		root, err := filepath.EvalSymlinks(source)
		if err != nil {
			return fmt.Errorf("failed to resolve source %s: %w", source, err)
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				return nil
			}

			count++
			if count > limit {
				return &Error{Kind: KindSourceTooLarge, Path: source, Count: count, Limit: limit}
			}

			return nil
		})
		if err != nil {
			if _, ok := errors.AsType[*Error](err); ok {
				return err
			}
			return fmt.Errorf("failed to walk source %s: %w", source, err)
		}
	}

	return nil
}
