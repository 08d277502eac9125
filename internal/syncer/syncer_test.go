package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"softlink/internal/config"
	"softlink/internal/guard"
	"softlink/internal/linker"
	"softlink/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op, src, dst string
	dryRun       bool
}

type fakeLinker struct {
	mu        sync.Mutex
	calls     []call
	mirrorErr map[string]error
	delay     time.Duration
}

func (f *fakeLinker) Mirror(ctx context.Context, src, dst string, dryRun bool) ([]model.Action, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{op: OpMirror, src: src, dst: dst, dryRun: dryRun})
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := f.mirrorErr[src+">"+dst]; err != nil {
		return nil, err
	}
	return []model.Action{{Kind: model.ActionLink, Path: dst, Target: src, DryRun: dryRun}}, nil
}

func (f *fakeLinker) RemoveDangling(_ context.Context, target string, dryRun bool) ([]model.Action, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: OpCleanup, dst: target, dryRun: dryRun})
	return nil, nil
}

func (f *fakeLinker) ops() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func newConfig(sources, targets []string) *config.Config {
	cfg := config.Default
	cfg.Sources = sources
	cfg.Targets = targets
	return &cfg
}

func TestSyncVisitsPairsInOrder(t *testing.T) {
	cfg := newConfig([]string{"/s1", "/s2"}, []string{"/t1", "/t2"})
	cfg.RmBrokenLinks = true
	fake := &fakeLinker{}

	outcome := NewTreeSyncer(cfg, fake).Sync(context.Background(), "test")

	assert.Equal(t, model.PassSuccess, outcome.Status)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, []call{
		{op: OpMirror, src: "/s1", dst: "/t1"},
		{op: OpMirror, src: "/s1", dst: "/t2"},
		{op: OpMirror, src: "/s2", dst: "/t1"},
		{op: OpMirror, src: "/s2", dst: "/t2"},
		{op: OpCleanup, dst: "/t1"},
		{op: OpCleanup, dst: "/t2"},
	}, fake.ops())
	assert.Len(t, outcome.Actions, 4)
}

func TestSyncSkipsCleanupWhenDisabled(t *testing.T) {
	fake := &fakeLinker{}
	NewTreeSyncer(newConfig([]string{"/s"}, []string{"/t"}), fake).Sync(context.Background(), "test")

	for _, c := range fake.ops() {
		assert.NotEqual(t, OpCleanup, c.op)
	}
}

func TestSyncAbortsOnGuardFailure(t *testing.T) {
	t.Run("dangerous path", func(t *testing.T) {
		cfg := newConfig([]string{"/"}, []string{"/t"})
		cfg.VerifyNoDangerousPaths = true
		cfg.RmBrokenLinks = true
		fake := &fakeLinker{}

		outcome := NewTreeSyncer(cfg, fake).Sync(context.Background(), "test")
		assert.Equal(t, model.PassAborted, outcome.Status)
		assert.ErrorIs(t, outcome.Err, guard.ErrDangerousPath)
		assert.Empty(t, fake.ops())
	})

	t.Run("target inside a source", func(t *testing.T) {
		src := t.TempDir()
		cfg := newConfig([]string{src}, []string{filepath.Join(src, "links")})
		cfg.VerifyNoDangerousPaths = true
		fake := &fakeLinker{}

		outcome := NewTreeSyncer(cfg, fake).Sync(context.Background(), "test")
		assert.Equal(t, model.PassAborted, outcome.Status)
		assert.ErrorIs(t, outcome.Err, guard.ErrOverlappingPaths)
		assert.Empty(t, fake.ops())
	})

	t.Run("regular file in target", func(t *testing.T) {
		target := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(target, "stray.txt"), []byte("x"), 0o644))

		cfg := newConfig([]string{t.TempDir()}, []string{target})
		cfg.VerifyNoRegularFilesInTarget = true
		fake := &fakeLinker{}

		outcome := NewTreeSyncer(cfg, fake).Sync(context.Background(), "test")
		assert.Equal(t, model.PassAborted, outcome.Status)
		assert.ErrorIs(t, outcome.Err, guard.ErrUnexpectedRegularFile)
		assert.Empty(t, fake.ops())
	})

	t.Run("source too large", func(t *testing.T) {
		src := t.TempDir()
		for _, name := range []string{"a", "b", "c"} {
			require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte("x"), 0o644))
		}

		cfg := newConfig([]string{src}, []string{t.TempDir()})
		cfg.MaxFilesInSources = 2
		fake := &fakeLinker{}

		outcome := NewTreeSyncer(cfg, fake).Sync(context.Background(), "test")
		assert.Equal(t, model.PassAborted, outcome.Status)
		assert.ErrorIs(t, outcome.Err, guard.ErrSourceTooLarge)
		assert.Empty(t, fake.ops())
	})

	t.Run("dangerous path ignored when the guard is off", func(t *testing.T) {
		fake := &fakeLinker{}
		outcome := NewTreeSyncer(newConfig([]string{"/"}, []string{"/t"}), fake).Sync(context.Background(), "test")
		assert.Equal(t, model.PassSuccess, outcome.Status)
		assert.Len(t, fake.ops(), 1)
	})
}

func TestSyncContinuesAfterExternalFailure(t *testing.T) {
	cfg := newConfig([]string{"/s1", "/s2"}, []string{"/t"})
	cfg.RmBrokenLinks = true
	boom := errors.New("exit status 23")
	fake := &fakeLinker{mirrorErr: map[string]error{"/s1>/t": boom}}

	outcome := NewTreeSyncer(cfg, fake).Sync(context.Background(), "test")

	assert.Equal(t, model.PassPartial, outcome.Status)
	assert.NoError(t, outcome.Err)
	require.Len(t, outcome.Failures, 1)
	assert.ErrorIs(t, outcome.Failures[0], boom)

	opErr, ok := errors.AsType[*ExternalOperationError](outcome.Failures[0])
	require.True(t, ok)
	assert.Equal(t, OpMirror, opErr.Op)
	assert.Equal(t, "/s1", opErr.Source)

	assert.Len(t, fake.ops(), 3)
}

func TestSyncOperationTimeout(t *testing.T) {
	cfg := newConfig([]string{"/s"}, []string{"/t"})
	cfg.OperationTimeout = 10 * time.Millisecond
	fake := &fakeLinker{delay: time.Second}

	outcome := NewTreeSyncer(cfg, fake).Sync(context.Background(), "test")

	assert.Equal(t, model.PassPartial, outcome.Status)
	require.Len(t, outcome.Failures, 1)
	assert.ErrorIs(t, outcome.Failures[0], context.DeadlineExceeded)
	assert.Contains(t, outcome.Failures[0].Error(), "timed out")
}

func TestSyncStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeLinker{}
	outcome := NewTreeSyncer(newConfig([]string{"/s"}, []string{"/t"}), fake).Sync(ctx, "test")

	assert.Equal(t, model.PassPartial, outcome.Status)
	assert.Empty(t, fake.ops())
}

func TestSyncPassesDryRun(t *testing.T) {
	cfg := newConfig([]string{"/s"}, []string{"/t"})
	cfg.DryRun = true
	cfg.RmBrokenLinks = true
	fake := &fakeLinker{}

	outcome := NewTreeSyncer(cfg, fake).Sync(context.Background(), "test")
	assert.True(t, outcome.DryRun)
	for _, c := range fake.ops() {
		assert.True(t, c.dryRun)
	}
}

func TestSyncSerializesPasses(t *testing.T) {
	fake := &fakeLinker{delay: 20 * time.Millisecond}
	s := NewTreeSyncer(newConfig([]string{"/s"}, []string{"/t"}), fake)

	var wg sync.WaitGroup
	outcomes := make([]model.Outcome, 2)
	for i := range outcomes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = s.Sync(context.Background(), "test")
		}()
	}
	wg.Wait()

	first, second := outcomes[0], outcomes[1]
	if second.StartedAt.Before(first.StartedAt) {
		first, second = second, first
	}
	assert.False(t, second.StartedAt.Before(first.FinishedAt))
}

// The scenarios below run against the real filesystem with the native linker.

func TestSyncEndToEnd(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	file := filepath.Join(src, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	cfg := newConfig([]string{src}, []string{dst})
	cfg.RmBrokenLinks = true
	cfg.VerifyNoRegularFilesInTarget = true
	cfg.VerifyNoDangerousPaths = true
	s := NewTreeSyncer(cfg, &linker.Native{})

	outcome := s.Sync(context.Background(), file)
	require.Equal(t, model.PassSuccess, outcome.Status, "failures: %v", outcome.Failures)

	dest, err := os.Readlink(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, file, dest)

	require.NoError(t, os.Remove(file))
	outcome = s.Sync(context.Background(), file)
	require.Equal(t, model.PassSuccess, outcome.Status)
	assert.Equal(t, 1, outcome.Count(model.ActionUnlink))

	_, err = os.Lstat(filepath.Join(dst, "a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestSyncIdempotent(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "b.txt"), []byte("b"), 0o644))

	cfg := newConfig([]string{src}, []string{dst})
	cfg.RmBrokenLinks = true
	cfg.VerifyNoRegularFilesInTarget = true
	s := NewTreeSyncer(cfg, &linker.Native{})

	first := s.Sync(context.Background(), "first")
	require.Equal(t, model.PassSuccess, first.Status)
	before := snapshotTree(t, dst)

	second := s.Sync(context.Background(), "second")
	require.Equal(t, model.PassSuccess, second.Status)
	assert.Empty(t, second.Failures)
	assert.Empty(t, second.Actions)
	assert.Equal(t, before, snapshotTree(t, dst))
}

func TestSyncDryRunLeavesTargetUntouched(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(src, "gone.txt"), filepath.Join(dst, "gone.txt")))

	cfg := newConfig([]string{src}, []string{dst})
	cfg.RmBrokenLinks = true
	cfg.DryRun = true
	before := snapshotTree(t, dst)

	outcome := NewTreeSyncer(cfg, &linker.Native{}).Sync(context.Background(), "test")
	require.Equal(t, model.PassSuccess, outcome.Status)
	assert.Equal(t, 1, outcome.Count(model.ActionLink))
	assert.Equal(t, 1, outcome.Count(model.ActionUnlink))
	assert.Equal(t, before, snapshotTree(t, dst))
}

func snapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()

	tree := make(map[string]string)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			dest, err := os.Readlink(path)
			if err != nil {
				return err
			}
			tree[rel] = "link:" + dest
		case info.IsDir():
			tree[rel] = "dir"
		default:
			tree[rel] = "file"
		}
		return nil
	})
	require.NoError(t, err)
	return tree
}
