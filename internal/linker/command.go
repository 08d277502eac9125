package linker

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"softlink/internal/logger"
	"softlink/internal/model"

	"go.uber.org/zap"
)

// Command shells out to GNU cp and find. Dry-run mirroring is planned
// natively since cp has no simulation mode.
type Command struct {
	planner Native
}

func (c *Command) Mirror(ctx context.Context, src, dst string, dryRun bool) ([]model.Action, error) {
	if dryRun {
		return c.planner.Mirror(ctx, src, dst, true)
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return nil, fmt.Errorf("invalid src path: %w", err)
	}

	// -T merges src into dst instead of creating dst/<base>, and keeps the
	// link text identical to the native engine's. -H follows a symlinked src.
	args := []string{"-r", "-s", "-n", "-v", "-H", "-T", absSrc, dst}
	out, stderr, err := run(ctx, "cp", args...)
	if err != nil && !onlySkipped(stderr) {
		return nil, commandError("cp", err, stderr)
	}

	var actions []model.Action
	for _, line := range lines(out) {
		link, target, ok := parseCopyLine(line)
		if !ok {
			continue
		}
		kind := model.ActionLink
		if info, err := os.Lstat(link); err == nil && info.IsDir() {
			kind = model.ActionMkdir
			target = ""
		}
		actions = append(actions, model.Action{Kind: kind, Path: link, Target: target})
	}

	return actions, nil
}

func (c *Command) RemoveDangling(ctx context.Context, target string, dryRun bool) ([]model.Action, error) {
	// -H follows a symlinked target so find descends into it.
	args := []string{"-H", target, "-xtype", "l", "-print"}
	if !dryRun {
		args = append(args, "-delete")
	}

	out, stderr, err := run(ctx, "find", args...)
	if err != nil {
		return nil, commandError("find", err, stderr)
	}

	var actions []model.Action
	for _, line := range lines(out) {
		actions = append(actions, model.Action{Kind: model.ActionUnlink, Path: line, DryRun: dryRun})
	}

	return actions, nil
}

// onlySkipped reports whether cp's diagnostics are all "not replacing"
// notices. coreutils 9.2 to 9.4 exit non-zero when -n skips a file.
func onlySkipped(stderr []byte) bool {
	msgs := lines(stderr)
	if len(msgs) == 0 {
		return false
	}
	for _, msg := range msgs {
		if !strings.Contains(msg, "not replacing") {
			return false
		}
	}
	return true
}

func commandError(name string, err error, stderr []byte) error {
	return fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(string(stderr)))
}

func run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	logger.Log.Debug("running external command",
		zap.String("cmd", name),
		zap.Strings("args", args))

	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

func lines(out []byte) []string {
	var res []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			res = append(res, line)
		}
	}
	return res
}

// parseCopyLine reads cp -v output of the form 'src' -> 'dst'. Lines for
// skipped files carry no arrow.
func parseCopyLine(line string) (link, target string, ok bool) {
	src, dst, found := strings.Cut(line, " -> ")
	if !found || strings.HasSuffix(dst, "(skipped)") {
		return "", "", false
	}
	return filepath.Clean(strings.Trim(dst, "'")), filepath.Clean(strings.Trim(src, "'")), true
}
