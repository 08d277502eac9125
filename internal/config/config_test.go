package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"softlink/internal/linker"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "softlink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
sources:
  - /srv/music
  - /srv/podcasts
targets:
  - /home/me/library
rm-broken-links: true
verify-no-regular-files-in-target: true
max-files-in-sources: 5000
debounce: 2s
`)

	cfg, err := Load(path, newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/music", "/srv/podcasts"}, cfg.Sources)
	assert.Equal(t, []string{"/home/me/library"}, cfg.Targets)
	assert.True(t, cfg.RmBrokenLinks)
	assert.True(t, cfg.VerifyNoRegularFilesInTarget)
	assert.False(t, cfg.VerifyNoDangerousPaths)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, 5000, cfg.MaxFilesInSources)
	assert.Equal(t, 2*time.Second, cfg.Debounce)
	assert.Equal(t, linker.EngineNative, cfg.Engine)
	assert.Equal(t, Default.IgnoreList, cfg.IgnoreList)
	assert.Equal(t, Default.DaemonPort, cfg.DaemonPort)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", newFlags(t, "--sources", "/a", "--targets", "/b"))
	require.NoError(t, err)

	assert.Equal(t, -1, cfg.MaxFilesInSources)
	assert.Equal(t, 100*time.Millisecond, cfg.Debounce)
	assert.Nil(t, cfg.LogFile())

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".softlink", "softlink.db"), cfg.DBPath)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
sources: [/srv/music]
targets: [/home/me/library]
dry-run: false
`)

	cfg, err := Load(path, newFlags(t, "--dry-run", "--targets", "/mnt/a,/mnt/b", "--max-files-in-sources", "10"))
	require.NoError(t, err)

	assert.True(t, cfg.DryRun)
	assert.Equal(t, []string{"/srv/music"}, cfg.Sources)
	assert.Equal(t, []string{"/mnt/a", "/mnt/b"}, cfg.Targets)
	assert.Equal(t, 10, cfg.MaxFilesInSources)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SOFTLINK_RM_BROKEN_LINKS", "true")

	cfg, err := Load("", newFlags(t, "--sources", "/a", "--targets", "/b"))
	require.NoError(t, err)
	assert.True(t, cfg.RmBrokenLinks)
}

func TestRelativePathsAreResolved(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	cfg, err := Load("", newFlags(t, "--sources", "music/", "--targets", "./links"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(wd, "music")}, cfg.Sources)
	assert.Equal(t, []string{filepath.Join(wd, "links")}, cfg.Targets)
	assert.Equal(t, []string{filepath.Join(wd, "music"), filepath.Join(wd, "links")}, cfg.Paths())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		flags []string
	}{
		{name: "no sources", flags: []string{"--targets", "/b"}},
		{name: "no targets", flags: []string{"--sources", "/a"}},
		{name: "unknown engine", flags: []string{"--sources", "/a", "--targets", "/b", "--engine", "rsync"}},
		{name: "missing file", path: filepath.Join(os.TempDir(), "softlink-missing-config.yaml")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path, newFlags(t, tc.flags...))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLogFile(t *testing.T) {
	path := writeConfig(t, `
sources: [/a]
targets: [/b]
log:
  file: /var/log/softlink.log
  max-size: 50
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	opts := cfg.LogFile()
	require.NotNil(t, opts)
	assert.Equal(t, "/var/log/softlink.log", opts.Path)
	assert.Equal(t, 50, opts.MaxSize)
	assert.Equal(t, Default.Log.MaxBackups, opts.MaxBackups)
}
