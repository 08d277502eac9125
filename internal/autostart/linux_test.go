package autostart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteUnit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeUnit(&buf, "/usr/local/bin/softlink", "/etc/softlink.yaml"))

	unit := buf.String()
	assert.Contains(t, unit, `ExecStart="/usr/local/bin/softlink" watch "/etc/softlink.yaml"`)
	assert.Contains(t, unit, "[Service]")
	assert.Contains(t, unit, "WantedBy=default.target")
}

func TestLinuxIsInstalled(t *testing.T) {
	dir := t.TempDir()
	l := &LinuxAutoStarter{Dir: dir}

	installed, err := l.IsInstalled()
	require.NoError(t, err)
	assert.False(t, installed)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "softlink.service"), []byte("[Unit]\n"), 0o644))

	installed, err = l.IsInstalled()
	require.NoError(t, err)
	assert.True(t, installed)
}
