// Package autostart registers `softlink watch CONFIG` to run when the user
// logs in.
package autostart

import "runtime"

const serviceName = "softlink"

type AutoStarter interface {
	Install(execPath, configPath string) error
	Uninstall() error
	IsInstalled() (bool, error)
}

// New returns the registration mechanism of the running platform.
func New() AutoStarter {
	return forOS(runtime.GOOS)
}

func forOS(goos string) AutoStarter {
	switch goos {
	case "linux":
		return &LinuxAutoStarter{}
	case "windows":
		return &WindowsAutoStarter{}
	}
	return noop{}
}

// noop reports nothing installed on platforms without a supported service
// manager.
type noop struct{}

func (noop) Install(string, string) error { return nil }
func (noop) Uninstall() error             { return nil }
func (noop) IsInstalled() (bool, error)   { return false, nil }
