package autostart

import (
	"fmt"
	"os/exec"
)

const taskName = "SoftlinkWatch"

// WindowsAutoStarter registers a scheduled task that runs at logon.
type WindowsAutoStarter struct{}

func createTaskArgs(execPath, configPath string) []string {
	return []string{
		"/Create",
		"/TN", taskName,
		"/TR", fmt.Sprintf(`"%s" watch "%s"`, execPath, configPath),
		"/SC", "ONLOGON",
		"/F",
	}
}

func deleteTaskArgs() []string {
	return []string{"/Delete", "/TN", taskName, "/F"}
}

func queryTaskArgs() []string {
	return []string{"/Query", "/TN", taskName}
}

func schtasks(action string, args []string) error {
	out, err := exec.Command("schtasks", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to %s task %s: %w\n%s", action, taskName, err, out)
	}
	return nil
}

func (w *WindowsAutoStarter) Install(execPath, configPath string) error {
	return schtasks("register", createTaskArgs(execPath, configPath))
}

func (w *WindowsAutoStarter) Uninstall() error {
	return schtasks("remove", deleteTaskArgs())
}

// schtasks exits non-zero when the task does not exist.
func (w *WindowsAutoStarter) IsInstalled() (bool, error) {
	return schtasks("query", queryTaskArgs()) == nil, nil
}
