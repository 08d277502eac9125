package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"softlink/internal/model"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [config]",
	Short: "View daemon status",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := daemonBaseURL(cmd, args)
		if err != nil {
			return err
		}

		resp, err := http.Get(base + "/status")
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var snap model.Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		lastPass := "-"
		if snap.LastPass != nil {
			lastPass = snap.LastPass.Format("2006-01-02 15:04:05")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "state:     %s\n", snap.State)
		fmt.Fprintf(out, "sources:   %s\n", strings.Join(snap.Sources, ", "))
		fmt.Fprintf(out, "targets:   %s\n", strings.Join(snap.Targets, ", "))
		fmt.Fprintf(out, "dry run:   %t\n", snap.DryRun)
		fmt.Fprintf(out, "uptime:    %s\n", time.Since(snap.StartedAt).Round(time.Second))
		fmt.Fprintf(out, "passes:    %d (%d aborted, %d partial)\n", snap.Passes, snap.Aborted, snap.Partial)
		fmt.Fprintf(out, "last pass: %s %s\n", lastPass, snap.LastStatus)
		if snap.LastError != "" {
			fmt.Fprintf(out, "last error: %s\n", snap.LastError)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
