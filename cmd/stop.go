package cmd

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop [config]",
	Short: "Stop daemon",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := daemonBaseURL(cmd, args)
		if err != nil {
			return err
		}

		resp, err := http.Post(base+"/stop", "application/json", nil)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		fmt.Fprintln(cmd.OutOrStdout(), "stopped")
		return nil
	},
}

var triggerCmd = &cobra.Command{
	Use:   "trigger [config]",
	Short: "Ask the daemon to run a pass now",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := daemonBaseURL(cmd, args)
		if err != nil {
			return err
		}

		resp, err := http.Post(base+"/sync", "application/json", nil)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		fmt.Fprintln(cmd.OutOrStdout(), "pass queued")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd, triggerCmd)
}
