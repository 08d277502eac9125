package cmd

import (
	"fmt"
	"os"

	"softlink/internal/autostart"
	"softlink/internal/util"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install [config]",
	Short: "Register the watch daemon to start on login",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		configPath, err := util.AbsPath(args[0])
		if err != nil {
			return err
		}
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config not found: %w", err)
		}

		as := autostart.New()
		if installed, _ := as.IsInstalled(); installed {
			fmt.Fprintln(cmd.OutOrStdout(), "replacing existing registration")
		}
		if err := as.Install(execPath, configPath); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "softlink registered for autostart")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
