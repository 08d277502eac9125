package cmd

import (
	"errors"
	"fmt"

	"softlink/internal/guard"

	"github.com/spf13/cobra"
)

var errChecksFailed = errors.New("one or more checks failed")

var checkCmd = &cobra.Command{
	Use:   "check [config]",
	Short: "Run every safety check against the configured trees",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}

		checks := []struct {
			name string
			run  func() error
		}{
			{"no dangerous paths", func() error {
				return guard.VerifyNoDangerousPaths(cfg.Paths(), cfg.ForbiddenPaths...)
			}},
			{"no overlap between sources and targets", func() error {
				return guard.VerifyNoOverlap(cfg.Sources, cfg.Targets)
			}},
			{"no regular files in targets", func() error {
				return guard.VerifyNoRegularFilesInTarget(cfg.Targets)
			}},
			{fmt.Sprintf("max files in sources (%d)", cfg.MaxFilesInSources), func() error {
				return guard.VerifyMaxFilesInSource(cfg.Sources, cfg.MaxFilesInSources)
			}},
		}

		out := cmd.OutOrStdout()
		failed := false
		for _, c := range checks {
			if err := c.run(); err != nil {
				failed = true
				fmt.Fprintf(out, "✗ %s: %v\n", c.name, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s\n", c.name)
		}

		if failed {
			return errChecksFailed
		}
		return nil
	},
}

func init() {
	registerConfigFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}
