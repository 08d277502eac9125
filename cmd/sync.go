package cmd

import (
	"fmt"

	"softlink/internal/db"
	"softlink/internal/linker"
	"softlink/internal/logger"
	"softlink/internal/model"
	"softlink/internal/repository"
	"softlink/internal/syncer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncCmd = &cobra.Command{
	Use:   "sync [config]",
	Short: "Run a single synchronization pass",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}

		if err := verifyStartup(cfg); err != nil {
			return err
		}

		l, err := linker.New(cfg.Engine)
		if err != nil {
			return err
		}

		outcome := syncer.NewTreeSyncer(cfg, l).Sync(cmd.Context(), "manual")

		if cfg.DBPath != "" {
			if err := db.Init(cfg.DBPath); err != nil {
				logger.Log.Warn("history unavailable", zap.Error(err))
			} else {
				defer func() { _ = db.Close() }()
				if err := repository.NewHistoryRepository().Save(outcome); err != nil {
					logger.Log.Warn("failed to save history", zap.Error(err))
				}
			}
		}

		out := cmd.OutOrStdout()
		if cfg.DryRun {
			for _, a := range outcome.Actions {
				if a.Target != "" {
					fmt.Fprintf(out, "would %s %s -> %s\n", a.Kind, a.Path, a.Target)
				} else {
					fmt.Fprintf(out, "would %s %s\n", a.Kind, a.Path)
				}
			}
		}

		fmt.Fprintf(out, "%s: %d linked, %d unlinked, %d failed\n",
			outcome.Status,
			outcome.Count(model.ActionLink),
			outcome.Count(model.ActionUnlink),
			len(outcome.Failures))

		if outcome.Status == model.PassAborted {
			return outcome.Err
		}
		return nil
	},
}

func init() {
	registerConfigFlags(syncCmd)
	rootCmd.AddCommand(syncCmd)
}
