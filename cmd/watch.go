package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"softlink/internal/daemon"
	"softlink/internal/db"
	"softlink/internal/linker"
	"softlink/internal/logger"
	"softlink/internal/pipeline"
	"softlink/internal/repository"
	"softlink/internal/syncer"
	"softlink/internal/watcher"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errStopRequested = errors.New("stop requested via API")

var watchCmd = &cobra.Command{
	Use:   "watch [config]",
	Short: "Watch the sources and keep the targets linked",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := verifyStartup(cfg); err != nil {
		logger.Log.Error("refusing to start", zap.Error(err))
		return err
	}

	l, err := linker.New(cfg.Engine)
	if err != nil {
		return err
	}

	var (
		histRepo *repository.HistoryRepository
		saver    daemon.HistorySaver
	)
	if cfg.DBPath != "" {
		if err := db.Init(cfg.DBPath); err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		histRepo = repository.NewHistoryRepository()
		saver = histRepo
	}

	state := daemon.NewState(cfg)
	dispatcher := daemon.NewDispatcher(syncer.NewTreeSyncer(cfg, l), state, saver)

	w, err := watcher.New(cfg.BufferSize, cfg.Recursive)
	if err != nil {
		return err
	}
	defer w.Stop()

	for _, src := range cfg.Sources {
		if err := w.Watch(src); err != nil {
			return err
		}
	}

	events := pipeline.Coalesce(pipeline.Filter(w.Events(), cfg.IgnoreList), cfg.Debounce)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	dispatcher.Trigger("startup")
	g.Go(func() error {
		return dispatcher.Run(ctx, events)
	})

	if cfg.DaemonPort > 0 {
		srv := daemon.NewServer(dispatcher, state, histRepo, cfg.DaemonPort)
		g.Go(func() error {
			return srv.Start(ctx)
		})
		g.Go(func() error {
			select {
			case <-srv.StopCh():
				return errStopRequested
			case <-ctx.Done():
				return nil
			}
		})
	}

	logger.Log.Info("softlink started",
		zap.Strings("sources", cfg.Sources),
		zap.Strings("targets", cfg.Targets),
		zap.Bool("dry_run", cfg.DryRun),
		zap.Int("port", cfg.DaemonPort))

	err = g.Wait()
	if errors.Is(err, errStopRequested) {
		logger.Log.Info("stop requested via API")
		err = nil
	}

	logger.Log.Info("shutting down")
	return err
}

func init() {
	registerConfigFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}
