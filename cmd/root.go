package cmd

import (
	"errors"
	"fmt"
	"os"

	"softlink/internal/config"
	"softlink/internal/guard"
	"softlink/internal/logger"

	"github.com/spf13/cobra"
)

var errControlAPIDisabled = errors.New("control API is disabled (daemon-port: 0)")

var (
	debug      bool
	daemonPort int
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "softlink",
	Short: "Mirror directory trees as symlinks and keep them in sync",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug, nil)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the optional CONFIG argument merged with the command's
// flags, and reopens the logger with a file sink when one is configured.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var path string
	if len(args) > 0 {
		path = args[0]
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("port") {
		cfg.DaemonPort = daemonPort
	}

	if logFile != "" {
		cfg.Log.File = logFile
	}

	if opts := cfg.LogFile(); opts != nil {
		logger.Init(debug, opts)
	}

	return cfg, nil
}

// verifyStartup rejects configurations no pass could ever run safely,
// whatever the per-pass guard settings are.
func verifyStartup(cfg *config.Config) error {
	if err := guard.VerifyNoDangerousPaths(cfg.Paths(), cfg.ForbiddenPaths...); err != nil {
		return err
	}
	return guard.VerifyNoOverlap(cfg.Sources, cfg.Targets)
}

func registerConfigFlags(cmd *cobra.Command) {
	config.RegisterFlags(cmd.Flags())
}

// daemonBaseURL locates the control API. An explicit --port wins, then the
// daemon-port of the optional CONFIG argument, then the default port.
func daemonBaseURL(cmd *cobra.Command, args []string) (string, error) {
	port := daemonPort
	if len(args) > 0 && !cmd.Flags().Changed("port") {
		cfg, err := config.Load(args[0], nil)
		if err != nil {
			return "", err
		}
		if cfg.DaemonPort == 0 {
			return "", errControlAPIDisabled
		}
		port = cfg.DaemonPort
	}

	return fmt.Sprintf("http://localhost:%d", port), nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
	rootCmd.PersistentFlags().IntVar(&daemonPort, "port", config.Default.DaemonPort, "Port of the daemon control API")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")
}
