package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"softlink/internal/linker"
	"softlink/internal/logger"
	"softlink/internal/util"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every error Load returns.
var ErrInvalidConfig = errors.New("invalid configuration")

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max-size"`
	MaxBackups int    `mapstructure:"max-backups"`
	MaxAge     int    `mapstructure:"max-age"`
	Compress   bool   `mapstructure:"compress"`
}

type Config struct {
	Sources []string `mapstructure:"sources"`
	Targets []string `mapstructure:"targets"`

	RmBrokenLinks                bool     `mapstructure:"rm-broken-links"`
	VerifyNoDangerousPaths       bool     `mapstructure:"verify-no-dangerous-paths"`
	VerifyNoRegularFilesInTarget bool     `mapstructure:"verify-no-regular-files-in-target"`
	MaxFilesInSources            int      `mapstructure:"max-files-in-sources"`
	DryRun                       bool     `mapstructure:"dry-run"`
	ForbiddenPaths               []string `mapstructure:"forbidden-paths"`

	Recursive        bool          `mapstructure:"recursive"`
	Engine           string        `mapstructure:"engine"`
	Debounce         time.Duration `mapstructure:"debounce"`
	OperationTimeout time.Duration `mapstructure:"operation-timeout"`
	IgnoreList       []string      `mapstructure:"ignore-list"`
	BufferSize       int           `mapstructure:"buffer-size"`

	DaemonPort int       `mapstructure:"daemon-port"`
	DBPath     string    `mapstructure:"db-path"`
	Log        LogConfig `mapstructure:"log"`
}

var Default = Config{
	MaxFilesInSources: -1,
	Engine:            linker.EngineNative,
	Debounce:          100 * time.Millisecond,
	IgnoreList:        []string{".git", ".DS_Store", "*.tmp", "*.swp"},
	BufferSize:        100,
	DaemonPort:        9101,
	DBPath:            "~/.softlink/softlink.db",
	Log: LogConfig{
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	},
}

// RegisterFlags adds the flags that override configuration document keys.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringSlice("sources", nil, "directories to watch")
	fs.StringSlice("targets", nil, "directories to softlink the files to")
	fs.Bool("rm-broken-links", false, "remove broken links in the target folders")
	fs.Bool("verify-no-dangerous-paths", false, "verify that no dangerous paths are used (e.g. /) before every pass")
	fs.Bool("verify-no-regular-files-in-target", false, "verify that the target folders contain no regular files")
	fs.Int("max-files-in-sources", Default.MaxFilesInSources, "abort a pass when the sources contain more than this number of files (-1 disables)")
	fs.Bool("dry-run", false, "do not actually link or remove anything")
	fs.Bool("recursive", false, "also watch nested source directories")
	fs.String("engine", Default.Engine, "link engine: native or exec")
}

// Load reads the configuration document at path (optional when sources and
// targets are passed as flags), applies SOFTLINK_* environment variables and
// flag overrides, and validates the result.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("sources", []string{})
	v.SetDefault("targets", []string{})
	v.SetDefault("rm-broken-links", Default.RmBrokenLinks)
	v.SetDefault("verify-no-dangerous-paths", Default.VerifyNoDangerousPaths)
	v.SetDefault("verify-no-regular-files-in-target", Default.VerifyNoRegularFilesInTarget)
	v.SetDefault("max-files-in-sources", Default.MaxFilesInSources)
	v.SetDefault("dry-run", Default.DryRun)
	v.SetDefault("forbidden-paths", []string{})
	v.SetDefault("recursive", Default.Recursive)
	v.SetDefault("engine", Default.Engine)
	v.SetDefault("debounce", Default.Debounce)
	v.SetDefault("operation-timeout", Default.OperationTimeout)
	v.SetDefault("ignore-list", Default.IgnoreList)
	v.SetDefault("buffer-size", Default.BufferSize)
	v.SetDefault("daemon-port", Default.DaemonPort)
	v.SetDefault("db-path", Default.DBPath)
	v.SetDefault("log.file", Default.Log.File)
	v.SetDefault("log.max-size", Default.Log.MaxSize)
	v.SetDefault("log.max-backups", Default.Log.MaxBackups)
	v.SetDefault("log.max-age", Default.Log.MaxAge)
	v.SetDefault("log.compress", Default.Log.Compress)

	v.SetEnvPrefix("SOFTLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("%w: failed to bind flags: %w", ErrInvalidConfig, err)
		}
	}

	if path != "" {
		v.SetConfigFile(util.ExpandHome(path))
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config file %s: %w", ErrInvalidConfig, path, err)
		}
		logger.Log.Debug("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", ErrInvalidConfig, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) normalize() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("%w: no sources given (config file or --sources)", ErrInvalidConfig)
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("%w: no targets given (config file or --targets)", ErrInvalidConfig)
	}

	var err error
	if c.Sources, err = absPaths("source", c.Sources); err != nil {
		return err
	}
	if c.Targets, err = absPaths("target", c.Targets); err != nil {
		return err
	}

	switch c.Engine {
	case linker.EngineNative, linker.EngineExec:
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalidConfig, c.Engine)
	}

	if c.DaemonPort < 0 || c.DaemonPort > 65535 {
		return fmt.Errorf("%w: daemon-port %d out of range", ErrInvalidConfig, c.DaemonPort)
	}
	if c.BufferSize <= 0 {
		c.BufferSize = Default.BufferSize
	}

	c.DBPath = util.ExpandHome(c.DBPath)
	c.Log.File = util.ExpandHome(c.Log.File)
	return nil
}

// Paths returns every configured source followed by every target.
func (c *Config) Paths() []string {
	paths := make([]string, 0, len(c.Sources)+len(c.Targets))
	paths = append(paths, c.Sources...)
	return append(paths, c.Targets...)
}

// LogFile returns the rotation settings for the file sink, or nil when
// file logging is off.
func (c *Config) LogFile() *logger.FileOptions {
	if c.Log.File == "" {
		return nil
	}

	return &logger.FileOptions{
		Path:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
	}
}

func absPaths(kind string, paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := util.AbsPath(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s %q: %w", ErrInvalidConfig, kind, p, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
