// Package cli implements the actgraph command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/actgraph/pkg/buildinfo"
	"github.com/matzehuels/actgraph/pkg/cache"
	"github.com/matzehuels/actgraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "actgraph"

	// envPrefix prefixes environment variables read as configuration.
	envPrefix = "ACTGRAPH"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// cfgFile is the --config flag value.
	cfgFile string
	// logFile is closed after the command finishes.
	logFile io.Closer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Close releases the log file, if one was opened.
func (c *CLI) Close() error {
	if c.logFile != nil {
		return c.logFile.Close()
	}
	return nil
}

// RootCommand creates the root cobra command with all subcommands registered.
// Invoked with a URL the root command graphs that ACT instance.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "actgraph [url]",
		Short: "actgraph draws the data model of an ACT platform",
		Long: `actgraph fetches the object types and fact types of an ACT platform
instance and renders them as Graphviz diagrams, optionally attaching the
images to a Confluence page.

Three diagrams are produced:
  complete  every object type and every fact connecting two of them
  double    only facts connecting two object types ("mentions" excluded)
  single    facts bound to a single object type

Runs are skipped when the data model has not changed since the last run,
which makes actgraph cheap to schedule.`,
		Example: `  actgraph https://act.example.com --uid 3
  actgraph https://act.example.com --format svg,png -o diagrams
  actgraph https://act.example.com --parent_id 123456 \
      --confluence_url https://wiki.example.com --confluence_user bot`,
		Version:      buildinfo.Version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, args)
			if err != nil {
				return err
			}
			return c.runGraph(cmd.Context(), cfg)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default: "+defaultConfigHint()+")")
	pf.String(keyLogFile, "", "also write logs to this file (rotated)")
	addConnectionFlags(root)
	addGraphFlags(root)

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loadDotEnv(c.Logger)
		path, _ := cmd.Flags().GetString(keyLogFile)
		if path == "" {
			path = os.Getenv(envPrefix + "_LOG_FILE")
		}
		if path != "" {
			c.logFile = attachLogFile(c.Logger, path)
		}
		return nil
	}

	// Register all subcommands
	root.AddCommand(c.originCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg Config) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, cfg Config) (cache.Cache, error) {
	switch {
	case cfg.NoCache:
		return cache.NewNullCache(), nil
	case cfg.CacheRedis != "":
		c.Logger.Debug("using redis cache", "addr", cfg.CacheRedis)
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.CacheRedis})
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, change detection disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/actgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/actgraph/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// configPath returns the default config file location.
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func defaultConfigHint() string {
	if p, err := configPath(); err == nil {
		return p
	}
	return "~/.config/" + appName + "/config.toml"
}
