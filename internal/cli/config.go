package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/actgraph/pkg/integrations/act"
	"github.com/matzehuels/actgraph/pkg/pipeline"
)

// Configuration keys. Flag names, config file keys and environment variables
// (ACTGRAPH_ prefix, dashes as underscores) all use these.
const (
	keyURL                = "url"
	keyUID                = "uid"
	keyHTTPUsername       = "http_username"
	keyHTTPPassword       = "http_password"
	keyCACert             = "cacert"
	keyTimeout            = "timeout"
	keyParentID           = "parent_id"
	keyConfluenceURL      = "confluence_url"
	keyConfluenceUser     = "confluence_user"
	keyConfluencePassword = "confluence_password"
	keyDumpSource         = "dump_source"
	keyOutput             = "output"
	keyFormat             = "format"
	keyView               = "view"
	keyExclude            = "exclude"
	keyRankDir            = "rankdir"
	keyForce              = "force"
	keyNoCache            = "no-cache"
	keyCacheRedis         = "cache-redis"
	keyLogFile            = "log-file"
	keyDefaultTrust       = "default_trust"
	keyListen             = "listen"
)

const redacted = "********"

// Config is the effective configuration of one command invocation.
type Config struct {
	URL          string `mapstructure:"url" toml:"url" yaml:"url"`
	UID          int    `mapstructure:"uid" toml:"uid" yaml:"uid"`
	HTTPUsername string `mapstructure:"http_username" toml:"http_username" yaml:"http_username"`
	HTTPPassword string `mapstructure:"http_password" toml:"http_password" yaml:"http_password"`
	CACert       string `mapstructure:"cacert" toml:"cacert" yaml:"cacert"`
	Timeout      string `mapstructure:"timeout" toml:"timeout" yaml:"timeout"`

	ParentID           string `mapstructure:"parent_id" toml:"parent_id" yaml:"parent_id"`
	ConfluenceURL      string `mapstructure:"confluence_url" toml:"confluence_url" yaml:"confluence_url"`
	ConfluenceUser     string `mapstructure:"confluence_user" toml:"confluence_user" yaml:"confluence_user"`
	ConfluencePassword string `mapstructure:"confluence_password" toml:"confluence_password" yaml:"confluence_password"`

	DumpSource string `mapstructure:"dump_source" toml:"dump_source" yaml:"dump_source"`
	Output     string `mapstructure:"output" toml:"output" yaml:"output"`
	Format     string `mapstructure:"format" toml:"format" yaml:"format"`
	View       string `mapstructure:"view" toml:"view" yaml:"view"`
	Exclude    string `mapstructure:"exclude" toml:"exclude" yaml:"exclude"`
	RankDir    string `mapstructure:"rankdir" toml:"rankdir" yaml:"rankdir"`
	Force      bool   `mapstructure:"force" toml:"force" yaml:"force"`

	NoCache    bool   `mapstructure:"no-cache" toml:"no-cache" yaml:"no-cache"`
	CacheRedis string `mapstructure:"cache-redis" toml:"cache-redis" yaml:"cache-redis"`
	LogFile    string `mapstructure:"log-file" toml:"log-file" yaml:"log-file"`

	DefaultTrust string `mapstructure:"default_trust" toml:"default_trust" yaml:"default_trust"`
	Listen       string `mapstructure:"listen" toml:"listen" yaml:"listen"`
}

// defaultConfig returns the built-in defaults.
func defaultConfig() Config {
	return Config{
		UID:          act.DefaultUserID,
		Timeout:      "30s",
		Output:       "output",
		Format:       pipeline.DefaultFormat,
		View:         "complete,double,single",
		Exclude:      strings.Join(pipeline.DefaultExclude, ","),
		RankDir:      "TB",
		DefaultTrust: "0.8",
		Listen:       ":8080",
	}
}

// Redacted returns a copy with passwords masked, for display.
func (cfg Config) Redacted() Config {
	if cfg.HTTPPassword != "" {
		cfg.HTTPPassword = redacted
	}
	if cfg.ConfluencePassword != "" {
		cfg.ConfluencePassword = redacted
	}
	return cfg
}

// TimeoutDuration parses Timeout; an empty value means the client default.
func (cfg Config) TimeoutDuration() (time.Duration, error) {
	if cfg.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
	}
	return d, nil
}

// ACTConfig returns the platform connection settings.
func (cfg Config) ACTConfig() (act.Config, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return act.Config{}, err
	}
	if cfg.URL == "" {
		return act.Config{}, errors.New("no ACT URL given (pass it as argument, --url or " + envPrefix + "_URL)")
	}
	return act.Config{
		BaseURL:  cfg.URL,
		UserID:   cfg.UID,
		Username: cfg.HTTPUsername,
		Password: cfg.HTTPPassword,
		CACert:   cfg.CACert,
		Timeout:  timeout,
	}, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// =============================================================================
// Flags
// =============================================================================

// addConnectionFlags registers the flags shared by every command that talks
// to the platform.
func addConnectionFlags(cmd *cobra.Command) {
	d := defaultConfig()
	pf := cmd.PersistentFlags()
	pf.String(keyURL, "", "ACT platform URL (alternative to the positional argument)")
	pf.Int(keyUID, d.UID, "ACT user ID, sent as the ACT-User-ID header as given")
	pf.String(keyHTTPUsername, "", "HTTP basic auth username")
	pf.String(keyHTTPPassword, "", "HTTP basic auth password")
	pf.String(keyCACert, "", "extra CA certificate file (PEM)")
	pf.String(keyTimeout, d.Timeout, "HTTP request timeout")
	pf.Bool(keyNoCache, false, "disable change detection")
	pf.String(keyCacheRedis, "", "keep change detection state in redis at host:port")
}

// addRenderFlags registers the flags that shape the diagrams.
func addRenderFlags(cmd *cobra.Command) {
	d := defaultConfig()
	f := cmd.Flags()
	f.String(keyExclude, d.Exclude, "comma-separated fact types left out of the double view")
	f.String(keyRankDir, d.RankDir, "Graphviz layout direction (TB, LR, BT, RL)")
}

// addGraphFlags registers the flags of the graph run.
func addGraphFlags(cmd *cobra.Command) {
	d := defaultConfig()
	f := cmd.Flags()
	f.StringP(keyOutput, "o", d.Output, "output directory")
	f.String(keyFormat, d.Format, "comma-separated output formats (dot, svg, png, json)")
	f.String(keyView, d.View, "comma-separated views (complete, double, single)")
	f.Bool(keyForce, false, "render even if the data model is unchanged")
	f.String(keyDumpSource, "", "also write the Graphviz source of each view to this directory")
	f.String(keyParentID, "", "Confluence page ID to attach the diagrams to")
	f.String(keyConfluenceURL, "", "Confluence base URL")
	f.String(keyConfluenceUser, "", "Confluence user")
	f.String(keyConfluencePassword, "", "Confluence password")
	addRenderFlags(cmd)
}

// =============================================================================
// Loading
// =============================================================================

// loadConfig merges flags > ACTGRAPH_* environment > config file > defaults.
// A positional URL argument wins over everything else.
func (c *CLI) loadConfig(cmd *cobra.Command, args []string) (Config, error) {
	v, err := c.newViper(cmd)
	if err != nil {
		return Config{}, err
	}
	if len(args) > 0 {
		v.Set(keyURL, args[0])
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c *CLI) newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()

	d := defaultConfig()
	v.SetDefault(keyURL, d.URL)
	v.SetDefault(keyUID, d.UID)
	v.SetDefault(keyHTTPUsername, "")
	v.SetDefault(keyHTTPPassword, "")
	v.SetDefault(keyCACert, "")
	v.SetDefault(keyTimeout, d.Timeout)
	v.SetDefault(keyParentID, "")
	v.SetDefault(keyConfluenceURL, "")
	v.SetDefault(keyConfluenceUser, "")
	v.SetDefault(keyConfluencePassword, "")
	v.SetDefault(keyDumpSource, "")
	v.SetDefault(keyOutput, d.Output)
	v.SetDefault(keyFormat, d.Format)
	v.SetDefault(keyView, d.View)
	v.SetDefault(keyExclude, d.Exclude)
	v.SetDefault(keyRankDir, d.RankDir)
	v.SetDefault(keyForce, false)
	v.SetDefault(keyNoCache, false)
	v.SetDefault(keyCacheRedis, "")
	v.SetDefault(keyLogFile, "")
	v.SetDefault(keyDefaultTrust, d.DefaultTrust)
	v.SetDefault(keyListen, d.Listen)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if c.cfgFile != "" {
		v.SetConfigFile(c.cfgFile)
	} else if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("toml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		c.Logger.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	return v, nil
}

// loadDotEnv reads .env from the working directory without overriding
// variables that are already set.
func loadDotEnv(logger *log.Logger) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("could not read .env", "error", err)
		}
		return
	}
	logger.Debug("loaded .env")
}

// =============================================================================
// config command
// =============================================================================

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize configuration",
		Long: `Inspect and initialize actgraph configuration.

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (ACTGRAPH_*, also read from ./.env)
  3. Config file (` + defaultConfigHint() + `)
  4. Defaults`,
	}

	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configPathCommand())

	return cmd
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (passwords masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), cfg.Redacted(), format)
		},
	}
	cmd.Flags().StringVar(&format, "as", "toml", "encoding (toml, yaml)")
	return cmd
}

// writeConfig encodes cfg as TOML or YAML.
func writeConfig(w io.Writer, cfg Config, format string) error {
	switch format {
	case "toml":
		return toml.NewEncoder(w).Encode(cfg)
	case "yaml", "yml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown config format %q (must be toml or yaml)", format)
	}
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.cfgFile
			if path == "" {
				var err error
				if path, err = configPath(); err != nil {
					return fmt.Errorf("get config path: %w", err)
				}
			}
			if err := initConfigFile(path, force); err != nil {
				return err
			}
			printSuccess("Created default configuration")
			printFile(path)
			printNextStep("Review it with", appName+" config show")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

const configHeader = `# actgraph configuration
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (ACTGRAPH_*, e.g. ACTGRAPH_HTTP_PASSWORD)
#   3. This config file
#   4. Built-in defaults
#
# Prefer environment variables or a .env file for passwords.

`

// initConfigFile writes the defaults to path.
func initConfigFile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	if _, err := io.WriteString(f, configHeader); err != nil {
		f.Close()
		return err
	}
	if err := toml.NewEncoder(f).Encode(defaultConfig()); err != nil {
		f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return fmt.Errorf("get config path: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
