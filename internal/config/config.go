// ABOUTME: Configuration loading and parsing for quill
// ABOUTME: TOML (or YAML by extension) with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultAPITimeout bounds each content API call when api.timeout is unset.
const DefaultAPITimeout = 10 * time.Second

// Config represents the complete quill configuration
type Config struct {
	Matrix    MatrixConfig    `toml:"matrix" yaml:"matrix"`
	API       APIConfig       `toml:"api" yaml:"api"`
	Bridge    BridgeConfig    `toml:"bridge" yaml:"bridge"`
	Sessions  SessionsConfig  `toml:"sessions" yaml:"sessions"`
	Content   ContentConfig   `toml:"content" yaml:"content"`
	Tailscale TailscaleConfig `toml:"tailscale" yaml:"tailscale"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
}

// MatrixConfig holds the bot account. Either access_token or
// username+password must be set.
type MatrixConfig struct {
	Homeserver  string `toml:"homeserver" yaml:"homeserver"`
	UserID      string `toml:"user_id" yaml:"user_id"`
	AccessToken string `toml:"access_token" yaml:"access_token"`
	Username    string `toml:"username" yaml:"username"`
	Password    string `toml:"password" yaml:"password"`
	RecoveryKey string `toml:"recovery_key" yaml:"recovery_key"`
}

// APIConfig points at the content API
type APIConfig struct {
	URL    string `toml:"url" yaml:"url"`
	APIKey string `toml:"api_key" yaml:"api_key"`

	Timeout    time.Duration `toml:"-" yaml:"-"`
	TimeoutRaw string        `toml:"timeout" yaml:"timeout"`
}

// BridgeConfig controls which Matrix traffic the bot answers
type BridgeConfig struct {
	AllowedRooms    []string `toml:"allowed_rooms" yaml:"allowed_rooms"`
	AllowedUsers    []string `toml:"allowed_users" yaml:"allowed_users"`
	TypingIndicator bool     `toml:"typing_indicator" yaml:"typing_indicator"`
	AutoJoin        bool     `toml:"auto_join" yaml:"auto_join"`
}

// Session backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// SessionsConfig selects where wizard sessions live
type SessionsConfig struct {
	Backend string `toml:"backend" yaml:"backend"`
	Path    string `toml:"path" yaml:"path"`
}

// Content formats.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// ContentConfig controls how wizard content answers are normalized
type ContentConfig struct {
	Format string `toml:"format" yaml:"format"`
}

// TailscaleConfig holds Tailscale tsnet configuration for reaching the API
type TailscaleConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Hostname  string `toml:"hostname" yaml:"hostname"`
	AuthKey   string `toml:"auth_key" yaml:"auth_key"`
	StateDir  string `toml:"state_dir" yaml:"state_dir"`
	Ephemeral bool   `toml:"ephemeral" yaml:"ephemeral"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// DefaultPath returns the config file location.
// Priority: QUILL_CONFIG env var > XDG_CONFIG_HOME/quill/quill.toml > ~/.config/quill/quill.toml
func DefaultPath() string {
	if envPath := os.Getenv("QUILL_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "quill.toml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "quill", "quill.toml")
}

// DataDir returns the quill data directory.
// Priority: XDG_DATA_HOME/quill > ~/.local/share/quill
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "quill")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .yaml or .yml are parsed as YAML, everything else as TOML.
// Environment variables in the format ${VAR_NAME} are expanded first.
func Load(path string) (*Config, error) {
	return load(path, (*Config).Validate)
}

// LoadAPI is Load for tools that only talk to the content API: only the
// [api] section is validated.
func LoadAPI(path string) (*Config, error) {
	return load(path, (*Config).ValidateAPI)
}

// LoadSessions is Load for tools that only open the session store: only the
// [sessions] section is validated.
func LoadSessions(path string) (*Config, error) {
	return load(path, (*Config).ValidateSessions)
}

// Default returns a config with every default applied and nothing loaded
// from disk. It is not valid until the required fields are filled in.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func load(path string, validate func(*Config) error) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := decode(expandEnvVars(string(data)), formatOf(path))
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// decode parses config text in the given format ("toml" or "yaml") and
// applies defaults.
func decode(text, format string) (*Config, error) {
	var cfg Config
	switch format {
	case "yaml":
		if err := yaml.Unmarshal([]byte(text), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if _, err := toml.Decode(text, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "toml"
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(re.FindStringSubmatch(match)[1])
	})
}

func (c *Config) applyDefaults() {
	if c.API.APIKey == "" {
		c.API.APIKey = os.Getenv("API_KEY")
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.Sessions.Backend == "" {
		c.Sessions.Backend = BackendMemory
	}
	if c.Sessions.Backend == BackendSQLite && c.Sessions.Path == "" {
		c.Sessions.Path = filepath.Join(DataDir(), "sessions.db")
	}
	if c.Content.Format == "" {
		c.Content.Format = FormatHTML
	}
	if c.Tailscale.AuthKey == "" {
		c.Tailscale.AuthKey = os.Getenv("TS_AUTHKEY")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if err := c.ValidateAPI(); err != nil {
		return err
	}

	if c.Matrix.Homeserver == "" {
		return fmt.Errorf("matrix.homeserver is required")
	}
	if _, err := url.Parse(c.Matrix.Homeserver); err != nil {
		return fmt.Errorf("matrix.homeserver is not a valid URL: %w", err)
	}
	if c.Matrix.AccessToken != "" {
		if c.Matrix.UserID == "" {
			return fmt.Errorf("matrix.user_id is required with matrix.access_token")
		}
	} else if c.Matrix.Username == "" || c.Matrix.Password == "" {
		return fmt.Errorf("matrix.access_token or matrix.username and matrix.password are required")
	}

	if err := c.ValidateSessions(); err != nil {
		return err
	}

	switch c.Content.Format {
	case FormatHTML, FormatMarkdown:
	default:
		return fmt.Errorf("content.format must be %q or %q, got %q", FormatHTML, FormatMarkdown, c.Content.Format)
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// ValidateAPI checks only the [api] section. quill-admin needs nothing else.
func (c *Config) ValidateAPI() error {
	if c.API.URL == "" {
		return fmt.Errorf("api.url is required")
	}
	u, err := url.Parse(c.API.URL)
	if err != nil {
		return fmt.Errorf("api.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.url must use http or https scheme")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	return nil
}

// ValidateSessions checks only the [sessions] section.
func (c *Config) ValidateSessions() error {
	switch c.Sessions.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("sessions.backend must be %q or %q, got %q", BackendMemory, BackendSQLite, c.Sessions.Backend)
	}
	if c.Sessions.Backend == BackendSQLite && c.Sessions.Path == "" {
		return fmt.Errorf("sessions.path is required for the sqlite backend")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.API.TimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.API.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing api.timeout %q: %w", cfg.API.TimeoutRaw, err)
		}
		cfg.API.Timeout = d
	}
	return nil
}
