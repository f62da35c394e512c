// Package config provides configuration management for the minuteme command-line tool.
// Values come from defaults, then ~/.minuteme/config.yaml, then MINUTEME_* environment
// variables, then persistent flags applied by the root command.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultAPIBaseURL   = "http://localhost:8000"
	DefaultTimeout      = 10 * time.Minute
	DefaultPollInterval = 30 * time.Second
	DefaultOutputFormat = OutputFormatText
	DefaultConfigDir    = ".minuteme"
	DefaultConfigFile   = "config.yaml"
	DefaultRedisChannel = "minuteme:automation"
	DefaultAuditTable   = "minuteme_command_log"
	minimumPollInterval = time.Second
)

// TLSConfig holds client TLS settings.
type TLSConfig struct {
	// CACert is the path to a CA bundle used to verify the API server.
	CACert string `yaml:"ca_cert,omitempty"`

	// ClientCert and ClientKey enable mTLS when both are set.
	ClientCert string `yaml:"client_cert,omitempty"`
	ClientKey  string `yaml:"client_key,omitempty"`

	// SkipVerify disables server certificate verification (insecure, for testing only).
	SkipVerify bool `yaml:"skip_verify,omitempty"`
}

// ResolvePaths expands ~ in certificate paths.
func (c *TLSConfig) ResolvePaths() {
	c.CACert = expandPath(c.CACert)
	c.ClientCert = expandPath(c.ClientCert)
	c.ClientKey = expandPath(c.ClientKey)
}

// IsConfigured reports whether any TLS material was supplied.
func (c *TLSConfig) IsConfigured() bool {
	return c.CACert != "" || c.ClientCert != "" || c.SkipVerify
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// RedisConfig enables mirroring automation status to a Redis channel.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

// IsConfigured returns true when a Redis address is set.
func (c *RedisConfig) IsConfigured() bool {
	return c != nil && c.Addr != ""
}

// GetChannel returns the pub/sub channel, defaulting to minuteme:automation.
func (c *RedisConfig) GetChannel() string {
	if c == nil || c.Channel == "" {
		return DefaultRedisChannel
	}
	return c.Channel
}

// AuditConfig holds the Postgres settings for the optional command audit log.
type AuditConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`

	// SSLMode is the SSL connection mode (disable, require, verify-ca, verify-full).
	SSLMode     string `yaml:"sslmode,omitempty"`
	SSLRootCert string `yaml:"sslrootcert,omitempty"`

	Table string `yaml:"table,omitempty"`
}

// ConnectionString returns the lib/pq connection string, or "" when unconfigured.
func (c *AuditConfig) ConnectionString() string {
	if !c.IsConfigured() {
		return ""
	}

	port := c.Port
	if port == 0 {
		port = 5432
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}

	connStr := fmt.Sprintf("host=%s port=%d dbname=%s user=%s sslmode=%s",
		c.Host, port, c.Database, c.User, sslmode)
	if c.Password != "" {
		connStr += fmt.Sprintf(" password=%s", c.Password)
	}
	if (sslmode == "verify-ca" || sslmode == "verify-full") && c.SSLRootCert != "" {
		connStr += fmt.Sprintf(" sslrootcert=%s", expandPath(c.SSLRootCert))
	}
	return connStr
}

// IsConfigured returns true if the audit log has the required connection fields.
func (c *AuditConfig) IsConfigured() bool {
	return c != nil && c.Host != "" && c.Database != "" && c.User != ""
}

// GetTable returns the audit table name.
func (c *AuditConfig) GetTable() string {
	if c == nil || c.Table == "" {
		return DefaultAuditTable
	}
	return c.Table
}

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// APIBaseURL is the MinuteMe backend root, e.g. https://api.minuteme.app.
	APIBaseURL string `yaml:"api_base_url"`

	// Timeout bounds each command's network work.
	Timeout time.Duration `yaml:"timeout"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// PollInterval is the notification polling period.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	// LogJSON switches log output on stderr to JSON lines.
	LogJSON bool `yaml:"log_json,omitempty"`

	// Insecure disables TLS verification (for development only).
	Insecure bool `yaml:"insecure,omitempty"`

	// MetricsAddr, when set, is where long-running commands serve /metrics.
	MetricsAddr string `yaml:"metrics_addr,omitempty"`

	TLS   TLSConfig    `yaml:"tls,omitempty"`
	Redis *RedisConfig `yaml:"redis,omitempty"`
	Audit *AuditConfig `yaml:"audit,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		APIBaseURL:   DefaultAPIBaseURL,
		Timeout:      DefaultTimeout,
		OutputFormat: DefaultOutputFormat,
		PollInterval: DefaultPollInterval,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $MINUTEME_CONFIG_DIR if set, otherwise ~/.minuteme
func ConfigDir() (string, error) {
	if dir := os.Getenv("MINUTEME_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
func LoadConfig() (*CLIConfig, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	loadFromEnv(cfg)
	cfg.TLS.ResolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// configFile mirrors CLIConfig with durations as strings.
type configFile struct {
	APIBaseURL   string       `yaml:"api_base_url"`
	Timeout      string       `yaml:"timeout"`
	OutputFormat OutputFormat `yaml:"output_format"`
	PollInterval string       `yaml:"poll_interval,omitempty"`
	Debug        bool         `yaml:"debug,omitempty"`
	LogJSON      bool         `yaml:"log_json,omitempty"`
	Insecure     bool         `yaml:"insecure,omitempty"`
	MetricsAddr  string       `yaml:"metrics_addr,omitempty"`
	TLS          TLSConfig    `yaml:"tls,omitempty"`
	Redis        *RedisConfig `yaml:"redis,omitempty"`
	Audit        *AuditConfig `yaml:"audit,omitempty"`
}

func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.APIBaseURL != "" {
		cfg.APIBaseURL = fileCfg.APIBaseURL
	}
	if fileCfg.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.Timeout)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		cfg.Timeout = timeout
	}
	if fileCfg.PollInterval != "" {
		interval, err := time.ParseDuration(fileCfg.PollInterval)
		if err != nil {
			return fmt.Errorf("parsing poll_interval: %w", err)
		}
		cfg.PollInterval = interval
	}
	if fileCfg.OutputFormat != "" {
		cfg.OutputFormat = fileCfg.OutputFormat
	}
	cfg.Debug = fileCfg.Debug
	cfg.LogJSON = fileCfg.LogJSON
	cfg.Insecure = fileCfg.Insecure
	cfg.MetricsAddr = fileCfg.MetricsAddr
	cfg.TLS = fileCfg.TLS
	cfg.Redis = fileCfg.Redis
	cfg.Audit = fileCfg.Audit

	return nil
}

func envBool(key string) bool {
	v := os.Getenv(key)
	return v == "true" || v == "1"
}

func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("MINUTEME_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("MINUTEME_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = timeout
		}
	}
	if v := os.Getenv("MINUTEME_POLL_INTERVAL"); v != "" {
		if interval, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = interval
		}
	}
	if v := os.Getenv("MINUTEME_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	if envBool("MINUTEME_DEBUG") {
		cfg.Debug = true
	}
	if envBool("MINUTEME_LOG_JSON") {
		cfg.LogJSON = true
	}
	if envBool("MINUTEME_INSECURE") {
		cfg.Insecure = true
	}
	if v := os.Getenv("MINUTEME_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	if v := os.Getenv("MINUTEME_TLS_CA_CERT"); v != "" {
		cfg.TLS.CACert = v
	}
	if v := os.Getenv("MINUTEME_TLS_CLIENT_CERT"); v != "" {
		cfg.TLS.ClientCert = v
	}
	if v := os.Getenv("MINUTEME_TLS_CLIENT_KEY"); v != "" {
		cfg.TLS.ClientKey = v
	}

	if v := os.Getenv("MINUTEME_REDIS_ADDR"); v != "" {
		if cfg.Redis == nil {
			cfg.Redis = &RedisConfig{}
		}
		cfg.Redis.Addr = v
		if pw := os.Getenv("MINUTEME_REDIS_PASSWORD"); pw != "" {
			cfg.Redis.Password = pw
		}
	}

	loadAuditFromEnv(cfg)
}

func loadAuditFromEnv(cfg *CLIConfig) {
	host := os.Getenv("MINUTEME_AUDIT_HOST")
	database := os.Getenv("MINUTEME_AUDIT_DATABASE")
	user := os.Getenv("MINUTEME_AUDIT_USER")

	if host == "" && database == "" && user == "" {
		return
	}
	if cfg.Audit == nil {
		cfg.Audit = &AuditConfig{}
	}

	if host != "" {
		cfg.Audit.Host = host
	}
	if database != "" {
		cfg.Audit.Database = database
	}
	if user != "" {
		cfg.Audit.User = user
	}
	if v := os.Getenv("MINUTEME_AUDIT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Audit.Port = port
		}
	}
	if v := os.Getenv("MINUTEME_AUDIT_PASSWORD"); v != "" {
		cfg.Audit.Password = v
	}
	if v := os.Getenv("MINUTEME_AUDIT_SSLMODE"); v != "" {
		cfg.Audit.SSLMode = v
	}
}

// Validate checks that the configuration is valid.
func (c *CLIConfig) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_base_url: %q (must be an http or https URL)", c.APIBaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.PollInterval < minimumPollInterval {
		return fmt.Errorf("poll_interval must be at least %s", minimumPollInterval)
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	if (c.TLS.ClientCert == "") != (c.TLS.ClientKey == "") {
		return fmt.Errorf("tls.client_cert and tls.client_key must be set together")
	}

	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *CLIConfig) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	fileCfg := configFile{
		APIBaseURL:   cfg.APIBaseURL,
		Timeout:      cfg.Timeout.String(),
		OutputFormat: cfg.OutputFormat,
		PollInterval: cfg.PollInterval.String(),
		Debug:        cfg.Debug,
		LogJSON:      cfg.LogJSON,
		Insecure:     cfg.Insecure,
		MetricsAddr:  cfg.MetricsAddr,
		TLS:          cfg.TLS,
		Redis:        cfg.Redis,
		Audit:        cfg.Audit,
	}

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, DefaultConfigFile), data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Set assigns a single top-level key by its YAML name. Used by `minuteme config set`.
func (c *CLIConfig) Set(key, value string) error {
	switch key {
	case "api_base_url":
		c.APIBaseURL = strings.TrimRight(value, "/")
	case "timeout", "poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		if key == "timeout" {
			c.Timeout = d
		} else {
			c.PollInterval = d
		}
	case "output_format":
		c.OutputFormat = OutputFormat(value)
	case "debug", "log_json", "insecure":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		switch key {
		case "debug":
			c.Debug = b
		case "log_json":
			c.LogJSON = b
		default:
			c.Insecure = b
		}
	case "metrics_addr":
		c.MetricsAddr = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}

// SettableKeys lists the keys accepted by Set.
func SettableKeys() []string {
	return []string{"api_base_url", "timeout", "poll_interval", "output_format", "debug", "log_json", "insecure", "metrics_addr"}
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}
