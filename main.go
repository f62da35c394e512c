// Package main provides the minuteme CLI entry point.
// minuteme turns meeting recordings and transcripts into minutes, action
// items and calendar events through the MinuteMe API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/minuteme-cli/cmd"
	"github.com/otherjamesbrown/minuteme-cli/config"
	"github.com/otherjamesbrown/minuteme-cli/pkg/audit"
	"github.com/otherjamesbrown/minuteme-cli/pkg/buildinfo"
	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
	"github.com/otherjamesbrown/minuteme-cli/pkg/logging"
)

// component is the name reported by 'version' and /version.
const component = "minuteme-cli"

// rootFlags are the persistent flags that override config.yaml.
type rootFlags struct {
	apiURL   string
	timeout  time.Duration
	output   string
	debug    bool
	logJSON  bool
	insecure bool
}

// outputTee captures output while still writing to the original destination.
type outputTee struct {
	writer io.Writer
	buffer *bytes.Buffer
}

func (t *outputTee) Write(p []byte) (n int, err error) {
	t.buffer.Write(p)
	return t.writer.Write(p)
}

// session is the state shared by the root hooks and the audit log.
type session struct {
	deps    *cmd.Deps
	flags   rootFlags
	started time.Time
	output  *bytes.Buffer
	cancel  context.CancelFunc
}

// skipsInit reports whether cmd runs without configuration.
func skipsInit(c *cobra.Command) bool {
	switch c.Name() {
	case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return false
}

func isConfigCommand(c *cobra.Command) bool {
	return c.Parent() != nil && c.Parent().Name() == "config"
}

func newRootCommand(deps *cmd.Deps) (*cobra.Command, *session) {
	s := &session{deps: deps}

	root := &cobra.Command{
		Use:   "minuteme",
		Short: "MinuteMe CLI - meeting minutes from recordings and transcripts",
		Long: `minuteme turns meeting recordings and transcripts into minutes, action
items and calendar events.

GETTING STARTED:
  minuteme auth login                  Sign in with a session token or API key
  minuteme analyze --video <drive-url> Transcribe a recording and write minutes
  minuteme analyze -f notes.txt        Write minutes from a transcript file
  minuteme dashboard                   Recent meetings and open action items

AUTOMATION:
  minuteme analyze --video <url> --automated --follow
  minuteme notifications watch --job <meeting-id>

Every command accepts --output json|yaml for scripting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			s.started = time.Now()
			if skipsInit(c) {
				return nil
			}
			return s.initialize(c)
		},
		PersistentPostRunE: func(c *cobra.Command, args []string) error {
			if s.cancel != nil {
				s.cancel()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&s.flags.apiURL, "api-url", "", "MinuteMe API base URL")
	flags.DurationVar(&s.flags.timeout, "timeout", 0, "command timeout (e.g. 30s, 10m)")
	flags.StringVarP(&s.flags.output, "output", "o", "", "output format: text, json, yaml")
	flags.BoolVar(&s.flags.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&s.flags.logJSON, "log-json", false, "write logs to stderr as JSON lines")
	flags.BoolVar(&s.flags.insecure, "insecure", false, "disable TLS verification")

	root.AddGroup(
		&cobra.Group{ID: "meetings", Title: "Meetings:"},
		&cobra.Group{ID: "planning", Title: "Planning:"},
		&cobra.Group{ID: "account", Title: "Account:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	add := func(group string, cmds ...*cobra.Command) {
		for _, c := range cmds {
			c.GroupID = group
			root.AddCommand(c)
		}
	}

	add("meetings",
		cmd.NewDashboardCommand(deps),
		cmd.NewAnalyzeCommand(deps),
		cmd.NewMeetingsCommand(deps),
		cmd.NewTranscriptsCommand(deps),
		cmd.NewMinutesCommand(deps),
		cmd.NewActionsCommand(deps),
		cmd.NewNotificationsCommand(deps),
		cmd.NewFollowCommand(deps),
	)
	add("planning",
		cmd.NewAgendaCommand(deps),
		cmd.NewCalendarCommand(deps),
	)
	add("account",
		cmd.NewSettingsCommand(deps),
		cmd.NewQuotaCommand(deps),
		cmd.NewUpgradeCommand(deps),
		cmd.NewAdminCommand(deps),
	)
	add("setup",
		cmd.NewAuthCommand(deps),
		newConfigCommand(deps),
		cmd.NewHistoryCommand(deps),
		newVersionCommand(),
	)
	root.SetHelpCommandGroupID("setup")
	root.SetCompletionCommandGroupID("setup")

	return root, s
}

// initialize loads configuration, applies flag overrides, builds the logger,
// checks credentials and bounds the command with the configured timeout.
func (s *session) initialize(c *cobra.Command) error {
	cfg, err := s.deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if s.flags.apiURL != "" {
		cfg.APIBaseURL = strings.TrimRight(s.flags.apiURL, "/")
	}
	if s.flags.timeout != 0 {
		cfg.Timeout = s.flags.timeout
	}
	if s.flags.output != "" {
		cfg.OutputFormat = config.OutputFormat(s.flags.output)
	}
	if s.flags.debug {
		cfg.Debug = true
	}
	if s.flags.logJSON {
		cfg.LogJSON = true
	}
	if s.flags.insecure {
		cfg.Insecure = true
	}
	// The config commands must still run so a broken file can be fixed.
	if err := cfg.Validate(); err != nil && !isConfigCommand(c) {
		return fmt.Errorf("invalid configuration: %v: %w", err, mmerrors.ErrValidation)
	}
	s.deps.Config = cfg

	level := logging.LevelWarn
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logger := logging.NewLogger(&logging.Config{
		Level:      level,
		JSONFormat: cfg.LogJSON,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
		Output:     c.ErrOrStderr(),
	})
	s.deps.Logger = logger.With(logging.F("command", c.CommandPath()))
	logging.SetGlobal(s.deps.Logger)

	if cfg.Audit.IsConfigured() {
		s.output = &bytes.Buffer{}
		c.SetOut(&outputTee{writer: c.OutOrStdout(), buffer: s.output})
	}

	if cmd.NeedsAuth(c) {
		if err := s.deps.CheckAuth(); err != nil {
			return err
		}
	}

	if !cmd.IsLongRunning(c) {
		ctx, cancel := context.WithTimeout(c.Context(), cfg.Timeout)
		s.cancel = cancel
		c.SetContext(ctx)
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	var outputJSON bool

	c := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash, and build time of the minuteme CLI.

Examples:
  minuteme version
  minuteme version --json`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			info := buildinfo.Get(component)
			if outputJSON {
				return writeJSON(c.OutOrStdout(), info)
			}
			fmt.Fprintf(c.OutOrStdout(), "minuteme %s\n", buildinfo.String())
			fmt.Fprintf(c.OutOrStdout(), "  go:       %s\n", info.GoVersion)
			fmt.Fprintf(c.OutOrStdout(), "  platform: %s\n", info.Platform)
			return nil
		},
	}
	c.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")
	return c
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	deps := cmd.DefaultDeps()
	root, s := newRootCommand(deps)

	executed, cmdErr := root.ExecuteContextC(ctx)
	if s.cancel != nil {
		s.cancel()
	}
	stop()

	// Logged here to capture both success and failure.
	logCommandExecution(s, os.Args, cmdErr)
	deps.Store.Close()

	if cmdErr != nil {
		printError(os.Stderr, executed, cmdErr)
		os.Exit(1)
	}
}

// printError prints the failure and, when the classifier knows one, what to
// do about it.
func printError(w io.Writer, executed *cobra.Command, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	operation := "minuteme"
	if executed != nil {
		operation = executed.CommandPath()
	}
	classified := mmerrors.ClassifyError(err, operation)
	if classified.Code == mmerrors.CodeUnknown {
		return
	}
	if action := mmerrors.GetSuggestedAction(classified.Code); action != "" {
		fmt.Fprintf(w, "  %s\n", action)
	}
}

// logCommandExecution records the command in the audit log.
// This is best-effort: failures are logged and do not affect the exit code.
func logCommandExecution(s *session, args []string, cmdErr error) {
	cfg := s.deps.Config
	if cfg == nil || !cfg.Audit.IsConfigured() {
		return
	}
	switch audit.CommandName(args) {
	case "version", "help", "completion", "history":
		return
	}

	redacted := audit.Redact(args)
	entry := &audit.Entry{
		Command:     audit.CommandName(redacted),
		Args:        audit.CommandArgs(redacted),
		FullCommand: strings.Join(redacted[1:], " "),
		DurationMs:  int(time.Since(s.started).Milliseconds()),
		Success:     cmdErr == nil,
		Subject:     s.deps.Identity().Subject,
	}
	if cmdErr != nil {
		entry.ErrorMessage = cmdErr.Error()
	}
	if s.output != nil {
		entry.Response = s.output.String()
	}

	auditLog, err := s.deps.OpenAudit(cfg.Audit)
	if err != nil {
		s.deps.Logger.Debug("Audit log unavailable", logging.Err(err))
		return
	}
	defer auditLog.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := auditLog.EnsureTable(ctx); err != nil {
		s.deps.Logger.Debug("Audit table check failed", logging.Err(err))
	}
	if err := auditLog.LogCommand(ctx, entry); err != nil && !errors.Is(err, context.Canceled) {
		s.deps.Logger.Debug("Failed to record command", logging.Err(err))
	}
}

func newConfigCommand(deps *cmd.Deps) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  `View and modify the minuteme CLI configuration settings.`,
	}
	c.AddCommand(newConfigShowCommand(deps))
	c.AddCommand(newConfigInitCommand())
	c.AddCommand(newConfigSetCommand())
	return c
}

// configView is the structured form of 'config show'. Secrets are omitted.
type configView struct {
	ConfigFile   string `json:"config_file" yaml:"config_file"`
	APIBaseURL   string `json:"api_base_url" yaml:"api_base_url"`
	Timeout      string `json:"timeout" yaml:"timeout"`
	OutputFormat string `json:"output_format" yaml:"output_format"`
	PollInterval string `json:"poll_interval" yaml:"poll_interval"`
	Debug        bool   `json:"debug" yaml:"debug"`
	LogJSON      bool   `json:"log_json" yaml:"log_json"`
	Insecure     bool   `json:"insecure" yaml:"insecure"`
	MetricsAddr  string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
	Redis        string `json:"redis,omitempty" yaml:"redis,omitempty"`
	Audit        string `json:"audit,omitempty" yaml:"audit,omitempty"`
}

func newConfigShowCommand(deps *cmd.Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the current CLI configuration values, after environment and flag overrides.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg := deps.Config
			if cfg == nil {
				var err error
				if cfg, err = deps.LoadConfig(); err != nil {
					return fmt.Errorf("loading configuration: %w", err)
				}
			}

			configPath, _ := config.ConfigPath()
			view := configView{
				ConfigFile:   configPath,
				APIBaseURL:   cfg.APIBaseURL,
				Timeout:      cfg.Timeout.String(),
				OutputFormat: cfg.OutputFormat.String(),
				PollInterval: cfg.PollInterval.String(),
				Debug:        cfg.Debug,
				LogJSON:      cfg.LogJSON,
				Insecure:     cfg.Insecure,
				MetricsAddr:  cfg.MetricsAddr,
			}
			if cfg.Redis.IsConfigured() {
				view.Redis = cfg.Redis.Addr + " (" + cfg.Redis.GetChannel() + ")"
			}
			if cfg.Audit.IsConfigured() {
				view.Audit = cfg.Audit.Host + "/" + cfg.Audit.Database + " (" + cfg.Audit.GetTable() + ")"
			}

			out := c.OutOrStdout()
			switch cfg.OutputFormat {
			case config.OutputFormatJSON:
				return writeJSON(out, view)
			case config.OutputFormatYAML:
				return writeYAML(out, view)
			}

			fmt.Fprintln(out, "Current configuration:")
			fmt.Fprintf(out, "  Config file:    %s\n", view.ConfigFile)
			fmt.Fprintf(out, "  API URL:        %s\n", view.APIBaseURL)
			fmt.Fprintf(out, "  Timeout:        %s\n", view.Timeout)
			fmt.Fprintf(out, "  Output format:  %s\n", view.OutputFormat)
			fmt.Fprintf(out, "  Poll interval:  %s\n", view.PollInterval)
			fmt.Fprintf(out, "  Debug:          %t\n", view.Debug)
			fmt.Fprintf(out, "  Log JSON:       %t\n", view.LogJSON)
			fmt.Fprintf(out, "  Insecure:       %t\n", view.Insecure)
			fmt.Fprintf(out, "  Metrics addr:   %s\n", valueOrDefault(view.MetricsAddr, "(not set)"))
			fmt.Fprintf(out, "  Redis mirror:   %s\n", valueOrDefault(view.Redis, "(not set)"))
			fmt.Fprintf(out, "  Audit log:      %s\n", valueOrDefault(view.Audit, "(not set)"))
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  `Create a new configuration file with default values if one doesn't exist.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			configPath, err := config.ConfigPath()
			if err != nil {
				return fmt.Errorf("getting config path: %w", err)
			}
			out := c.OutOrStdout()

			if _, err := os.Stat(configPath); err == nil {
				fmt.Fprintf(out, "Configuration file already exists: %s\n", configPath)
				fmt.Fprintln(out, "Use 'minuteme config show' to view current settings.")
				return nil
			}

			defaultCfg := config.DefaultConfig()
			if err := config.SaveConfig(defaultCfg); err != nil {
				return fmt.Errorf("saving configuration: %w", err)
			}

			fmt.Fprintf(out, "Created configuration file: %s\n", configPath)
			fmt.Fprintln(out, "\nDefault settings:")
			fmt.Fprintf(out, "  API URL:        %s\n", defaultCfg.APIBaseURL)
			fmt.Fprintf(out, "  Timeout:        %s\n", defaultCfg.Timeout)
			fmt.Fprintf(out, "  Output format:  %s\n", defaultCfg.OutputFormat)
			fmt.Fprintf(out, "  Poll interval:  %s\n", defaultCfg.PollInterval)
			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

Available keys:
  api_base_url   - MinuteMe API base URL
  timeout        - Command timeout (e.g., 30s, 10m)
  poll_interval  - Notification polling period (e.g., 30s)
  output_format  - Default output format (text, json, yaml)
  debug          - Enable debug logging (true/false)
  log_json       - Log as JSON lines (true/false)
  insecure       - Disable TLS verification (true/false)
  metrics_addr   - Address for /metrics while watching (e.g., :9091)

Examples:
  minuteme config set api_base_url https://api.minuteme.app
  minuteme config set timeout 20m
  minuteme config set output_format json`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.SettableKeys(),
		RunE: func(c *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			// Start from the file, not the flag-adjusted config.
			currentCfg, err := config.LoadConfig()
			if err != nil {
				currentCfg = config.DefaultConfig()
			}
			if err := currentCfg.Set(key, value); err != nil {
				return fmt.Errorf("%v: %w", err, mmerrors.ErrValidation)
			}
			if err := config.SaveConfig(currentCfg); err != nil {
				return fmt.Errorf("saving configuration: %w", err)
			}

			fmt.Fprintf(c.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

// valueOrDefault returns the value if non-empty, otherwise the default.
func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
