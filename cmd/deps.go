// Package cmd provides the minuteme subcommands.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
	"github.com/otherjamesbrown/minuteme-cli/config"
	"github.com/otherjamesbrown/minuteme-cli/credentials"
	"github.com/otherjamesbrown/minuteme-cli/pkg/audit"
	"github.com/otherjamesbrown/minuteme-cli/pkg/automation"
	"github.com/otherjamesbrown/minuteme-cli/pkg/buildinfo"
	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
	"github.com/otherjamesbrown/minuteme-cli/pkg/logging"
	"github.com/otherjamesbrown/minuteme-cli/pkg/roles"
)

// AnnotationRequireAuth marks commands that need a stored or env credential.
const AnnotationRequireAuth = "minuteme/require-auth"

// AnnotationLongRunning marks commands that run until interrupted and so
// ignore the configured timeout.
const AnnotationLongRunning = "minuteme/long-running"

// RequireAuth marks cmd as needing a credential. The root command checks it
// before running.
func RequireAuth(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[AnnotationRequireAuth] = "true"
	return cmd
}

// LongRunning marks cmd as exempt from the command timeout.
func LongRunning(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[AnnotationLongRunning] = "true"
	return cmd
}

// NeedsAuth reports whether cmd or one of its parents requires a credential.
func NeedsAuth(cmd *cobra.Command) bool {
	return hasAnnotation(cmd, AnnotationRequireAuth)
}

// IsLongRunning reports whether cmd or one of its parents is long-running.
func IsLongRunning(cmd *cobra.Command) bool {
	return hasAnnotation(cmd, AnnotationLongRunning)
}

func hasAnnotation(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[key] == "true" {
			return true
		}
	}
	return false
}

// Deps holds what the commands need at run time. Tests replace the functions.
type Deps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)

	// Credentials opens the credential store.
	Credentials func() (*credentials.Store, error)

	// NewClient builds the API client for cfg.
	NewClient func(cfg *config.CLIConfig) (*client.Client, error)

	// Identity returns the signed-in user's role and tier.
	Identity func() roles.Identity

	// OpenAudit connects to the command audit log.
	OpenAudit func(cfg *config.AuditConfig) (*audit.Client, error)

	Logger   logging.Logger
	Registry *prometheus.Registry
	Store    *automation.Store
	Now      func() time.Time
	Stdin    io.Reader

	api     *client.Client
	metrics *client.Metrics
}

// DefaultDeps returns dependencies for production use.
func DefaultDeps() *Deps {
	d := &Deps{
		LoadConfig:  config.LoadConfig,
		Credentials: credentials.NewStore,
		OpenAudit:   audit.NewClient,
		Logger:      logging.NewNopLogger(),
		Registry:    prometheus.NewRegistry(),
		Store:       automation.NewStore(),
		Now:         time.Now,
		Stdin:       os.Stdin,
	}
	d.NewClient = d.defaultClient
	d.Identity = d.defaultIdentity
	return d
}

func (d *Deps) config() (*config.CLIConfig, error) {
	if d.Config != nil {
		return d.Config, nil
	}
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	d.Config = cfg
	return cfg, nil
}

// Client returns the process-wide API client, building it on first use.
func (d *Deps) Client() (*client.Client, error) {
	if d.api != nil {
		return d.api, nil
	}
	cfg, err := d.config()
	if err != nil {
		return nil, err
	}
	c, err := d.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating API client: %w", err)
	}
	d.api = c
	return c, nil
}

func (d *Deps) defaultClient(cfg *config.CLIConfig) (*client.Client, error) {
	if d.metrics == nil && d.Registry != nil {
		d.metrics = client.NewMetrics(d.Registry)
	}
	opts := []client.Option{
		client.WithLogger(d.Logger),
		client.WithMetrics(d.metrics),
		client.WithUserAgent(buildinfo.UserAgent()),
	}
	store, err := d.Credentials()
	if err != nil {
		d.Logger.Debug("Credential store unavailable, sending unauthenticated requests", logging.Err(err))
	} else {
		opts = append(opts, client.WithTokenGetter(credentials.Getter(credentials.NewTokenSource(store))))
	}
	return client.NewFromConfig(cfg, opts...)
}

func (d *Deps) defaultIdentity() roles.Identity {
	store, err := d.Credentials()
	if err != nil {
		return roles.Default()
	}
	creds, err := store.GetActiveCredential()
	if err != nil || creds.AuthType != credentials.AuthTypeToken {
		return roles.Default()
	}
	id, err := roles.FromToken(creds.Token)
	if err != nil {
		d.Logger.Debug("Could not read roles from token", logging.Err(err))
		return roles.Default()
	}
	return id
}

// CheckAuth returns an error when no usable credential exists.
func (d *Deps) CheckAuth() error {
	store, err := d.Credentials()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}
	if _, err := store.GetActiveCredential(); err != nil {
		if errors.Is(err, credentials.ErrNoCredentials) || errors.Is(err, credentials.ErrExpiredToken) {
			return fmt.Errorf("not signed in (%v): %w", err, mmerrors.ErrUnauthorized)
		}
		return fmt.Errorf("reading credentials: %w", err)
	}
	return nil
}
