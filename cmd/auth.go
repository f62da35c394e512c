package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/minuteme-cli/credentials"
	"github.com/otherjamesbrown/minuteme-cli/pkg/roles"
)

// NewAuthCommand creates the auth command group.
func NewAuthCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long: `Manage the credential minuteme sends to the MinuteMe API.

Credentials are stored encrypted in ~/.minuteme/credentials.yaml.

Authentication methods:
  - Session token: the JWT issued when you sign in on the web (--token or MINUTEME_TOKEN)
  - API key: long-lived key for scripts (--api-key or MINUTEME_API_KEY)

Environment variables take precedence over stored credentials.`,
	}

	cmd.AddCommand(newAuthLoginCommand(deps))
	cmd.AddCommand(newAuthLogoutCommand(deps))
	cmd.AddCommand(newAuthStatusCommand(deps))
	cmd.AddCommand(newAuthWhoamiCommand(deps))
	return cmd
}

func newAuthLoginCommand(deps *Deps) *cobra.Command {
	var apiKey, token string
	var nonInteractive bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a session token or API key",
		Long: `Store a credential for the MinuteMe API.

Examples:
  # Interactive login (prompts for the token, input hidden)
  minuteme auth login

  # Login with a session token copied from the web app
  minuteme auth login --token eyJhbGciOiJSUzI1NiIs...

  # Login with an API key
  minuteme auth login --api-key mm_live_abc123...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var creds *credentials.Credentials
			switch {
			case apiKey != "":
				creds = &credentials.Credentials{AuthType: credentials.AuthTypeAPIKey, APIKey: apiKey}
			case token != "":
				creds = &credentials.Credentials{AuthType: credentials.AuthTypeToken, Token: token}
			case nonInteractive:
				return fmt.Errorf("no credentials provided and --non-interactive flag set")
			default:
				prompted, err := promptForCredentials(cmd.ErrOrStderr(), deps.Stdin)
				if err != nil {
					return fmt.Errorf("reading credentials: %w", err)
				}
				creds = prompted
			}
			return runLogin(cmd.OutOrStdout(), deps, creds)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	cmd.Flags().StringVar(&token, "token", "", "Session token (JWT) for authentication")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Fail instead of prompting for input")
	return cmd
}

func runLogin(out io.Writer, deps *Deps, creds *credentials.Credentials) error {
	if err := validateCredential(creds); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	var identity roles.Identity
	if creds.AuthType == credentials.AuthTypeToken {
		id, err := roles.FromToken(creds.Token)
		if err != nil {
			return fmt.Errorf("invalid credentials: %w", err)
		}
		identity = id
		creds.Subject = id.Subject
		creds.Email = id.Email
		creds.ExpiresAt = id.ExpiresAt
	} else {
		identity = roles.Default()
	}

	cfg, err := deps.config()
	if err != nil {
		return err
	}
	creds.APIBaseURL = cfg.APIBaseURL

	store, err := deps.Credentials()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}
	if err := store.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	fmt.Fprintln(out, "Login successful!")
	fmt.Fprintf(out, "  Authentication type: %s\n", creds.AuthType)
	if creds.AuthType == credentials.AuthTypeAPIKey {
		fmt.Fprintf(out, "  API Key: %s\n", credentials.MaskAPIKey(creds.APIKey))
	} else {
		fmt.Fprintf(out, "  Token:   %s\n", credentials.MaskToken(creds.Token))
		if creds.Email != "" {
			fmt.Fprintf(out, "  User:    %s\n", creds.Email)
		}
		fmt.Fprintf(out, "  Plan:    %s\n", identity.Badge())
		if !creds.ExpiresAt.IsZero() {
			fmt.Fprintf(out, "  Expires: %s\n", credentials.FormatExpiry(creds.ExpiresAt))
		}
	}
	fmt.Fprintf(out, "  API:     %s\n", creds.APIBaseURL)
	return nil
}

// promptForCredentials asks for a session token, falling back to an API key.
// Input is hidden when stdin is a terminal.
func promptForCredentials(prompt io.Writer, in io.Reader) (*credentials.Credentials, error) {
	reader := bufio.NewReader(in)

	fmt.Fprintln(prompt, "Paste your MinuteMe session token, or press Enter to use an API key.")
	fmt.Fprint(prompt, "Session token: ")
	token, err := readSecret(prompt, in, reader)
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}
	if token != "" {
		return &credentials.Credentials{AuthType: credentials.AuthTypeToken, Token: token}, nil
	}

	fmt.Fprint(prompt, "API key: ")
	apiKey, err := readSecret(prompt, in, reader)
	if err != nil {
		return nil, fmt.Errorf("reading API key: %w", err)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no credentials provided")
	}
	return &credentials.Credentials{AuthType: credentials.AuthTypeAPIKey, APIKey: apiKey}, nil
}

func readSecret(prompt io.Writer, in io.Reader, reader *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// validateCredential checks the credential shape before it is stored.
func validateCredential(creds *credentials.Credentials) error {
	switch creds.AuthType {
	case credentials.AuthTypeAPIKey:
		if creds.APIKey == "" {
			return fmt.Errorf("API key is empty")
		}
		if len(creds.APIKey) < 8 {
			return fmt.Errorf("API key is too short")
		}
	case credentials.AuthTypeToken:
		if creds.Token == "" {
			return fmt.Errorf("token is empty")
		}
		if len(strings.Split(creds.Token, ".")) != 3 {
			return fmt.Errorf("invalid JWT token format")
		}
	default:
		return fmt.Errorf("unknown authentication type: %s", creds.AuthType)
	}
	return nil
}

func newAuthLogoutCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long: `Remove the stored credential.

Environment variables (MINUTEME_TOKEN, MINUTEME_API_KEY) are not affected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store, err := deps.Credentials()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}
			if !store.Exists() {
				fmt.Fprintln(out, "No stored credentials found.")
				return nil
			}
			if err := store.Delete(); err != nil {
				return fmt.Errorf("removing credentials: %w", err)
			}
			fmt.Fprintln(out, "Logged out successfully.")

			for _, env := range []string{credentials.EnvToken, credentials.EnvAPIKey} {
				if os.Getenv(env) != "" {
					fmt.Fprintf(out, "\nNote: %s is still set. Unset it with: unset %s\n", env, env)
				}
			}
			return nil
		},
	}
}

// authStatus is the structured form of 'auth status'.
type authStatus struct {
	Authenticated bool      `json:"authenticated" yaml:"authenticated"`
	Source        string    `json:"source,omitempty" yaml:"source,omitempty"`
	AuthType      string    `json:"auth_type,omitempty" yaml:"auth_type,omitempty"`
	Masked        string    `json:"credential,omitempty" yaml:"credential,omitempty"`
	Email         string    `json:"email,omitempty" yaml:"email,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	KeyStorage    string    `json:"key_storage,omitempty" yaml:"key_storage,omitempty"`
	Error         string    `json:"error,omitempty" yaml:"error,omitempty"`
}

func newAuthStatusCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.Credentials()
			if err != nil {
				return fmt.Errorf("initializing credential store: %w", err)
			}

			st := authStatus{KeyStorage: store.KeyDescription()}
			creds, err := store.GetActiveCredential()
			switch {
			case err == nil:
				st.Authenticated = true
				st.Source = creds.Source
				st.AuthType = creds.AuthType
				st.Email = creds.Email
				st.ExpiresAt = creds.ExpiresAt
				if creds.AuthType == credentials.AuthTypeAPIKey {
					st.Masked = credentials.MaskAPIKey(creds.APIKey)
				} else {
					st.Masked = credentials.MaskToken(creds.Token)
				}
			case errors.Is(err, credentials.ErrNoCredentials), errors.Is(err, credentials.ErrExpiredToken):
				st.Error = err.Error()
			default:
				return fmt.Errorf("loading credentials: %w", err)
			}

			return deps.render(cmd.OutOrStdout(), st, func(w io.Writer) error {
				if !st.Authenticated {
					fmt.Fprintf(w, "Not authenticated (%s). Run 'minuteme auth login'.\n", st.Error)
					return nil
				}
				fmt.Fprintln(w, "Authenticated")
				fmt.Fprintf(w, "  Source:     %s\n", st.Source)
				fmt.Fprintf(w, "  Type:       %s\n", st.AuthType)
				fmt.Fprintf(w, "  Credential: %s\n", st.Masked)
				if st.Email != "" {
					fmt.Fprintf(w, "  User:       %s\n", st.Email)
				}
				if !st.ExpiresAt.IsZero() {
					fmt.Fprintf(w, "  Expires:    %s (%s)\n", st.ExpiresAt.Format(time.RFC3339), credentials.FormatExpiry(st.ExpiresAt))
				}
				fmt.Fprintf(w, "  Key:        %s\n", st.KeyStorage)
				return nil
			})
		},
	}
}

func newAuthWhoamiCommand(deps *Deps) *cobra.Command {
	return RequireAuth(&cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user's role and plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := deps.Identity()
			return deps.render(cmd.OutOrStdout(), id, func(w io.Writer) error {
				fmt.Fprintf(w, "%s [%s]\n", valueOrDefault(id.Email, valueOrDefault(id.Subject, "(API key)")), id.Badge())
				fmt.Fprintf(w, "  Role: %s\n", id.Role)
				fmt.Fprintf(w, "  Tier: %s\n", id.Tier)
				return nil
			})
		},
	})
}
