package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minuteme-cli/client"
	"github.com/otherjamesbrown/minuteme-cli/config"
	"github.com/otherjamesbrown/minuteme-cli/credentials"
	"github.com/otherjamesbrown/minuteme-cli/pkg/roles"
)

// testEncryptionKey is a valid 32-byte (64 hex chars) encryption key for testing.
const testEncryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// testNow is a Wednesday.
var testNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.Local)

// request is one call the fake backend received.
type request struct {
	Method string
	Path   string
	Body   map[string]any
}

// backend is a fake MinuteMe API that records every request.
type backend struct {
	*http.ServeMux
	mu       sync.Mutex
	requests []request
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	rec := request{Method: r.Method, Path: r.URL.Path}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}
	b.mu.Lock()
	b.requests = append(b.requests, rec)
	b.mu.Unlock()
	r.Body = io.NopCloser(bytes.NewReader(data))
	b.ServeMux.ServeHTTP(w, r)
}

// find returns the first recorded request for method and path.
func (b *backend) find(method, path string) (request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return request{}, false
}

// all returns every recorded request for method and path, in order.
func (b *backend) all(method, path string) []request {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []request
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (b *backend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func reply(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}
}

// isolateCredentials points the credential store at a temp dir and clears
// the env overrides.
func isolateCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("MINUTEME_CONFIG_DIR", t.TempDir())
	t.Setenv(credentials.EnvEncryptionKey, testEncryptionKey)
	t.Setenv(credentials.EnvToken, "")
	t.Setenv(credentials.EnvAPIKey, "")
}

// newTestDeps wires Deps to a fake backend. The identity defaults to a free user.
func newTestDeps(t *testing.T) (*Deps, *backend) {
	t.Helper()
	isolateCredentials(t)

	b := &backend{ServeMux: http.NewServeMux()}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.APIBaseURL = srv.URL

	deps := DefaultDeps()
	deps.Config = cfg
	deps.NewClient = func(cfg *config.CLIConfig) (*client.Client, error) {
		return client.New(cfg.APIBaseURL)
	}
	deps.Identity = roles.Default
	deps.Now = func() time.Time { return testNow }
	deps.Stdin = strings.NewReader("")
	t.Cleanup(deps.Store.Close)
	return deps, b
}

func premium() roles.Identity {
	return roles.Identity{Subject: "user_1", Email: "ada@example.com", Role: roles.RoleUser, Tier: roles.TierPremium}
}

func admin() roles.Identity {
	return roles.Identity{Subject: "user_2", Email: "root@example.com", Role: roles.RoleAdmin, Tier: roles.TierFree}
}

// run executes c with args and returns stdout and stderr.
func run(t *testing.T, c *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&errOut)
	c.SetArgs(args)
	c.SilenceUsage = true
	c.SilenceErrors = true
	err := c.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// signToken returns an HS256 session token with the given claims.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}
