// Package buildinfo exposes version metadata stamped into the minuteme binary.
package buildinfo

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// Set at build time via ldflags:
// -X github.com/otherjamesbrown/minuteme-cli/pkg/buildinfo.Version=v0.3.0
// -X github.com/otherjamesbrown/minuteme-cli/pkg/buildinfo.Commit=4c1e2aa
// -X github.com/otherjamesbrown/minuteme-cli/pkg/buildinfo.BuildTime=2026-09-30T08:00:00Z
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info holds build information for a component of the CLI.
type Info struct {
	Component string `json:"component"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns build info for the named component.
func Get(component string) Info {
	return Info{
		Component: component,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns a one-liner like "v0.3.0 (4c1e2aa, 2026-09-30T08:00:00Z)".
func String() string {
	return Version + " (" + Commit + ", " + BuildTime + ")"
}

// UserAgent is sent on every API request.
func UserAgent() string {
	return "minuteme-cli/" + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}

// Handler responds with build info JSON. Served next to /metrics by long-running commands.
func Handler(component string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Get(component))
	}
}
