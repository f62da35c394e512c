package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/minuteme-cli/config"
)

// outputFormat returns the configured format, defaulting to text.
func (d *Deps) outputFormat() config.OutputFormat {
	if d.Config == nil || d.Config.OutputFormat == "" {
		return config.OutputFormatText
	}
	return d.Config.OutputFormat
}

// render writes v as JSON or YAML, or calls text for the text format.
func (d *Deps) render(w io.Writer, v any, text func(w io.Writer) error) error {
	switch d.outputFormat() {
	case config.OutputFormatJSON:
		return writeJSON(w, v)
	case config.OutputFormatYAML:
		return writeYAML(w, v)
	default:
		return text(w)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONCompact(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// done prints a confirmation for a mutating command. Structured formats get
// {"status": "ok", "message": ...} so scripts can parse the result.
func (d *Deps) done(w io.Writer, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return d.render(w, map[string]string{"status": "ok", "message": msg}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, msg)
		return err
	})
}

func valueOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
