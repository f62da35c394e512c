package transcript

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Zoom-style cue header: 1 "Speaker Name" (123)
	vttCueHeaderRegex = regexp.MustCompile(`^\d+\s+"([^"]*)"(?:\s+\((\d+)\))?$`)

	// Timing line: 00:00:05.579 --> 00:00:06.858, optionally followed by cue settings.
	vttTimingRegex = regexp.MustCompile(`^((?:\d{2,}:)?\d{2}:\d{2}\.\d{3})\s+-->\s+((?:\d{2,}:)?\d{2}:\d{2}\.\d{3})`)

	// Voice span: <v Speaker Name>text
	vttVoiceRegex = regexp.MustCompile(`^<v(?:\.[^ >]*)?\s+([^>]+)>`)

	vttTagRegex = regexp.MustCompile(`</?[^>]+>`)
)

// Cue is one timed block of a WebVTT transcript.
type Cue struct {
	Speaker string
	Start   time.Duration
	End     time.Duration
	Text    string
}

// IsVTT reports whether text starts with the WebVTT signature.
func IsVTT(text string) bool {
	return strings.HasPrefix(strings.TrimPrefix(text, "\uFEFF"), "WEBVTT")
}

// ParseVTT splits a WebVTT document into cues. Speakers come from Zoom-style
// cue headers or <v> voice spans. NOTE and STYLE blocks are skipped.
func ParseVTT(text string) ([]Cue, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxSize)

	var (
		cues    []Cue
		current *Cue
		speaker string
		skip    bool
	)
	flush := func() {
		if current != nil && current.Text != "" {
			cues = append(cues, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			flush()
			speaker, skip = "", false
			continue
		case skip:
			continue
		case IsVTT(line):
			continue
		case strings.HasPrefix(line, "NOTE") || line == "STYLE" || line == "REGION":
			skip = true
			continue
		}

		if m := vttCueHeaderRegex.FindStringSubmatch(line); m != nil {
			flush()
			speaker = m[1]
			continue
		}

		if m := vttTimingRegex.FindStringSubmatch(line); m != nil {
			flush()
			current = &Cue{Speaker: speaker, Start: parseVTTTimestamp(m[1]), End: parseVTTTimestamp(m[2])}
			continue
		}

		if current == nil {
			// Cue identifier.
			continue
		}
		if m := vttVoiceRegex.FindStringSubmatch(line); m != nil {
			current.Speaker = strings.TrimSpace(m[1])
		}
		line = strings.TrimSpace(vttTagRegex.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		if current.Text != "" {
			current.Text += " "
		}
		current.Text += line
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cues, nil
}

// FlattenVTT renders cues as plain text, one line per speaker turn.
// Consecutive cues from the same speaker are joined.
func FlattenVTT(cues []Cue) string {
	var b strings.Builder
	last := ""
	for i, c := range cues {
		if i > 0 && c.Speaker == last && c.Speaker != "" {
			b.WriteString(" ")
			b.WriteString(c.Text)
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		if c.Speaker != "" {
			b.WriteString(c.Speaker)
			b.WriteString(": ")
		}
		b.WriteString(c.Text)
		last = c.Speaker
	}
	return b.String()
}

// parseVTTTimestamp parses HH:MM:SS.mmm or MM:SS.mmm.
func parseVTTTimestamp(ts string) time.Duration {
	parts := strings.Split(ts, ":")
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 3 {
		return 0
	}

	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	sec, frac, _ := strings.Cut(parts[2], ".")
	seconds, _ := strconv.Atoi(sec)
	millis, _ := strconv.Atoi(frac)

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
}
