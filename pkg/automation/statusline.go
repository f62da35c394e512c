package automation

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Render returns the one-line text for st. Idle renders as "".
func Render(st State, frame int) string {
	switch st.Status {
	case StatusRunning:
		return spinnerFrames[frame%len(spinnerFrames)] + " " + st.Message
	case StatusSuccess:
		return "✓ " + st.Message
	case StatusError:
		return "✗ " + st.Message
	default:
		return ""
	}
}

// StatusLine draws the store on a terminal. On a TTY it redraws one line in
// place and animates the spinner. Elsewhere it prints each distinct line once.
type StatusLine struct {
	mu    sync.Mutex
	w     io.Writer
	tty   bool
	frame int
	state State
	last  string
}

// NewStatusLine writes to w. TTY detection applies when w is an *os.File.
func NewStatusLine(w io.Writer) *StatusLine {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &StatusLine{w: w, tty: tty, state: State{Status: StatusIdle}}
}

// Observe redraws for st. Pass it to Store.Subscribe.
func (l *StatusLine) Observe(st State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = st
	l.drawLocked()
}

// Run animates the spinner until ctx is done, then clears the line.
func (l *StatusLine) Run(ctx context.Context, interval time.Duration) {
	if !l.tty {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Clear()
			return
		case <-ticker.C:
			l.mu.Lock()
			if l.state.Status == StatusRunning {
				l.frame++
				l.drawLocked()
			}
			l.mu.Unlock()
		}
	}
}

// Clear erases the line on a TTY.
func (l *StatusLine) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tty && l.last != "" {
		fmt.Fprint(l.w, "\r\033[K")
	}
	l.last = ""
}

func (l *StatusLine) drawLocked() {
	text := Render(l.state, l.frame)
	if l.tty {
		fmt.Fprint(l.w, "\r\033[K"+text)
		l.last = text
		return
	}
	if text == "" || text == l.last {
		return
	}
	fmt.Fprintln(l.w, text)
	l.last = text
}
