// Package automation tracks the one automated processing job a minuteme
// process may run at a time. The store is shared by the wizard that starts a
// job, the notification poller that reports its progress, and the status line
// that renders it.
package automation

import (
	"fmt"
	"slices"
	"sync"
	"time"

	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

// ResetDelay is how long a terminal state stays visible before the store returns to idle.
const ResetDelay = 5000 * time.Millisecond

// Status is the job state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// IsTerminal reports whether s ends a job.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

// State is a point-in-time copy of the store.
type State struct {
	Status    Status    `json:"status" yaml:"status"`
	Message   string    `json:"message,omitempty" yaml:"message,omitempty"`
	JobID     string    `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

// Observer is called after every transition with the new state.
type Observer func(State)

// Option configures a Store.
type Option func(*Store)

// WithAfterFunc replaces time.AfterFunc. Tests use it to fire the reset by hand.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Store) { s.afterFunc = fn }
}

// WithNow replaces time.Now for UpdatedAt.
func WithNow(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// Store holds the automation job state. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	state     State
	timer     Timer
	gen       uint64
	observers map[int]Observer
	nextID    int
	afterFunc AfterFunc
	now       func() time.Time
}

// NewStore returns an idle store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		observers: make(map[int]Observer),
		afterFunc: func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = State{Status: StatusIdle, UpdatedAt: s.now()}
	return s
}

// Start marks a job as running. It fails with ErrInvalidState while another
// job is running and cancels any pending reset.
func (s *Store) Start(jobID, message string) error {
	s.mu.Lock()
	if s.state.Status == StatusRunning {
		running := s.state.JobID
		s.mu.Unlock()
		return fmt.Errorf("automation job %q already running: %w", running, mmerrors.ErrInvalidState)
	}
	s.cancelTimerLocked()
	s.state = State{Status: StatusRunning, Message: message, JobID: jobID, UpdatedAt: s.now()}
	snap, obs := s.state, s.observersLocked()
	s.mu.Unlock()

	notify(obs, snap)
	return nil
}

// Update replaces the message of a running job. It does nothing otherwise.
func (s *Store) Update(message string) {
	s.mu.Lock()
	if s.state.Status != StatusRunning || s.state.Message == message {
		s.mu.Unlock()
		return
	}
	s.state.Message = message
	s.state.UpdatedAt = s.now()
	snap, obs := s.state, s.observersLocked()
	s.mu.Unlock()

	notify(obs, snap)
}

// End moves the store to a terminal state and arms the reset to idle. Only
// the most recent End resets the store.
func (s *Store) End(status Status, message string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("end status must be success or error, got %q: %w", status, mmerrors.ErrInvalidState)
	}

	s.mu.Lock()
	s.cancelTimerLocked()
	s.state = State{Status: status, Message: message, JobID: s.state.JobID, UpdatedAt: s.now()}
	gen := s.gen
	s.timer = s.afterFunc(ResetDelay, func() { s.reset(gen) })
	snap, obs := s.state, s.observersLocked()
	s.mu.Unlock()

	notify(obs, snap)
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every transition and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Close stops a pending reset timer.
func (s *Store) Close() {
	s.mu.Lock()
	s.cancelTimerLocked()
	s.mu.Unlock()
}

func (s *Store) reset(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.state.Status.IsTerminal() {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.state = State{Status: StatusIdle, UpdatedAt: s.now()}
	snap, obs := s.state, s.observersLocked()
	s.mu.Unlock()

	notify(obs, snap)
}

// cancelTimerLocked stops the pending reset. Bumping gen also defeats a
// callback that already fired and is waiting on the lock.
func (s *Store) cancelTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) observersLocked() []Observer {
	if len(s.observers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Observer, len(ids))
	for i, id := range ids {
		out[i] = s.observers[id]
	}
	return out
}

func notify(observers []Observer, st State) {
	for _, fn := range observers {
		fn(st)
	}
}
