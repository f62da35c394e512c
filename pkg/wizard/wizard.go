// Package wizard sequences the calls that turn a meeting recording or a pasted
// transcript into minutes.
//
// The flow is a small state machine:
//
//	initial -> transcribing -> transcribed -> processing -> done
//
// A failed transcription returns to initial and a failed minutes generation
// returns to transcribed. In automated mode the wizard hands the whole
// pipeline to the backend, marks the automation store as running and closes.
// Every transition issues at most one request at a time. A transition attempted
// while another is in flight fails with ErrBusy and sends nothing.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/otherjamesbrown/minuteme-cli/client"
	"github.com/otherjamesbrown/minuteme-cli/pkg/automation"
	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
	"github.com/otherjamesbrown/minuteme-cli/pkg/logging"
	"github.com/otherjamesbrown/minuteme-cli/pkg/roles"
)

// Step is the wizard state.
type Step string

const (
	StepInitial      Step = "initial"
	StepTranscribing Step = "transcribing"
	StepTranscribed  Step = "transcribed"
	StepProcessing   Step = "processing"
	StepDone         Step = "done"
)

// Mode selects step-by-step or backend-driven processing.
type Mode string

const (
	ModeManual    Mode = "manual"
	ModeAutomated Mode = "automated"
)

// ErrBusy is returned when a transition is attempted while a request is in flight.
var ErrBusy = fmt.Errorf("a request is already in flight: %w", mmerrors.ErrInvalidState)

// Messages shown to the user.
const (
	MsgTranscribing        = "Transcribing video... This may take several minutes."
	MsgSavingTranscript    = "Saving transcript..."
	MsgTranscribed         = "✅ Transcription successful! Ready to generate minutes."
	MsgTranscriptSaved     = "✅ Transcript saved! Ready to generate minutes."
	MsgGenerating          = "Generating minutes..."
	MsgAutomationStarted   = "🚀 Automation process has started..."
	MsgQuotaExhausted      = "You have no transcriptions left this month. Paste a transcript instead, or run 'minuteme upgrade'."
	MsgAutomationExhausted = "You have no automation cycles left this month. Run 'minuteme upgrade' for unlimited automation."
	MsgAutomationRunning   = "An automation job is already running. Wait for it to finish."
)

// API is the part of the MinuteMe client the wizard calls.
type API interface {
	TranscriptionQuota(ctx context.Context) (*client.Quota, error)
	AutomationQuota(ctx context.Context) (*client.Quota, error)
	CreateMeeting(ctx context.Context, req client.CreateMeetingRequest) (*client.Meeting, error)
	Transcribe(ctx context.Context, req client.TranscribeRequest) (*client.MessageResponse, error)
	SaveManualTranscript(ctx context.Context, req client.ManualTranscriptRequest) (*client.MessageResponse, error)
	ProcessAutomated(ctx context.Context, req client.ProcessAutomatedRequest) (*client.MessageResponse, error)
	GenerateMinutes(ctx context.Context, req client.GenerateMinutesRequest) (string, error)
}

// State is a copy of the wizard for rendering.
type State struct {
	Step      Step   `json:"step" yaml:"step"`
	Mode      Mode   `json:"mode" yaml:"mode"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
	Busy      bool   `json:"busy" yaml:"busy"`
	Closed    bool   `json:"closed" yaml:"closed"`
	MeetingID string `json:"meeting_id,omitempty" yaml:"meeting_id,omitempty"`
	MinutesID string `json:"minutes_id,omitempty" yaml:"minutes_id,omitempty"`
	VideoURL  string `json:"video_url,omitempty" yaml:"video_url,omitempty"`

	// TranscriptLength is the rune count of the submitted transcript.
	TranscriptLength int `json:"transcript_length,omitempty" yaml:"transcript_length,omitempty"`

	// Nil quotas are unlimited (premium) or could not be fetched.
	TranscriptionQuota *client.Quota `json:"transcription_quota,omitempty" yaml:"transcription_quota,omitempty"`
	AutomationQuota    *client.Quota `json:"automation_quota,omitempty" yaml:"automation_quota,omitempty"`
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithMode sets the initial processing mode.
func WithMode(m Mode) Option {
	return func(w *Wizard) { w.mode = m }
}

// WithIdentity sets the signed-in user. Premium users skip quota checks.
func WithIdentity(id roles.Identity) Option {
	return func(w *Wizard) { w.identity = id }
}

// WithStore sets the automation store written in automated mode.
func WithStore(s *automation.Store) Option {
	return func(w *Wizard) { w.store = s }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Wizard) { w.logger = l }
}

// WithNow replaces time.Now for meeting names and dates.
func WithNow(fn func() time.Time) Option {
	return func(w *Wizard) { w.now = fn }
}

// Wizard drives one meeting through ingestion. It is safe for concurrent use.
type Wizard struct {
	api      API
	store    *automation.Store
	identity roles.Identity
	logger   logging.Logger
	now      func() time.Time
	validate *validator.Validate

	mu         sync.Mutex
	mode       Mode
	step       Step
	busy       bool
	closed     bool
	gen        uint64
	message    string
	meetingID  string
	minutesID  string
	videoURL   string
	transcript string
	txQuota    *client.Quota
	autoQuota  *client.Quota
}

// New creates a wizard in the initial step.
func New(api API, opts ...Option) *Wizard {
	w := &Wizard{
		api:      api,
		identity: roles.Default(),
		logger:   logging.NewNopLogger(),
		now:      time.Now,
		validate: newValidator(),
		mode:     ModeManual,
		step:     StepInitial,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.store == nil {
		w.store = automation.NewStore()
	}
	return w
}

// Open resets the wizard and loads the quotas a free user needs. Quota
// failures are logged and leave the quota unknown, in which case the backend
// decides.
func (w *Wizard) Open(ctx context.Context) error {
	w.Close()

	w.mu.Lock()
	w.closed = false
	premium := w.identity.IsPremium()
	mode := w.mode
	w.mu.Unlock()

	if premium {
		return nil
	}

	q, err := w.api.TranscriptionQuota(ctx)
	if err != nil {
		w.logger.Warn("transcription quota unavailable", logging.Err(err))
	} else {
		w.mu.Lock()
		w.txQuota = q
		w.mu.Unlock()
	}

	if mode == ModeAutomated {
		w.loadAutomationQuota(ctx)
	}
	return nil
}

func (w *Wizard) loadAutomationQuota(ctx context.Context) {
	q, err := w.api.AutomationQuota(ctx)
	if err != nil {
		w.logger.Warn("automation quota unavailable", logging.Err(err))
		return
	}
	w.mu.Lock()
	w.autoQuota = q
	w.mu.Unlock()
}

// SetMode switches between manual and automated processing. Automated mode
// is refused for free users with no automation cycles left.
func (w *Wizard) SetMode(ctx context.Context, m Mode) error {
	if m != ModeManual && m != ModeAutomated {
		return fmt.Errorf("unknown mode %q: %w", m, mmerrors.ErrValidation)
	}

	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.step != StepInitial {
		step := w.step
		w.mu.Unlock()
		return fmt.Errorf("mode can only change before submitting, wizard is %s: %w", step, mmerrors.ErrInvalidState)
	}
	needQuota := m == ModeAutomated && !w.identity.IsPremium() && w.autoQuota == nil
	w.mu.Unlock()

	if needQuota {
		w.loadAutomationQuota(ctx)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if m == ModeAutomated && !w.automationAllowedLocked() {
		w.message = MsgAutomationExhausted
		return fmt.Errorf("automation quota exhausted: %w", mmerrors.ErrQuotaExceeded)
	}
	w.mode = m
	return nil
}

// VideoAllowed reports whether the video path is available. Free users with
// no transcriptions left must paste a transcript instead.
func (w *Wizard) VideoAllowed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.videoAllowedLocked()
}

func (w *Wizard) videoAllowedLocked() bool {
	if w.identity.IsPremium() || w.txQuota == nil {
		return true
	}
	return w.txQuota.Remaining > 0
}

// AutomationAllowed reports whether automated mode may be selected.
func (w *Wizard) AutomationAllowed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.automationAllowedLocked()
}

func (w *Wizard) automationAllowedLocked() bool {
	if w.identity.IsPremium() || w.autoQuota == nil {
		return true
	}
	return w.autoQuota.Remaining > 0
}

// AutomationQuotaWarning returns the low-quota notice for free users, or "".
func (w *Wizard) AutomationQuotaWarning() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.identity.IsPremium() || w.autoQuota == nil || w.autoQuota.Remaining > 2 {
		return ""
	}
	return fmt.Sprintf("You have %d automation cycle(s) left this month. Run 'minuteme upgrade' for unlimited automation.",
		w.autoQuota.Remaining)
}

// Snapshot returns a copy of the wizard state.
func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Step:               w.step,
		Mode:               w.mode,
		Message:            w.message,
		Busy:               w.busy,
		Closed:             w.closed,
		MeetingID:          w.meetingID,
		MinutesID:          w.minutesID,
		VideoURL:           w.videoURL,
		TranscriptLength:   utf8.RuneCountInString(w.transcript),
		TranscriptionQuota: copyQuota(w.txQuota),
		AutomationQuota:    copyQuota(w.autoQuota),
	}
}

func copyQuota(q *client.Quota) *client.Quota {
	if q == nil {
		return nil
	}
	c := *q
	return &c
}

// SubmitVideo starts ingestion from a Google Drive recording.
func (w *Wizard) SubmitVideo(ctx context.Context, videoURL string) error {
	videoURL = strings.TrimSpace(videoURL)
	return w.submit(ctx, source{videoURL: videoURL}, func() error {
		if err := validationError(w.validate, videoInput{URL: videoURL}, msgInvalidURL); err != nil {
			return withMessage(err, msgInvalidURL)
		}
		if !w.videoAllowedLocked() {
			return withMessage(fmt.Errorf("transcription quota exhausted: %w", mmerrors.ErrQuotaExceeded), MsgQuotaExhausted)
		}
		return nil
	})
}

// SubmitTranscript starts ingestion from pasted text.
func (w *Wizard) SubmitTranscript(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	return w.submit(ctx, source{transcript: text}, func() error {
		if err := validationError(w.validate, transcriptInput{Text: text}, msgTranscriptTooShort); err != nil {
			return withMessage(err, msgTranscriptTooShort)
		}
		return nil
	})
}

type source struct {
	videoURL   string
	transcript string
}

func (s source) isVideo() bool { return s.videoURL != "" }

// messageError carries the text shown to the user alongside the error.
type messageError struct {
	err error
	msg string
}

func (e *messageError) Error() string { return e.err.Error() }
func (e *messageError) Unwrap() error { return e.err }

func withMessage(err error, msg string) error {
	return &messageError{err: err, msg: msg}
}

func (w *Wizard) submit(ctx context.Context, src source, check func() error) error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.step != StepInitial {
		step := w.step
		w.mu.Unlock()
		return fmt.Errorf("cannot submit while wizard is %s: %w", step, mmerrors.ErrInvalidState)
	}
	if err := check(); err != nil {
		if me, ok := err.(*messageError); ok {
			w.message = me.msg
		}
		w.mu.Unlock()
		return err
	}
	mode := w.mode
	if mode == ModeAutomated {
		if !w.automationAllowedLocked() {
			w.message = MsgAutomationExhausted
			w.mu.Unlock()
			return fmt.Errorf("automation quota exhausted: %w", mmerrors.ErrQuotaExceeded)
		}
		if w.store.Snapshot().Status == automation.StatusRunning {
			w.message = MsgAutomationRunning
			w.mu.Unlock()
			return fmt.Errorf("automation job already running: %w", mmerrors.ErrInvalidState)
		}
	}
	w.busy = true
	w.videoURL, w.transcript = src.videoURL, src.transcript
	w.step = StepTranscribing
	if src.isVideo() {
		w.message = MsgTranscribing
	} else {
		w.message = MsgSavingTranscript
	}
	gen := w.gen
	w.mu.Unlock()

	meetingID, err := w.createMeeting(ctx)
	if err != nil {
		w.fail(gen, StepInitial, "❌ Could not create meeting: "+client.Message(err, ""))
		return fmt.Errorf("creating meeting: %w", err)
	}

	if mode == ModeAutomated {
		return w.runAutomated(ctx, gen, meetingID, src)
	}
	return w.runManual(ctx, gen, meetingID, src)
}

func (w *Wizard) createMeeting(ctx context.Context) (string, error) {
	now := w.now()
	m, err := w.api.CreateMeeting(ctx, client.CreateMeetingRequest{
		Name:   "Meeting " + now.Format("2006-01-02 15:04"),
		Date:   now.Format("2006-01-02"),
		Status: client.MeetingConducted,
	})
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (w *Wizard) runManual(ctx context.Context, gen uint64, meetingID string, src source) error {
	var err error
	if src.isVideo() {
		_, err = w.api.Transcribe(ctx, client.TranscribeRequest{MeetingID: meetingID, VideoURL: src.videoURL})
	} else {
		_, err = w.api.SaveManualTranscript(ctx, client.ManualTranscriptRequest{MeetingID: meetingID, Transcript: src.transcript})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return context.Canceled
	}
	w.busy = false
	w.meetingID = meetingID

	if err != nil {
		w.step = StepInitial
		if src.isVideo() {
			w.message = "❌ Transcription failed: " + client.Message(err, "")
		} else {
			w.message = "❌ Saving transcript failed: " + client.Message(err, "")
		}
		return fmt.Errorf("transcribing meeting %s: %w", meetingID, err)
	}

	w.step = StepTranscribed
	if src.isVideo() {
		w.message = MsgTranscribed
		if !w.identity.IsPremium() && w.txQuota != nil {
			decrement(w.txQuota)
		}
	} else {
		w.message = MsgTranscriptSaved
	}
	w.logger.Info("meeting transcribed", logging.F("meeting_id", meetingID), logging.F("video", src.isVideo()))
	return nil
}

func (w *Wizard) runAutomated(ctx context.Context, gen uint64, meetingID string, src source) error {
	_, err := w.api.ProcessAutomated(ctx, client.ProcessAutomatedRequest{
		MeetingID:  meetingID,
		VideoURL:   src.videoURL,
		Transcript: src.transcript,
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return context.Canceled
	}
	w.busy = false
	w.meetingID = meetingID

	if err != nil {
		w.step = StepInitial
		w.message = "❌ Automation failed to start: " + client.Message(err, "")
		return fmt.Errorf("starting automation for meeting %s: %w", meetingID, err)
	}

	if err := w.store.Start(meetingID, MsgAutomationStarted); err != nil {
		w.logger.Warn("automation store rejected job", logging.F("meeting_id", meetingID), logging.Err(err))
	}
	if !w.identity.IsPremium() && w.autoQuota != nil {
		decrement(w.autoQuota)
	}
	w.logger.Info("automation started", logging.F("meeting_id", meetingID))

	w.resetLocked()
	w.meetingID = meetingID
	w.message = MsgAutomationStarted
	w.closed = true
	return nil
}

// GenerateMinutes asks the backend for minutes of the transcribed meeting.
func (w *Wizard) GenerateMinutes(ctx context.Context) error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.step != StepTranscribed {
		step := w.step
		w.mu.Unlock()
		return fmt.Errorf("minutes need a transcribed meeting, wizard is %s: %w", step, mmerrors.ErrInvalidState)
	}
	w.busy = true
	w.step = StepProcessing
	w.message = MsgGenerating
	meetingID := w.meetingID
	gen := w.gen
	w.mu.Unlock()

	minutesID, err := w.api.GenerateMinutes(ctx, client.GenerateMinutesRequest{MeetingID: meetingID})

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return context.Canceled
	}
	w.busy = false

	if err != nil {
		w.step = StepTranscribed
		w.message = "❌ Minutes generation failed: " + client.Message(err, "")
		return fmt.Errorf("generating minutes for meeting %s: %w", meetingID, err)
	}

	w.step = StepDone
	w.minutesID = minutesID
	w.message = "🎉 Minutes generated! Review them with 'minuteme minutes show " + minutesID + "'."
	return nil
}

// Review returns the path of the generated minutes and closes the wizard.
func (w *Wizard) Review() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepDone {
		return "", fmt.Errorf("nothing to review, wizard is %s: %w", w.step, mmerrors.ErrInvalidState)
	}
	path := "/minutes/" + w.minutesID
	w.resetLocked()
	w.closed = true
	return path, nil
}

// Close resets the wizard to initial. A response still in flight is discarded.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
	w.closed = true
}

func (w *Wizard) resetLocked() {
	w.gen++
	w.busy = false
	w.step = StepInitial
	w.message = ""
	w.meetingID = ""
	w.minutesID = ""
	w.videoURL = ""
	w.transcript = ""
}

func (w *Wizard) fail(gen uint64, step Step, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return
	}
	w.busy = false
	w.step = step
	w.message = message
}

func decrement(q *client.Quota) {
	if q.Remaining > 0 {
		q.Remaining--
	}
	q.Used++
}
