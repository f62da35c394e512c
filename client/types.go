package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DeadlineTBD is shown when an action item has no deadline.
const DeadlineTBD = "TBD"

// MeetingStatus is the lifecycle state of a meeting.
type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "scheduled"
	MeetingConducted MeetingStatus = "conducted"
	MeetingDismissed MeetingStatus = "dismissed"
)

// Valid reports whether s is a known meeting status.
func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingScheduled, MeetingConducted, MeetingDismissed:
		return true
	}
	return false
}

// ActionStatus is the progress state of an action item.
type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionInProgress ActionStatus = "in-progress"
	ActionCompleted  ActionStatus = "completed"
)

// Valid reports whether s is a known action item status.
func (s ActionStatus) Valid() bool {
	switch s {
	case ActionPending, ActionInProgress, ActionCompleted:
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// Meeting is a recorded or scheduled meeting.
type Meeting struct {
	ID       string        `json:"id" yaml:"id"`
	Name     string        `json:"name" yaml:"name"`
	Date     string        `json:"date" yaml:"date"`
	Status   MeetingStatus `json:"status" yaml:"status"`
	AgendaID string        `json:"agenda_id,omitempty" yaml:"agenda_id,omitempty"`
}

func (m *Meeting) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          flexString    `json:"id"`
		MongoID     flexString    `json:"_id"`
		MeetingID   flexString    `json:"meeting_id"`
		Name        string        `json:"name"`
		MeetingName string        `json:"meeting_name"`
		Date        string        `json:"date"`
		MeetingDate string        `json:"meeting_date"`
		Status      MeetingStatus `json:"status"`
		AgendaID    flexString    `json:"agenda_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Meeting{
		ID:       firstNonEmpty(string(raw.ID), string(raw.MongoID), string(raw.MeetingID)),
		Name:     firstNonEmpty(raw.Name, raw.MeetingName),
		Date:     firstNonEmpty(raw.Date, raw.MeetingDate),
		Status:   raw.Status,
		AgendaID: string(raw.AgendaID),
	}
	if m.Status == "" {
		m.Status = MeetingScheduled
	}
	return nil
}

// Transcript is the text of a meeting, transcribed or pasted.
type Transcript struct {
	ID        string `json:"id" yaml:"id"`
	MeetingID string `json:"meeting_id,omitempty" yaml:"meeting_id,omitempty"`
	Text      string `json:"text" yaml:"text"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

func (t *Transcript) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         flexString `json:"id"`
		MongoID    flexString `json:"_id"`
		MeetingID  flexString `json:"meeting_id"`
		Text       string     `json:"text"`
		Transcript string     `json:"transcript"`
		CreatedAt  string     `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Transcript{
		ID:        firstNonEmpty(string(raw.ID), string(raw.MongoID)),
		MeetingID: string(raw.MeetingID),
		Text:      firstNonEmpty(raw.Text, raw.Transcript),
		CreatedAt: raw.CreatedAt,
	}
	return nil
}

// ActionItem is a task extracted from minutes.
type ActionItem struct {
	ID        string       `json:"id" yaml:"id"`
	Task      string       `json:"task" yaml:"task"`
	Owner     string       `json:"owner" yaml:"owner"`
	Deadline  string       `json:"deadline" yaml:"deadline"`
	Status    ActionStatus `json:"status" yaml:"status"`
	MinutesID string       `json:"minutes_id,omitempty" yaml:"minutes_id,omitempty"`
}

func (a *ActionItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        flexString   `json:"id"`
		MongoID   flexString   `json:"_id"`
		Task      string       `json:"task"`
		Action    string       `json:"action"`
		Owner     string       `json:"owner"`
		Assignee  string       `json:"assignee"`
		Deadline  string       `json:"deadline"`
		DueDate   string       `json:"due_date"`
		Status    ActionStatus `json:"status"`
		MinutesID flexString   `json:"minutes_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = ActionItem{
		ID:        firstNonEmpty(string(raw.ID), string(raw.MongoID)),
		Task:      firstNonEmpty(raw.Task, raw.Action),
		Owner:     firstNonEmpty(raw.Owner, raw.Assignee),
		Deadline:  firstNonEmpty(raw.Deadline, raw.DueDate, DeadlineTBD),
		Status:    raw.Status,
		MinutesID: string(raw.MinutesID),
	}
	if a.Status == "" {
		a.Status = ActionPending
	}
	return nil
}

// Minutes is the structured summary of a meeting.
type Minutes struct {
	ID                     string       `json:"id" yaml:"id"`
	MeetingID              string       `json:"meeting_id,omitempty" yaml:"meeting_id,omitempty"`
	Date                   string       `json:"date" yaml:"date"`
	Summary                string       `json:"summary" yaml:"summary"`
	Decisions              []string     `json:"decisions" yaml:"decisions"`
	FutureDiscussionPoints []string     `json:"future_discussion_points" yaml:"future_discussion_points"`
	ActionItems            []ActionItem `json:"action_items" yaml:"action_items"`
}

func (m *Minutes) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                     flexString   `json:"id"`
		MongoID                flexString   `json:"_id"`
		MinutesID              flexString   `json:"minutes_id"`
		MeetingID              flexString   `json:"meeting_id"`
		Date                   string       `json:"date"`
		MeetingDate            string       `json:"meeting_date"`
		Summary                string       `json:"summary"`
		Decisions              []string     `json:"decisions"`
		KeyDecisions           []string     `json:"key_decisions"`
		FutureDiscussionPoints []string     `json:"future_discussion_points"`
		ActionItems            []ActionItem `json:"action_items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Minutes{
		ID:                     firstNonEmpty(string(raw.ID), string(raw.MongoID), string(raw.MinutesID)),
		MeetingID:              string(raw.MeetingID),
		Date:                   firstNonEmpty(raw.Date, raw.MeetingDate),
		Summary:                raw.Summary,
		Decisions:              raw.Decisions,
		FutureDiscussionPoints: raw.FutureDiscussionPoints,
		ActionItems:            raw.ActionItems,
	}
	if len(m.Decisions) == 0 {
		m.Decisions = raw.KeyDecisions
	}
	return nil
}

// AgendaItem is one topic on an agenda.
type AgendaItem struct {
	Topic         string `json:"topic" yaml:"topic" validate:"required"`
	Priority      string `json:"priority,omitempty" yaml:"priority,omitempty" validate:"omitempty,oneof=urgent discussion info"`
	TimeAllocated string `json:"time_allocated,omitempty" yaml:"time_allocated,omitempty"`
}

// UnmarshalJSON accepts either a bare topic string or an object.
func (a *AgendaItem) UnmarshalJSON(data []byte) error {
	var topic string
	if err := json.Unmarshal(data, &topic); err == nil {
		*a = AgendaItem{Topic: topic}
		return nil
	}
	var raw struct {
		Topic         string     `json:"topic"`
		Title         string     `json:"title"`
		Priority      flexString `json:"priority"`
		TimeAllocated flexString `json:"time_allocated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = AgendaItem{
		Topic:         firstNonEmpty(raw.Topic, raw.Title),
		Priority:      string(raw.Priority),
		TimeAllocated: string(raw.TimeAllocated),
	}
	return nil
}

// Agenda is the planned topic list for a meeting.
type Agenda struct {
	MeetingID   string       `json:"meeting_id" yaml:"meeting_id"`
	MeetingName string       `json:"meeting_name" yaml:"meeting_name"`
	MeetingDate string       `json:"meeting_date" yaml:"meeting_date"`
	Items       []AgendaItem `json:"agenda" yaml:"agenda"`
}

func (a *Agenda) UnmarshalJSON(data []byte) error {
	var raw struct {
		MeetingID   flexString   `json:"meeting_id"`
		ID          flexString   `json:"id"`
		MongoID     flexString   `json:"_id"`
		MeetingName string       `json:"meeting_name"`
		Name        string       `json:"name"`
		MeetingDate string       `json:"meeting_date"`
		Date        string       `json:"date"`
		Agenda      []AgendaItem `json:"agenda"`
		Items       []AgendaItem `json:"items"`
		Topics      []AgendaItem `json:"topics"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Agenda{
		MeetingID:   firstNonEmpty(string(raw.MeetingID), string(raw.ID), string(raw.MongoID)),
		MeetingName: firstNonEmpty(raw.MeetingName, raw.Name),
		MeetingDate: firstNonEmpty(raw.MeetingDate, raw.Date),
		Items:       raw.Agenda,
	}
	if len(a.Items) == 0 {
		a.Items = raw.Items
	}
	if len(a.Items) == 0 {
		a.Items = raw.Topics
	}
	return nil
}

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationMeeting NotificationType = "meeting"
	NotificationAction  NotificationType = "action"
)

// IsTerminal reports whether the notification ends an automation job.
func (t NotificationType) IsTerminal() bool {
	return t == NotificationSuccess || t == NotificationError
}

// Notification is a server-side event addressed to the user.
type Notification struct {
	ID        string           `json:"id" yaml:"id"`
	Type      NotificationType `json:"type" yaml:"type"`
	Message   string           `json:"message" yaml:"message"`
	Read      bool             `json:"read" yaml:"read"`
	CreatedAt string           `json:"created_at" yaml:"created_at"`
	RelatedID string           `json:"related_id,omitempty" yaml:"related_id,omitempty"`
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        flexString       `json:"id"`
		MongoID   flexString       `json:"_id"`
		Type      NotificationType `json:"type"`
		Message   string           `json:"message"`
		Read      bool             `json:"read"`
		CreatedAt string           `json:"created_at"`
		RelatedID flexString       `json:"related_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Notification{
		ID:        firstNonEmpty(string(raw.ID), string(raw.MongoID)),
		Type:      raw.Type,
		Message:   raw.Message,
		Read:      raw.Read,
		CreatedAt: raw.CreatedAt,
		RelatedID: string(raw.RelatedID),
	}
	if n.Type == "" {
		n.Type = NotificationInfo
	}
	return nil
}

// User is an account as listed by the admin endpoints.
type User struct {
	ID        string `json:"id" yaml:"id"`
	Email     string `json:"email" yaml:"email"`
	FirstName string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Role      string `json:"role" yaml:"role"`
	Tier      string `json:"tier" yaml:"tier"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var raw struct {
		plain
		MongoID        flexString `json:"_id"`
		PublicMetadata struct {
			Role string `json:"role"`
			Tier string `json:"tier"`
		} `json:"public_metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	u.ID = firstNonEmpty(u.ID, string(raw.MongoID))
	u.Role = firstNonEmpty(u.Role, raw.PublicMetadata.Role, "user")
	u.Tier = firstNonEmpty(u.Tier, raw.PublicMetadata.Tier, "free")
	return nil
}

// Name returns "First Last", or the email when no name is set.
func (u User) Name() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// FreeTierMonthlyLimit is the per-month allowance for free accounts.
const FreeTierMonthlyLimit = 5

// Quota is a monthly allowance for transcriptions or automation runs.
type Quota struct {
	Limit     int `json:"limit" yaml:"limit"`
	Used      int `json:"used" yaml:"used"`
	Remaining int `json:"remaining" yaml:"remaining"`
}

func (q *Quota) UnmarshalJSON(data []byte) error {
	var raw struct {
		Limit     *int `json:"limit"`
		Used      *int `json:"used"`
		Remaining *int `json:"remaining"`
		Quota     *int `json:"quota"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = Quota{Limit: FreeTierMonthlyLimit}
	if raw.Limit != nil {
		q.Limit = *raw.Limit
	}
	if raw.Used != nil {
		q.Used = *raw.Used
	}
	switch {
	case raw.Remaining != nil:
		q.Remaining = *raw.Remaining
	case raw.Quota != nil:
		q.Remaining = *raw.Quota
	default:
		q.Remaining = q.Limit - q.Used
	}
	if q.Remaining < 0 {
		q.Remaining = 0
	}
	return nil
}

// CalendarEvent is a scheduled event from the connected calendar.
type CalendarEvent struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Start       string `json:"start" yaml:"start"`
	End         string `json:"end" yaml:"end"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

func (e *CalendarEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          flexString `json:"id"`
		MongoID     flexString `json:"_id"`
		Title       string     `json:"title"`
		Summary     string     `json:"summary"`
		Start       string     `json:"start"`
		End         string     `json:"end"`
		Description string     `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = CalendarEvent{
		ID:          firstNonEmpty(string(raw.ID), string(raw.MongoID)),
		Title:       firstNonEmpty(raw.Title, raw.Summary),
		Start:       raw.Start,
		End:         raw.End,
		Description: raw.Description,
	}
	return nil
}

// CalendarStatus reports whether Google Calendar is connected.
type CalendarStatus struct {
	IsConnected bool `json:"is_connected" yaml:"is_connected"`
}

// AuthorizationURL is where the user grants calendar access.
type AuthorizationURL struct {
	URL string `json:"authorization_url" yaml:"authorization_url"`
}

// CreateMeetingRequest is the body of POST /meetings.
type CreateMeetingRequest struct {
	Name   string        `json:"name"`
	Date   string        `json:"date"`
	Status MeetingStatus `json:"status"`
}

// TranscribeRequest is the body of POST /transcribe.
type TranscribeRequest struct {
	MeetingID   string `json:"meeting_id,omitempty"`
	VideoURL    string `json:"video_url"`
	MeetingName string `json:"meeting_name,omitempty"`
	MeetingDate string `json:"meeting_date,omitempty"`
}

// ManualTranscriptRequest is the body of POST /save-manual-transcript.
type ManualTranscriptRequest struct {
	MeetingID  string `json:"meeting_id"`
	Transcript string `json:"transcript"`
}

// GenerateMinutesRequest is the body of POST /generate-minutes. Exactly one id is set.
type GenerateMinutesRequest struct {
	MeetingID    string `json:"meeting_id,omitempty"`
	TranscriptID string `json:"transcript_id,omitempty"`
}

// ProcessAutomatedRequest is the body of POST /process-automated.
type ProcessAutomatedRequest struct {
	MeetingID  string `json:"meeting_id"`
	VideoURL   string `json:"video_url,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// CreateAgendaRequest is the body of POST /agenda.
type CreateAgendaRequest struct {
	Date             string   `json:"date" validate:"required,datetime=2006-01-02"`
	Topics           []string `json:"topics" validate:"required_without=DiscussionPoints,dive,required"`
	DiscussionPoints []string `json:"discussion_points" validate:"required_without=Topics,dive,required"`
}

// UpdateAgendaRequest is the body of PATCH /agenda/{id}.
type UpdateAgendaRequest struct {
	MeetingName string       `json:"meeting_name" validate:"required"`
	MeetingDate string       `json:"meeting_date" validate:"required,datetime=2006-01-02"`
	Agenda      []AgendaItem `json:"agenda" validate:"min=1,dive"`
}

// MinutesIDResponse decodes the POST /generate-minutes reply. Only minutes
// ids are accepted; a meeting or job id is not a minutes id.
type MinutesIDResponse struct {
	ID string `json:"id"`
}

func (r *MinutesIDResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        flexString `json:"id"`
		MongoID   flexString `json:"_id"`
		MinutesID flexString `json:"minutes_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID = firstNonEmpty(string(raw.ID), string(raw.MongoID), string(raw.MinutesID))
	return nil
}

// MessageResponse decodes {"message": "..."} acknowledgements.
type MessageResponse struct {
	Message string `json:"message" yaml:"message"`
	Status  string `json:"status,omitempty" yaml:"status,omitempty"`
}
