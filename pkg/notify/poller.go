// Package notify polls the notification feed, keeps an inbox of the latest
// entries and feeds job progress into the automation store.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/otherjamesbrown/minuteme-cli/client"
	"github.com/otherjamesbrown/minuteme-cli/pkg/automation"
	"github.com/otherjamesbrown/minuteme-cli/pkg/format"
	"github.com/otherjamesbrown/minuteme-cli/pkg/logging"
)

// DefaultInterval is the fixed polling period.
const DefaultInterval = 30 * time.Second

// API is the part of the MinuteMe client the poller calls.
type API interface {
	ListNotifications(ctx context.Context) ([]client.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// UpdateFunc is called after every successful fetch or local change.
type UpdateFunc func(items []client.Notification, unread int)

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the polling period.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithStore enables reconciliation of the automation store.
func WithStore(s *automation.Store) Option {
	return func(p *Poller) { p.store = s }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// WithOnUpdate sets the render callback.
func WithOnUpdate(fn UpdateFunc) Option {
	return func(p *Poller) { p.onUpdate = fn }
}

// Poller fetches notifications on a fixed interval.
type Poller struct {
	api      API
	inbox    *Inbox
	store    *automation.Store
	interval time.Duration
	logger   logging.Logger
	onUpdate UpdateFunc
}

// NewPoller creates a poller.
func NewPoller(api API, opts ...Option) *Poller {
	p := &Poller{
		api:      api,
		inbox:    &Inbox{},
		interval: DefaultInterval,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logging.F("component", "notification_poller"))
	return p
}

// Inbox returns the poller's inbox.
func (p *Poller) Inbox() *Inbox {
	return p.inbox
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run polls once immediately and then every interval until ctx is done.
// Fetch failures are logged and polling continues.
func (p *Poller) Run(ctx context.Context) error {
	_ = p.Poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = p.Poll(ctx)
		}
	}
}

// Poll fetches the list once, reconciles the store and notifies the callback.
func (p *Poller) Poll(ctx context.Context) error {
	items, err := p.api.ListNotifications(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("Failed to fetch notifications", logging.Err(err))
		}
		return fmt.Errorf("fetching notifications: %w", err)
	}

	p.inbox.Set(items)
	p.Reconcile(items)
	p.emit()
	return nil
}

// Reconcile applies the newest job notification to a running automation job.
// Notifications for other jobs are ignored. A job without an id takes the
// newest notification carrying any related_id.
func (p *Poller) Reconcile(items []client.Notification) {
	if p.store == nil {
		return
	}
	st := p.store.Snapshot()
	if st.Status != automation.StatusRunning {
		return
	}

	n, ok := latestForJob(items, st.JobID)
	if !ok {
		return
	}

	switch n.Type {
	case client.NotificationSuccess:
		_ = p.store.End(automation.StatusSuccess, n.Message)
		p.logger.Info("Automation job finished", logging.F("job_id", st.JobID))
	case client.NotificationError:
		_ = p.store.End(automation.StatusError, n.Message)
		p.logger.Warn("Automation job failed", logging.F("job_id", st.JobID), logging.F("reason", n.Message))
	default:
		p.store.Update(n.Message)
	}
}

// latestForJob picks the newest matching notification. The API lists newest
// first, so a later entry only wins when both timestamps parse and it is newer.
func latestForJob(items []client.Notification, jobID string) (client.Notification, bool) {
	var (
		best     client.Notification
		bestTime time.Time
		bestOK   bool
		found    bool
	)
	for _, n := range items {
		if n.RelatedID == "" || (jobID != "" && n.RelatedID != jobID) {
			continue
		}
		t, ok := format.ParseDate(n.CreatedAt)
		if !found || (ok && bestOK && t.After(bestTime)) {
			best, bestTime, bestOK, found = n, t, ok, true
		}
	}
	return best, found
}

// MarkRead marks one notification read on the server, then locally.
func (p *Poller) MarkRead(ctx context.Context, id string) error {
	if err := p.api.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	p.inbox.MarkRead(id)
	p.emit()
	return nil
}

// MarkAllRead marks every notification read on the server, then locally.
func (p *Poller) MarkAllRead(ctx context.Context) error {
	if err := p.api.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	p.inbox.MarkAllRead()
	p.emit()
	return nil
}

func (p *Poller) emit() {
	if p.onUpdate == nil {
		return
	}
	p.onUpdate(p.inbox.Items(), p.inbox.UnreadCount())
}
