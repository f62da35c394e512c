package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/client"
	"github.com/otherjamesbrown/minuteme-cli/config"
	"github.com/otherjamesbrown/minuteme-cli/pkg/automation"
	"github.com/otherjamesbrown/minuteme-cli/pkg/buildinfo"
	"github.com/otherjamesbrown/minuteme-cli/pkg/format"
	"github.com/otherjamesbrown/minuteme-cli/pkg/logging"
	"github.com/otherjamesbrown/minuteme-cli/pkg/notify"
)

// NewNotificationsCommand creates the notifications command group.
func NewNotificationsCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notification", "inbox"},
		Short:   "Read and watch notifications",
		Long: `Read and watch notifications from the MinuteMe backend.

Automated jobs report their progress as notifications. 'watch' polls the feed
every poll_interval (30s by default) and prints new entries as they arrive.

Examples:
  minuteme notifications list --unread
  minuteme notifications read <notification-id>
  minuteme notifications read-all
  minuteme notifications watch --job <meeting-id> --metrics-addr :9091`,
	}

	cmd.AddCommand(newNotificationsListCommand(deps))
	cmd.AddCommand(newNotificationsReadCommand(deps))
	cmd.AddCommand(newNotificationsReadAllCommand(deps))
	cmd.AddCommand(newNotificationsWatchCommand(deps))
	return RequireAuth(cmd)
}

// notificationList is the structured form of 'notifications list'.
type notificationList struct {
	Unread        int                   `json:"unread" yaml:"unread"`
	Notifications []client.Notification `json:"notifications" yaml:"notifications"`
}

func formatNotification(n client.Notification, now time.Time) string {
	marker := " "
	if !n.Read {
		marker = "•"
	}
	return fmt.Sprintf("%s %s %s  (%s)", marker, format.NotificationIcon(string(n.Type)), n.Message, format.DateRelative(n.CreatedAt, now))
}

func newNotificationsListCommand(deps *Deps) *cobra.Command {
	var unreadOnly bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			poller := notify.NewPoller(api, notify.WithLogger(deps.Logger))
			if err := poller.Poll(cmd.Context()); err != nil {
				return err
			}

			inbox := poller.Inbox()
			list := notificationList{Unread: inbox.UnreadCount(), Notifications: []client.Notification{}}
			for _, n := range inbox.Items() {
				if unreadOnly && n.Read {
					continue
				}
				list.Notifications = append(list.Notifications, n)
			}

			now := deps.Now()
			return deps.render(cmd.OutOrStdout(), list, func(w io.Writer) error {
				fmt.Fprintf(w, "%d unread\n", list.Unread)
				if len(list.Notifications) == 0 {
					fmt.Fprintln(w, "No notifications.")
					return nil
				}
				fmt.Fprintln(w)
				for _, n := range list.Notifications {
					fmt.Fprintf(w, "%s\n    id: %s\n", formatNotification(n, now), n.ID)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only show unread notifications")
	return cmd
}

func newNotificationsReadCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			if err := notify.NewPoller(api, notify.WithLogger(deps.Logger)).MarkRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			return deps.done(cmd.OutOrStdout(), "Marked %s as read.", args[0])
		},
	}
}

func newNotificationsReadAllCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.Client()
			if err != nil {
				return err
			}
			if err := notify.NewPoller(api, notify.WithLogger(deps.Logger)).MarkAllRead(cmd.Context()); err != nil {
				return err
			}
			return deps.done(cmd.OutOrStdout(), "All notifications marked as read.")
		},
	}
}

// printer writes notifications not seen before.
type printer struct {
	mu     sync.Mutex
	deps   *Deps
	w      io.Writer
	seen   map[string]bool
	unread prometheus.Gauge
}

func (p *printer) update(items []client.Notification, unread int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unread != nil {
		p.unread.Set(float64(unread))
	}
	now := p.deps.Now()
	// The API lists newest first; print oldest first.
	for i := len(items) - 1; i >= 0; i-- {
		n := items[i]
		if p.seen[n.ID] {
			continue
		}
		p.seen[n.ID] = true
		switch p.deps.outputFormat() {
		case config.OutputFormatJSON, config.OutputFormatYAML:
			_ = writeJSONCompact(p.w, n)
		default:
			fmt.Fprintln(p.w, formatNotification(n, now))
		}
	}
}

func newNotificationsWatchCommand(deps *Deps) *cobra.Command {
	var jobID, metricsAddr string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new notifications until interrupted",
		Long: `Poll the notification feed and print new entries as they arrive.

With --job, track an automated job started elsewhere (for example by
'minuteme analyze --automated' in another terminal). The status line shows
its progress and the command exits when the job finishes.

Structured output formats print one JSON object per notification.

With --metrics-addr, serve Prometheus metrics on /metrics and build info on
/version while watching.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			api, err := deps.Client()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = deps.pollInterval()
			}
			if metricsAddr == "" && deps.Config != nil {
				metricsAddr = deps.Config.MetricsAddr
			}

			p := &printer{deps: deps, w: cmd.OutOrStdout(), seen: map[string]bool{}}
			if metricsAddr != "" {
				p.unread = promauto.With(deps.Registry).NewGauge(prometheus.GaugeOpts{
					Name: "minuteme_notifications_unread",
					Help: "Unread notifications at the last poll",
				})
				stop, err := serveMetrics(ctx, metricsAddr, deps)
				if err != nil {
					return err
				}
				defer stop()
			}

			stopMirror := deps.mirrorAutomation(ctx)
			defer stopMirror()

			if jobID != "" {
				if err := deps.Store.Start(jobID, "Waiting for updates on "+format.MeetingID(jobID)+"..."); err != nil {
					return fmt.Errorf("tracking job %s: %w", jobID, err)
				}
				line := automation.NewStatusLine(cmd.ErrOrStderr())
				unsubscribe := deps.Store.Subscribe(func(st automation.State) {
					line.Observe(st)
					if st.Status.IsTerminal() {
						cancel()
					}
				})
				defer unsubscribe()
				line.Observe(deps.Store.Snapshot())
				go line.Run(ctx, spinnerInterval)
			}

			poller := notify.NewPoller(api,
				notify.WithInterval(interval),
				notify.WithStore(deps.Store),
				notify.WithLogger(deps.Logger),
				notify.WithOnUpdate(p.update))

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching notifications every %s (Ctrl+C to stop)\n", poller.Interval())
			if err := poller.Run(ctx); err != nil {
				return err
			}

			if st := deps.Store.Snapshot(); jobID != "" && st.Status == automation.StatusError {
				return errAutomationFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "Meeting id of an automated job to track until it finishes")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval (default poll_interval from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /version on this address")
	return LongRunning(cmd)
}

// serveMetrics starts the metrics listener. The returned func shuts it down.
func serveMetrics(ctx context.Context, addr string, deps *Deps) (func(), error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/version", buildinfo.Handler("minuteme-cli"))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Warn("Metrics server stopped", logging.Err(err))
		}
	}()
	deps.Logger.Info("Serving metrics", logging.F("addr", ln.Addr().String()))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
