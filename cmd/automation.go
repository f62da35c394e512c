package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minuteme-cli/pkg/automation"
	"github.com/otherjamesbrown/minuteme-cli/pkg/events"
	"github.com/otherjamesbrown/minuteme-cli/pkg/logging"
	"github.com/otherjamesbrown/minuteme-cli/pkg/notify"
)

const spinnerInterval = 120 * time.Millisecond

func (d *Deps) pollInterval() time.Duration {
	if d.Config == nil || d.Config.PollInterval <= 0 {
		return notify.DefaultInterval
	}
	return d.Config.PollInterval
}

// mirrorAutomation publishes store transitions to Redis when it is configured.
// The returned func stops mirroring.
func (d *Deps) mirrorAutomation(ctx context.Context) func() {
	if d.Config == nil || !d.Config.Redis.IsConfigured() {
		return func() {}
	}
	pub, err := events.NewPublisherFromConfig(ctx, d.Config.Redis, d.Logger)
	if err != nil {
		d.Logger.Warn("Automation status will not be mirrored", logging.Err(err))
		return func() {}
	}
	d.Logger.Debug("Mirroring automation status", logging.F("channel", pub.Channel()))

	unsubscribe := d.Store.Subscribe(pub.Observer(context.WithoutCancel(ctx)))
	return func() {
		unsubscribe()
		pub.Close()
	}
}

// followAutomation polls notifications and draws the status line until the
// running job reaches a terminal state or ctx is done.
func (d *Deps) followAutomation(ctx context.Context, api notify.API, w io.Writer) (automation.State, error) {
	if d.Store.Snapshot().Status != automation.StatusRunning {
		return d.Store.Snapshot(), nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	line := automation.NewStatusLine(w)
	final := make(chan automation.State, 1)
	unsubscribe := d.Store.Subscribe(func(st automation.State) {
		line.Observe(st)
		if st.Status.IsTerminal() {
			select {
			case final <- st:
			default:
			}
		}
	})
	defer unsubscribe()

	line.Observe(d.Store.Snapshot())
	go line.Run(runCtx, spinnerInterval)

	poller := notify.NewPoller(api,
		notify.WithInterval(d.pollInterval()),
		notify.WithStore(d.Store),
		notify.WithLogger(d.Logger))

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		poller.Run(runCtx)
	}()

	select {
	case st := <-final:
		cancel()
		<-stopped
		return st, nil
	case <-ctx.Done():
		<-stopped
		return d.Store.Snapshot(), ctx.Err()
	}
}

// NewFollowCommand creates the 'follow' command, which mirrors automation
// status published by other minuteme processes.
func NewFollowCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Show automation status published by other minuteme processes",
		Long: `Subscribe to the Redis channel that 'minuteme analyze --automated' publishes
status transitions to, and draw them as a status line.

Requires redis.addr in the configuration (or MINUTEME_REDIS_ADDR).

Examples:
  minuteme follow`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.config()
			if err != nil {
				return err
			}
			if !cfg.Redis.IsConfigured() {
				return fmt.Errorf("redis is not configured: set redis.addr or MINUTEME_REDIS_ADDR")
			}

			ctx := cmd.Context()
			rdb, err := events.NewClient(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer rdb.Close()

			line := automation.NewStatusLine(cmd.OutOrStdout())
			go line.Run(ctx, spinnerInterval)

			fmt.Fprintf(cmd.ErrOrStderr(), "Following %s (Ctrl+C to stop)\n", cfg.Redis.GetChannel())
			return events.Follow(ctx, rdb, cfg.Redis.GetChannel(), deps.Logger, func(ev events.AutomationEvent) {
				line.Observe(ev.State())
			})
		},
	}
	return LongRunning(cmd)
}
