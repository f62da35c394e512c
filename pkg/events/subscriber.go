package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/minuteme-cli/pkg/logging"
)

// Follow subscribes to channel and calls fn for each automation event until
// ctx is cancelled. Undecodable messages are logged and skipped.
func Follow(ctx context.Context, client *redis.Client, channel string, logger logging.Logger, fn func(AutomationEvent)) error {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	return consume(ctx, sub.Channel(), channel, logger, fn)
}

// consume delivers decoded events from messages until ctx is cancelled or
// the channel closes.
func consume(ctx context.Context, messages <-chan *redis.Message, channel string, logger logging.Logger, fn func(AutomationEvent)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			event, err := Decode(msg.Payload)
			if err != nil {
				logger.Warn("Skipping event", logging.Err(err), logging.F("channel", channel))
				continue
			}
			fn(event)
		}
	}
}
