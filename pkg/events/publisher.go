// Package events mirrors automation job transitions onto Redis so that other
// minuteme processes can follow a job started elsewhere.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/minuteme-cli/config"
	"github.com/otherjamesbrown/minuteme-cli/pkg/automation"
	"github.com/otherjamesbrown/minuteme-cli/pkg/logging"
)

const (
	// EventAutomationTransition is the event_type of every automation event.
	EventAutomationTransition = "automation.transition"

	publishTimeout = 2 * time.Second
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a BaseEvent stamped now.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    "minuteme-cli",
		Version:   "1.0",
	}
}

// AutomationEvent is published on every automation store transition.
type AutomationEvent struct {
	BaseEvent

	JobID   string            `json:"job_id,omitempty"`
	Status  automation.Status `json:"status"`
	Message string            `json:"message,omitempty"`
}

// State converts the event back into a store state.
func (e AutomationEvent) State() automation.State {
	return automation.State{Status: e.Status, Message: e.Message, JobID: e.JobID, UpdatedAt: e.Timestamp}
}

// Decode parses a payload received from the channel.
func Decode(payload string) (AutomationEvent, error) {
	var event AutomationEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return AutomationEvent{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if event.EventType != EventAutomationTransition {
		return AutomationEvent{}, fmt.Errorf("unexpected event type %q", event.EventType)
	}
	return event, nil
}

// RedisClient is the part of *redis.Client the publisher uses.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Publisher publishes automation events to Redis.
type Publisher struct {
	client  RedisClient
	channel string
	logger  logging.Logger
}

// NewPublisher creates a publisher on channel.
func NewPublisher(client RedisClient, channel string, logger logging.Logger) *Publisher {
	return &Publisher{
		client:  client,
		channel: channel,
		logger:  logger.With(logging.F("component", "event_publisher")),
	}
}

// NewClient opens and pings a Redis connection from config.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewPublisherFromConfig connects to Redis and returns a publisher on the configured channel.
func NewPublisherFromConfig(ctx context.Context, cfg *config.RedisConfig, logger logging.Logger) (*Publisher, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewPublisher(client, cfg.GetChannel(), logger), nil
}

// Channel returns the channel events go to.
func (p *Publisher) Channel() string {
	return p.channel
}

// PublishState publishes one store state.
func (p *Publisher) PublishState(ctx context.Context, st automation.State) error {
	event := AutomationEvent{
		BaseEvent: NewBaseEvent(EventAutomationTransition),
		JobID:     st.JobID,
		Status:    st.Status,
		Message:   st.Message,
	}
	return p.publish(ctx, event)
}

// Observer returns a store observer that publishes each transition. Failures
// are logged and otherwise ignored.
func (p *Publisher) Observer(ctx context.Context) automation.Observer {
	return func(st automation.State) {
		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		_ = p.PublishState(pctx, st)
	}
}

func (p *Publisher) publish(ctx context.Context, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Warn("Failed to publish event",
			logging.Err(err),
			logging.F("channel", p.channel))
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}

	p.logger.Debug("Event published",
		logging.F("channel", p.channel),
		logging.F("payload_size", len(data)))
	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
