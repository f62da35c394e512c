package events

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minuteme-cli/pkg/automation"
	"github.com/otherjamesbrown/minuteme-cli/pkg/logging"
)

func eventPayload(t *testing.T, status automation.Status, jobID, message string) string {
	t.Helper()
	data, err := json.Marshal(AutomationEvent{
		BaseEvent: NewBaseEvent(EventAutomationTransition),
		Status:    status,
		JobID:     jobID,
		Message:   message,
	})
	require.NoError(t, err)
	return string(data)
}

func TestConsume_DeliversAndSkipsUndecodable(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.Config{Level: logging.LevelDebug, JSONFormat: true, Output: &buf})

	messages := make(chan *redis.Message, 3)
	messages <- &redis.Message{Channel: "ch", Payload: eventPayload(t, automation.StatusRunning, "m1", "Transcribing")}
	messages <- &redis.Message{Channel: "ch", Payload: "not json"}
	messages <- &redis.Message{Channel: "ch", Payload: eventPayload(t, automation.StatusSuccess, "m1", "Done")}
	close(messages)

	var got []AutomationEvent
	err := consume(context.Background(), messages, "ch", logger, func(ev AutomationEvent) {
		got = append(got, ev)
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, automation.StatusRunning, got[0].Status)
	assert.Equal(t, "Transcribing", got[0].Message)
	assert.Equal(t, automation.StatusSuccess, got[1].Status)
	assert.Equal(t, "m1", got[1].JobID)
	assert.Contains(t, buf.String(), "Skipping event")
}

func TestConsume_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	messages := make(chan *redis.Message)

	done := make(chan error, 1)
	go func() {
		done <- consume(ctx, messages, "ch", logging.NewNopLogger(), func(AutomationEvent) {})
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consume did not return after cancel")
	}
}
