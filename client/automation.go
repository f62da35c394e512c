package client

import (
	"context"
	"fmt"
)

// ProcessAutomated calls POST /process-automated. The backend queues the whole
// pipeline and answers at once. Progress and the outcome arrive as notifications
// whose related_id is the meeting id.
func (c *Client) ProcessAutomated(ctx context.Context, req ProcessAutomatedRequest) (*MessageResponse, error) {
	if (req.VideoURL == "") == (req.Transcript == "") {
		return nil, fmt.Errorf("process-automated needs exactly one of video_url or transcript: %w", errValidation)
	}
	var out MessageResponse
	if err := c.Post(ctx, "/process-automated", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
