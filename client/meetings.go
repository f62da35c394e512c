package client

import (
	"context"
	"fmt"
)

// ListMeetings calls GET /meetings.
func (c *Client) ListMeetings(ctx context.Context) ([]Meeting, error) {
	var out []Meeting
	if err := c.Get(ctx, "/meetings", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMeeting calls POST /meetings and returns the created record.
func (c *Client) CreateMeeting(ctx context.Context, req CreateMeetingRequest) (*Meeting, error) {
	var out Meeting
	if err := c.Post(ctx, "/meetings", req, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, malformed("POST /meetings", "meeting id")
	}
	if out.Name == "" {
		out.Name = req.Name
	}
	if out.Date == "" {
		out.Date = req.Date
	}
	return &out, nil
}

// UpdateMeetingStatus calls PATCH /meetings/{id} with the new status.
func (c *Client) UpdateMeetingStatus(ctx context.Context, id string, status MeetingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid meeting status %q: %w", status, errValidation)
	}
	return c.Patch(ctx, "/meetings/"+escape(id), map[string]MeetingStatus{"status": status}, nil)
}

// DeleteMeeting calls DELETE /meetings/{id}.
func (c *Client) DeleteMeeting(ctx context.Context, id string) error {
	return c.Delete(ctx, "/meetings/"+escape(id), nil)
}
