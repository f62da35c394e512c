package client

import (
	"context"
	"fmt"
)

// ListActionItems calls GET /action-items.
func (c *Client) ListActionItems(ctx context.Context) ([]ActionItem, error) {
	var out []ActionItem
	if err := c.Get(ctx, "/action-items", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateActionItemStatus calls PATCH /action-items/{id}. Only status is sent.
func (c *Client) UpdateActionItemStatus(ctx context.Context, id string, status ActionStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid action item status %q: %w", status, errValidation)
	}
	return c.Patch(ctx, "/action-items/"+escape(id), map[string]ActionStatus{"status": status}, nil)
}

// DeleteActionItem calls DELETE /action-items/{id}.
func (c *Client) DeleteActionItem(ctx context.Context, id string) error {
	return c.Delete(ctx, "/action-items/"+escape(id), nil)
}

// GenerateActionItems calls POST /generate-action-items for a minutes record.
func (c *Client) GenerateActionItems(ctx context.Context, minutesID string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.Post(ctx, "/generate-action-items", map[string]string{"minutes_id": minutesID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
