package client

import "context"

// ListNotifications calls GET /notifications. The backend orders newest first.
func (c *Client) ListNotifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	if err := c.Get(ctx, "/notifications", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead calls PATCH /notifications/{id}/read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.Patch(ctx, "/notifications/"+escape(id)+"/read", nil, nil)
}

// MarkAllNotificationsRead calls POST /notifications/read-all.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.Post(ctx, "/notifications/read-all", nil, nil)
}
