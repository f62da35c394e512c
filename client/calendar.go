package client

import "context"

// ListEvents calls GET /events.
func (c *Client) ListEvents(ctx context.Context) ([]CalendarEvent, error) {
	var out []CalendarEvent
	if err := c.Get(ctx, "/events", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GoogleStatus calls GET /auth/google/status.
func (c *Client) GoogleStatus(ctx context.Context) (*CalendarStatus, error) {
	var out CalendarStatus
	if err := c.Get(ctx, "/auth/google/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GoogleAuthURL calls GET /auth/google/url.
func (c *Client) GoogleAuthURL(ctx context.Context) (string, error) {
	var out AuthorizationURL
	if err := c.Get(ctx, "/auth/google/url", &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", malformed("GET /auth/google/url", "authorization_url")
	}
	return out.URL, nil
}

// GoogleExchange calls POST /auth/google/exchange with the OAuth code.
func (c *Client) GoogleExchange(ctx context.Context, code string) error {
	return c.Post(ctx, "/auth/google/exchange", map[string]string{"code": code}, nil)
}

// GoogleDisconnect calls POST /auth/google/disconnect.
func (c *Client) GoogleDisconnect(ctx context.Context) error {
	return c.Post(ctx, "/auth/google/disconnect", nil, nil)
}
