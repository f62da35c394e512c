package client

import "context"

// ListMinutes calls GET /minutes.
func (c *Client) ListMinutes(ctx context.Context) ([]Minutes, error) {
	var out []Minutes
	if err := c.Get(ctx, "/minutes", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMinutes calls GET /minutes/{id}.
func (c *Client) GetMinutes(ctx context.Context, id string) (*Minutes, error) {
	var out Minutes
	if err := c.Get(ctx, "/minutes/"+escape(id), &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return &out, nil
}

// GenerateMinutes calls POST /generate-minutes and returns the new minutes id.
func (c *Client) GenerateMinutes(ctx context.Context, req GenerateMinutesRequest) (string, error) {
	var out MinutesIDResponse
	if err := c.Post(ctx, "/generate-minutes", req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", malformed("POST /generate-minutes", "minutes id")
	}
	return out.ID, nil
}
