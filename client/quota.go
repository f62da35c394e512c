package client

import "context"

// TranscriptionQuota calls GET /user/transcription-quota.
func (c *Client) TranscriptionQuota(ctx context.Context) (*Quota, error) {
	var out Quota
	if err := c.Get(ctx, "/user/transcription-quota", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AutomationQuota calls GET /user/automation-quota.
func (c *Client) AutomationQuota(ctx context.Context) (*Quota, error) {
	var out Quota
	if err := c.Get(ctx, "/user/automation-quota", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
