package client

import (
	"context"
	"fmt"
)

// ListUsers calls GET /admin/users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.Get(ctx, "/admin/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetUserTier calls PATCH /admin/user/{id}/tier.
func (c *Client) SetUserTier(ctx context.Context, id, tier string) error {
	if tier != "free" && tier != "premium" {
		return fmt.Errorf("invalid tier %q: %w", tier, errValidation)
	}
	return c.Patch(ctx, "/admin/user/"+escape(id)+"/tier", map[string]string{"tier": tier}, nil)
}

// SetUserRole calls PATCH /admin/user/{id}/role.
func (c *Client) SetUserRole(ctx context.Context, id, role string) error {
	if role != "user" && role != "admin" {
		return fmt.Errorf("invalid role %q: %w", role, errValidation)
	}
	return c.Patch(ctx, "/admin/user/"+escape(id)+"/role", map[string]string{"role": role}, nil)
}

// DeleteUser calls DELETE /admin/user/{id}.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Delete(ctx, "/admin/user/"+escape(id), nil)
}
