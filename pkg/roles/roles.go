// Package roles derives the signed-in user's role and tier from the session
// token. The check is advisory: commands use it to hide or refuse features,
// while the backend enforces access on every request.
package roles

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	TierFree    = "free"
	TierPremium = "premium"
)

// Metadata is the identity provider's public_metadata claim.
type Metadata struct {
	Role string `json:"role,omitempty"`
	Tier string `json:"tier,omitempty"`
}

// Claims is the subset of the session token the CLI reads.
type Claims struct {
	Email          string   `json:"email,omitempty"`
	Role           string   `json:"role,omitempty"`
	Tier           string   `json:"tier,omitempty"`
	PublicMetadata Metadata `json:"public_metadata"`
	jwt.RegisteredClaims
}

// Identity is who the CLI is acting as.
type Identity struct {
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Role    string `json:"role" yaml:"role"`
	Tier    string `json:"tier" yaml:"tier"`

	// ExpiresAt is the token's exp claim, zero when absent.
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Default is the identity assumed when the credential carries no claims,
// such as an API key.
func Default() Identity {
	return Identity{Role: RoleUser, Tier: TierFree}
}

// FromToken reads role and tier from a session JWT without verifying its
// signature. public_metadata wins over top-level claims.
func FromToken(token string) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return Default(), fmt.Errorf("empty token")
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Default(), fmt.Errorf("failed to parse token: %w", err)
	}

	id := Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    normalize(firstOf(claims.PublicMetadata.Role, claims.Role), RoleUser),
		Tier:    normalize(firstOf(claims.PublicMetadata.Tier, claims.Tier), TierFree),
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func normalize(v, fallback string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return fallback
	}
	return v
}

// IsAdmin reports whether the identity may use the admin commands.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// IsPremium reports whether the identity has unlimited quotas.
func (i Identity) IsPremium() bool {
	return i.Tier == TierPremium
}

// Badge is the short label shown next to the user's name.
func (i Identity) Badge() string {
	switch {
	case i.IsAdmin() && i.IsPremium():
		return "Admin · Premium"
	case i.IsAdmin():
		return "Admin"
	case i.IsPremium():
		return "Premium"
	default:
		return "Free"
	}
}

// RequireAdmin returns an error wrapping ErrForbidden for non-admins.
func (i Identity) RequireAdmin() error {
	if i.IsAdmin() {
		return nil
	}
	return fmt.Errorf("admin role required: %w", mmerrors.ErrForbidden)
}

// RequirePremium returns an error wrapping ErrPremiumRequired for free users.
func (i Identity) RequirePremium(feature string) error {
	if i.IsPremium() {
		return nil
	}
	return fmt.Errorf("%s is a premium feature, run 'minuteme upgrade': %w", feature, mmerrors.ErrPremiumRequired)
}
