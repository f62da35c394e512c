package roles

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-real-key"))
	require.NoError(t, err)
	return token
}

func TestFromToken(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   Identity
	}{
		{
			name: "public metadata",
			claims: jwt.MapClaims{
				"sub":             "user_1",
				"email":           "ana@example.com",
				"public_metadata": map[string]any{"role": "admin", "tier": "premium"},
			},
			want: Identity{Subject: "user_1", Email: "ana@example.com", Role: RoleAdmin, Tier: TierPremium},
		},
		{
			name:   "top-level claims",
			claims: jwt.MapClaims{"sub": "user_2", "role": "Admin", "tier": "free"},
			want:   Identity{Subject: "user_2", Role: RoleAdmin, Tier: TierFree},
		},
		{
			name: "metadata overrides top-level",
			claims: jwt.MapClaims{
				"sub":             "user_3",
				"role":            "admin",
				"public_metadata": map[string]any{"role": "user"},
			},
			want: Identity{Subject: "user_3", Role: RoleUser, Tier: TierFree},
		},
		{
			name:   "defaults",
			claims: jwt.MapClaims{"sub": "user_4"},
			want:   Identity{Subject: "user_4", Role: RoleUser, Tier: TierFree},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromToken(sign(t, tt.claims))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromToken_IgnoresSignatureAndExpiry(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	token := sign(t, jwt.MapClaims{
		"sub":             "user_5",
		"exp":             exp.Unix(),
		"public_metadata": map[string]any{"tier": "premium"},
	})

	got, err := FromToken("Bearer " + token)
	require.NoError(t, err)
	assert.True(t, got.IsPremium())
	assert.True(t, exp.Equal(got.ExpiresAt))
}

func TestFromToken_Invalid(t *testing.T) {
	for _, token := range []string{"", "mm_live_abcdef", "a.b.c"} {
		got, err := FromToken(token)
		assert.Error(t, err, token)
		assert.Equal(t, Default(), got)
	}
}

func TestGates(t *testing.T) {
	user := Default()
	admin := Identity{Role: RoleAdmin, Tier: TierFree}
	premium := Identity{Role: RoleUser, Tier: TierPremium}

	assert.NoError(t, admin.RequireAdmin())
	err := user.RequireAdmin()
	require.Error(t, err)
	assert.True(t, mmerrors.IsForbidden(err))

	assert.NoError(t, premium.RequirePremium("calendar connect"))
	err = user.RequirePremium("calendar connect")
	require.Error(t, err)
	assert.True(t, mmerrors.IsPremiumRequired(err))
	assert.Contains(t, err.Error(), "minuteme upgrade")
}

func TestBadge(t *testing.T) {
	assert.Equal(t, "Free", Default().Badge())
	assert.Equal(t, "Premium", Identity{Role: RoleUser, Tier: TierPremium}.Badge())
	assert.Equal(t, "Admin", Identity{Role: RoleAdmin, Tier: TierFree}.Badge())
	assert.Equal(t, "Admin · Premium", Identity{Role: RoleAdmin, Tier: TierPremium}.Badge())
}
