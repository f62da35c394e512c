package credentials

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenSource serves the active credential as an oauth2 bearer token.
type TokenSource struct {
	store *Store
}

// NewTokenSource returns a caching oauth2.TokenSource backed by the store.
// The credential is read once and reused until its expiry passes.
func NewTokenSource(store *Store) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &TokenSource{store: store})
}

// Token implements oauth2.TokenSource.
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	creds, err := ts.store.GetActiveCredential()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: creds.Secret(),
		TokenType:   "Bearer",
		Expiry:      creds.ExpiresAt,
	}, nil
}

// Getter adapts a TokenSource to the client's token getter signature.
// A missing credential yields an empty token rather than an error, so
// requests go out unauthenticated and the backend answers 401.
func Getter(src oauth2.TokenSource) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		tok, err := src.Token()
		if err != nil {
			if errors.Is(err, ErrNoCredentials) {
				return "", nil
			}
			return "", fmt.Errorf("reading credential: %w", err)
		}
		return tok.AccessToken, nil
	}
}
