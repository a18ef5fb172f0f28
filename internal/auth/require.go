package auth

import (
	"context"
	"fmt"
	"net/http"
)

// BearerTransport injects the Bearer token into every HTTP request.
type BearerTransport struct {
	Token string
	Base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	req2.Header.Set("Authorization", "Bearer "+t.Token)
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req2)
}

// RequireAuth loads the saved token, refreshes it when close to expiry and
// returns an HTTP client that signs every request with it.
func RequireAuth(ctx context.Context, clientID string) (*http.Client, error) {
	token, err := LoadToken()
	if err != nil {
		return nil, fmt.Errorf("not authenticated — run: rosterfmt auth login\n(requires azure.client_id or %s)", ClientIDEnv)
	}

	if clientID == "" {
		return nil, fmt.Errorf("%s not set — see: rosterfmt auth --help", ClientIDEnv)
	}

	token, err = RefreshIfNeeded(ctx, token, clientID)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w\nRun: rosterfmt auth login", err)
	}

	return &http.Client{
		Transport: &BearerTransport{Token: token.AccessToken},
	}, nil
}
