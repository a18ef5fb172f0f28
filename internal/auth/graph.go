// Package auth signs rosterfmt in to Microsoft 365 with the OAuth 2.0 device
// code flow so reports can be pulled from an Outlook mailbox.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	graphBaseURL  = "https://graph.microsoft.com/v1.0"
	defaultScopes = "Mail.ReadWrite User.Read offline_access"
	tokenFileName = "token.json"
	refreshWindow = 5 * time.Minute
	pollInterval  = 5 * time.Second
	deviceTimeout = 5 * time.Minute
)

// ClientIDEnv names the environment variable holding the Azure AD app ID.
const ClientIDEnv = "ROSTER_AZURE_CLIENT_ID"

// authorityBase is a variable so tests can point it at a local server.
var authorityBase = "https://login.microsoftonline.com/common/oauth2/v2.0"

var (
	errAuthorizationPending = errors.New("authorization_pending")
	errSlowDown             = errors.New("slow_down")
)

// Token holds the OAuth 2.0 tokens from Microsoft.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// IsExpired returns true if the token has expired.
func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// ExpiresIn returns the duration until the token expires.
func (t *Token) ExpiresIn() time.Duration {
	return time.Until(t.ExpiresAt)
}

// NeedsRefresh returns true if the token expires within the refresh window.
func (t *Token) NeedsRefresh() bool {
	return t.ExpiresIn() < refreshWindow
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
	Message         string `json:"message"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

func (tr tokenResponse) token() *Token {
	return &Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		TokenType:    tr.TokenType,
	}
}

// DeviceCodeFlow runs the OAuth device code flow, writing sign-in
// instructions to prompt, and saves the resulting token.
func DeviceCodeFlow(ctx context.Context, clientID string, prompt io.Writer) (*Token, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%s is not set — register an Azure AD app and set azure.client_id or this environment variable\nSee: rosterfmt auth --help", ClientIDEnv)
	}

	var dcResp deviceCodeResponse
	if err := postForm(ctx, "/devicecode", url.Values{
		"client_id": {clientID},
		"scope":     {defaultScopes},
	}, &dcResp); err != nil {
		return nil, fmt.Errorf("device code request failed: %w", err)
	}

	fmt.Fprintf(prompt, "Open %s and enter code: %s\n", dcResp.VerificationURI, dcResp.UserCode)
	fmt.Fprintln(prompt, "Waiting for authorization...")

	interval := pollInterval
	if dcResp.Interval > 0 {
		interval = time.Duration(dcResp.Interval) * time.Second
	}

	deadline := time.Now().Add(deviceTimeout)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("device code authorization timed out — run: rosterfmt auth login to try again")
		}

		token, err := pollToken(ctx, clientID, dcResp.DeviceCode)
		switch {
		case errors.Is(err, errAuthorizationPending):
			continue
		case errors.Is(err, errSlowDown):
			interval += 5 * time.Second
			continue
		case err != nil:
			return nil, err
		}

		if err := SaveToken(token); err != nil {
			return nil, fmt.Errorf("authenticated but could not save token: %w", err)
		}
		return token, nil
	}
}

func pollToken(ctx context.Context, clientID, deviceCode string) (*Token, error) {
	var tr tokenResponse
	if err := postForm(ctx, "/token", url.Values{
		"client_id":   {clientID},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {deviceCode},
	}, &tr); err != nil {
		return nil, fmt.Errorf("token poll failed: %w", err)
	}

	switch tr.Error {
	case "":
		return tr.token(), nil
	case "authorization_pending":
		return nil, errAuthorizationPending
	case "slow_down":
		return nil, errSlowDown
	case "expired_token":
		return nil, fmt.Errorf("authorization code expired — run: rosterfmt auth login to try again")
	default:
		return nil, fmt.Errorf("authentication failed: %s — %s", tr.Error, tr.ErrorDesc)
	}
}

// RefreshIfNeeded refreshes the token if it expires within 5 minutes.
func RefreshIfNeeded(ctx context.Context, t *Token, clientID string) (*Token, error) {
	if !t.NeedsRefresh() {
		return t, nil
	}
	if t.RefreshToken == "" {
		return nil, fmt.Errorf("token expired and no refresh token available — run: rosterfmt auth login")
	}

	log.Debug().Dur("expires_in", t.ExpiresIn()).Msg("refreshing access token")

	var tr tokenResponse
	if err := postForm(ctx, "/token", url.Values{
		"client_id":     {clientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {t.RefreshToken},
		"scope":         {defaultScopes},
	}, &tr); err != nil {
		return nil, fmt.Errorf("token refresh request failed: %w", err)
	}
	if tr.Error != "" {
		return nil, fmt.Errorf("token refresh failed: %s — run: rosterfmt auth login", tr.ErrorDesc)
	}

	newToken := tr.token()
	if newToken.RefreshToken == "" {
		newToken.RefreshToken = t.RefreshToken
	}
	if err := SaveToken(newToken); err != nil {
		return nil, fmt.Errorf("refreshed but could not save token: %w", err)
	}
	return newToken, nil
}

// postForm posts to the authority endpoint and decodes the JSON reply. OAuth
// errors come back as 400 with an error body, so only undecodable replies fail here.
func postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "POST", authorityBase+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not contact Microsoft login service: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unexpected response (HTTP %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// tokenPath returns ~/.rosterfmt/token.json.
func tokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rosterfmt", tokenFileName), nil
}

// TokenPathOverride allows tests to override the token path.
var TokenPathOverride string

// TokenPath returns the resolved token file location.
func TokenPath() (string, error) {
	if TokenPathOverride != "" {
		return TokenPathOverride, nil
	}
	return tokenPath()
}

// LoadToken loads the saved token.
func LoadToken() (*Token, error) {
	path, err := TokenPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not authenticated — run: rosterfmt auth login")
		}
		return nil, fmt.Errorf("could not read token file: %w", err)
	}

	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("token file is corrupted — run: rosterfmt auth login")
	}
	return &t, nil
}

// SaveToken persists the token with 0600 permissions.
func SaveToken(t *Token) error {
	path, err := TokenPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("could not write token file: %w", err)
	}
	return nil
}

// DeleteToken removes the token file.
func DeleteToken() error {
	path, err := TokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete token: %w", err)
	}
	return nil
}

// WhoAmI returns the display name and email of the authenticated user.
func WhoAmI(ctx context.Context, client *http.Client) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", graphBaseURL+"/me", nil)
	if err != nil {
		return "", "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("Graph API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("Graph API returned %d: %s", resp.StatusCode, string(body))
	}

	var user struct {
		DisplayName       string `json:"displayName"`
		UserPrincipalName string `json:"userPrincipalName"`
		Mail              string `json:"mail"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return "", "", fmt.Errorf("could not parse user info: %w", err)
	}

	email := user.Mail
	if email == "" {
		email = user.UserPrincipalName
	}
	return user.DisplayName, email, nil
}

// Scopes returns the OAuth scopes as a display-friendly slice.
func Scopes() []string {
	return strings.Split(defaultScopes, " ")
}
