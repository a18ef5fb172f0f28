package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func useTempToken(t *testing.T) string {
	t.Helper()
	TokenPathOverride = filepath.Join(t.TempDir(), "token.json")
	t.Cleanup(func() { TokenPathOverride = "" })
	return TokenPathOverride
}

func useAuthority(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	old := authorityBase
	authorityBase = server.URL
	t.Cleanup(func() {
		authorityBase = old
		server.Close()
	})
}

func TestLoadTokenMissingFile(t *testing.T) {
	useTempToken(t)

	_, err := LoadToken()
	if err == nil {
		t.Fatal("expected error when token file missing")
	}
	if !strings.Contains(err.Error(), "not authenticated") {
		t.Errorf("expected helpful error, got: %s", err.Error())
	}
}

func TestSaveAndLoadToken(t *testing.T) {
	path := useTempToken(t)

	token := &Token{
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
		ExpiresAt:    time.Now().Add(1 * time.Hour),
		TokenType:    "Bearer",
	}

	if err := SaveToken(token); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("could not stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}

	loaded, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if loaded.AccessToken != "test-access-token" {
		t.Errorf("access token mismatch: %q", loaded.AccessToken)
	}
	if loaded.RefreshToken != "test-refresh-token" {
		t.Errorf("refresh token mismatch: %q", loaded.RefreshToken)
	}
}

func TestLoadTokenCorrupted(t *testing.T) {
	path := useTempToken(t)
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadToken()
	if err == nil || !strings.Contains(err.Error(), "corrupted") {
		t.Errorf("expected corrupted token error, got %v", err)
	}
}

func TestTokenIsExpired(t *testing.T) {
	expired := &Token{ExpiresAt: time.Now().Add(-1 * time.Hour)}
	if !expired.IsExpired() {
		t.Error("expected expired token to report IsExpired=true")
	}

	valid := &Token{ExpiresAt: time.Now().Add(1 * time.Hour)}
	if valid.IsExpired() {
		t.Error("expected valid token to report IsExpired=false")
	}
}

func TestTokenNeedsRefresh(t *testing.T) {
	soon := &Token{ExpiresAt: time.Now().Add(3 * time.Minute)}
	if !soon.NeedsRefresh() {
		t.Error("expected token expiring in 3 min to need refresh")
	}

	later := &Token{ExpiresAt: time.Now().Add(10 * time.Minute)}
	if later.NeedsRefresh() {
		t.Error("expected token expiring in 10 min to NOT need refresh")
	}
}

func TestRefreshIfNeededSkipsWhenValid(t *testing.T) {
	token := &Token{
		AccessToken:  "still-valid",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	}

	result, err := RefreshIfNeeded(context.Background(), token, "test-client-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AccessToken != "still-valid" {
		t.Errorf("expected original token, got %q", result.AccessToken)
	}
}

func TestRefreshIfNeededExchangesToken(t *testing.T) {
	useTempToken(t)
	var form string
	useAuthority(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form = string(body)
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh",
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
	})

	old := &Token{AccessToken: "stale", RefreshToken: "keep-me", ExpiresAt: time.Now().Add(time.Minute)}
	fresh, err := RefreshIfNeeded(context.Background(), old, "client-1")
	if err != nil {
		t.Fatal(err)
	}
	if fresh.AccessToken != "fresh" {
		t.Errorf("expected refreshed token, got %q", fresh.AccessToken)
	}
	if fresh.RefreshToken != "keep-me" {
		t.Errorf("expected refresh token to carry over, got %q", fresh.RefreshToken)
	}
	if !strings.Contains(form, "grant_type=refresh_token") || !strings.Contains(form, "Mail.ReadWrite") {
		t.Errorf("unexpected refresh form: %s", form)
	}

	saved, err := LoadToken()
	if err != nil {
		t.Fatal(err)
	}
	if saved.AccessToken != "fresh" {
		t.Errorf("expected refreshed token on disk, got %q", saved.AccessToken)
	}
}

func TestRefreshIfNeededError(t *testing.T) {
	useTempToken(t)
	useAuthority(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant", "error_description": "revoked"})
	})

	old := &Token{RefreshToken: "r", ExpiresAt: time.Now()}
	_, err := RefreshIfNeeded(context.Background(), old, "client-1")
	if err == nil || !strings.Contains(err.Error(), "revoked") {
		t.Errorf("expected refresh failure, got %v", err)
	}
}

func TestPollTokenPending(t *testing.T) {
	useAuthority(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": "authorization_pending"})
	})

	_, err := pollToken(context.Background(), "client-1", "dev")
	if err != errAuthorizationPending {
		t.Errorf("expected errAuthorizationPending, got %v", err)
	}
}

func TestDeleteToken(t *testing.T) {
	path := useTempToken(t)

	if err := SaveToken(&Token{AccessToken: "x", ExpiresAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected token file to be deleted")
	}
}

func TestDeleteTokenNonExistent(t *testing.T) {
	useTempToken(t)

	if err := DeleteToken(); err != nil {
		t.Errorf("DeleteToken on nonexistent file should not error: %v", err)
	}
}

func TestRequireAuthNoToken(t *testing.T) {
	useTempToken(t)

	_, err := RequireAuth(context.Background(), "client-1")
	if err == nil {
		t.Fatal("expected error when no token")
	}
	if !strings.Contains(err.Error(), "not authenticated") {
		t.Errorf("expected helpful error, got: %s", err.Error())
	}
}

func TestRequireAuthNoClientID(t *testing.T) {
	useTempToken(t)
	if err := SaveToken(&Token{AccessToken: "test", ExpiresAt: time.Now().Add(1 * time.Hour)}); err != nil {
		t.Fatal(err)
	}

	_, err := RequireAuth(context.Background(), "")
	if err == nil {
		t.Fatal("expected error when no client ID")
	}
	if !strings.Contains(err.Error(), ClientIDEnv) {
		t.Errorf("expected client ID error, got: %s", err.Error())
	}
}

func TestRequireAuthSignsRequests(t *testing.T) {
	useTempToken(t)
	if err := SaveToken(&Token{AccessToken: "abc", ExpiresAt: time.Now().Add(1 * time.Hour)}); err != nil {
		t.Fatal(err)
	}

	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer server.Close()

	client, err := RequireAuth(context.Background(), "client-1")
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got != "Bearer abc" {
		t.Errorf("expected bearer header, got %q", got)
	}
}

func TestDeviceCodeFlowNoClientID(t *testing.T) {
	_, err := DeviceCodeFlow(context.Background(), "", io.Discard)
	if err == nil {
		t.Fatal("expected error with empty client ID")
	}
	if !strings.Contains(err.Error(), ClientIDEnv) {
		t.Errorf("expected helpful error, got: %s", err.Error())
	}
}

func TestScopes(t *testing.T) {
	scopes := Scopes()
	if len(scopes) != 3 || scopes[0] != "Mail.ReadWrite" {
		t.Errorf("unexpected scopes: %v", scopes)
	}
}
