package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"sift_server/pkg/apperr"
)

func writeToken(t *testing.T, dir string, token *oauth2.Token) string {
	t.Helper()
	data, err := json.Marshal(token)
	if err != nil {
		t.Fatalf("marshal token: %v", err)
	}
	path := filepath.Join(dir, "token.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	return path
}

func TestTokenMissingFile(t *testing.T) {
	p := NewTokenProvider(Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenFile:    filepath.Join(t.TempDir(), "nope.json"),
	})

	_, err := p.Token(context.Background())
	if !apperr.IsAuth(err) {
		t.Fatalf("expected AUTH_ERROR, got %v", err)
	}
}

func TestTokenMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	p := NewTokenProvider(Config{ClientID: "id", ClientSecret: "secret", TokenFile: path})
	_, err := p.Token(context.Background())
	if !apperr.IsAuth(err) {
		t.Fatalf("expected AUTH_ERROR, got %v", err)
	}
}

func TestTokenValidCredential(t *testing.T) {
	dir := t.TempDir()
	path := writeToken(t, dir, &oauth2.Token{
		AccessToken: "valid",
		Expiry:      time.Now().Add(time.Hour),
	})

	p := NewTokenProvider(Config{ClientID: "id", ClientSecret: "secret", TokenFile: path})
	token, err := p.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.AccessToken != "valid" {
		t.Errorf("expected access token 'valid', got %q", token.AccessToken)
	}

	// Second call uses the cached credential without re-reading the file.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := p.Token(context.Background()); err != nil {
		t.Errorf("expected cached credential, got %v", err)
	}
}

func TestTokenExpiredWithoutRefreshToken(t *testing.T) {
	dir := t.TempDir()
	path := writeToken(t, dir, &oauth2.Token{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Hour),
	})

	p := NewTokenProvider(Config{ClientID: "id", ClientSecret: "secret", TokenFile: path})
	_, err := p.Token(context.Background())
	if !apperr.IsAuth(err) {
		t.Fatalf("expected AUTH_ERROR for expired credential without refresh token, got %v", err)
	}
}

func TestTokenExpiredWithoutClientConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeToken(t, dir, &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	})

	p := NewTokenProvider(Config{TokenFile: path})
	_, err := p.Token(context.Background())
	if !apperr.IsAuth(err) {
		t.Fatalf("expected AUTH_ERROR without OAuth client config, got %v", err)
	}
}
