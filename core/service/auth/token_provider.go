// Package auth manages the persisted Gmail credential.
package auth

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"sift_server/pkg/apperr"
	"sift_server/pkg/logger"
)

// TokenProvider loads a persisted credential, refreshes it when expired and
// writes the refreshed credential back for reuse. The credential is
// process-wide and lazily initialized; refresh is mutex-guarded so two
// concurrent runs never both attempt it.
//
// First-time interactive authorization is provisioning, not a service
// concern: the token file is expected to exist before the first run.
type TokenProvider struct {
	config    *oauth2.Config
	tokenFile string

	mu    sync.Mutex
	token *oauth2.Token
}

// Config holds credential sources. Client ID/secret may come from the
// environment or from a client-secret file used during first-time
// authorization.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	SecretsFile  string
}

// NewTokenProvider builds a provider. A missing OAuth client config is not
// fatal here; it surfaces as an AuthError when a refresh is first needed.
func NewTokenProvider(cfg Config) *TokenProvider {
	var oauthCfg *oauth2.Config

	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{gmail.GmailModifyScope},
			Endpoint:     google.Endpoint,
		}
	} else if cfg.SecretsFile != "" {
		if data, err := os.ReadFile(cfg.SecretsFile); err == nil {
			if parsed, err := google.ConfigFromJSON(data, gmail.GmailModifyScope); err == nil {
				oauthCfg = parsed
			} else {
				logger.Warn("invalid client-secret file %s: %v", cfg.SecretsFile, err)
			}
		}
	}

	if oauthCfg == nil {
		logger.Warn("no OAuth client configured; credential refresh will fail")
	}

	return &TokenProvider{
		config:    oauthCfg,
		tokenFile: cfg.TokenFile,
	}
}

// Token returns a valid credential, refreshing and re-persisting it if
// needed. It fails with an AuthError when no credential can be established.
func (p *TokenProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token == nil {
		token, err := p.load()
		if err != nil {
			return nil, err
		}
		p.token = token
	}

	if p.token.Valid() {
		return p.token, nil
	}

	if p.config == nil || p.token.RefreshToken == "" {
		return nil, apperr.Auth("credential expired and cannot be refreshed", nil)
	}

	refreshed, err := p.config.TokenSource(ctx, p.token).Token()
	if err != nil {
		return nil, apperr.Auth("credential refresh failed", err)
	}

	if refreshed.AccessToken != p.token.AccessToken {
		if err := p.persist(refreshed); err != nil {
			logger.WithError(err).Warn("failed to persist refreshed credential")
		}
	}
	p.token = refreshed

	return p.token, nil
}

// Client returns an HTTP client authenticated with the current credential.
func (p *TokenProvider) Client(ctx context.Context) (*http.Client, error) {
	token, err := p.Token(ctx)
	if err != nil {
		return nil, err
	}
	if p.config != nil {
		return p.config.Client(ctx, token), nil
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)), nil
}

func (p *TokenProvider) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(p.tokenFile)
	if err != nil {
		return nil, apperr.Auth("credential file missing", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, apperr.Auth("credential file is not valid JSON", err)
	}
	return &token, nil
}

func (p *TokenProvider) persist(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(p.tokenFile, data, 0600)
}
