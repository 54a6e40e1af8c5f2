package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/clearcomms/linecheck/pkg/httpclient"
)

// expiryMargin is subtracted from the provider's expires_in so a token is
// never handed out moments before the provider rejects it.
const expiryMargin = 60 * time.Second

// TokenSourceConfig holds the OAuth client-credentials settings for one provider.
type TokenSourceConfig struct {
	AuthURL      string
	ClientID     string
	ClientSecret string
	Scope        string
}

// TokenSource caches a single bearer token per provider and refreshes it
// lazily via the OAuth client-credentials grant. The one piece of shared
// mutable state in the whole pipeline: the mutex is held across the refresh
// so concurrent callers block on one in-flight exchange instead of each
// issuing a redundant OAuth call.
type TokenSource struct {
	cfg    TokenSourceConfig
	client *httpclient.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	// now is swapped in tests to control expiry.
	now func() time.Time
}

// NewTokenSource creates a token source for one provider's auth endpoint.
func NewTokenSource(cfg TokenSourceConfig, client *httpclient.Client) *TokenSource {
	return &TokenSource{
		cfg:    cfg,
		client: client,
		now:    time.Now,
	}
}

// tokenResponse is the OAuth token endpoint's success body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token returns a bearer token, refreshing it first when the cached one is
// absent or within the expiry margin. Refresh failures surface as AuthError
// and leave the cache untouched.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}

	token, expiresIn, err := s.exchange(ctx)
	if err != nil {
		return "", err
	}

	s.token = token
	s.expiresAt = s.now().Add(time.Duration(expiresIn)*time.Second - expiryMargin)
	return s.token, nil
}

// exchange performs the client-credentials grant against the auth endpoint.
func (s *TokenSource) exchange(ctx context.Context) (string, int64, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	if s.cfg.Scope != "" {
		form.Set("scope", s.cfg.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.AuthURL, nil)
	if err != nil {
		return "", 0, &AuthError{Err: fmt.Errorf("create token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basicCredentials(s.cfg.ClientID, s.cfg.ClientSecret))
	encoded := form.Encode()
	req.Body = io.NopCloser(strings.NewReader(encoded))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(encoded)), nil
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return "", 0, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, &AuthError{Status: resp.StatusCode, Err: fmt.Errorf("read token response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, &AuthError{Status: resp.StatusCode, Body: string(body), Err: fmt.Errorf("decode token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return "", 0, &AuthError{Status: resp.StatusCode, Body: string(body), Err: fmt.Errorf("token response missing access_token")}
	}

	return tr.AccessToken, tr.ExpiresIn, nil
}

func basicCredentials(id, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(id + ":" + secret))
}
