package hubsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/posvenda/backend/internal/domain/serviceorder"
)

// TokenManager owns acquisition, validation, and renewal of the Hubsoft
// access token. A single mutex serializes the acquisition path so
// concurrent callers never race two grant requests.
type TokenManager struct {
	config     *Config
	store      TokenStore
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	mu sync.Mutex
}

// NewTokenManager creates a TokenManager backed by the given store.
func NewTokenManager(cfg *Config, store TokenStore, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		config: cfg,
		store:  store,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.GrantTimeoutSeconds) * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Acquire returns a usable access token, reusing the cache when it is still
// valid, refreshing when possible, and falling back to a password grant.
func (m *TokenManager) Acquire(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cached, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("failed to load token cache", zap.Error(err))
	}
	if cached.Valid(m.now()) {
		return cached.AccessToken, nil
	}

	if cached != nil && cached.RefreshToken != "" {
		refreshed, err := m.refreshGrant(ctx, cached.RefreshToken)
		if err == nil {
			m.persist(ctx, refreshed)
			return refreshed.AccessToken, nil
		}
		// Refresh failure is not fatal; fall through to the password grant.
		m.logger.Warn("hubsoft token refresh failed, falling back to password grant", zap.Error(err))
	}

	fresh, err := m.passwordGrant(ctx)
	if err != nil {
		return "", err
	}
	m.persist(ctx, fresh)
	return fresh.AccessToken, nil
}

// Invalidate deletes the durable cache, forcing the next Acquire to
// re-authenticate. Used by callers that observe a 401 on a protected call.
func (m *TokenManager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Delete(ctx)
}

func (m *TokenManager) persist(ctx context.Context, token *Token) {
	if err := m.store.Save(ctx, token); err != nil {
		// A broken cache only costs an extra grant on the next run.
		m.logger.Warn("failed to persist hubsoft token", zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
// Grants
// ---------------------------------------------------------------------------

type grantResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (m *TokenManager) passwordGrant(ctx context.Context) (*Token, error) {
	m.logger.Info("requesting hubsoft token via password grant")
	return m.grant(ctx, map[string]string{
		"client_id":     m.config.ClientID,
		"client_secret": m.config.ClientSecret,
		"username":      m.config.Username,
		"password":      m.config.Password,
		"grant_type":    "password",
	})
}

func (m *TokenManager) refreshGrant(ctx context.Context, refreshToken string) (*Token, error) {
	m.logger.Info("refreshing hubsoft token")
	return m.grant(ctx, map[string]string{
		"client_id":     m.config.ClientID,
		"client_secret": m.config.ClientSecret,
		"refresh_token": refreshToken,
		"grant_type":    "refresh_token",
	})
}

func (m *TokenManager) grant(ctx context.Context, payload map[string]string) (*Token, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("hubsoft: failed to encode grant payload: %w", err)
	}

	url := m.config.BaseURL + "/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("hubsoft: failed to create grant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", serviceorder.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("hubsoft: failed to read grant response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: grant returned HTTP %d: %s",
			serviceorder.ErrAuthFailed, resp.StatusCode, truncate(respBody, 256))
	}

	var grant grantResponse
	if err := json.Unmarshal(respBody, &grant); err != nil {
		return nil, fmt.Errorf("%w: unparseable grant response: %v", serviceorder.ErrInvalidResponse, err)
	}
	if grant.AccessToken == "" {
		return nil, fmt.Errorf("%w: grant response missing access_token", serviceorder.ErrInvalidResponse)
	}

	token := &Token{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    m.now().Add(time.Duration(grant.ExpiresIn) * time.Second),
	}
	m.logger.Info("hubsoft token obtained", zap.Time("expires_at", token.ExpiresAt))
	return token, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
