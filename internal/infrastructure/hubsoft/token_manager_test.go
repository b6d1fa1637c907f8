package hubsoft

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/posvenda/backend/internal/domain/serviceorder"
)

func testConfig(t *testing.T, baseURL string) *Config {
	t.Helper()
	cfg := &Config{
		BaseURL:      baseURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Username:     "integration@example.com",
		Password:     "secret",
		TokenFile:    filepath.Join(t.TempDir(), "token.json"),
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func grantHandler(t *testing.T, counter *atomic.Int64, accessToken string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  accessToken,
			"refresh_token": "refresh-" + accessToken,
			"expires_in":    3600,
		})
	}
}

func TestTokenManagerReusesValidCachedToken(t *testing.T) {
	var grants atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		grantHandler(t, &grants, "fresh")(w, r)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	store := NewFileTokenStore(cfg.TokenFile)
	require.NoError(t, store.Save(context.Background(), &Token{
		AccessToken: "cached",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	manager := NewTokenManager(cfg, store, zap.NewNop())

	token, err := manager.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", token)
	assert.Equal(t, int64(0), grants.Load(), "a valid cached token must not trigger a grant")
}

func TestTokenManagerIgnoresTokenInsideSkewWindow(t *testing.T) {
	var grants atomic.Int64
	server := httptest.NewServer(grantHandler(t, &grants, "fresh"))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	store := NewFileTokenStore(cfg.TokenFile)
	// Expires in one minute, well inside the five minute safety skew.
	require.NoError(t, store.Save(context.Background(), &Token{
		AccessToken: "nearly-expired",
		ExpiresAt:   time.Now().Add(time.Minute),
	}))

	manager := NewTokenManager(cfg, store, zap.NewNop())

	token, err := manager.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, int64(1), grants.Load())
}

func TestTokenManagerRefreshGrant(t *testing.T) {
	var grantTypes []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		grantTypes = append(grantTypes, payload["grant_type"])
		assert.Equal(t, "old-refresh", payload["refresh_token"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "refreshed",
			"refresh_token": "new-refresh",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	store := NewFileTokenStore(cfg.TokenFile)
	require.NoError(t, store.Save(context.Background(), &Token{
		AccessToken:  "expired",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}))

	manager := NewTokenManager(cfg, store, zap.NewNop())

	token, err := manager.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed", token)
	assert.Equal(t, []string{"refresh_token"}, grantTypes)

	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, "new-refresh", persisted.RefreshToken)
}

func TestTokenManagerFallsBackToPasswordGrant(t *testing.T) {
	var grantTypes []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		grantTypes = append(grantTypes, payload["grant_type"])

		if payload["grant_type"] == "refresh_token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "from-password",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	store := NewFileTokenStore(cfg.TokenFile)
	require.NoError(t, store.Save(context.Background(), &Token{
		AccessToken:  "expired",
		RefreshToken: "stale-refresh",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}))

	manager := NewTokenManager(cfg, store, zap.NewNop())

	token, err := manager.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-password", token)
	assert.Equal(t, []string{"refresh_token", "password"}, grantTypes)
}

func TestTokenManagerGrantFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	manager := NewTokenManager(cfg, NewFileTokenStore(cfg.TokenFile), zap.NewNop())

	_, err := manager.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, serviceorder.ErrAuthFailed))
}

func TestFileTokenStoreCorruptCacheActsAsMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileTokenStore(path)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	token, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, token)
}

func TestTokenValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token *Token
		want  bool
	}{
		{"nil token", nil, false},
		{"empty access token", &Token{ExpiresAt: now.Add(time.Hour)}, false},
		{"expired", &Token{AccessToken: "t", ExpiresAt: now.Add(-time.Minute)}, false},
		{"inside skew", &Token{AccessToken: "t", ExpiresAt: now.Add(4 * time.Minute)}, false},
		{"valid", &Token{AccessToken: "t", ExpiresAt: now.Add(time.Hour)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.Valid(now))
		})
	}
}
