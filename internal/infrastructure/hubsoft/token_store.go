package hubsoft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenSkew is the safety margin subtracted from a token's expiry so
// renewal happens before hard expiration.
const TokenSkew = 300 * time.Second

// Token is the cached access/refresh token pair.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the token can still be used at the given instant.
func (t *Token) Valid(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return now.Add(TokenSkew).Before(t.ExpiresAt)
}

// TokenStore is the durable cache of the current token. Load returns
// (nil, nil) when no usable cache exists; absence and parse failure are
// equivalent.
type TokenStore interface {
	Load(ctx context.Context) (*Token, error)
	Save(ctx context.Context, token *Token) error
	Delete(ctx context.Context) error
}

// NewTokenStore builds the token store selected by the configuration.
func NewTokenStore(cfg *Config, redisClient *redis.Client) (TokenStore, error) {
	switch cfg.TokenStore {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("%w: redis store selected without a redis client", ErrConfigUnknownTokenStore)
		}
		return NewRedisTokenStore(redisClient), nil
	case "file":
		return NewFileTokenStore(cfg.TokenFile), nil
	default:
		return nil, ErrConfigUnknownTokenStore
	}
}

// ---------------------------------------------------------------------------
// File store
// ---------------------------------------------------------------------------

// FileTokenStore caches the token as a JSON file.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a file-backed token store at the given path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Load(_ context.Context) (*Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("hubsoft: failed to read token cache: %w", err)
	}
	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		// A corrupt cache is the same as no cache.
		return nil, nil
	}
	return &token, nil
}

func (s *FileTokenStore) Save(_ context.Context, token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("hubsoft: failed to encode token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("hubsoft: failed to write token cache: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("hubsoft: failed to remove token cache: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Redis store
// ---------------------------------------------------------------------------

const redisTokenKey = "hubsoft:oauth_token"

// RedisTokenStore caches the token under a single Redis key, letting
// replicas share one grant.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a Redis-backed token store.
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Load(ctx context.Context) (*Token, error) {
	data, err := s.client.Get(ctx, redisTokenKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("hubsoft: failed to read token cache: %w", err)
	}
	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, nil
	}
	return &token, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("hubsoft: failed to encode token: %w", err)
	}
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.client.Set(ctx, redisTokenKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("hubsoft: failed to write token cache: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, redisTokenKey).Err(); err != nil {
		return fmt.Errorf("hubsoft: failed to remove token cache: %w", err)
	}
	return nil
}
