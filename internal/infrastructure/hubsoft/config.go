package hubsoft

import (
	"errors"
	"strings"
)

// Config holds configuration for the Hubsoft integration API.
type Config struct {
	// BaseURL is the Hubsoft instance URL, e.g. https://isp.hubsoft.com.br
	BaseURL string
	// ClientID and ClientSecret identify this integration application
	ClientID     string
	ClientSecret string
	// Username and Password are the integration user credentials used for
	// the password grant
	Username string
	Password string
	// TokenStore selects where the token cache lives: "file" or "redis"
	TokenStore string
	// TokenFile is the cache location for the file token store
	TokenFile string
	// GrantTimeoutSeconds is the timeout for oauth/token calls
	GrantTimeoutSeconds int
	// RequestTimeoutSeconds is the timeout for listing/detail/lookup calls
	RequestTimeoutSeconds int
}

// Errors for Hubsoft configuration
var (
	ErrConfigMissingBaseURL      = errors.New("hubsoft: base URL is required")
	ErrConfigMissingClientID     = errors.New("hubsoft: client id is required")
	ErrConfigMissingClientSecret = errors.New("hubsoft: client secret is required")
	ErrConfigMissingCredentials  = errors.New("hubsoft: username and password are required")
	ErrConfigUnknownTokenStore   = errors.New("hubsoft: unknown token store")
)

// Validate validates the configuration and fills defaults.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if c.Username == "" || c.Password == "" {
		return ErrConfigMissingCredentials
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.TokenStore == "" {
		c.TokenStore = "file"
	}
	if c.TokenStore != "file" && c.TokenStore != "redis" {
		return ErrConfigUnknownTokenStore
	}
	if c.TokenFile == "" {
		c.TokenFile = ".cache_hubsoft_token.json"
	}
	if c.GrantTimeoutSeconds <= 0 {
		c.GrantTimeoutSeconds = 30
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 60
	}
	return nil
}
