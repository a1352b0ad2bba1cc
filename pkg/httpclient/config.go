package httpclient

import (
	"fmt"
	"time"
)

// DefaultUserAgent is sent when Config.UserAgent is left empty by callers
// that start from DefaultConfig.
const DefaultUserAgent = "conductor-ntfy/1.0"

// Config configures the HTTP client.
type Config struct {
	// Timeout is the total request timeout.
	// Default: 30s. Must be > 0.
	Timeout time.Duration

	// UserAgent is the User-Agent header value.
	// Required. Must be non-empty.
	UserAgent string

	// TLSInsecure disables certificate verification. Only meant for
	// self-hosted ntfy instances with self-signed certificates.
	TLSInsecure bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		UserAgent: DefaultUserAgent,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user_agent is required and must be non-empty")
	}

	return nil
}
