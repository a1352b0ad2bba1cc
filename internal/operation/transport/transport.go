// Package transport provides the request model integrations build and the
// transport that sends it.
//
// Integrations assemble a *Request (method, base URL, path, headers, body,
// optional basic-auth credentials), pass it through their request-mutation
// and authentication callbacks, then hand it to a Transport. The transport
// owns protocol concerns: URL joining, header application, rate limiting and
// error classification.
package transport

import (
	"context"
	"maps"
)

// Transport executes requests with protocol-specific handling.
type Transport interface {
	// Execute sends a request and returns a response.
	// The context controls cancellation and deadlines.
	// Returns *TransportError on failure, including non-2xx responses.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// Name returns the transport identifier (e.g., "http").
	Name() string

	// SetRateLimiter configures rate limiting for this transport.
	// Rate limiting occurs before request execution.
	SetRateLimiter(limiter RateLimiter)
}

// BasicAuth holds transport-level basic-auth credentials. The transport
// encodes them into the Authorization header when the request is sent.
type BasicAuth struct {
	Username string
	Password string
}

// Request represents a pending request.
type Request struct {
	// Method is the HTTP method (GET, POST, ...). Required.
	Method string

	// BaseURL is the root of the target service, without a trailing slash.
	BaseURL string

	// URL is the path (and optional query) appended verbatim to BaseURL.
	// When BaseURL is empty, URL must be absolute.
	URL string

	// Headers are request headers. May be nil.
	Headers map[string]string

	// Body is the request body. May be nil.
	Body []byte

	// Auth carries basic-auth credentials. Nil means none.
	Auth *BasicAuth

	// Metadata contains transport-specific data.
	Metadata map[string]interface{}
}

// FullURL returns the URL the request is sent to.
func (r *Request) FullURL() string {
	return r.BaseURL + r.URL
}

// Clone returns a copy whose maps and body can be mutated independently.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	if r.Headers != nil {
		c.Headers = maps.Clone(r.Headers)
	}
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	if r.Auth != nil {
		auth := *r.Auth
		c.Auth = &auth
	}
	if r.Metadata != nil {
		c.Metadata = maps.Clone(r.Metadata)
	}
	return &c
}

// Response represents a transport-agnostic response.
type Response struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Headers contains response headers
	Headers map[string][]string

	// Body is the response body
	Body []byte

	// Metadata contains transport-specific data (e.g., request ID)
	Metadata map[string]interface{}
}

// Standard metadata keys used across transports.
const (
	// MetadataRequestID is the service request ID
	MetadataRequestID = "request_id"

	// MetadataRateLimitWait is the time spent waiting on the rate limiter
	MetadataRateLimitWait = "rate_limit_wait"
)

// RateLimiter provides rate limiting for transport requests.
// Implementations block until a request is allowed.
type RateLimiter interface {
	// Wait blocks until a request is allowed under the rate limit.
	// Returns an error if the context is cancelled first.
	Wait(ctx context.Context) error
}
