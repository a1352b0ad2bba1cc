package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tombee/conductor-ntfy/pkg/httpclient"
)

// DefaultMaxResponseBytes caps how much of a response body is read.
const DefaultMaxResponseBytes = 1 << 20

// HTTPTransport implements Transport for HTTP/HTTPS requests.
type HTTPTransport struct {
	client           *http.Client
	rateLimiter      RateLimiter
	maxResponseBytes int64
}

// HTTPTransportConfig configures the HTTP transport.
type HTTPTransportConfig struct {
	// Client configures the underlying HTTP client (timeout, user agent, TLS).
	Client httpclient.Config

	// MaxResponseBytes caps the response body size (default: 1MB).
	MaxResponseBytes int64
}

// NewHTTPTransport creates a new HTTP transport with the given configuration.
func NewHTTPTransport(config HTTPTransportConfig) (*HTTPTransport, error) {
	client, err := httpclient.New(config.Client)
	if err != nil {
		return nil, fmt.Errorf("invalid http client configuration: %w", err)
	}

	maxBytes := config.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}

	return &HTTPTransport{
		client:           client,
		maxResponseBytes: maxBytes,
	}, nil
}

// Name returns "http".
func (t *HTTPTransport) Name() string {
	return "http"
}

// SetRateLimiter configures rate limiting for this transport.
func (t *HTTPTransport) SetRateLimiter(limiter RateLimiter) {
	t.rateLimiter = limiter
}

// Execute sends an HTTP request and returns the response. Non-2xx responses
// are returned as *TransportError carrying the response body.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: fmt.Sprintf("invalid request: %s", err.Error()),
			Cause:   err,
		}
	}

	var waited time.Duration
	if t.rateLimiter != nil {
		start := time.Now()
		if err := t.rateLimiter.Wait(ctx); err != nil {
			return nil, &TransportError{
				Type:    ErrorTypeCancelled,
				Message: "rate limit wait cancelled",
				Cause:   err,
			}
		}
		waited = time.Since(start)
	}

	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: fmt.Sprintf("failed to build HTTP request: %s", err.Error()),
			Cause:   err,
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyHTTPError(ctx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, t.maxResponseBytes))
	if err != nil {
		return nil, &TransportError{
			Type:       ErrorTypeConnection,
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("failed to read response body: %s", err.Error()),
			Cause:      err,
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Metadata:   make(map[string]interface{}),
	}
	if requestID := httpResp.Header.Get("X-Request-ID"); requestID != "" {
		resp.Metadata[MetadataRequestID] = requestID
	}
	if waited > 0 {
		resp.Metadata[MetadataRateLimitWait] = waited
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, classifyHTTPStatusError(httpResp, body)
	}

	return resp, nil
}

func validateRequest(req *Request) error {
	if req == nil {
		return errors.New("request is nil")
	}
	if req.Method == "" {
		return errors.New("method is required")
	}

	switch req.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
		http.MethodPatch, http.MethodHead, http.MethodOptions:
	default:
		return fmt.Errorf("invalid HTTP method: %q", req.Method)
	}

	full := req.FullURL()
	if full == "" {
		return errors.New("URL is required")
	}
	u, err := url.Parse(full)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL must include host")
	}

	return nil
}

// buildHTTPRequest converts a Request into an *http.Request. Header names
// and values are sent as given; basic-auth credentials are encoded last.
func buildHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.FullURL(), bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if req.Auth != nil {
		httpReq.SetBasicAuth(req.Auth.Username, req.Auth.Password)
	}

	return httpReq, nil
}

func classifyHTTPError(ctx context.Context, err error) *TransportError {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &TransportError{
			Type:    ErrorTypeCancelled,
			Message: "request cancelled",
			Cause:   err,
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TransportError{
			Type:    ErrorTypeTimeout,
			Message: "request timeout",
			Cause:   err,
		}
	}

	// url.Error includes the full URL, which may carry ?auth=.
	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		msg = urlErr.Err.Error()
	}

	return &TransportError{
		Type:    ErrorTypeConnection,
		Message: fmt.Sprintf("connection error: %s", msg),
		Cause:   err,
	}
}

func classifyHTTPStatusError(resp *http.Response, body []byte) *TransportError {
	message := fmt.Sprintf("HTTP %d", resp.StatusCode)
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" && len(trimmed) < 500 {
		message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, trimmed)
	}

	return &TransportError{
		Type:       errorTypeForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Message:    message,
		RequestID:  resp.Header.Get("X-Request-ID"),
		Body:       body,
	}
}
