// Package httpclient provides the HTTP client factory used by the ntfy
// transport.
//
// Clients created by New carry:
//   - Request logging with sanitized URLs (auth query parameters redacted)
//   - User-Agent header injection
//   - Correlation ID propagation (X-Correlation-ID)
//   - TLS 1.2 minimum
//
// # Usage
//
//	cfg := httpclient.DefaultConfig()
//	cfg.Timeout = 10 * time.Second
//	client, err := httpclient.New(cfg)
//	if err != nil {
//	    return err
//	}
//
// # Retries
//
// Clients never retry. Publishing is not idempotent on ntfy: a retried POST
// delivers the notification twice. Callers that want retries must wrap the
// transport themselves.
//
// # Observability
//
// Requests are logged via log/slog at debug level on success and warn level
// on failure or a 4xx/5xx status. Fields: method, url (sanitized), status,
// duration_ms, error.
package httpclient
