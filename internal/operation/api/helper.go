package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/tombee/conductor-ntfy/internal/jq"
	"github.com/tombee/conductor-ntfy/internal/log"
	"github.com/tombee/conductor-ntfy/internal/operation"
	"github.com/tombee/conductor-ntfy/internal/operation/transport"
	"github.com/tombee/conductor-ntfy/pkg/httpclient"
)

// BaseProvider provides common functionality for API integrations.
type BaseProvider struct {
	name        string
	transport   transport.Transport
	logger      *slog.Logger
	transformer *jq.Transformer
}

// NewBaseProvider creates a new base provider.
func NewBaseProvider(name string, config *ProviderConfig) *BaseProvider {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transformer := config.Transformer
	if transformer == nil {
		transformer = jq.NewTransformer(0, 0)
	}
	return &BaseProvider{
		name:        name,
		transport:   config.Transport,
		logger:      log.WithComponent(logger, name),
		transformer: transformer,
	}
}

// Name returns the integration identifier.
func (c *BaseProvider) Name() string {
	return c.name
}

// Logger returns the integration logger.
func (c *BaseProvider) Logger() *slog.Logger {
	return c.logger
}

// ExecuteRequest sends a fully built request and records its metrics.
func (c *BaseProvider) ExecuteRequest(ctx context.Context, op string, req *transport.Request) (*transport.Response, error) {
	if c.logger.Enabled(ctx, log.LevelTrace) {
		dump := redactRequest(req)
		log.Trace(log.WithOperation(c.logger, c.name, op), "sending request",
			slog.String("method", dump.Method),
			slog.String("url", httpclient.SanitizeURL(dump.FullURL())),
			slog.Any("headers", dump.Headers),
			slog.Int("body_bytes", len(dump.Body)),
		)
	}

	start := time.Now()
	resp, err := c.transport.Execute(ctx, req)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	var te *transport.TransportError
	if errors.As(err, &te) {
		status = te.StatusCode
	}
	operation.RecordRequest(c.name, op, status, duration)

	log.WithOperation(c.logger, c.name, op).Debug("request completed",
		slog.String("method", req.Method),
		slog.Int("status", status),
		slog.Int64(log.DurationKey, duration.Milliseconds()),
	)

	return resp, err
}

// redactRequest returns a copy of req with credentials replaced, for logging.
func redactRequest(req *transport.Request) *transport.Request {
	dump := req.Clone()
	for name, value := range dump.Headers {
		if strings.EqualFold(name, "Authorization") {
			dump.Headers[name] = log.SanitizeSecret(value)
		}
	}
	if dump.Auth != nil {
		dump.Auth.Password = log.SanitizeSecret(dump.Auth.Password)
	}
	return dump
}

// ParseJSONResponse parses a JSON response into a target struct.
func (c *BaseProvider) ParseJSONResponse(resp *transport.Response, target interface{}) error {
	if len(resp.Body) == 0 {
		return nil
	}

	return json.Unmarshal(resp.Body, target)
}

// Transform applies a jq expression to response data. An empty expression
// returns the data unchanged.
func (c *BaseProvider) Transform(ctx context.Context, expr string, data interface{}) (interface{}, error) {
	if expr == "" {
		return data, nil
	}
	out, err := c.transformer.Apply(ctx, expr, data)
	if err != nil {
		return nil, operation.NewTransformError(expr, err)
	}
	return out, nil
}

// ToResult converts a transport response to an operation result.
func (c *BaseProvider) ToResult(resp *transport.Response, response interface{}) *operation.Result {
	metadata := make(map[string]interface{}, len(resp.Metadata))
	for k, v := range resp.Metadata {
		metadata[k] = v
	}
	return &operation.Result{
		Response:    response,
		RawResponse: resp.Body,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Headers,
		Metadata:    metadata,
	}
}
