package ntfy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/conductor-ntfy/internal/log"
	"github.com/tombee/conductor-ntfy/internal/operation"
	"github.com/tombee/conductor-ntfy/internal/operation/api"
	"github.com/tombee/conductor-ntfy/internal/operation/transport"
	"github.com/tombee/conductor-ntfy/internal/tracing"
	pkgerrors "github.com/tombee/conductor-ntfy/pkg/errors"
)

// Operation names.
const (
	OperationPublish         = "publish"
	OperationTestCredentials = "test_credentials"
)

// NtfyIntegration implements the Connector interface for ntfy.
type NtfyIntegration struct {
	*api.BaseProvider
	credential *Credential
}

// NewNtfyIntegration creates a new ntfy integration from decrypted
// credential data.
func NewNtfyIntegration(config *api.ProviderConfig) (operation.Connector, error) {
	if config == nil || config.Transport == nil {
		return nil, fmt.Errorf("transport is required for ntfy integration")
	}

	credential, err := ParseCredential(config.Credentials)
	if err != nil {
		return nil, err
	}
	if err := credential.Validate(); err != nil {
		return nil, err
	}

	return &NtfyIntegration{
		BaseProvider: api.NewBaseProvider("ntfy", config),
		credential:   credential,
	}, nil
}

// Credential returns the integration's decoded credential.
func (n *NtfyIntegration) Credential() *Credential {
	return n.credential
}

// Execute runs a named operation with the given inputs.
func (n *NtfyIntegration) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*operation.Result, error) {
	ctx, correlationID := tracing.Ensure(ctx)
	ctx, span := tracing.Tracer().Start(ctx, "ntfy."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ntfy.operation", op),
			attribute.String("ntfy.auth_type", string(n.credential.Auth.Type())),
			attribute.String("correlation_id", correlationID.String()),
		),
	)
	defer span.End()

	var (
		result *operation.Result
		err    error
	)
	switch op {
	case OperationPublish:
		result, err = n.publish(ctx, inputs)
	case OperationTestCredentials:
		result, err = n.testCredentials(ctx)
	default:
		err = &operation.Error{
			Type:        operation.ErrorTypeValidation,
			Message:     fmt.Sprintf("unknown operation: %s", op),
			SuggestText: "Use one of: publish, test_credentials",
		}
	}

	if err != nil {
		opErr := n.toOperationError(err)
		opErr.CorrelationID = correlationID.String()
		operation.RecordError(n.Name(), opErr.Type)
		span.RecordError(opErr)
		span.SetStatus(codes.Error, opErr.Message)
		if opErr.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.status_code", opErr.StatusCode))
		}
		log.WithOperation(n.Logger(), n.Name(), op).Warn("operation failed",
			slog.String("error_type", string(opErr.Type)),
			slog.String("correlation_id", correlationID.String()),
		)
		return nil, opErr
	}

	result.Metadata[operation.MetadataCorrelationID] = correlationID.String()
	result.Metadata[operation.MetadataOperation] = op
	span.SetAttributes(attribute.Int("http.status_code", result.StatusCode))
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// publish sends one message to a topic.
func (n *NtfyIntegration) publish(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	params := api.ApplyDefaults(ActionDescriptor(), inputs)
	in, err := ParsePublishInput(params)
	if err != nil {
		return nil, err
	}

	req, err := BuildPublishRequest(n.credential.BaseURL, in)
	if err != nil {
		return nil, err
	}
	req = Authenticate(n.credential.Auth, req)

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("ntfy.topic", in.Topic))
	log.WithOperation(n.Logger(), n.Name(), OperationPublish).Debug("publishing message",
		slog.String(log.TopicKey, in.Topic),
		slog.String(log.AuthTypeKey, string(n.credential.Auth.Type())),
		slog.String("header_mode", string(in.Mode())),
	)

	resp, err := n.ExecuteRequest(ctx, OperationPublish, req)
	if err != nil {
		return nil, err
	}

	var response interface{}
	var message MessageResponse
	if err := n.ParseJSONResponse(resp, &message); err != nil {
		// Not every proxy in front of ntfy passes the JSON body through.
		response = map[string]interface{}{"status": "ok", "body": string(resp.Body)}
	} else {
		response = &message
	}

	response, err = n.Transform(ctx, in.ResponseTransform, response)
	if err != nil {
		return nil, err
	}

	return n.ToResult(resp, response), nil
}

// testCredentials checks the credential against the health endpoint.
func (n *NtfyIntegration) testCredentials(ctx context.Context) (*operation.Result, error) {
	req := Authenticate(n.credential.Auth, BuildHealthRequest(n.credential.BaseURL))

	resp, err := n.ExecuteRequest(ctx, OperationTestCredentials, req)
	if err != nil {
		return nil, err
	}

	var health struct {
		Healthy *bool `json:"healthy"`
	}
	if err := n.ParseJSONResponse(resp, &health); err == nil && health.Healthy != nil && !*health.Healthy {
		return nil, &operation.Error{
			Type:        operation.ErrorTypeUnhealthy,
			Message:     "ntfy server reports unhealthy",
			StatusCode:  resp.StatusCode,
			SuggestText: "Check the ntfy server status",
		}
	}

	return n.ToResult(resp, &HealthResponse{Healthy: true}), nil
}

// toOperationError classifies err, surfacing ntfy's JSON error message when
// the server sent one.
func (n *NtfyIntegration) toOperationError(err error) *operation.Error {
	var parseErr *HeaderParseError
	if errors.As(err, &parseErr) {
		return operation.NewValidationError(parseErr.Error(), err)
	}

	var validationErr *pkgerrors.ValidationError
	if errors.As(err, &validationErr) {
		opErr := operation.NewValidationError(validationErr.Error(), err)
		if validationErr.SuggestText != "" {
			opErr.SuggestText = validationErr.SuggestText
		}
		return opErr
	}

	opErr := operation.FromTransportError(err)

	var te *transport.TransportError
	if errors.As(err, &te) && len(te.Body) > 0 {
		var body errorResponse
		if json.Unmarshal(te.Body, &body) == nil && body.Error != "" {
			opErr.Message = fmt.Sprintf("%s (ntfy error %d)", body.Error, body.Code)
			if body.Link != "" {
				opErr.SuggestText = "See " + body.Link
			}
		}
	}

	return opErr
}

// Operations returns the list of available operations.
func (n *NtfyIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		{
			Name:        OperationPublish,
			Description: "Publish a message to a topic",
			Category:    "messages",
			Tags:        []string{"write"},
		},
		{
			Name:        OperationTestCredentials,
			Description: "Check credentials against the server health endpoint",
			Category:    "credentials",
			Tags:        []string{"read"},
		},
	}
}

// OperationSchema returns the schema for an operation.
func (n *NtfyIntegration) OperationSchema(op string) *api.OperationSchema {
	switch op {
	case OperationPublish:
		return ActionDescriptor()
	case OperationTestCredentials:
		return &api.OperationSchema{
			Description: "Check credentials against GET /v1/health",
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "healthy", Type: "boolean", Description: "Whether the server reports itself healthy"},
			},
		}
	default:
		return nil
	}
}

// CredentialSchema returns the credential descriptor.
func (n *NtfyIntegration) CredentialSchema() *api.OperationSchema {
	return CredentialDescriptor()
}
