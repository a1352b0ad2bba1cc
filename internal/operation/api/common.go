// Package api provides common types and utilities for API integrations.
package api

import (
	"log/slog"

	"github.com/tombee/conductor-ntfy/internal/jq"
	"github.com/tombee/conductor-ntfy/internal/operation/transport"
)

// ProviderConfig holds configuration for API integrations.
type ProviderConfig struct {
	// Transport is the HTTP transport for making requests
	Transport transport.Transport

	// Credentials is the decrypted credential data, keyed by credential field name
	Credentials map[string]string

	// Logger receives integration logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Transformer applies response_transform expressions. Defaults to a
	// transformer with package defaults.
	Transformer *jq.Transformer
}

// OperationInfo provides metadata about an integration operation.
type OperationInfo struct {
	// Name is the operation identifier (e.g., "publish")
	Name string

	// Description is a human-readable description
	Description string

	// Category groups related operations (e.g., "messages", "credentials")
	Category string

	// Tags classify operations (e.g., "write", "read")
	Tags []string
}

// OperationSchema describes an operation's inputs and outputs.
type OperationSchema struct {
	// Description is a human-readable description
	Description string

	// Parameters describes the operation inputs
	Parameters []ParameterInfo

	// ResponseFields describes the response structure
	ResponseFields []ResponseFieldInfo
}

// Parameter returns the named parameter, or nil.
func (s *OperationSchema) Parameter(name string) *ParameterInfo {
	if s == nil {
		return nil
	}
	for i := range s.Parameters {
		if s.Parameters[i].Name == name {
			return &s.Parameters[i]
		}
	}
	return nil
}

// ParameterInfo describes an operation or credential parameter.
type ParameterInfo struct {
	// Name is the parameter identifier
	Name string

	// DisplayName is the label shown to users
	DisplayName string

	// Type is the parameter type (string, boolean, options, collection, json)
	Type string

	// Description is a human-readable description
	Description string

	// Required indicates if the parameter is required
	Required bool

	// Default is the default value (nil if no default)
	Default interface{}

	// Placeholder is example input shown to users
	Placeholder string

	// Options lists the allowed values for "options" parameters
	Options []OptionInfo

	// DisplayWhen shows the parameter only when every named parameter holds
	// one of the listed values. Empty means always shown.
	DisplayWhen map[string][]interface{}

	// Secret marks values that must be masked on input and in output
	Secret bool
}

// OptionInfo is one allowed value of an "options" parameter.
type OptionInfo struct {
	Name  string
	Value string
}

// ResponseFieldInfo describes a response field.
type ResponseFieldInfo struct {
	// Name is the field identifier
	Name string

	// Type is the field type (string, integer, boolean, array, object)
	Type string

	// Description is a human-readable description
	Description string
}

// TypedProvider extends the base Provider interface with type-safe operations.
type TypedProvider interface {
	// Operations returns the list of available operations with metadata.
	Operations() []OperationInfo

	// OperationSchema returns the operation description and parameter information.
	// Returns nil if the operation doesn't exist.
	OperationSchema(operation string) *OperationSchema
}

// CredentialProvider is implemented by integrations that describe their
// credential fields.
type CredentialProvider interface {
	CredentialSchema() *OperationSchema
}
