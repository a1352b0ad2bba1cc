// Package integration registers the built-in API integrations.
package integration

import (
	"fmt"
	"sort"

	"github.com/tombee/conductor-ntfy/internal/integration/ntfy"
	"github.com/tombee/conductor-ntfy/internal/operation"
	"github.com/tombee/conductor-ntfy/internal/operation/api"
)

// Factory creates a configured integration.
type Factory func(config *api.ProviderConfig) (operation.Connector, error)

// BuiltinRegistry holds all built-in API integration factories.
var BuiltinRegistry = map[string]Factory{
	"ntfy": ntfy.NewNtfyIntegration,
}

// Names returns the registered integration names, sorted.
func Names() []string {
	names := make([]string, 0, len(BuiltinRegistry))
	for name := range BuiltinRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the named integration.
func New(name string, config *api.ProviderConfig) (operation.Connector, error) {
	factory, ok := BuiltinRegistry[name]
	if !ok {
		return nil, &operation.Error{
			Type:    operation.ErrorTypeNotFound,
			Message: fmt.Sprintf("builtin integration not found: %s", name),
		}
	}
	return factory(config)
}

// NewRegistry creates an operation registry holding one configured instance
// of each named integration, all sharing config.
func NewRegistry(config *api.ProviderConfig, names ...string) (*operation.Registry, error) {
	registry := operation.NewRegistry()
	for _, name := range names {
		conn, err := New(name, config)
		if err != nil {
			return nil, fmt.Errorf("failed to create integration %q: %w", name, err)
		}
		registry.Register(name, conn)
	}
	return registry, nil
}
