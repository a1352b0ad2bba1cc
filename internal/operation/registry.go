package operation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry manages a collection of configured connectors.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Connector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Connector),
	}
}

// Register adds a connector under name, replacing any previous entry.
func (r *Registry) Register(name string, provider Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
}

// Get retrieves a connector by name.
func (r *Registry) Get(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, &Error{
			Type:        ErrorTypeNotFound,
			Message:     fmt.Sprintf("integration %q not found", name),
			SuggestText: "Run 'conductor-ntfy describe' to list available integrations",
		}
	}

	return provider, nil
}

// List returns the names of all registered connectors, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Execute runs an operation.
// The reference must be in the form "integration.operation".
func (r *Registry) Execute(ctx context.Context, reference string, inputs map[string]interface{}) (*Result, error) {
	providerName, operationName, err := ParseReference(reference)
	if err != nil {
		return nil, err
	}

	provider, err := r.Get(providerName)
	if err != nil {
		return nil, err
	}

	return provider.Execute(ctx, operationName, inputs)
}

// ParseReference splits "integration.operation" into its two names.
func ParseReference(reference string) (string, string, error) {
	providerName, operationName, found := strings.Cut(reference, ".")
	if !found {
		return "", "", &Error{
			Type:    ErrorTypeValidation,
			Message: fmt.Sprintf("invalid operation reference %q: must be in format 'integration.operation'", reference),
		}
	}

	if providerName == "" || operationName == "" {
		return "", "", &Error{
			Type:    ErrorTypeValidation,
			Message: fmt.Sprintf("invalid operation reference %q: integration and operation names cannot be empty", reference),
		}
	}

	return providerName, operationName, nil
}
