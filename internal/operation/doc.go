// Package operation provides the shared framework for integration operations.
//
// An integration (internal/integration/...) implements Connector: it has a
// name and executes named operations against an external service. The
// framework supplies:
//   - Result, the uniform output of an operation
//   - Error, a classified, user-visible operation failure
//   - Registry, which maps integration names to configured connectors and
//     resolves "integration.operation" references
//   - Prometheus metrics for requests and their duration
//
// Request construction and delivery live in the transport subpackage; the
// metadata integrations publish about themselves lives in the api subpackage.
package operation
