// Package ntfy implements the ntfy push-notification integration.
//
// Two operations are exposed:
//   - publish: POST {baseURL}/{topic} with the message as the literal body and
//     optional extra headers given either as name/value fields or as a JSON
//     object
//   - test_credentials: GET {baseURL}/v1/health, used to check stored
//     credentials before use
//
// Requests are assembled by small explicit callbacks (PopulateMessage,
// PopulateHeaderFields, PopulateJSONHeaders) and then authenticated by the
// credential's Auth variant: NoAuth, BasicAuth, BearerAuth or QueryAuth.
// Delivery, timeouts and rate limiting belong to the transport; nothing here
// retries a request.
package ntfy
