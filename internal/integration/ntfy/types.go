package ntfy

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// HeaderEntry is one name/value pair from the header fields input.
type HeaderEntry struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// HeaderMode selects how additional headers are supplied.
type HeaderMode string

const (
	// HeaderModeNone sends no additional headers.
	HeaderModeNone HeaderMode = ""

	// HeaderModeKeypair merges HeaderFields into the request headers.
	HeaderModeKeypair HeaderMode = "keypair"

	// HeaderModeJSON replaces the request headers with JSONHeaders.
	HeaderModeJSON HeaderMode = "json"
)

// PublishInput holds the resolved inputs of the publish operation.
type PublishInput struct {
	// Topic is embedded verbatim into the request path.
	Topic string `json:"topic"`

	// Message becomes the request body byte-for-byte.
	Message string `json:"message"`

	// SendAdditionalHeaders enables one of the header modes.
	SendAdditionalHeaders bool `json:"send_additional_headers"`

	// SpecifyHeadersUsing is the header mode used when SendAdditionalHeaders is set.
	SpecifyHeadersUsing HeaderMode `json:"specify_headers_using"`

	// HeaderFields are merged in order; later duplicate names win.
	HeaderFields []HeaderEntry `json:"header_fields"`

	// JSONHeaders must parse to an object of string values.
	JSONHeaders string `json:"json_headers"`

	// ResponseTransform is an optional jq expression applied to the response.
	ResponseTransform string `json:"response_transform"`
}

// Validate checks required fields and the header mode.
func (in PublishInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Topic, validation.Required.Error("topic is required")),
		validation.Field(&in.Message, validation.Required.Error("message is required")),
		validation.Field(&in.SpecifyHeadersUsing,
			validation.When(in.SendAdditionalHeaders,
				validation.Required.Error("header mode is required when sending additional headers"),
				validation.In(HeaderModeKeypair, HeaderModeJSON).Error("must be keypair or json"),
			),
		),
	)
}

// Mode returns the header mode in effect. Exactly one populate callback runs
// per mode, and none for HeaderModeNone.
func (in PublishInput) Mode() HeaderMode {
	if !in.SendAdditionalHeaders {
		return HeaderModeNone
	}
	return in.SpecifyHeadersUsing
}

// MessageResponse is the JSON message ntfy returns for a published message.
type MessageResponse struct {
	ID      string `json:"id"`
	Time    int64  `json:"time"`
	Expires int64  `json:"expires,omitempty"`
	Event   string `json:"event"`
	Topic   string `json:"topic"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the body of GET /v1/health.
type HealthResponse struct {
	Healthy bool `json:"healthy"`
}

// errorResponse is the JSON error body ntfy sends with non-2xx responses.
type errorResponse struct {
	Code  int    `json:"code"`
	HTTP  int    `json:"http"`
	Error string `json:"error"`
	Link  string `json:"link,omitempty"`
}
