package ntfy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tombee/conductor-ntfy/internal/operation/api"
	"github.com/tombee/conductor-ntfy/internal/operation/transport"
	pkgerrors "github.com/tombee/conductor-ntfy/pkg/errors"
)

// Publish input names.
const (
	InputTopic                 = "topic"
	InputMessage               = "message"
	InputSendAdditionalHeaders = "send_additional_headers"
	InputSpecifyHeadersUsing   = "specify_headers_using"
	InputHeaderFields          = "header_fields"
	InputJSONHeaders           = "json_headers"
	InputResponseTransform     = "response_transform"
)

// HealthPath is the ntfy health endpoint used to test credentials.
const HealthPath = "/v1/health"

// HeaderParseError reports JSON headers that are not an object of strings.
type HeaderParseError struct {
	Cause error
}

func (e *HeaderParseError) Error() string {
	return fmt.Sprintf("invalid JSON headers: %v", e.Cause)
}

func (e *HeaderParseError) Unwrap() error {
	return e.Cause
}

// NormalizeBaseURL strips one trailing slash.
func NormalizeBaseURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/")
}

// PopulateMessage sets the request body to message, unmodified.
func PopulateMessage(req *transport.Request, message string) *transport.Request {
	req.Body = []byte(message)
	return req
}

// PopulateHeaderFields merges entries into the request headers in order, so
// a later duplicate name overwrites an earlier one. Existing headers are kept.
// Entries with an empty name are skipped.
func PopulateHeaderFields(req *transport.Request, entries []HeaderEntry) *transport.Request {
	if req.Headers == nil {
		req.Headers = make(map[string]string, len(entries))
	}
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		req.Headers[e.Name] = e.Value
	}
	return req
}

// PopulateJSONHeaders replaces the request headers with the object parsed
// from raw. On a parse error req is returned untouched alongside a
// *HeaderParseError.
func PopulateJSONHeaders(req *transport.Request, raw string) (*transport.Request, error) {
	var headers map[string]string
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		return req, &HeaderParseError{Cause: err}
	}
	if headers == nil {
		headers = map[string]string{}
	}
	req.Headers = headers
	return req, nil
}

// BuildPublishRequest assembles the unauthenticated publish request:
// POST {baseURL}/{topic} with the message body and the active header mode
// applied.
func BuildPublishRequest(baseURL string, in *PublishInput) (*transport.Request, error) {
	if err := in.Validate(); err != nil {
		return nil, pkgerrors.FromValidation(err)
	}

	req := &transport.Request{
		Method:  http.MethodPost,
		BaseURL: NormalizeBaseURL(baseURL),
		URL:     "/" + in.Topic,
	}
	req = PopulateMessage(req, in.Message)

	switch in.Mode() {
	case HeaderModeKeypair:
		req = PopulateHeaderFields(req, in.HeaderFields)
	case HeaderModeJSON:
		var err error
		if req, err = PopulateJSONHeaders(req, in.JSONHeaders); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// BuildHealthRequest assembles the unauthenticated credential test request.
func BuildHealthRequest(baseURL string) *transport.Request {
	return &transport.Request{
		Method:  http.MethodGet,
		BaseURL: NormalizeBaseURL(baseURL),
		URL:     HealthPath,
	}
}

// ParsePublishInput reads publish inputs from params. Header fields are
// accepted as a list of {name, value} objects or wrapped as
// {"parameters": [...]}; non-string JSON headers are re-encoded as JSON.
func ParsePublishInput(params api.Parameters) (*PublishInput, error) {
	send, err := params.Bool(InputSendAdditionalHeaders)
	if err != nil {
		return nil, &pkgerrors.ValidationError{Field: InputSendAdditionalHeaders, Message: err.Error()}
	}

	in := &PublishInput{
		Topic:                 params.String(InputTopic),
		Message:               params.String(InputMessage),
		SendAdditionalHeaders: send,
		SpecifyHeadersUsing:   HeaderMode(params.String(InputSpecifyHeadersUsing)),
		ResponseTransform:     params.String(InputResponseTransform),
	}

	if raw, ok := params.Get(InputHeaderFields); ok && raw != nil {
		entries, err := parseHeaderEntries(raw)
		if err != nil {
			return nil, &pkgerrors.ValidationError{Field: InputHeaderFields, Message: err.Error()}
		}
		in.HeaderFields = entries
	}

	if raw, ok := params.Get(InputJSONHeaders); ok && raw != nil {
		switch v := raw.(type) {
		case string:
			in.JSONHeaders = v
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, &HeaderParseError{Cause: err}
			}
			in.JSONHeaders = string(b)
		}
	}

	return in, nil
}

func parseHeaderEntries(raw interface{}) ([]HeaderEntry, error) {
	switch v := raw.(type) {
	case []HeaderEntry:
		return v, nil
	case map[string]interface{}:
		inner, ok := v["parameters"]
		if !ok {
			return nil, fmt.Errorf("expected a list of {name, value} entries")
		}
		return parseHeaderEntries(inner)
	case []interface{}:
		entries := make([]HeaderEntry, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("entry %d must be an object with name and value", i)
			}
			entries = append(entries, HeaderEntry{
				Name:  stringValue(m["name"]),
				Value: stringValue(m["value"]),
			})
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("expected a list of {name, value} entries, got %T", raw)
	}
}

func stringValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ActionDescriptor describes the publish operation's inputs.
func ActionDescriptor() *api.OperationSchema {
	withHeaders := map[string][]interface{}{InputSendAdditionalHeaders: {true}}
	return &api.OperationSchema{
		Description: "Push messages via ntfy.sh",
		Parameters: []api.ParameterInfo{
			{
				Name:        InputTopic,
				DisplayName: "Topic",
				Type:        "string",
				Description: "Topic to push a message to",
				Required:    true,
				Default:     "",
				Placeholder: "e.g. mytopic",
			},
			{
				Name:        InputMessage,
				DisplayName: "Message",
				Type:        "string",
				Description: "Message to publish to a topic",
				Required:    true,
				Default:     "",
				Placeholder: "e.g. Hello world!",
			},
			{
				Name:        InputSendAdditionalHeaders,
				DisplayName: "Send Additional Headers",
				Type:        "boolean",
				Description: "Whether to send additional headers (https://docs.ntfy.sh/publish/#list-of-all-parameters)",
				Default:     false,
			},
			{
				Name:        InputSpecifyHeadersUsing,
				DisplayName: "Specify Headers Using...",
				Type:        "options",
				Default:     string(HeaderModeKeypair),
				Options: []api.OptionInfo{
					{Name: "Fields", Value: string(HeaderModeKeypair)},
					{Name: "JSON", Value: string(HeaderModeJSON)},
				},
				DisplayWhen: withHeaders,
			},
			{
				Name:        InputHeaderFields,
				DisplayName: "Header Fields",
				Type:        "collection",
				Description: "Header name/value pairs, applied in order",
				Default:     []HeaderEntry{{Name: "", Value: ""}},
				Placeholder: "Add Header Field",
				DisplayWhen: map[string][]interface{}{
					InputSendAdditionalHeaders: {true},
					InputSpecifyHeadersUsing:   {string(HeaderModeKeypair)},
				},
			},
			{
				Name:        InputJSONHeaders,
				DisplayName: "JSON Headers",
				Type:        "json",
				Description: "Object of header names to string values; replaces all other headers",
				Default:     `{ "X-Title": "This is a title" }`,
				DisplayWhen: map[string][]interface{}{
					InputSendAdditionalHeaders: {true},
					InputSpecifyHeadersUsing:   {string(HeaderModeJSON)},
				},
			},
			{
				Name:        InputResponseTransform,
				DisplayName: "Response Transform",
				Type:        "string",
				Description: "jq expression applied to the published message",
				Placeholder: "e.g. .id",
			},
		},
		ResponseFields: []api.ResponseFieldInfo{
			{Name: "id", Type: "string", Description: "Message ID"},
			{Name: "time", Type: "integer", Description: "Unix time the message was published"},
			{Name: "expires", Type: "integer", Description: "Unix time the message expires from the cache"},
			{Name: "event", Type: "string", Description: "Event type, \"message\" for published messages"},
			{Name: "topic", Type: "string", Description: "Topic the message was published to"},
			{Name: "message", Type: "string", Description: "Message body"},
		},
	}
}
