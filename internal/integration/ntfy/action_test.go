package ntfy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/conductor-ntfy/internal/operation/api"
	"github.com/tombee/conductor-ntfy/internal/operation/transport"
	pkgerrors "github.com/tombee/conductor-ntfy/pkg/errors"
)

func TestBuildPublishRequest_PathAndBody(t *testing.T) {
	req, err := BuildPublishRequest("https://ntfy.sh", &PublishInput{Topic: "mytopic", Message: "Hello world!"})
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/mytopic", req.URL)
	assert.Equal(t, "https://ntfy.sh/mytopic", req.FullURL())
	assert.Equal(t, "Hello world!", string(req.Body))
	assert.Empty(t, req.Headers)
}

func TestBuildPublishRequest_BodyIsVerbatim(t *testing.T) {
	messages := []string{
		"Hello world!",
		`{"not":"parsed"}`,
		"line one\nline two",
		"émoji 🚀 and <html>&amp;",
		"  padded  ",
	}

	for _, msg := range messages {
		req, err := BuildPublishRequest("https://ntfy.sh", &PublishInput{Topic: "t", Message: msg})
		require.NoError(t, err)
		assert.Equal(t, []byte(msg), req.Body)
	}
}

func TestBuildPublishRequest_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    PublishInput
		field string
	}{
		{name: "missing topic", in: PublishInput{Message: "m"}, field: "topic"},
		{name: "missing message", in: PublishInput{Topic: "t"}, field: "message"},
		{name: "bad header mode", in: PublishInput{Topic: "t", Message: "m", SendAdditionalHeaders: true, SpecifyHeadersUsing: "yaml"}, field: "specify_headers_using"},
		{name: "missing header mode", in: PublishInput{Topic: "t", Message: "m", SendAdditionalHeaders: true}, field: "specify_headers_using"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPublishRequest("https://ntfy.sh", &tt.in)

			var ve *pkgerrors.ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestBuildPublishRequest_HeaderModes(t *testing.T) {
	base := PublishInput{
		Topic:        "t",
		Message:      "m",
		HeaderFields: []HeaderEntry{{Name: "X-Title", Value: "fields"}},
		JSONHeaders:  `{"X-Title":"json"}`,
	}

	t.Run("toggle off ignores both inputs", func(t *testing.T) {
		in := base
		in.SpecifyHeadersUsing = HeaderModeJSON
		req, err := BuildPublishRequest("https://ntfy.sh", &in)
		require.NoError(t, err)
		assert.Empty(t, req.Headers)
	})

	t.Run("keypair", func(t *testing.T) {
		in := base
		in.SendAdditionalHeaders = true
		in.SpecifyHeadersUsing = HeaderModeKeypair
		req, err := BuildPublishRequest("https://ntfy.sh", &in)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"X-Title": "fields"}, req.Headers)
	})

	t.Run("json", func(t *testing.T) {
		in := base
		in.SendAdditionalHeaders = true
		in.SpecifyHeadersUsing = HeaderModeJSON
		req, err := BuildPublishRequest("https://ntfy.sh", &in)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"X-Title": "json"}, req.Headers)
	})

	t.Run("malformed json aborts", func(t *testing.T) {
		in := base
		in.SendAdditionalHeaders = true
		in.SpecifyHeadersUsing = HeaderModeJSON
		in.JSONHeaders = `{"X-Title":`
		req, err := BuildPublishRequest("https://ntfy.sh", &in)

		assert.Nil(t, req)
		var parseErr *HeaderParseError
		assert.True(t, errors.As(err, &parseErr))
	})
}

func TestPopulateHeaderFields_LastWriteWins(t *testing.T) {
	req := PopulateHeaderFields(&transport.Request{}, []HeaderEntry{
		{Name: "X-Title", Value: "A"},
		{Name: "X-Title", Value: "B"},
	})

	assert.Equal(t, "B", req.Headers["X-Title"])
	assert.Len(t, req.Headers, 1)
}

func TestPopulateHeaderFields_Merges(t *testing.T) {
	req := &transport.Request{Headers: map[string]string{"X-Priority": "5", "X-Tags": "old"}}

	req = PopulateHeaderFields(req, []HeaderEntry{
		{Name: "X-Title", Value: "T"},
		{Name: "X-Tags", Value: "warning"},
		{Name: "", Value: "ignored"},
	})

	assert.Equal(t, map[string]string{
		"X-Priority": "5",
		"X-Tags":     "warning",
		"X-Title":    "T",
	}, req.Headers)
}

func TestPopulateJSONHeaders_Replaces(t *testing.T) {
	req := &transport.Request{Headers: map[string]string{"X-Priority": "5"}}

	req, err := PopulateJSONHeaders(req, `{"X-Title":"T"}`)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"X-Title": "T"}, req.Headers)
}

func TestPopulateJSONHeaders_Errors(t *testing.T) {
	inputs := []string{
		`not json`,
		`{"X-Title":`,
		`["X-Title"]`,
		`{"X-Priority": 5}`,
		``,
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			orig := map[string]string{"X-Priority": "5"}
			req := &transport.Request{Headers: orig}

			out, err := PopulateJSONHeaders(req, raw)

			var parseErr *HeaderParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Contains(t, err.Error(), "invalid JSON headers")
			assert.Equal(t, map[string]string{"X-Priority": "5"}, out.Headers, "headers must be left untouched")
		})
	}
}

func TestPopulateJSONHeaders_Null(t *testing.T) {
	req, err := PopulateJSONHeaders(&transport.Request{Headers: map[string]string{"A": "b"}}, `null`)
	require.NoError(t, err)
	assert.NotNil(t, req.Headers)
	assert.Empty(t, req.Headers)
}

func TestPopulateMessage(t *testing.T) {
	req := PopulateMessage(&transport.Request{Body: []byte("old")}, "new")
	assert.Equal(t, "new", string(req.Body))
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://ntfy.sh", NormalizeBaseURL("https://ntfy.sh/"))
	assert.Equal(t, "https://ntfy.sh", NormalizeBaseURL("https://ntfy.sh"))
	assert.Equal(t, "https://ntfy.sh/", NormalizeBaseURL("https://ntfy.sh//"))
	assert.Equal(t, "https://example.com/ntfy", NormalizeBaseURL("https://example.com/ntfy/"))
}

func TestBuildHealthRequest(t *testing.T) {
	req := BuildHealthRequest("https://ntfy.example.com/")

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "https://ntfy.example.com/v1/health", req.FullURL())
	assert.Nil(t, req.Body)
}

func TestParsePublishInput(t *testing.T) {
	t.Run("header list of objects", func(t *testing.T) {
		in, err := ParsePublishInput(api.Parameters{
			"topic":                   "alerts",
			"message":                 "disk full",
			"send_additional_headers": true,
			"specify_headers_using":   "keypair",
			"header_fields": []interface{}{
				map[string]interface{}{"name": "X-Priority", "value": 5},
				map[string]interface{}{"name": "X-Title", "value": "Disk"},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "alerts", in.Topic)
		assert.Equal(t, "disk full", in.Message)
		assert.Equal(t, HeaderModeKeypair, in.Mode())
		assert.Equal(t, []HeaderEntry{{Name: "X-Priority", Value: "5"}, {Name: "X-Title", Value: "Disk"}}, in.HeaderFields)
	})

	t.Run("header collection wrapper", func(t *testing.T) {
		in, err := ParsePublishInput(api.Parameters{
			"header_fields": map[string]interface{}{
				"parameters": []interface{}{map[string]interface{}{"name": "X-Tags", "value": "a,b"}},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []HeaderEntry{{Name: "X-Tags", Value: "a,b"}}, in.HeaderFields)
	})

	t.Run("json headers object is encoded", func(t *testing.T) {
		in, err := ParsePublishInput(api.Parameters{
			"json_headers": map[string]interface{}{"X-Title": "T"},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"X-Title":"T"}`, in.JSONHeaders)
	})

	t.Run("bad header fields", func(t *testing.T) {
		_, err := ParsePublishInput(api.Parameters{"header_fields": "X-Title: T"})
		var ve *pkgerrors.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "header_fields", ve.Field)
	})

	t.Run("bad toggle", func(t *testing.T) {
		_, err := ParsePublishInput(api.Parameters{"send_additional_headers": "sometimes"})
		assert.Error(t, err)
	})
}

func TestActionDescriptor_Defaults(t *testing.T) {
	schema := ActionDescriptor()

	params := api.ApplyDefaults(schema, map[string]interface{}{
		"topic":                   "t",
		"message":                 "m",
		"send_additional_headers": true,
	})
	assert.Equal(t, "keypair", params["specify_headers_using"])
	assert.Equal(t, []HeaderEntry{{Name: "", Value: ""}}, params["header_fields"])
	assert.NotContains(t, params, "json_headers")

	params = api.ApplyDefaults(schema, map[string]interface{}{
		"send_additional_headers": true,
		"specify_headers_using":   "json",
	})
	assert.Equal(t, `{ "X-Title": "This is a title" }`, params["json_headers"])
	assert.NotContains(t, params, "header_fields")
}

func TestActionDescriptor_DefaultHeaderFieldsSendNothing(t *testing.T) {
	params := api.ApplyDefaults(ActionDescriptor(), map[string]interface{}{
		"topic":                   "t",
		"message":                 "m",
		"send_additional_headers": true,
	})
	in, err := ParsePublishInput(params)
	require.NoError(t, err)

	req, err := BuildPublishRequest("https://ntfy.sh", in)
	require.NoError(t, err)
	assert.Empty(t, req.Headers)
}
