package ntfy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/conductor-ntfy/internal/operation/transport"
	pkgerrors "github.com/tombee/conductor-ntfy/pkg/errors"
)

func TestParseCredential(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]string
		wantURL  string
		wantAuth Auth
	}{
		{
			name:     "defaults",
			data:     map[string]string{},
			wantURL:  "https://ntfy.sh",
			wantAuth: NoAuth{},
		},
		{
			name:     "nil data",
			data:     nil,
			wantURL:  "https://ntfy.sh",
			wantAuth: NoAuth{},
		},
		{
			name:     "trailing slash stripped",
			data:     map[string]string{"baseUrl": "https://ntfy.sh/", "authType": "noAuth"},
			wantURL:  "https://ntfy.sh",
			wantAuth: NoAuth{},
		},
		{
			name: "basic ignores other variants' fields",
			data: map[string]string{
				"baseUrl":     "https://ntfy.example.com",
				"authType":    "basicAuth",
				"username":    "u",
				"password":    "p",
				"bearerToken": "tk_unused",
			},
			wantURL:  "https://ntfy.example.com",
			wantAuth: BasicAuth{Username: "u", Password: "p"},
		},
		{
			name:     "bearer",
			data:     map[string]string{"authType": "bearerAuth", "bearerToken": "tk_123"},
			wantURL:  "https://ntfy.sh",
			wantAuth: BearerAuth{Token: "tk_123"},
		},
		{
			name:     "query",
			data:     map[string]string{"authType": "queryAuth", "queryParameter": "secret"},
			wantURL:  "https://ntfy.sh",
			wantAuth: QueryAuth{Parameter: "secret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCredential(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, c.BaseURL)
			assert.Equal(t, tt.wantAuth, c.Auth)
		})
	}
}

func TestParseCredential_InvalidType(t *testing.T) {
	_, err := ParseCredential(map[string]string{"authType": "oauth2"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredentialsType))
	assert.Contains(t, err.Error(), "invalid credentials type")

	var cfgErr *pkgerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "authType", cfgErr.Key)
}

func TestCredential_Validate(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]string
		wantErr bool
	}{
		{name: "no auth", data: map[string]string{}},
		{name: "basic complete", data: map[string]string{"authType": "basicAuth", "username": "u", "password": "p"}},
		{name: "basic missing password", data: map[string]string{"authType": "basicAuth", "username": "u"}, wantErr: true},
		{name: "basic missing username", data: map[string]string{"authType": "basicAuth", "password": "p"}, wantErr: true},
		{name: "bearer missing token", data: map[string]string{"authType": "bearerAuth"}, wantErr: true},
		{name: "query missing parameter", data: map[string]string{"authType": "queryAuth"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCredential(tt.data)
			require.NoError(t, err)

			err = c.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ve *pkgerrors.ValidationError
			assert.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
		})
	}
}

func TestAuthenticate_NoAuth(t *testing.T) {
	req := &transport.Request{URL: "/mytopic", Headers: map[string]string{"X-Title": "T"}}
	want := req.Clone()

	got := Authenticate(NoAuth{}, req)

	assert.Equal(t, want, got)
	assert.Equal(t, want, Authenticate(nil, req))
}

func TestAuthenticate_BasicAuth(t *testing.T) {
	req := &transport.Request{URL: "/mytopic", Headers: map[string]string{"X-Title": "T"}}

	req = Authenticate(BasicAuth{Username: "u", Password: "p"}, req)

	require.NotNil(t, req.Auth)
	assert.Equal(t, "u", req.Auth.Username)
	assert.Equal(t, "p", req.Auth.Password)
	assert.NotContains(t, req.Headers, "Authorization")
	assert.Equal(t, "T", req.Headers["X-Title"])
	assert.Equal(t, "/mytopic", req.URL)
}

func TestAuthenticate_BearerAuth(t *testing.T) {
	req := &transport.Request{
		URL:     "/mytopic",
		Headers: map[string]string{"Authorization": "Basic old", "X-Title": "T"},
	}

	req = Authenticate(BearerAuth{Token: "tk_123"}, req)

	assert.Equal(t, map[string]string{"Authorization": "Bearer tk_123"}, req.Headers)
	assert.Nil(t, req.Auth)
}

func TestAuthenticate_QueryAuth(t *testing.T) {
	req := Authenticate(QueryAuth{Parameter: "secret"}, &transport.Request{URL: "/mytopic"})
	assert.Equal(t, "/mytopic?auth=secret", req.URL)

	// Existing queries are not detected.
	req = Authenticate(QueryAuth{Parameter: "secret"}, &transport.Request{URL: "/mytopic?x=1"})
	assert.Equal(t, "/mytopic?x=1?auth=secret", req.URL)
}

func TestAuthType(t *testing.T) {
	assert.Equal(t, AuthTypeNone, NoAuth{}.Type())
	assert.Equal(t, AuthTypeBasic, BasicAuth{}.Type())
	assert.Equal(t, AuthTypeBearer, BearerAuth{}.Type())
	assert.Equal(t, AuthTypeQuery, QueryAuth{}.Type())
}

func TestCredentialDescriptor(t *testing.T) {
	schema := CredentialDescriptor()

	baseURL := schema.Parameter("baseUrl")
	require.NotNil(t, baseURL)
	assert.Equal(t, "https://ntfy.sh", baseURL.Default)

	authType := schema.Parameter("authType")
	require.NotNil(t, authType)
	assert.Equal(t, "noAuth", authType.Default)
	assert.Len(t, authType.Options, 4)

	for _, name := range []string{"password", "bearerToken", "queryParameter"} {
		p := schema.Parameter(name)
		require.NotNil(t, p, name)
		assert.True(t, p.Secret, name)
	}
	assert.Equal(t, []interface{}{"basicAuth"}, schema.Parameter("username").DisplayWhen["authType"])
}
