// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package publish

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/tombee/conductor-ntfy/internal/commands/shared"
	"github.com/tombee/conductor-ntfy/internal/integration/ntfy"
)

type captured struct {
	method string
	path   string
	query  string
	body   string
	header http.Header
}

type ntfyServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []captured
}

func newNtfyServer(t *testing.T, status int, body string) *ntfyServer {
	t.Helper()
	s := &ntfyServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, captured{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			body:   string(data),
			header: r.Header.Clone(),
		})
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *ntfyServer) last(t *testing.T) captured {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests, "no request reached the server")
	return s.requests[len(s.requests)-1]
}

func setupEnv(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NTFY_MASTER_KEY", "")
	t.Setenv("NTFY_PROFILE", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("NTFY_DEBUG", "")
	t.Setenv("NTFY_LOG_LEVEL", "")
	shared.ResetFlagsForTest()
	t.Cleanup(shared.ResetFlagsForTest)
}

func runPublish(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const okBody = `{"id":"sPs71M8A2T","time":1700000000,"expires":1700043200,"event":"message","topic":"alerts","message":"hello"}`

func TestPublish_Basic(t *testing.T) {
	setupEnv(t)
	srv := newNtfyServer(t, http.StatusOK, okBody)

	out, err := runPublish(t, "", "alerts", "hello", "--base-url", srv.URL+"/")
	require.NoError(t, err)

	req := srv.last(t)
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/alerts", req.path)
	assert.Equal(t, "hello", req.body)
	assert.Empty(t, req.header.Get("Authorization"))
	assert.NotEmpty(t, req.header.Get("X-Correlation-ID"))
	assert.Contains(t, out, "Published message sPs71M8A2T to topic alerts")
}

func TestPublish_KeypairHeaders(t *testing.T) {
	setupEnv(t)
	srv := newNtfyServer(t, http.StatusOK, okBody)

	_, err := runPublish(t, "", "alerts", "-m", "disk full",
		"--base-url", srv.URL,
		"--header", "X-Priority=5",
		"--header", "X-Tags=warning,skull",
		"--header", "X-Priority=4",
	)
	require.NoError(t, err)

	req := srv.last(t)
	assert.Equal(t, "disk full", req.body)
	assert.Equal(t, "4", req.header.Get("X-Priority"), "later header wins")
	assert.Equal(t, "warning,skull", req.header.Get("X-Tags"))
}

func TestPublish_JSONHeaders(t *testing.T) {
	setupEnv(t)
	srv := newNtfyServer(t, http.StatusOK, okBody)

	_, err := runPublish(t, "", "alerts", "deployed",
		"--base-url", srv.URL,
		"--json-headers", `{"X-Title":"CI","X-Click":"https://example.com"}`,
	)
	require.NoError(t, err)

	req := srv.last(t)
	assert.Equal(t, "CI", req.header.Get("X-Title"))
	assert.Equal(t, "https://example.com", req.header.Get("X-Click"))
}

func TestPublish_BearerAuth(t *testing.T) {
	setupEnv(t)
	srv := newNtfyServer(t, http.StatusOK, okBody)

	_, err := runPublish(t, "", "alerts", "hello",
		"--base-url", srv.URL,
		"--auth-type", "bearerAuth",
		"--token", "tk_test",
	)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tk_test", srv.last(t).header.Get("Authorization"))
}

func TestPublish_BasicAuthFromEnvSecret(t *testing.T) {
	setupEnv(t)
	t.Setenv("NTFY_SECRET_NTFY_PW", "s3cret")
	srv := newNtfyServer(t, http.StatusOK, okBody)

	_, err := runPublish(t, "", "alerts", "hello",
		"--base-url", srv.URL,
		"--auth-type", "basicAuth",
		"--username", "phil",
		"--password", "$secret:ntfy/pw",
	)
	require.NoError(t, err)

	req := srv.last(t)
	r := &http.Request{Header: req.header}
	user, pass, ok := r.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "phil", user)
	assert.Equal(t, "s3cret", pass)
}

func TestPublish_QueryAuth(t *testing.T) {
	setupEnv(t)
	srv := newNtfyServer(t, http.StatusOK, okBody)

	_, err := runPublish(t, "", "alerts", "hello",
		"--base-url", srv.URL,
		"--auth-type", "queryAuth",
		"--query-auth", "QmFzaWMg",
	)
	require.NoError(t, err)
	assert.Equal(t, "auth=QmFzaWMg", srv.last(t).query)
}

func TestPublish_Stdin(t *testing.T) {
	setupEnv(t)
	srv := newNtfyServer(t, http.StatusOK, okBody)

	_, err := runPublish(t, "line one\nline two\n", "alerts", "-", "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", srv.last(t).body)
}

func TestPublish_Transform(t *testing.T) {
	setupEnv(t)
	srv := newNtfyServer(t, http.StatusOK, okBody)

	out, err := runPublish(t, "", "alerts", "hello", "--base-url", srv.URL, "--transform", ".id")
	require.NoError(t, err)
	assert.Equal(t, "\"sPs71M8A2T\"\n", out)
}

func TestPublish_JSONOutput(t *testing.T) {
	setupEnv(t)
	srv := newNtfyServer(t, http.StatusOK, okBody)
	_, _, jsonOut, _, _ := shared.RegisterFlagPointers()
	*jsonOut = true

	out, err := runPublish(t, "", "alerts", "hello", "--base-url", srv.URL)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "publish", got["command"])
	assert.Equal(t, "sPs71M8A2T", got["response"].(map[string]interface{})["id"])
}

func TestPublish_ServerError(t *testing.T) {
	setupEnv(t)
	srv := newNtfyServer(t, http.StatusForbidden,
		`{"code":40301,"http":403,"error":"forbidden","link":"https://ntfy.sh/docs/publish/#authentication"}`)

	_, err := runPublish(t, "", "alerts", "hello", "--base-url", srv.URL)
	require.Error(t, err)

	var exitErr *shared.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, shared.ExitAuthFailed, exitErr.Code)
	assert.Contains(t, err.Error(), "forbidden (ntfy error 40301)")
}

func TestPublish_InvalidAuthType(t *testing.T) {
	setupEnv(t)

	_, err := runPublish(t, "", "alerts", "hello", "--auth-type", "oauth")
	var exitErr *shared.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, shared.ExitConfigError, exitErr.Code)
	assert.ErrorIs(t, err, ntfy.ErrInvalidCredentialsType)
}

func TestPublish_MissingMessage(t *testing.T) {
	setupEnv(t)
	srv := newNtfyServer(t, http.StatusOK, okBody)

	_, err := runPublish(t, "", "alerts", "--base-url", srv.URL)
	var exitErr *shared.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, shared.ExitInvalidInput, exitErr.Code)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Empty(t, srv.requests, "invalid input must not reach the server")
}

func TestBuildInputs(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		args    []string
		wantErr string
		check   func(t *testing.T, inputs map[string]interface{})
	}{
		{
			name: "no headers",
			args: []string{"alerts", "hi"},
			check: func(t *testing.T, inputs map[string]interface{}) {
				assert.Equal(t, false, inputs[ntfy.InputSendAdditionalHeaders])
				assert.NotContains(t, inputs, ntfy.InputSpecifyHeadersUsing)
			},
		},
		{
			name: "keypair",
			opts: options{headers: []string{"X-Click=https://a.example/?x=1"}},
			args: []string{"alerts", "hi"},
			check: func(t *testing.T, inputs map[string]interface{}) {
				assert.Equal(t, "keypair", inputs[ntfy.InputSpecifyHeadersUsing])
				assert.Equal(t, []ntfy.HeaderEntry{{Name: "X-Click", Value: "https://a.example/?x=1"}}, inputs[ntfy.InputHeaderFields])
			},
		},
		{
			name:    "both header forms",
			opts:    options{headers: []string{"A=b"}, jsonHeaders: `{}`},
			args:    []string{"alerts", "hi"},
			wantErr: "cannot be combined",
		},
		{
			name:    "malformed header",
			opts:    options{headers: []string{"NoEquals"}},
			args:    []string{"alerts", "hi"},
			wantErr: "expected Name=Value",
		},
		{
			name:    "message twice",
			opts:    options{message: "a"},
			args:    []string{"alerts", "b"},
			wantErr: "both as argument and --message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			inputs, err := buildInputs(strings.NewReader(""), &opts, tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, inputs)
		})
	}
}
