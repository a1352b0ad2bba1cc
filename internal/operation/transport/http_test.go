package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/conductor-ntfy/pkg/httpclient"
)

func newTestTransport(t *testing.T) *HTTPTransport {
	t.Helper()
	tr, err := NewHTTPTransport(HTTPTransportConfig{Client: httpclient.DefaultConfig()})
	require.NoError(t, err)
	return tr
}

func TestNewHTTPTransport_InvalidClientConfig(t *testing.T) {
	_, err := NewHTTPTransport(HTTPTransportConfig{})
	assert.Error(t, err)
}

func TestHTTPTransport_Execute(t *testing.T) {
	var (
		gotMethod, gotPath, gotQuery, gotBody, gotTitle string
		gotUser, gotPass                                string
		gotBasic                                        bool
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotTitle = r.Header.Get("X-Title")
		gotUser, gotPass, gotBasic = r.BasicAuth()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("X-Request-ID", "req-1")
		w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t)
	resp, err := tr.Execute(context.Background(), &Request{
		Method:  http.MethodPost,
		BaseURL: srv.URL,
		URL:     "/mytopic?auth=secret",
		Headers: map[string]string{"X-Title": "Hello"},
		Body:    []byte("Hello world!"),
		Auth:    &BasicAuth{Username: "u", Password: "p"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"id":"abc"}`, string(resp.Body))
	assert.Equal(t, "req-1", resp.Metadata[MetadataRequestID])

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/mytopic", gotPath)
	assert.Equal(t, "auth=secret", gotQuery)
	assert.Equal(t, "Hello world!", gotBody)
	assert.Equal(t, "Hello", gotTitle)
	assert.True(t, gotBasic)
	assert.Equal(t, "u", gotUser)
	assert.Equal(t, "p", gotPass)
}

func TestHTTPTransport_StatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		wantType ErrorType
	}{
		{http.StatusUnauthorized, ErrorTypeAuth},
		{http.StatusForbidden, ErrorTypeAuth},
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusRequestTimeout, ErrorTypeTimeout},
		{http.StatusBadRequest, ErrorTypeClient},
		{http.StatusNotFound, ErrorTypeClient},
		{http.StatusInternalServerError, ErrorTypeServer},
		{http.StatusBadGateway, ErrorTypeServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			body := `{"code":40101,"http":401,"error":"unauthorized"}`
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := newTestTransport(t).Execute(context.Background(), &Request{
				Method:  http.MethodGet,
				BaseURL: srv.URL,
				URL:     "/v1/health",
			})

			var te *TransportError
			require.True(t, errors.As(err, &te), "expected *TransportError, got %T", err)
			assert.Equal(t, tt.wantType, te.Type)
			assert.Equal(t, tt.status, te.StatusCode)
			assert.Equal(t, body, string(te.Body))
			assert.Contains(t, te.Error(), "unauthorized")
		})
	}
}

func TestHTTPTransport_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
	}{
		{name: "nil request", req: nil},
		{name: "missing method", req: &Request{BaseURL: "https://ntfy.sh", URL: "/t"}},
		{name: "bad method", req: &Request{Method: "FETCH", BaseURL: "https://ntfy.sh", URL: "/t"}},
		{name: "missing url", req: &Request{Method: http.MethodGet}},
		{name: "relative url", req: &Request{Method: http.MethodGet, URL: "/mytopic"}},
		{name: "bad scheme", req: &Request{Method: http.MethodGet, BaseURL: "ftp://ntfy.sh", URL: "/t"}},
	}

	tr := newTestTransport(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Execute(context.Background(), tt.req)
			var te *TransportError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, ErrorTypeInvalidReq, te.Type)
		})
	}
}

func TestHTTPTransport_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := newTestTransport(t).Execute(context.Background(), &Request{
		Method:  http.MethodGet,
		BaseURL: addr,
		URL:     "/topic?auth=supersecret",
	})

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorTypeConnection, te.Type)
	assert.NotContains(t, te.Error(), "supersecret")
}

func TestHTTPTransport_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestTransport(t).Execute(ctx, &Request{Method: http.MethodGet, BaseURL: srv.URL, URL: "/"})

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorTypeCancelled, te.Type)
}

type countingLimiter struct {
	calls int
	err   error
}

func (c *countingLimiter) Wait(ctx context.Context) error {
	c.calls++
	return c.err
}

func TestHTTPTransport_RateLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	tr := newTestTransport(t)
	limiter := &countingLimiter{}
	tr.SetRateLimiter(limiter)

	_, err := tr.Execute(context.Background(), &Request{Method: http.MethodGet, BaseURL: srv.URL, URL: "/"})
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.calls)

	limiter.err = context.Canceled
	_, err = tr.Execute(context.Background(), &Request{Method: http.MethodGet, BaseURL: srv.URL, URL: "/"})
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorTypeCancelled, te.Type)
}

func TestNewRateLimiter(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, 5))
	assert.Nil(t, NewRateLimiter(-1, 5))

	limiter := NewRateLimiter(1000, 0)
	require.NotNil(t, limiter)
	assert.NoError(t, limiter.Wait(context.Background()))
}

func TestRequest_Clone(t *testing.T) {
	orig := &Request{
		Method:  http.MethodPost,
		URL:     "/t",
		Headers: map[string]string{"X-Title": "a"},
		Body:    []byte("hi"),
		Auth:    &BasicAuth{Username: "u"},
	}
	c := orig.Clone()
	c.Headers["X-Title"] = "b"
	c.Body[0] = 'H'
	c.Auth.Username = "other"

	assert.Equal(t, "a", orig.Headers["X-Title"])
	assert.Equal(t, "hi", string(orig.Body))
	assert.Equal(t, "u", orig.Auth.Username)
	assert.Nil(t, (*Request)(nil).Clone())
}
