package httpexec

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"specwire/internal/outcome"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func jsonRequest(url, protocol string) *Request {
	return &Request{
		Endpoint: Endpoint{Method: http.MethodPost, URL: url, Protocol: protocol},
		Body:     json.RawMessage(`{"model":"gpt-x","messages":[{"role":"user","content":"hi"}]}`),
	}
}

func TestExecute_Success(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"resp-1","choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient()
	defer client.http.CloseIdleConnections()

	out, err := client.Execute(context.Background(), jsonRequest(srv.URL, "http"), 5)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.JSONEq(t, `{"id":"resp-1","choices":[]}`, string(out.Response))
	assert.Equal(t, srv.URL, out.Endpoint)
	assert.GreaterOrEqual(t, out.DurationMS, int64(0))
	assert.JSONEq(t, `{"model":"gpt-x","messages":[{"role":"user","content":"hi"}]}`, string(gotBody), "body must pass through untouched")
}

func TestExecute_BodyPassThroughPreservesUnknownFields(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient()
	defer client.http.CloseIdleConnections()

	req := jsonRequest(srv.URL, "http")
	req.Body = json.RawMessage(`{"model":"m","vendor_extension":{"nested":true}}`)

	_, err := client.Execute(context.Background(), req, 5)
	require.NoError(t, err)
	assert.JSONEq(t, string(req.Body), string(got))
}

func TestExecute_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   outcome.Code
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, code: outcome.AuthenticationError},
		{name: "forbidden", status: http.StatusForbidden, code: outcome.AuthenticationError},
		{name: "rate limited", status: http.StatusTooManyRequests, code: outcome.RateLimitError},
		{name: "server error", status: http.StatusInternalServerError, code: outcome.NetworkError},
		{name: "bad gateway", status: http.StatusBadGateway, code: outcome.NetworkError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream said no", tc.status)
			}))
			defer srv.Close()

			client := NewClient()
			defer client.http.CloseIdleConnections()

			_, err := client.Execute(context.Background(), jsonRequest(srv.URL, "http"), 5)
			require.Error(t, err)
			assert.Equal(t, tc.code, outcome.CodeOf(err))
			assert.Contains(t, err.Error(), "upstream said no")
		})
	}
}

func TestExecute_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient()
	defer client.http.CloseIdleConnections()

	_, err := client.Execute(context.Background(), jsonRequest(srv.URL, "http"), 1)
	require.Error(t, err)
	assert.Equal(t, outcome.TimeoutError, outcome.CodeOf(err))
}

func TestExecute_CallerCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient()
	defer client.http.CloseIdleConnections()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.Execute(ctx, jsonRequest(srv.URL, "http"), 30)
	require.Error(t, err)
	assert.Equal(t, outcome.Cancelled, outcome.CodeOf(err))
}

func TestExecute_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient()
	defer client.http.CloseIdleConnections()

	_, err := client.Execute(context.Background(), jsonRequest(url, "http"), 5)
	require.Error(t, err)
	assert.Equal(t, outcome.NetworkError, outcome.CodeOf(err))
}

func TestExecute_UnsupportedProtocol(t *testing.T) {
	client := NewClient()
	defer client.http.CloseIdleConnections()

	_, err := client.Execute(context.Background(), jsonRequest("https://api.acme.dev/v1/chat", "grpc"), 5)
	require.Error(t, err)
	assert.Equal(t, outcome.NotImplemented, outcome.CodeOf(err))
}

func TestExecute_InvalidArguments(t *testing.T) {
	client := NewClient()
	defer client.http.CloseIdleConnections()

	_, err := client.Execute(context.Background(), nil, 5)
	assert.Equal(t, outcome.NullPointer, outcome.CodeOf(err))

	_, err = client.Execute(context.Background(), jsonRequest("https://api.acme.dev", "http"), -1)
	assert.Equal(t, outcome.InvalidInput, outcome.CodeOf(err))

	_, err = client.Execute(context.Background(), &Request{Endpoint: Endpoint{Method: "POST"}}, 5)
	assert.Equal(t, outcome.InvalidInput, outcome.CodeOf(err))
}

func TestExecute_EnvHeaderResolution(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	t.Setenv("SPECWIRE_TEST_KEY", "sk-123")

	client := NewClient()
	defer client.http.CloseIdleConnections()

	req := jsonRequest(srv.URL, "http")
	req.Headers = map[string]string{"Authorization": "env:SPECWIRE_TEST_KEY"}

	_, err := client.Execute(context.Background(), req, 5)
	require.NoError(t, err)
	assert.Equal(t, "sk-123", gotAuth)
}

func TestExecute_EnvHeaderUnset(t *testing.T) {
	client := NewClient()
	defer client.http.CloseIdleConnections()

	req := jsonRequest("http://127.0.0.1:0/never-dialed", "http")
	req.Headers = map[string]string{"Authorization": "env:SPECWIRE_DEFINITELY_UNSET"}

	_, err := client.Execute(context.Background(), req, 5)
	require.Error(t, err)
	assert.Equal(t, outcome.AuthenticationError, outcome.CodeOf(err))
	assert.Contains(t, err.Error(), "SPECWIRE_DEFINITELY_UNSET")
}

func TestExecute_SSEStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, acceptEventStream, r.Header.Get("Accept"))
		w.Header().Set("Content-Type", acceptEventStream)
		w.Write([]byte("event: delta\ndata: {\"text\":\"Hel\"}\n\n"))
		w.Write([]byte("event: delta\ndata: {\"text\":\"lo\"}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	client := NewClient()
	defer client.http.CloseIdleConnections()

	out, err := client.Execute(context.Background(), jsonRequest(srv.URL, "sse"), 5)
	require.NoError(t, err)
	assert.True(t, out.Success)

	var stream eventStream
	require.NoError(t, json.Unmarshal(out.Response, &stream))
	require.Len(t, stream.Events, 2)
	assert.Equal(t, "delta", stream.Events[0].Event)
	assert.JSONEq(t, `{"text":"Hel"}`, string(stream.Events[0].Data))
	assert.JSONEq(t, `{"text":"lo"}`, string(stream.Events[1].Data))
}

func TestExecute_SSEStreamEOFWithoutSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", acceptEventStream)
		w.Write([]byte("data: {\"text\":\"only\"}\n\n"))
	}))
	defer srv.Close()

	client := NewClient()
	defer client.http.CloseIdleConnections()

	out, err := client.Execute(context.Background(), jsonRequest(srv.URL, "sse"), 5)
	require.NoError(t, err)

	var stream eventStream
	require.NoError(t, json.Unmarshal(out.Response, &stream))
	require.Len(t, stream.Events, 1)
	assert.JSONEq(t, `{"text":"only"}`, string(stream.Events[0].Data))
}

func TestExecute_SSEMultiLineDataAndComments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", acceptEventStream)
		w.Write([]byte(": keep-alive\n"))
		w.Write([]byte("data: line one\ndata: line two\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	client := NewClient()
	defer client.http.CloseIdleConnections()

	out, err := client.Execute(context.Background(), jsonRequest(srv.URL, "sse"), 5)
	require.NoError(t, err)

	var stream eventStream
	require.NoError(t, json.Unmarshal(out.Response, &stream))
	require.Len(t, stream.Events, 1)

	var data string
	require.NoError(t, json.Unmarshal(stream.Events[0].Data, &data))
	assert.Equal(t, "line one\nline two", data)
}

func TestExecute_NonJSONResponseWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text reply"))
	}))
	defer srv.Close()

	client := NewClient()
	defer client.http.CloseIdleConnections()

	out, err := client.Execute(context.Background(), jsonRequest(srv.URL, "http"), 5)
	require.NoError(t, err)

	var text string
	require.NoError(t, json.Unmarshal(out.Response, &text))
	assert.Equal(t, "plain text reply", text)
}

func TestExecute_DefaultTimeoutApplied(t *testing.T) {
	// Only checks the constant wiring; a 30s wait has no place in tests.
	assert.Equal(t, 30*time.Second, DefaultTimeout)
}
