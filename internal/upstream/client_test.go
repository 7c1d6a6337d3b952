package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/varsilias/researchpaper/internal/logging"
	"github.com/varsilias/researchpaper/pkg/types"
)

func newTestClient(url string) *HTTPClient {
	return NewHTTPClient(Options{
		BaseURL:  url + "/",
		APIKey:   " sk-test ",
		SiteURL:  "https://example.test",
		SiteName: "Example",
		Timeout:  time.Second,
	}, logging.Discard())
}

func TestChatCompletionsSendsRequest(t *testing.T) {
	const reply = `{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"hi"}}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "https://example.test", r.Header.Get("HTTP-Referer"))
		require.Equal(t, "Example", r.Header.Get("X-Title"))

		var got ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Equal(t, "m1", got.Model)
		require.Equal(t, []types.Message{{Role: types.RoleUser, Content: "hello"}}, got.Messages)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, reply)
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).ChatCompletions(context.Background(), &ChatRequest{
		Model:    "m1",
		Messages: []types.Message{{Role: types.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", resp.StatusText)
	require.Equal(t, reply, string(resp.Body))
}

func TestChatCompletionsReturnsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).ChatCompletions(context.Background(), &ChatRequest{Model: "m"})
	require.NoError(t, err)
	require.False(t, resp.OK())
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "Too Many Requests", resp.StatusText)

	msg, ok := ErrorMessage(resp.Body)
	require.True(t, ok)
	require.Equal(t, "rate limited", msg)
}

func TestChatCompletionsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).ChatCompletions(context.Background(), &ChatRequest{Model: "m"})
	require.Error(t, err)
}

func TestClientOmitsEmptyOptionalHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		require.Empty(t, r.Header.Get("Authorization"))
		require.Empty(t, r.Header.Get("HTTP-Referer"))
		require.Empty(t, r.Header.Get("X-Title"))
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	c := NewHTTPClient(Options{BaseURL: server.URL}, logging.Discard())
	_, err := c.ChatCompletions(context.Background(), &ChatRequest{Model: "m"})
	require.NoError(t, err)
}

func TestModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		fmt.Fprint(w, `{"data":[{"id":"a/b"},{"id":"c/d","name":"C D"}]}`)
	}))
	defer server.Close()

	models, err := newTestClient(server.URL).Models(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Model{{ID: "a/b"}, {ID: "c/d", Name: "C D"}}, models)
}

func TestModelsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"No auth credentials found"}}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Models(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusUnauthorized, se.StatusCode)
	require.Equal(t, "No auth credentials found", se.Message)
}

func TestErrorMessage(t *testing.T) {
	_, ok := ErrorMessage([]byte("<html>bad gateway</html>"))
	require.False(t, ok)
	_, ok = ErrorMessage([]byte(`{"error":{}}`))
	require.False(t, ok)
}

func TestEchoClient(t *testing.T) {
	e := NewEchoClient("demo-model", 0)
	resp, err := e.ChatCompletions(context.Background(), &ChatRequest{
		Model: "demo-model",
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: "sys"},
			{Role: types.RoleUser, Content: "first"},
			{Role: types.RoleAssistant, Content: "reply"},
			{Role: types.RoleUser, Content: "second"},
		},
	})
	require.NoError(t, err)
	require.True(t, resp.OK())

	var c Completion
	require.NoError(t, json.Unmarshal(resp.Body, &c))
	content, ok := c.FirstContent()
	require.True(t, ok)
	require.Equal(t, "(demo:demo-model) you said: second", content)

	models, err := e.Models(context.Background())
	require.NoError(t, err)
	require.Equal(t, "demo-model", models[0].ID)
}

func TestEchoClientHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEchoClient("m", time.Minute).ChatCompletions(ctx, &ChatRequest{Model: "m"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompletionFirstContent(t *testing.T) {
	var c Completion
	require.NoError(t, json.Unmarshal([]byte(`{"choices":[]}`), &c))
	_, ok := c.FirstContent()
	require.False(t, ok)

	require.NoError(t, json.Unmarshal([]byte(`{"choices":[{"finish_reason":"stop"}]}`), &c))
	_, ok = c.FirstContent()
	require.False(t, ok)
}
