package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergePrecedence(t *testing.T) {
	server := Config{APIKey: "server-key", Model: "server-model"}
	merged := server.Merge(Config{APIKey: "body-key", APIURL: "https://example.com/v1", Model: "body-model"})

	assert.Equal(t, "server-key", merged.APIKey)
	assert.Equal(t, "https://example.com/v1", merged.APIURL)
	assert.Equal(t, "body-model", merged.Model)
	assert.Equal(t, DefaultTimeout, merged.Timeout)

	defaults := Config{}.Merge(Config{})
	assert.Equal(t, DefaultAPIURL, defaults.APIURL)
	assert.Equal(t, DefaultModel, defaults.Model)
	assert.Empty(t, defaults.APIKey)
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://dashscope.aliyuncs.com/compatible-mode/v1/", baseURL(DefaultAPIURL))
	assert.Equal(t, "http://localhost:8080/v1/", baseURL("http://localhost:8080/v1"))
	assert.Equal(t, "http://localhost:8080/v1/", baseURL("http://localhost:8080/v1/chat/completions/"))
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCompleteSendsChatRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"null"}}]}`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "k", APIURL: srv.URL + "/v1/chat/completions", Model: "m1"})
	require.NoError(t, err)

	thinking := true
	resp, err := client.Complete(context.Background(), Request{
		System: "be brief",
		Messages: []Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
			{Role: "user", Content: "   "},
			{Role: "user", Content: "plan a trip"},
		},
		EnableThinking: &thinking,
	})
	require.NoError(t, err)

	assert.Equal(t, "null", resp.Text)
	assert.Contains(t, string(resp.Raw), "chat.completion")
	assert.Equal(t, "m1", got["model"])
	assert.Equal(t, true, got["enable_thinking"])
	require.Contains(t, got, "stream")
	assert.Equal(t, false, got["stream"])

	messages := got["messages"].([]any)
	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", messages[2].(map[string]any)["role"])
	assert.Equal(t, "plan a trip", messages[3].(map[string]any)["content"])
}

func TestCompletePlainTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("I cannot comply."))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "k", APIURL: srv.URL})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "x"}}})
	require.NoError(t, err)
	assert.Equal(t, "I cannot comply.", resp.Text)
}

func TestCompleteStatusError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "bad", APIURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "x"}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamStatus))
	assert.False(t, errors.Is(err, ErrUnreachable))

	var uerr *UpstreamError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, http.StatusUnauthorized, uerr.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestCompleteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := New(Config{APIKey: "k", APIURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "x"}}})
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestLoadPrompts(t *testing.T) {
	p, err := LoadPrompts("")
	require.NoError(t, err)
	assert.Contains(t, p.Modify, "new_items")
	assert.Contains(t, p.Plan, "local_id")
	assert.NotEmpty(t, p.Chat)

	_, err = LoadPrompts("/does/not/exist.yaml")
	assert.Error(t, err)
}
