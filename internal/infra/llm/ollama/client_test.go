package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/ai-booksum/internal/domain/booksum"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{BaseURL: baseURL, Model: "test-model", Temperature: 0.3, MaxOutputTokens: 256})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresModel(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://localhost:11434"})
	require.Error(t, err)
}

func TestGenerateSendsChatRequest(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Role: "assistant", Content: "hello"}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	out, err := client.Generate(context.Background(), booksum.GenerateRequest{
		System: "be brief",
		Prompt: "say hello",
	})
	require.NoError(t, err)
	require.Equal(t, "hello", out)

	require.Equal(t, "test-model", captured.Model)
	require.False(t, captured.Stream)
	require.Equal(t, 0.3, captured.Options.Temperature)
	require.Equal(t, 256, captured.Options.NumPredict)
	require.Equal(t, []chatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "say hello"},
	}, captured.Messages)
}

func TestGenerateOmitsEmptySystemMessage(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), booksum.GenerateRequest{Prompt: "just this"})
	require.NoError(t, err)

	require.Equal(t, []chatMessage{{Role: "user", Content: "just this"}}, captured.Messages)
}

func TestGenerateRequestModelOverride(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), booksum.GenerateRequest{Model: "other-model", Prompt: "p"})
	require.NoError(t, err)
	require.Equal(t, "other-model", captured.Model)
}

func TestGeneratePassesEmptyContentThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Role: "assistant", Content: ""}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	out, err := client.Generate(context.Background(), booksum.GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestGenerateBackendDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), booksum.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	require.ErrorIs(t, err, booksum.ErrBackendUnreachable)
}

func TestGenerateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model out of memory", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), booksum.GenerateRequest{Prompt: "p"})
	require.Error(t, err)

	var httpErr *booksum.BackendHTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	require.Contains(t, httpErr.Body, "model out of memory")
}

func TestGenerateCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, booksum.GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
	require.False(t, errors.Is(err, booksum.ErrBackendUnreachable))
}

func TestStatusOnline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"test-model:latest"},{"name":"llama2:7b"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	status := client.Status(context.Background(), "")

	require.True(t, status.Online)
	require.Equal(t, "test-model", status.ConfiguredModel)
	require.Equal(t, []string{"test-model:latest", "llama2:7b"}, status.AvailableModels)
	require.True(t, status.ModelAvailable)
	require.Empty(t, status.ErrorMessage)
}

func TestStatusOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)
	status := client.Status(context.Background(), "")

	require.False(t, status.Online)
	require.False(t, status.ModelAvailable)
	require.NotEmpty(t, status.ErrorMessage)
}

func TestStatusProbeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	status := client.Status(context.Background(), "")

	require.False(t, status.Online)
	require.Contains(t, status.ErrorMessage, "502")
}

func TestModelAvailable(t *testing.T) {
	tests := []struct {
		configured string
		available  []string
		want       bool
	}{
		{"llama3.1:70b-instruct-q4_K_M", []string{"llama3.1:70b-instruct-q4_K_M"}, true},
		{"llama3.1:70b-instruct-q4", []string{"llama3.1:70b-instruct-q4_K_M"}, true},
		{"llama3.1", []string{"llama3.1:latest"}, true},
		{"mistral", []string{"llama2:7b", "llama3.1:latest"}, false},
		{"llama2:7b", nil, false},
	}

	for _, tc := range tests {
		got := ModelAvailable(tc.configured, tc.available)
		require.Equal(t, tc.want, got, "ModelAvailable(%q, %v)", tc.configured, tc.available)
	}
}
