package openai_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/provider/openai"
)

func sseServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(server.Close)
	return server
}

func newProvider(t *testing.T, baseURL string) *openai.Provider {
	t.Helper()

	provider, err := openai.NewProvider(openai.Config{APIKey: "test-key", BaseURL: baseURL, HeaderTimeout: 5})
	require.NoError(t, err)
	return provider
}

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	_, err := openai.NewProvider(openai.Config{})
	require.ErrorContains(t, err, "API key is required")
}

func TestStream_EmitsContentUsageAndCompletion(t *testing.T) {
	server := sseServer(t,
		`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"SELECT "},"finish_reason":null}]}`,
		`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"1;"},"finish_reason":"stop"}]}`,
		`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`,
	)
	provider := newProvider(t, server.URL)

	events, err := provider.Stream(context.Background(), &domain.CompletionRequest{
		Model:    "gpt-4o",
		System:   "write sql",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "one"}},
	})
	require.NoError(t, err)

	var (
		text  strings.Builder
		usage domain.Usage
		last  domain.StreamEvent
	)
	for ev := range events {
		switch ev.Type {
		case domain.EventContent:
			text.WriteString(ev.Text)
		case domain.EventUsage:
			usage = usage.Add(ev.Usage)
		case domain.EventError, domain.EventComplete:
		}
		last = ev
	}

	require.Equal(t, "SELECT 1;", text.String())
	require.Equal(t, domain.Usage{InputTokens: 12, OutputTokens: 3}, usage)
	require.Equal(t, domain.EventComplete, last.Type)
}

func TestStream_SlowStreamOutlivesHeaderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"SELECT "},"finish_reason":null}]}`+"\n\n")
		w.(http.Flusher).Flush()
		time.Sleep(1500 * time.Millisecond)
		fmt.Fprint(w, `data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"1;"},"finish_reason":"stop"}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(server.Close)

	provider, err := openai.NewProvider(openai.Config{APIKey: "test-key", BaseURL: server.URL, HeaderTimeout: 1})
	require.NoError(t, err)

	events, err := provider.Stream(context.Background(), &domain.CompletionRequest{Model: "gpt-4o"})
	require.NoError(t, err)

	var (
		text strings.Builder
		last domain.StreamEvent
	)
	for ev := range events {
		if ev.Type == domain.EventContent {
			text.WriteString(ev.Text)
		}
		last = ev
	}
	require.Equal(t, "SELECT 1;", text.String())
	require.Equal(t, domain.EventComplete, last.Type)
}

func TestStream_HTTPErrorBecomesErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	}))
	t.Cleanup(server.Close)
	provider := newProvider(t, server.URL)

	events, err := provider.Stream(context.Background(), &domain.CompletionRequest{Model: "gpt-4o"})
	require.NoError(t, err)

	var got []domain.StreamEvent
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 1)
	require.Equal(t, domain.EventError, got[0].Type)
	require.Error(t, got[0].Err)
}

func TestStream_NilRequest(t *testing.T) {
	provider := newProvider(t, "http://127.0.0.1:0")

	_, err := provider.Stream(context.Background(), nil)
	require.ErrorContains(t, err, "request cannot be nil")
}

func TestIsModelSupported(t *testing.T) {
	provider := newProvider(t, "http://127.0.0.1:0")
	ctx := context.Background()

	require.True(t, provider.IsModelSupported(ctx, "gpt-4o"))
	require.True(t, provider.IsModelSupported(ctx, "gpt-4o-2024-08-06"))
	require.False(t, provider.IsModelSupported(ctx, "claude-sonnet-4-5"))
	require.Equal(t, "openai", provider.Name())
}

func TestIsModelSupported_ExtraModels(t *testing.T) {
	provider, err := openai.NewProvider(openai.Config{
		APIKey:       "test-key",
		Organization: "org-test",
		ExtraModels:  []string{" ft:gpt-4o-mini:acme::sql ", ""},
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.True(t, provider.IsModelSupported(ctx, "ft:gpt-4o-mini:acme::sql"))
	require.False(t, provider.IsModelSupported(ctx, ""))
}

func TestRegisterPricing(t *testing.T) {
	ctx := context.Background()
	registry := domain.NewInMemoryPricingRegistry()

	require.NoError(t, openai.RegisterPricing(ctx, registry))

	pricing, err := registry.GetPricing(ctx, "gpt-4o")
	require.NoError(t, err)
	require.InDelta(t, 2.5, pricing.InputCostPerMillion, 1e-9)
	require.InDelta(t, 10.0, pricing.OutputCostPerMillion, 1e-9)
}
