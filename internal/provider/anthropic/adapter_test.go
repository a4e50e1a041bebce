package anthropic_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/gokit/httpclient"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/provider/anthropic"
)

func sse(lines ...string) string {
	var b strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&b, "event: x\ndata: %s\n\n", line)
	}
	return b.String()
}

func newServer(t *testing.T, status int, body string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			require.Equal(t, "/v1/messages", r.URL.Path)
			require.Equal(t, "test-key", r.Header.Get("x-api-key"))
			require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newProvider(t *testing.T, baseURL string) *anthropic.Provider {
	t.Helper()

	provider, err := anthropic.NewProvider(anthropic.Config{APIKey: "test-key", BaseURL: baseURL})
	require.NoError(t, err)
	return provider
}

func drain(events <-chan domain.StreamEvent) (string, domain.Usage, []domain.StreamEvent) {
	var (
		text  strings.Builder
		usage domain.Usage
		all   []domain.StreamEvent
	)
	for ev := range events {
		all = append(all, ev)
		switch ev.Type {
		case domain.EventContent:
			text.WriteString(ev.Text)
		case domain.EventUsage:
			usage = usage.Add(ev.Usage)
		case domain.EventError, domain.EventComplete:
		}
	}
	return text.String(), usage, all
}

func TestStream_TranslatesEvents(t *testing.T) {
	var body map[string]interface{}
	server := newServer(t, http.StatusOK, sse(
		`{"type":"message_start","message":{"usage":{"input_tokens":1000}}}`,
		`{"type":"content_block_start","index":0}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"edge(a, b)"}}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"."}}`,
		`{"type":"message_delta","usage":{"output_tokens":500}}`,
		`{"type":"message_stop"}`,
	), &body)
	provider := newProvider(t, server.URL)

	events, err := provider.Stream(context.Background(), &domain.CompletionRequest{
		Model:  "claude-sonnet-4-5",
		System: "system prompt",
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "write it"},
			{Role: domain.RoleAssistant, Content: "partial"},
			{Role: domain.RoleUser, Content: "continue"},
		},
		MaxTokens: 256,
	})
	require.NoError(t, err)

	text, usage, all := drain(events)
	require.Equal(t, "edge(a, b).", text)
	require.Equal(t, domain.Usage{InputTokens: 1000, OutputTokens: 500}, usage)
	require.Equal(t, domain.EventComplete, all[len(all)-1].Type)

	require.Equal(t, "system prompt", body["system"])
	require.Equal(t, true, body["stream"])
	require.InDelta(t, 256, body["max_tokens"], 0)
	require.Len(t, body["messages"], 3)
}

func TestStream_ErrorEvent(t *testing.T) {
	server := newServer(t, http.StatusOK, sse(
		`{"type":"message_start","message":{"usage":{"input_tokens":10}}}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"par"}}`,
		`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
	), nil)
	provider := newProvider(t, server.URL)

	events, err := provider.Stream(context.Background(), &domain.CompletionRequest{Model: "claude-haiku-4-5"})
	require.NoError(t, err)

	text, _, all := drain(events)
	require.Equal(t, "par", text)
	last := all[len(all)-1]
	require.Equal(t, domain.EventError, last.Type)
	require.ErrorContains(t, last.Err, "Overloaded")
}

func TestStream_TruncatedBodyIsAnError(t *testing.T) {
	server := newServer(t, http.StatusOK, sse(
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"SELECT"}}`,
	), nil)
	provider := newProvider(t, server.URL)

	events, err := provider.Stream(context.Background(), &domain.CompletionRequest{Model: "claude-haiku-4-5"})
	require.NoError(t, err)

	_, _, all := drain(events)
	require.Equal(t, domain.EventError, all[len(all)-1].Type)
}

func TestStream_HTTPStatusError(t *testing.T) {
	server := newServer(t, http.StatusUnauthorized, `{"error":{"message":"invalid x-api-key"}}`, nil)
	provider := newProvider(t, server.URL)

	_, err := provider.Stream(context.Background(), &domain.CompletionRequest{Model: "claude-haiku-4-5"})
	require.ErrorContains(t, err, "HTTP 401")
	require.True(t, httpclient.IsAuth(err))
}

func TestStream_SlowStreamOutlivesHeaderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sse(`{"type":"content_block_delta","delta":{"type":"text_delta","text":"SELECT 1"}}`))
		w.(http.Flusher).Flush()
		time.Sleep(1500 * time.Millisecond)
		fmt.Fprint(w, sse(
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":";"}}`,
			`{"type":"message_stop"}`,
		))
	}))
	t.Cleanup(server.Close)

	provider, err := anthropic.NewProvider(anthropic.Config{APIKey: "test-key", BaseURL: server.URL, HeaderTimeout: 1})
	require.NoError(t, err)

	events, err := provider.Stream(context.Background(), &domain.CompletionRequest{Model: "claude-haiku-4-5"})
	require.NoError(t, err)

	text, _, all := drain(events)
	require.Equal(t, "SELECT 1;", text)
	require.Equal(t, domain.EventComplete, all[len(all)-1].Type)
}

func TestProvider_Models(t *testing.T) {
	_, err := anthropic.NewProvider(anthropic.Config{})
	require.ErrorContains(t, err, "API key is required")

	provider := newProvider(t, "http://127.0.0.1:0")
	ctx := context.Background()

	require.Equal(t, "anthropic", provider.Name())
	require.True(t, provider.IsModelSupported(ctx, "claude-sonnet-4-5"))
	require.False(t, provider.IsModelSupported(ctx, "gpt-4o"))
	require.Contains(t, provider.SupportedModels(ctx), "claude-sonnet-4-5")
}

func TestRegisterPricing(t *testing.T) {
	ctx := context.Background()
	registry := domain.NewInMemoryPricingRegistry()
	require.NoError(t, anthropic.RegisterPricing(ctx, registry))

	calculator := domain.NewStandardCostCalculator(registry)
	cost, priced, err := calculator.Calculate(ctx, "claude-sonnet-4-5", domain.Usage{InputTokens: 1000, OutputTokens: 500})
	require.NoError(t, err)
	require.True(t, priced)
	require.InDelta(t, 0.0105, cost, 1e-12)
}
