package domain_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/davidbz/forge/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedProvider replays one event script per Stream call.
type scriptedProvider struct {
	mu       sync.Mutex
	scripts  [][]domain.StreamEvent
	requests []*domain.CompletionRequest
}

func (p *scriptedProvider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamEvent, error) {
	p.mu.Lock()
	call := len(p.requests)
	p.requests = append(p.requests, req)
	script := p.scripts[min(call, len(p.scripts)-1)]
	p.mu.Unlock()

	events := make(chan domain.StreamEvent)
	go func() {
		defer close(events)
		for _, ev := range script {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) IsModelSupported(_ context.Context, model string) bool {
	return model == "test-model"
}

func (p *scriptedProvider) SupportedModels(_ context.Context) []string { return []string{"test-model"} }

func (p *scriptedProvider) calls() []*domain.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.CompletionRequest(nil), p.requests...)
}

// singleProviderRegistry serves every model the provider supports.
type singleProviderRegistry struct {
	provider domain.Provider
}

func (r singleProviderRegistry) Register(_ context.Context, _ domain.Provider) error { return nil }

func (r singleProviderRegistry) Get(_ context.Context, _ string) (domain.Provider, error) {
	return r.provider, nil
}

func (r singleProviderRegistry) GetByModel(ctx context.Context, model string) (domain.Provider, error) {
	if !r.provider.IsModelSupported(ctx, model) {
		return nil, errors.New("no provider for model")
	}
	return r.provider, nil
}

func (r singleProviderRegistry) List(_ context.Context) ([]string, error) {
	return []string{r.provider.Name()}, nil
}

func newGenerator(provider *scriptedProvider, maxContinuations int) *domain.StreamingGenerator {
	return domain.NewStreamingGenerator(singleProviderRegistry{provider: provider}, nil, maxContinuations)
}

var sqlOpts = domain.GenerateOptions{Model: "test-model", Terminator: ";", MaxTokens: 100}

func collect(seq func(func(domain.StreamEvent) bool)) []domain.StreamEvent {
	var out []domain.StreamEvent
	for ev := range seq {
		out = append(out, ev)
	}
	return out
}

func terminalCount(events []domain.StreamEvent) int {
	n := 0
	for _, ev := range events {
		if ev.Type == domain.EventError || ev.Type == domain.EventComplete {
			n++
		}
	}
	return n
}

func TestStreamingGenerator_SingleCall(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]domain.StreamEvent{{
		domain.ContentEvent("```sql\nSELECT "),
		domain.ContentEvent("1;\n```"),
		domain.UsageEvent(12, 5),
		domain.CompleteEvent(),
	}}}

	events := collect(newGenerator(provider, 3).Generate(context.Background(), "sys", []domain.Message{
		{Role: domain.RoleUser, Content: "one"},
	}, sqlOpts))

	require.Len(t, events, 4)
	require.Equal(t, domain.EventComplete, events[3].Type)
	require.Equal(t, 1, terminalCount(events))

	calls := provider.calls()
	require.Len(t, calls, 1)
	require.Equal(t, "sys", calls[0].System)
	require.Equal(t, 100, calls[0].MaxTokens)
}

func TestStreamingGenerator_ContinuesTruncatedOutput(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]domain.StreamEvent{
		{domain.ContentEvent("```sql\nSELECT COUNT(*)"), domain.UsageEvent(10, 4), domain.CompleteEvent()},
		{domain.ContentEvent(" FROM users;\n```"), domain.UsageEvent(20, 3), domain.CompleteEvent()},
	}}
	input := []domain.Message{{Role: domain.RoleUser, Content: "count users"}}

	result := newGenerator(provider, 3).GenerateLongCode(context.Background(), "sys", input, sqlOpts)

	require.NoError(t, result.Err)
	require.Equal(t, "```sql\nSELECT COUNT(*) FROM users;\n```", result.Content)
	require.Equal(t, domain.Usage{InputTokens: 30, OutputTokens: 7}, result.Usage)
	require.Equal(t, 2, result.ChunkCount)

	calls := provider.calls()
	require.Len(t, calls, 2)
	require.Equal(t, []domain.Message{
		{Role: domain.RoleUser, Content: "count users"},
		{Role: domain.RoleAssistant, Content: "```sql\nSELECT COUNT(*)"},
		{Role: domain.RoleUser, Content: domain.ContinuePrompt},
	}, calls[1].Messages)
	require.Len(t, input, 1)
}

func TestStreamingGenerator_ContinuationBound(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]domain.StreamEvent{
		{domain.ContentEvent("```sql\nSELECT"), domain.UsageEvent(1, 1), domain.CompleteEvent()},
		{domain.ContentEvent(" more"), domain.UsageEvent(1, 1), domain.CompleteEvent()},
	}}

	events := collect(newGenerator(provider, 2).Generate(context.Background(), "", nil, sqlOpts))

	require.Len(t, provider.calls(), 3)
	require.Equal(t, domain.EventComplete, events[len(events)-1].Type)
	require.Equal(t, 1, terminalCount(events))
}

func TestStreamingGenerator_NoContinuation(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]domain.StreamEvent{
		{domain.ContentEvent("SELECT"), domain.CompleteEvent()},
	}}

	result := newGenerator(provider, -1).GenerateLongCode(context.Background(), "", nil, sqlOpts)

	require.NoError(t, result.Err)
	require.Equal(t, "SELECT", result.Content)
	require.Len(t, provider.calls(), 1)
}

func TestStreamingGenerator_TransportErrorKeepsPartialOutput(t *testing.T) {
	transportErr := errors.New("connection reset")
	provider := &scriptedProvider{scripts: [][]domain.StreamEvent{{
		domain.ContentEvent("SELECT 1"),
		domain.UsageEvent(3, 1),
		domain.ErrorEvent(transportErr),
		domain.ContentEvent("never forwarded"),
	}}}

	events := collect(newGenerator(provider, 3).Generate(context.Background(), "", nil, sqlOpts))
	require.Equal(t, 1, terminalCount(events))
	require.Equal(t, domain.EventError, events[len(events)-1].Type)

	result := newGenerator(provider, 3).GenerateLongCode(context.Background(), "", nil, sqlOpts)
	require.ErrorIs(t, result.Err, transportErr)
	require.Equal(t, "SELECT 1", result.Content)
	require.Equal(t, domain.Usage{InputTokens: 3, OutputTokens: 1}, result.Usage)
}

func TestStreamingGenerator_StreamEndsWithoutTerminal(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]domain.StreamEvent{{
		domain.ContentEvent("SELECT 1;"),
	}}}

	result := newGenerator(provider, 3).GenerateLongCode(context.Background(), "", nil, sqlOpts)

	require.ErrorIs(t, result.Err, domain.ErrStreamInterrupted)
	require.Equal(t, "SELECT 1;", result.Content)
}

func TestStreamingGenerator_UnknownModel(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]domain.StreamEvent{{domain.CompleteEvent()}}}

	events := collect(newGenerator(provider, 3).Generate(context.Background(), "", nil, domain.GenerateOptions{Model: "other"}))

	require.Len(t, events, 1)
	require.Equal(t, domain.EventError, events[0].Type)
	require.Empty(t, provider.calls())
}

func TestStreamingGenerator_LazyAndSingleUse(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]domain.StreamEvent{{
		domain.ContentEvent("SELECT 1;"), domain.CompleteEvent(),
	}}}

	seq := newGenerator(provider, 3).Generate(context.Background(), "", nil, sqlOpts)
	require.Empty(t, provider.calls())

	first := collect(seq)
	require.Len(t, first, 2)
	require.Len(t, provider.calls(), 1)

	second := collect(seq)
	require.Len(t, second, 1)
	require.ErrorIs(t, second[0].Err, domain.ErrStreamConsumed)
	require.Len(t, provider.calls(), 1)
}

func TestStreamingGenerator_EarlyStopReleasesProvider(t *testing.T) {
	provider := &scriptedProvider{scripts: [][]domain.StreamEvent{{
		domain.ContentEvent("a"),
		domain.ContentEvent("b"),
		domain.ContentEvent("c"),
		domain.CompleteEvent(),
	}}}

	var got []string
	for ev := range newGenerator(provider, 3).Generate(context.Background(), "", nil, sqlOpts) {
		got = append(got, ev.Text)
		break
	}

	require.Equal(t, []string{"a"}, got)
}

func TestIsTruncated(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		terminator string
		expected   bool
	}{
		{name: "balanced fences with terminator", text: "```sql\nSELECT 1;\n```", terminator: ";", expected: false},
		{name: "odd fence count", text: "```sql\nSELECT 1;", terminator: ";", expected: true},
		{name: "missing terminator", text: "```sql\nSELECT 1\n```", terminator: ";", expected: true},
		{name: "no terminator required", text: "up{job=\"api\"}", terminator: "", expected: false},
		{name: "empty output", text: "", terminator: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, domain.IsTruncated(tt.text, tt.terminator))
		})
	}
}
