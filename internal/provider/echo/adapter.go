// Package echo provides a testing provider that echoes back the latest user turn.
// It implements the domain.Provider interface without making external API calls,
// providing deterministic streams for development and pipeline tests.
package echo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/observability"
)

const (
	providerName = "echo"

	// Model is the default echo tier.
	Model = "echo4"
	// PremiumModel is the echo tier used after escalation.
	PremiumModel = "echo4-pro"

	chunkDelay = time.Millisecond
)

// Provider implements the domain.Provider interface for echo testing.
// Echo models carry no pricing so usage is billed by tokens.
type Provider struct {
	name            string
	supportedModels map[string]bool
}

// NewProvider creates a new echo provider.
func NewProvider() *Provider {
	return &Provider{
		name: providerName,
		supportedModels: map[string]bool{
			Model:        true,
			PremiumModel: true,
		},
	}
}

// Stream emits the latest user message wrapped in a code fence, word by
// word, followed by usage and completion events.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamEvent, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if !p.supportedModels[req.Model] {
		return nil, fmt.Errorf("model %s is not supported by echo provider", req.Model)
	}

	logger := observability.FromContext(ctx)
	logger.Debug("streaming echo request")

	content := buildEchoContent(req.Messages)
	inputTokens := countTokens(req.System)
	for _, msg := range req.Messages {
		inputTokens += countTokens(msg.Content)
	}
	outputTokens := countTokens(content)

	events := make(chan domain.StreamEvent)

	go func() {
		defer close(events)

		send := func(ev domain.StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for _, piece := range strings.SplitAfter(content, " ") {
			if piece == "" {
				continue
			}
			if !send(domain.ContentEvent(piece)) {
				return
			}
			time.Sleep(chunkDelay)
		}

		if !send(domain.UsageEvent(inputTokens, outputTokens)) {
			return
		}
		send(domain.CompleteEvent())
	}()

	return events, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return p.supportedModels[model]
}

// SupportedModels returns a list of all models this provider supports.
func (p *Provider) SupportedModels(_ context.Context) []string {
	return []string{Model, PremiumModel}
}

// buildEchoContent fences the last user message.
func buildEchoContent(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return "```\n" + strings.TrimSpace(messages[i].Content) + "\n```"
		}
	}
	return ""
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Fields(content))
}
