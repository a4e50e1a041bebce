// Package gemini streams completions from the Gemini API through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/observability"
)

const (
	providerName = "gemini"
	modelPrefix  = "gemini-"
)

// Provider implements the domain.Provider interface for Gemini.
type Provider struct {
	client *genai.Client
}

// NewProvider creates a new Gemini provider.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Provider{client: client}, nil
}

// Stream runs GenerateContentStream. Usage metadata is cumulative per chunk,
// so only the last reported value is emitted.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamEvent, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	contents, config := toSDKRequest(req)
	logger := observability.FromContext(ctx)
	logger.Debug("calling Gemini streaming API")

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

		var usage *genai.GenerateContentResponseUsageMetadata
		for resp, err := range p.client.Models.GenerateContentStream(ctx, req.Model, contents, config) {
			if err != nil {
				send(domain.ErrorEvent(fmt.Errorf("Gemini stream error: %w", err)))
				return
			}
			if resp.UsageMetadata != nil {
				usage = resp.UsageMetadata
			}
			if text := resp.Text(); text != "" {
				if !send(domain.ContentEvent(text)) {
					return
				}
			}
		}

		if usage != nil {
			if !send(domain.UsageEvent(int(usage.PromptTokenCount), int(usage.CandidatesTokenCount))) {
				return
			}
		}
		send(domain.CompleteEvent())
	}()

	return events, nil
}

func toSDKRequest(req *domain.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	system := req.System

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		case domain.RoleSystem:
			system = strings.TrimSpace(system + "\n\n" + msg.Content)
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(min(req.MaxTokens, math.MaxInt32)) //nolint:gosec // clamped to MaxInt32
	}

	return contents, config
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// IsModelSupported checks if the provider supports the given model.
func (p *Provider) IsModelSupported(_ context.Context, model string) bool {
	return strings.HasPrefix(model, modelPrefix)
}

// SupportedModels returns the models announced to the registry.
func (p *Provider) SupportedModels(_ context.Context) []string {
	return []string{"gemini-2.5-flash", "gemini-2.5-pro"}
}
