// Package openai provides a streaming adapter for the OpenAI chat API using
// the official SDK. It implements domain.Provider and translates SDK chunks
// into canonical stream events.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/observability"
)

const providerName = "openai"

// Provider implements the domain.Provider interface for OpenAI.
type Provider struct {
	client openai.Client
	name   string
	models map[string]bool
}

// NewProvider creates a new OpenAI provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.HeaderTimeout > 0 {
		opts = append(opts, option.WithHTTPClient(streamingHTTPClient(time.Duration(config.HeaderTimeout)*time.Second)))
	}

	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	if config.Organization != "" {
		opts = append(opts, option.WithOrganization(config.Organization))
	}

	return &Provider{
		client: openai.NewClient(opts...),
		name:   providerName,
		models: buildModelSet(append(SupportedModels(), config.ExtraModels...)),
	}, nil
}

// streamingHTTPClient bounds connection setup and the wait for response
// headers. The body read has no deadline; the caller's context ends it.
func streamingHTTPClient(headerTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // stdlib default
	transport.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: transport}
}

// Stream sends a streaming chat request and returns canonical events.
// Usage is requested through stream options and arrives in the final chunk.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamEvent, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI streaming API")

	stream := p.client.Chat.Completions.NewStreaming(ctx, p.toSDKParams(req))
	events := make(chan domain.StreamEvent)

	go func() {
		defer close(events)
		defer stream.Close()
		defer logger.Debug("OpenAI stream completed")

		send := func(ev domain.StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for stream.Next() {
			chunk := stream.Current()

			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !send(domain.ContentEvent(choice.Delta.Content)) {
					return
				}
			}

			if chunk.Usage.PromptTokens > 0 || chunk.Usage.CompletionTokens > 0 {
				if !send(domain.UsageEvent(int(chunk.Usage.PromptTokens), int(chunk.Usage.CompletionTokens))) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil && !errors.Is(err, io.EOF) {
			send(domain.ErrorEvent(fmt.Errorf("OpenAI stream error: %w", err)))
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
	if p.models[model] {
		return true
	}
	for _, prefix := range modelPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// SupportedModels returns the models announced to the registry.
func (p *Provider) SupportedModels(_ context.Context) []string {
	return SupportedModels()
}

// toSDKParams converts a domain request to SDK ChatCompletionNewParams.
func (p *Provider) toSDKParams(req *domain.CompletionRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case domain.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	return params
}
