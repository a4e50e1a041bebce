// Package anthropic streams completions from the Anthropic Messages API over
// server-sent events and translates them into canonical stream events.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/gokit/httpclient"
	"github.com/kbukum/gokit/httpclient/sse"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/observability"
)

const (
	providerName = "anthropic"
	modelPrefix  = "claude-"
)

var errIncompleteStream = errors.New("anthropic stream ended before message_stop")

// Provider implements the domain.Provider interface for Anthropic.
type Provider struct {
	client *httpclient.Client
	config Config
}

// NewProvider creates a new Anthropic provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com"
	}
	if config.Version == "" {
		config.Version = "2023-06-01"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 8192
	}

	client, err := httpclient.New(httpclient.Config{
		BaseURL: config.BaseURL,
		Auth:    httpclient.APIKeyAuthHeader(config.APIKey, "x-api-key"),
		Headers: map[string]string{
			"anthropic-version": config.Version,
			"Accept":            "text/event-stream",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic client: %w", err)
	}

	// Streams run without a request deadline; only the header wait is bounded.
	if transport, ok := client.Unwrap().Transport.(*http.Transport); ok {
		headerTimeout := 60 * time.Second
		if config.HeaderTimeout > 0 {
			headerTimeout = time.Duration(config.HeaderTimeout) * time.Second
		}
		transport.ResponseHeaderTimeout = headerTimeout
	}

	return &Provider{client: client, config: config}, nil
}

type messageParam struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string         `json:"model"`
	System      string         `json:"system,omitempty"`
	Messages    []messageParam `json:"messages"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature *float64       `json:"temperature,omitempty"`
	Stream      bool           `json:"stream"`
}

type streamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Usage struct {
			InputTokens int `json:"input_tokens"`
		} `json:"usage"`
	} `json:"message,omitempty"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"delta,omitempty"`
	Usage *struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Stream opens a streaming Messages API call. Input tokens arrive with
// message_start and output tokens with message_delta; both are reported in a
// single usage event before completion.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamEvent, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Anthropic streaming API")

	resp, err := p.client.DoStream(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/messages",
		Body:   p.newBody(req),
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	reader := resp.SSE
	if reader == nil {
		reader = sse.NewReader(resp.Body)
	}

	events := make(chan domain.StreamEvent)
	go func() {
		defer close(events)
		defer func() { _ = reader.Close() }()

		send := func(ev domain.StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if streamErr := readStream(reader, send); streamErr != nil {
			logger.Debug("Anthropic stream failed", observability.Error(streamErr))
			send(domain.ErrorEvent(streamErr))
		}
	}()

	return events, nil
}

// readStream decodes events until message_stop. It returns nil once
// completion was delivered or the consumer went away.
func readStream(reader sse.Reader, send func(domain.StreamEvent) bool) error {
	var usage domain.Usage
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return errIncompleteStream
		}
		if err != nil {
			return fmt.Errorf("anthropic stream read failed: %w", err)
		}
		data := strings.TrimSpace(event.Data)
		if data == "" || data == "[DONE]" {
			continue
		}

		var evt streamEvent
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			continue
		}

		switch evt.Type {
		case "message_start":
			if evt.Message != nil {
				usage.InputTokens = evt.Message.Usage.InputTokens
			}
		case "content_block_delta":
			if evt.Delta != nil && evt.Delta.Text != "" {
				if !send(domain.ContentEvent(evt.Delta.Text)) {
					return nil
				}
			}
		case "message_delta":
			if evt.Usage != nil {
				usage.OutputTokens = evt.Usage.OutputTokens
			}
		case "message_stop":
			if !send(domain.UsageEvent(usage.InputTokens, usage.OutputTokens)) {
				return nil
			}
			send(domain.CompleteEvent())
			return nil
		case "error":
			if evt.Error != nil {
				return fmt.Errorf("anthropic API error (%s): %s", evt.Error.Type, evt.Error.Message)
			}
			return errors.New("anthropic API error")
		}
	}
}

func (p *Provider) newBody(req *domain.CompletionRequest) messagesRequest {
	body := messagesRequest{
		Model:     req.Model,
		System:    req.System,
		MaxTokens: p.config.MaxTokens,
		Stream:    true,
	}
	if req.MaxTokens > 0 {
		body.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		temperature := req.Temperature
		body.Temperature = &temperature
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleAssistant:
			body.Messages = append(body.Messages, messageParam{Role: domain.RoleAssistant, Content: msg.Content})
		case domain.RoleSystem:
			if body.System != "" {
				body.System += "\n\n"
			}
			body.System += msg.Content
		default:
			body.Messages = append(body.Messages, messageParam{Role: domain.RoleUser, Content: msg.Content})
		}
	}

	return body
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
	return []string{"claude-sonnet-4-5", "claude-haiku-4-5", "claude-opus-4-1"}
}
