// Package speccompiler is the HTTP client of the external prompt-spec compiler.
package speccompiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/gokit/httpclient"
	"github.com/kbukum/gokit/httpclient/rest"

	"github.com/davidbz/forge/internal/domain"
)

// Config contains spec compiler configuration.
type Config struct {
	URL     string        `env:"SPEC_COMPILER_URL"     envDefault:"http://localhost:8091"`
	APIKey  string        `env:"SPEC_COMPILER_API_KEY"`
	Timeout time.Duration `env:"SPEC_COMPILER_TIMEOUT" envDefault:"5s"`
}

// Client implements domain.SpecCompiler.
type Client struct {
	rest *rest.Client
}

// NewClient creates a new spec compiler client.
func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, errors.New("spec compiler URL is required")
	}

	cfg := httpclient.Config{BaseURL: config.URL, Timeout: config.Timeout}
	if config.APIKey != "" {
		cfg.Auth = httpclient.BearerAuth(config.APIKey)
	}
	client, err := rest.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create spec compiler client: %w", err)
	}
	return &Client{rest: client}, nil
}

// Compile requests a generation spec for pack.
func (c *Client) Compile(ctx context.Context, pack *domain.ContextPack) (*domain.PromptSpec, error) {
	return c.post(ctx, "/v1/specs/compile", pack)
}

// Repair requests a repair spec for pack.
func (c *Client) Repair(ctx context.Context, pack *domain.ContextPack) (*domain.PromptSpec, error) {
	return c.post(ctx, "/v1/specs/repair", pack)
}

func (c *Client) post(ctx context.Context, path string, pack *domain.ContextPack) (*domain.PromptSpec, error) {
	if pack == nil {
		return nil, errors.New("context pack cannot be nil")
	}

	resp, err := rest.Post[domain.PromptSpec](ctx, c.rest, path, pack)
	if err != nil {
		return nil, fmt.Errorf("spec compiler request failed: %w", err)
	}
	return &resp.Data, nil
}
