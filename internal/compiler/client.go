// Package compiler talks to the external compiler service: ephemeral compile
// tasks, dialect grammars and source formatting.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kbukum/gokit/httpclient"
	"github.com/kbukum/gokit/httpclient/rest"

	"github.com/davidbz/forge/internal/domain"
)

// ErrEmptyGrammar is returned when the service has no grammar for a dialect.
var ErrEmptyGrammar = errors.New("compiler returned an empty grammar")

// Client implements domain.CompilerClient, domain.Formatter and
// domain.InstructionSource over HTTP.
type Client struct {
	rest *rest.Client
}

// NewClient creates a new compiler client.
func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, errors.New("compiler URL is required")
	}

	cfg := httpclient.Config{BaseURL: config.URL, Timeout: config.Timeout}
	if config.APIKey != "" {
		cfg.Auth = httpclient.BearerAuth(config.APIKey)
	}
	client, err := rest.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create compiler client: %w", err)
	}
	return &Client{rest: client}, nil
}

type submitRequest struct {
	Source    string `json:"source"`
	Dialect   string `json:"dialect"`
	Ephemeral bool   `json:"ephemeral"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

// Submit registers an ephemeral compile task.
func (c *Client) Submit(ctx context.Context, source, dialect string) (string, error) {
	resp, err := rest.Post[submitResponse](ctx, c.rest, "/v1/tasks", submitRequest{
		Source:    source,
		Dialect:   dialect,
		Ephemeral: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit compile task: %w", err)
	}
	if resp.Data.TaskID == "" {
		return "", errors.New("compiler returned no task id")
	}
	return resp.Data.TaskID, nil
}

// FetchResult reads a task result on behalf of the caller's token.
func (c *Client) FetchResult(ctx context.Context, taskID, authToken string) (*domain.TaskResult, error) {
	path := "/v1/tasks/" + url.PathEscape(taskID) + "/result"
	var opts []rest.RequestOption
	if token := strings.TrimSpace(strings.TrimPrefix(authToken, "Bearer ")); token != "" {
		opts = append(opts, rest.WithAuth(httpclient.BearerAuth(token)))
	}
	resp, err := rest.Get[domain.TaskResult](ctx, c.rest, path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task %s: %w", taskID, err)
	}
	return &resp.Data, nil
}

type grammarResponse struct {
	Grammar string `json:"grammar"`
}

// Instructions returns the dialect grammar published by the compiler.
func (c *Client) Instructions(ctx context.Context, dialect string) (string, error) {
	path := "/v1/dialects/" + url.PathEscape(dialect) + "/grammar"
	resp, err := rest.Get[grammarResponse](ctx, c.rest, path)
	if err != nil {
		return "", fmt.Errorf("failed to fetch grammar for %s: %w", dialect, err)
	}
	grammar := strings.TrimSpace(resp.Data.Grammar)
	if grammar == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyGrammar, dialect)
	}
	return grammar, nil
}

type formatBody struct {
	Source  string `json:"source"`
	Dialect string `json:"dialect,omitempty"`
}

// Format canonicalizes source with the compiler's formatter.
func (c *Client) Format(ctx context.Context, source, dialect string) (string, error) {
	resp, err := rest.Post[formatBody](ctx, c.rest, "/v1/format", formatBody{Source: source, Dialect: dialect})
	if err != nil {
		return "", fmt.Errorf("failed to format source: %w", err)
	}
	return resp.Data.Source, nil
}
