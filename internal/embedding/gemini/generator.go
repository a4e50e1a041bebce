// Package gemini generates retrieval embeddings with the Gemini embeddings API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/davidbz/forge/internal/domain"
)

const defaultDimension = 768

// Config holds configuration for the Gemini embedding generator.
type Config struct {
	APIKey    string `env:"GEMINI_API_KEY"`
	BaseURL   string `env:"GEMINI_BASE_URL"`
	Model     string `env:"GEMINI_EMBEDDING_MODEL" envDefault:"gemini-embedding-001"`
	Dimension int    `env:"GEMINI_EMBEDDING_DIMENSION" envDefault:"768"`
}

// Generator generates query and document embeddings using Gemini.
type Generator struct {
	client    *genai.Client
	model     string
	dimension int
}

// NewGenerator creates a new Gemini embedding generator.
func NewGenerator(ctx context.Context, config Config) (*Generator, error) {
	if config.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if config.Model == "" {
		config.Model = "gemini-embedding-001"
	}
	if config.Dimension <= 0 {
		config.Dimension = defaultDimension
	}

	clientConfig := &genai.ClientConfig{APIKey: config.APIKey, Backend: genai.BackendGeminiAPI}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Generator{client: client, model: config.Model, dimension: config.Dimension}, nil
}

// Generate creates a retrieval-query embedding from text.
func (g *Generator) Generate(ctx context.Context, text string) ([]float64, error) {
	return g.embed(ctx, text, "RETRIEVAL_QUERY")
}

// GenerateDocument creates a retrieval-document embedding for stored examples.
func (g *Generator) GenerateDocument(ctx context.Context, text string) ([]float64, error) {
	return g.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

func (g *Generator) embed(ctx context.Context, text, taskType string) ([]float64, error) {
	if text == "" {
		return nil, errors.New("text cannot be empty")
	}

	dimension := int32(g.dimension) //nolint:gosec // configured dimension
	result, err := g.client.Models.EmbedContent(ctx,
		g.model,
		[]*genai.Content{genai.NewContentFromText(domain.TruncateEmbeddingInput(text), genai.RoleUser)},
		&genai.EmbedContentConfig{
			TaskType:             taskType,
			OutputDimensionality: &dimension,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("Gemini embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, errors.New("no embeddings returned")
	}

	values := result.Embeddings[0].Values
	vector := make([]float64, len(values))
	for i, v := range values {
		vector[i] = float64(v)
	}
	return vector, nil
}

// Name returns the generator identifier.
func (g *Generator) Name() string {
	return "gemini"
}

// Dimension returns the vector dimension.
func (g *Generator) Dimension() int {
	return g.dimension
}
