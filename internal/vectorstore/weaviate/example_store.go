// Package weaviate serves corpus examples from a Weaviate class with
// caller-supplied vectors.
package weaviate

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/observability"
)

// Config holds the Weaviate connection settings.
type Config struct {
	URL       string `env:"WEAVIATE_URL"   envDefault:"http://localhost:8080"`
	ClassName string `env:"WEAVIATE_CLASS" envDefault:"ForgeExample"`
}

// ExampleStore implements domain.ExampleStore on Weaviate nearVector search.
type ExampleStore struct {
	client    *weaviate.Client
	className string
}

// NewExampleStore connects to Weaviate and ensures the example class exists.
func NewExampleStore(ctx context.Context, config Config) (*ExampleStore, error) {
	cfg := weaviate.Config{Host: config.URL, Scheme: "http"}
	switch {
	case strings.HasPrefix(config.URL, "https://"):
		cfg.Scheme = "https"
		cfg.Host = strings.TrimPrefix(config.URL, "https://")
	case strings.HasPrefix(config.URL, "http://"):
		cfg.Host = strings.TrimPrefix(config.URL, "http://")
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	s := &ExampleStore{client: client, className: config.ClassName}
	if err := s.ensureClass(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ExampleClass returns the schema of the example class.
func ExampleClass(name string) *models.Class {
	indexFilterable := true

	return &models.Class{
		Class:       name,
		Description: "A natural-language request paired with verified code in one dialect.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "example_id", DataType: []string{"text"}, IndexFilterable: &indexFilterable},
			{Name: "dialect", DataType: []string{"text"}, IndexFilterable: &indexFilterable},
			{Name: "prompt", DataType: []string{"text"}},
			{Name: "code", DataType: []string{"text"}},
		},
	}
}

func (s *ExampleStore) ensureClass(ctx context.Context) error {
	logger := observability.FromContext(ctx)

	if _, err := s.client.Schema().ClassGetter().WithClassName(s.className).Do(ctx); err == nil {
		logger.Info("weaviate class already exists", observability.String("class", s.className))
		return nil
	}

	if err := s.client.Schema().ClassCreator().WithClass(ExampleClass(s.className)).Do(ctx); err != nil {
		return fmt.Errorf("create weaviate class %s: %w", s.className, err)
	}

	logger.Info("created weaviate class", observability.String("class", s.className))
	return nil
}

// Nearest returns up to k examples of dialect closest to embedding.
func (s *ExampleStore) Nearest(
	ctx context.Context,
	embedding []float64,
	k int,
	dialect string,
) ([]*domain.VectorHit, error) {
	vector := make([]float32, len(embedding))
	for i, v := range embedding {
		vector[i] = float32(v)
	}

	query := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithFields(
			graphql.Field{Name: "example_id"},
			graphql.Field{Name: "prompt"},
			graphql.Field{Name: "code"},
			graphql.Field{Name: "_additional { distance }"},
		).
		WithNearVector(s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)).
		WithLimit(k)

	if dialect != "" {
		query = query.WithWhere(filters.Where().
			WithPath([]string{"dialect"}).
			WithOperator(filters.Equal).
			WithValueText(dialect))
	}

	result, err := query.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search error: %s", result.Errors[0].Message)
	}

	return ParseHits(result, s.className), nil
}

// Index stores one example with its embedding.
func (s *ExampleStore) Index(ctx context.Context, dialect string, example domain.CorpusExample, embedding []float64) error {
	vector := make([]float32, len(embedding))
	for i, v := range embedding {
		vector[i] = float32(v)
	}

	_, err := s.client.Data().Creator().
		WithClassName(s.className).
		WithProperties(map[string]interface{}{
			"example_id": example.ID,
			"dialect":    dialect,
			"prompt":     example.Prompt,
			"code":       example.Code,
		}).
		WithVector(vector).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("index weaviate example %s: %w", example.ID, err)
	}
	return nil
}

// ParseHits extracts vector hits from a GraphQL Get response. Malformed
// objects and objects without code are skipped.
func ParseHits(result *models.GraphQLResponse, className string) []*domain.VectorHit {
	if result == nil {
		return nil
	}
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := data[className].([]interface{})
	if !ok {
		return nil
	}

	hits := make([]*domain.VectorHit, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		code, _ := m["code"].(string)
		if code == "" {
			continue
		}

		hit := &domain.VectorHit{Code: code, Distance: 1}
		hit.ID, _ = m["example_id"].(string)
		hit.Prompt, _ = m["prompt"].(string)

		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				hit.Distance = distance
			}
		}

		hits = append(hits, hit)
	}
	return hits
}
