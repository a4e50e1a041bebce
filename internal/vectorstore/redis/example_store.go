// Package redis stores corpus examples as hashes indexed by RediSearch and
// answers KNN queries filtered by dialect.
package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/observability"
)

const (
	redisDialectVersion = 2

	fieldEmbedding = "embedding"
	fieldDialect   = "dialect"
	fieldPrompt    = "prompt"
	fieldCode      = "code"
	fieldScore     = "score"
)

// ExampleStore implements domain.ExampleStore on Redis vector search.
type ExampleStore struct {
	client             *redis.Client
	indexName          string
	prefix             string
	embeddingDimension int
}

// NewExampleStore creates the adapter and ensures the search index exists.
func NewExampleStore(ctx context.Context, client *redis.Client, indexName, prefix string, embeddingDimension int) (*ExampleStore, error) {
	s := &ExampleStore{
		client:             client,
		indexName:          indexName,
		prefix:             prefix,
		embeddingDimension: embeddingDimension,
	}

	if err := s.createIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return s, nil
}

// floatsToBytes converts float64 slice to binary byte representation.
func floatsToBytes(fs []float64) []byte {
	const bytesPerFloat32 = 4
	buf := make([]byte, len(fs)*bytesPerFloat32)

	for i, f := range fs {
		u := math.Float32bits(float32(f))
		binary.LittleEndian.PutUint32(buf[i*bytesPerFloat32:], u)
	}

	return buf
}

// escapeTag escapes RediSearch tag punctuation.
func escapeTag(value string) string {
	var b strings.Builder
	for _, r := range value {
		if strings.ContainsRune(",.<>{}[]\"':;!@#$%^&*()-+=~|/\\ ", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// KNNQuery builds the dialect-filtered KNN query.
func KNNQuery(dialect string, k int) string {
	filter := "*"
	if dialect != "" {
		filter = fmt.Sprintf("(@%s:{%s})", fieldDialect, escapeTag(dialect))
	}
	return fmt.Sprintf("%s=>[KNN %d @%s $vec AS %s]", filter, k, fieldEmbedding, fieldScore)
}

// Nearest returns up to k examples of dialect ordered by ascending cosine distance.
func (s *ExampleStore) Nearest(
	ctx context.Context,
	embedding []float64,
	k int,
	dialect string,
) ([]*domain.VectorHit, error) {
	logger := observability.FromContext(ctx)
	logger.Debug("starting vector search",
		observability.String("index", s.indexName),
		observability.Int("embedding_dim", len(embedding)),
		observability.Int("k", k))

	results, err := s.client.FTSearchWithArgs(ctx, s.indexName, KNNQuery(dialect, k),
		&redis.FTSearchOptions{
			Return: []redis.FTSearchReturn{
				{FieldName: fieldPrompt},
				{FieldName: fieldCode},
				{FieldName: fieldScore},
			},
			SortBy:         []redis.FTSearchSortBy{{FieldName: fieldScore, Asc: true}},
			LimitOffset:    0,
			Limit:          k,
			DialectVersion: redisDialectVersion,
			Params: map[string]any{
				"vec": floatsToBytes(embedding),
			},
		},
	).Result()
	if err != nil {
		logger.Warn("vector search failed", observability.Error(err))
		return nil, fmt.Errorf("search failed: %w", err)
	}

	logger.Debug("vector search completed",
		observability.Int("total_docs", results.Total),
		observability.Int("docs_returned", len(results.Docs)))

	return s.parseHits(results), nil
}

// Index stores one example with its embedding.
func (s *ExampleStore) Index(ctx context.Context, dialect string, example domain.CorpusExample, embedding []float64) error {
	key := s.prefix + dialect + ":" + example.ID

	err := s.client.HSet(ctx, key,
		fieldEmbedding, floatsToBytes(embedding),
		fieldDialect, dialect,
		fieldPrompt, example.Prompt,
		fieldCode, example.Code,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to index example %s: %w", key, err)
	}
	return nil
}

// createIndex creates the Redis search index if it doesn't exist.
func (s *ExampleStore) createIndex(ctx context.Context) error {
	logger := observability.FromContext(ctx)

	if _, err := s.client.FTInfo(ctx, s.indexName).Result(); err == nil {
		logger.Info("redis search index already exists, skipping creation",
			observability.String("index_name", s.indexName))
		return nil
	}

	logger.Info("creating redis search index",
		observability.String("index_name", s.indexName),
		observability.Int("embedding_dimension", s.embeddingDimension))

	_, err := s.client.FTCreate(ctx, s.indexName,
		&redis.FTCreateOptions{
			OnHash: true,
			Prefix: []any{s.prefix},
		},
		&redis.FieldSchema{
			FieldName: fieldEmbedding,
			FieldType: redis.SearchFieldTypeVector,
			VectorArgs: &redis.FTVectorArgs{
				FlatOptions: &redis.FTFlatOptions{
					Type:           "FLOAT32",
					Dim:            s.embeddingDimension,
					DistanceMetric: "COSINE",
				},
			},
		},
		&redis.FieldSchema{
			FieldName: fieldDialect,
			FieldType: redis.SearchFieldTypeTag,
		},
		&redis.FieldSchema{
			FieldName: fieldPrompt,
			FieldType: redis.SearchFieldTypeText,
		},
		&redis.FieldSchema{
			FieldName: fieldCode,
			FieldType: redis.SearchFieldTypeText,
			NoIndex:   true,
		},
	).Result()
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	logger.Info("successfully created redis search index",
		observability.String("index_name", s.indexName))

	return nil
}

func (s *ExampleStore) parseHits(result redis.FTSearchResult) []*domain.VectorHit {
	hits := make([]*domain.VectorHit, 0, len(result.Docs))

	for _, doc := range result.Docs {
		if hit := parseHit(s.prefix, doc); hit != nil {
			hits = append(hits, hit)
		}
	}

	return hits
}

func parseHit(prefix string, doc redis.Document) *domain.VectorHit {
	scoreStr, ok := doc.Fields[fieldScore]
	if !ok {
		return nil
	}
	distance, err := strconv.ParseFloat(scoreStr, 64)
	if err != nil {
		return nil
	}

	code, ok := doc.Fields[fieldCode]
	if !ok || code == "" {
		return nil
	}

	id := strings.TrimPrefix(doc.ID, prefix)
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[i+1:]
	}

	return &domain.VectorHit{
		ID:       id,
		Prompt:   doc.Fields[fieldPrompt],
		Code:     code,
		Distance: distance,
	}
}
