package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/forge/internal/observability"
)

// SeedExamples embeds every corpus example of dialects and writes it to
// indexer. It stops at the first failure and returns how many were indexed.
func SeedExamples(
	ctx context.Context,
	embeddings EmbeddingGenerator,
	indexer ExampleIndexer,
	corpus KeywordCorpus,
	dialects []string,
) (int, error) {
	if embeddings == nil || indexer == nil || corpus == nil {
		return 0, errors.New("seeding requires an embedding generator, an indexer and a corpus")
	}

	logger := observability.FromContext(ctx)
	indexed := 0

	embed := embeddings.Generate
	if documents, ok := embeddings.(DocumentEmbedder); ok {
		embed = documents.GenerateDocument
	}

	for _, dialect := range dialects {
		for _, example := range corpus.Examples(dialect) {
			vector, err := embed(ctx, example.Prompt)
			if err != nil {
				return indexed, fmt.Errorf("failed to embed example %s: %w", example.ID, err)
			}
			if err := indexer.Index(ctx, dialect, example, vector); err != nil {
				return indexed, err
			}
			indexed++
		}
	}

	logger.Info("example corpus seeded",
		observability.Int("examples", indexed),
		observability.Strings("dialects", dialects))

	return indexed, nil
}
