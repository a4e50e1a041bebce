package domain

import "context"

// MaxEmbeddingInputChars bounds the text sent to any embedding backend.
const MaxEmbeddingInputChars = 8000

// TruncateEmbeddingInput cuts text to at most MaxEmbeddingInputChars runes.
func TruncateEmbeddingInput(text string) string {
	if len(text) <= MaxEmbeddingInputChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= MaxEmbeddingInputChars {
		return text
	}
	return string(runes[:MaxEmbeddingInputChars])
}

// EmbeddingGenerator creates vector embeddings from text.
type EmbeddingGenerator interface {
	// Generate creates a vector embedding from text.
	Generate(ctx context.Context, text string) ([]float64, error)

	// Name returns the generator identifier.
	Name() string

	// Dimension returns the vector dimension.
	Dimension() int
}

// DocumentEmbedder is implemented by backends that embed stored documents
// differently from queries. Seeding prefers it when available.
type DocumentEmbedder interface {
	GenerateDocument(ctx context.Context, text string) ([]float64, error)
}

// ExampleStore performs vector similarity search over the example corpus.
type ExampleStore interface {
	// Nearest returns up to k examples of dialect closest to embedding,
	// in ascending distance order.
	Nearest(ctx context.Context, embedding []float64, k int, dialect string) ([]*VectorHit, error)
}

// VectorHit represents a vector search result.
type VectorHit struct {
	ID       string
	Prompt   string
	Code     string
	Distance float64
}

// Similarity converts a cosine distance to a similarity clamped to [0,1].
func (h *VectorHit) Similarity() float64 {
	s := 1.0 - h.Distance
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// CorpusExample is an entry of the static per-dialect fallback corpus.
type CorpusExample struct {
	ID     string `yaml:"id"`
	Prompt string `yaml:"prompt"`
	Code   string `yaml:"code"`
}

// KeywordCorpus provides the static examples used when vector search is unavailable.
type KeywordCorpus interface {
	Examples(dialect string) []CorpusExample
}

// ExampleIndexer writes embedded corpus examples into a vector store.
type ExampleIndexer interface {
	Index(ctx context.Context, dialect string, example CorpusExample, embedding []float64) error
}
