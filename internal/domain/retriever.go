package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/davidbz/forge/internal/observability"
)

const (
	// DefaultHybridWeight weights vector similarity against keyword overlap.
	DefaultHybridWeight = 0.7

	// DefaultRetrievalTimeout bounds embedding plus vector search.
	DefaultRetrievalTimeout = 5 * time.Second

	overFetchFactor = 2
	minKeywordLen   = 4 // tokens must be longer than 3 characters
)

// RetrieverOptions toggles retrieval features.
type RetrieverOptions struct {
	VectorSearch bool
	HybridSearch bool
	Weight       float64
	Timeout      time.Duration
}

// RetrieverService implements hybrid vector+keyword retrieval over the example corpus.
type RetrieverService struct {
	embeddingGen EmbeddingGenerator
	store        ExampleStore
	corpus       KeywordCorpus
	events       EventPublisher
	opts         RetrieverOptions
}

// NewRetrieverService creates a new retriever. embeddingGen and store may be
// nil, in which case only the keyword fallback is used.
func NewRetrieverService(
	embeddingGen EmbeddingGenerator,
	store ExampleStore,
	corpus KeywordCorpus,
	events EventPublisher,
	opts RetrieverOptions,
) *RetrieverService {
	if opts.Weight <= 0 || opts.Weight > 1 {
		opts.Weight = DefaultHybridWeight
	}
	if !opts.HybridSearch {
		opts.Weight = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRetrievalTimeout
	}

	return &RetrieverService{
		embeddingGen: embeddingGen,
		store:        store,
		corpus:       corpus,
		events:       events,
		opts:         opts,
	}
}

// Retrieve returns up to k examples for query ranked by combined score.
// It never fails: errors degrade to keyword search and then to an empty list.
func (r *RetrieverService) Retrieve(ctx context.Context, query, dialect string, k int) []RetrievedExample {
	logger := observability.FromContext(ctx)
	start := time.Now()

	if k <= 0 || strings.TrimSpace(query) == "" {
		return []RetrievedExample{}
	}

	source := "vector"
	examples, err := r.vectorSearch(ctx, query, dialect, k)
	if err != nil {
		logger.Warn("vector retrieval unavailable, falling back to keyword search",
			observability.Error(err))
		source = "keyword"
		examples = r.keywordSearch(query, dialect, k)
	}

	r.publish(ctx, "retrieval.completed", map[string]interface{}{
		"source":     source,
		"dialect":    dialect,
		"requested":  k,
		"returned":   len(examples),
		"latency_ms": time.Since(start).Milliseconds(),
	})

	return examples
}

var errVectorSearchDisabled = errors.New("vector search disabled")

func (r *RetrieverService) vectorSearch(ctx context.Context, query, dialect string, k int) ([]RetrievedExample, error) {
	if !r.opts.VectorSearch || r.embeddingGen == nil || r.store == nil {
		return nil, errVectorSearchDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	embedding, err := r.embeddingGen.Generate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	hits, err := r.store.Nearest(ctx, embedding, k*overFetchFactor, dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar examples: %w", err)
	}

	queryTokens := keywordTokens(query)
	examples := make([]RetrievedExample, 0, len(hits))
	for _, hit := range hits {
		if hit == nil {
			continue
		}
		similarity := hit.Similarity()
		keyword := KeywordScore(queryTokens, hit.Prompt+" "+hit.Code)
		examples = append(examples, RetrievedExample{
			ID:            hit.ID,
			PromptText:    hit.Prompt,
			CodeText:      hit.Code,
			Similarity:    similarity,
			KeywordScore:  keyword,
			CombinedScore: CombinedScore(similarity, keyword, r.opts.Weight),
		})
	}

	return rankExamples(examples, k), nil
}

func (r *RetrieverService) keywordSearch(query, dialect string, k int) []RetrievedExample {
	if r.corpus == nil {
		return []RetrievedExample{}
	}

	queryTokens := keywordTokens(query)
	candidates := r.corpus.Examples(dialect)
	examples := make([]RetrievedExample, 0, len(candidates))
	for _, c := range candidates {
		score := KeywordScore(queryTokens, c.Prompt+" "+c.Code)
		if score == 0 {
			continue
		}
		examples = append(examples, RetrievedExample{
			ID:            c.ID,
			PromptText:    c.Prompt,
			CodeText:      c.Code,
			KeywordScore:  score,
			CombinedScore: score,
		})
	}

	return rankExamples(examples, k)
}

func (r *RetrieverService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if r.events != nil {
		r.events.Publish(ctx, eventType, data)
	}
}

// CombinedScore weights similarity by w and keyword overlap by 1-w.
func CombinedScore(similarity, keyword, w float64) float64 {
	return similarity*w + keyword*(1-w)
}

// KeywordScore is the fraction of query tokens present in text.
func KeywordScore(queryTokens map[string]struct{}, text string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	textTokens := keywordTokens(text)
	matched := 0
	for token := range queryTokens {
		if _, ok := textTokens[token]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(queryTokens))
}

// keywordTokens case-folds text and keeps alphanumeric tokens longer than three characters.
func keywordTokens(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= minKeywordLen {
			tokens[f] = struct{}{}
		}
	}
	return tokens
}

// rankExamples sorts by combined score descending, keeping input order on ties, and truncates to k.
func rankExamples(examples []RetrievedExample, k int) []RetrievedExample {
	sort.SliceStable(examples, func(i, j int) bool {
		return examples[i].CombinedScore > examples[j].CombinedScore
	})

	if len(examples) > k {
		examples = examples[:k]
	}
	return examples
}
