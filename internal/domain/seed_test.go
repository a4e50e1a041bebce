package domain_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/mocks"
)

type recordingIndexer struct {
	indexed []string
	failOn  string
}

func (r *recordingIndexer) Index(_ context.Context, dialect string, example domain.CorpusExample, _ []float64) error {
	if example.ID == r.failOn {
		return errors.New("write failed")
	}
	r.indexed = append(r.indexed, dialect+"/"+example.ID)
	return nil
}

var seedCorpus = staticCorpus{
	"sql":    {{ID: "s1", Prompt: "count users"}, {ID: "s2", Prompt: "list orders"}},
	"promql": {{ID: "p1", Prompt: "request rate"}},
}

func TestSeedExamples(t *testing.T) {
	embeddings := mocks.NewMockEmbeddingGenerator(t)
	embeddings.EXPECT().Generate(mock.Anything, mock.Anything).Return([]float64{0.5}, nil).Times(3)

	indexer := &recordingIndexer{}
	n, err := domain.SeedExamples(context.Background(), embeddings, indexer, seedCorpus, []string{"sql", "promql", "datalog"})

	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []string{"sql/s1", "sql/s2", "promql/p1"}, indexer.indexed)
}

func TestSeedExamples_StopsAtFirstFailure(t *testing.T) {
	t.Run("embedding", func(t *testing.T) {
		embeddings := mocks.NewMockEmbeddingGenerator(t)
		embeddings.EXPECT().Generate(mock.Anything, "count users").Return([]float64{0.5}, nil).Once()
		embeddings.EXPECT().Generate(mock.Anything, "list orders").Return(nil, errors.New("rate limited")).Once()

		n, err := domain.SeedExamples(context.Background(), embeddings, &recordingIndexer{}, seedCorpus, []string{"sql", "promql"})
		require.ErrorContains(t, err, "s2")
		require.Equal(t, 1, n)
	})

	t.Run("indexer", func(t *testing.T) {
		embeddings := mocks.NewMockEmbeddingGenerator(t)
		embeddings.EXPECT().Generate(mock.Anything, mock.Anything).Return([]float64{0.5}, nil)

		n, err := domain.SeedExamples(context.Background(), embeddings, &recordingIndexer{failOn: "s1"}, seedCorpus, []string{"sql"})
		require.Error(t, err)
		require.Zero(t, n)
	})
}

func TestSeedExamples_RequiresCollaborators(t *testing.T) {
	_, err := domain.SeedExamples(context.Background(), nil, &recordingIndexer{}, seedCorpus, []string{"sql"})
	require.Error(t, err)
}

type documentEmbedder struct {
	queries   []string
	documents []string
}

func (d *documentEmbedder) Generate(_ context.Context, text string) ([]float64, error) {
	d.queries = append(d.queries, text)
	return []float64{1}, nil
}

func (d *documentEmbedder) GenerateDocument(_ context.Context, text string) ([]float64, error) {
	d.documents = append(d.documents, text)
	return []float64{1}, nil
}

func (d *documentEmbedder) Name() string   { return "documents" }
func (d *documentEmbedder) Dimension() int { return 1 }

func TestSeedExamples_PrefersDocumentEmbeddings(t *testing.T) {
	embeddings := &documentEmbedder{}

	n, err := domain.SeedExamples(context.Background(), embeddings, &recordingIndexer{}, seedCorpus, []string{"sql"})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"count users", "list orders"}, embeddings.documents)
	require.Empty(t, embeddings.queries)
}

func TestTruncateEmbeddingInput(t *testing.T) {
	require.Equal(t, "abc", domain.TruncateEmbeddingInput("abc"))

	long := strings.Repeat("é", domain.MaxEmbeddingInputChars+5)
	cut := domain.TruncateEmbeddingInput(long)
	require.Equal(t, domain.MaxEmbeddingInputChars, utf8.RuneCountInString(cut))
	require.True(t, utf8.ValidString(cut))
}
