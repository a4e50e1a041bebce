package gemini_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/embedding/gemini"
)

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	_, err := gemini.NewGenerator(ctx, gemini.Config{})
	require.ErrorContains(t, err, "API key is required")

	generator, err := gemini.NewGenerator(ctx, gemini.Config{APIKey: "k", Dimension: 256})
	require.NoError(t, err)
	require.Equal(t, "gemini", generator.Name())
	require.Equal(t, 256, generator.Dimension())

	_, err = generator.Generate(ctx, "")
	require.ErrorContains(t, err, "text cannot be empty")
}

func TestGenerator_TaskTypeAndTruncation(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(raw))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[0.25,0.5]}]}`))
	}))
	t.Cleanup(server.Close)

	generator, err := gemini.NewGenerator(context.Background(), gemini.Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	long := strings.Repeat("x", domain.MaxEmbeddingInputChars+100)

	vector, err := generator.Generate(context.Background(), long)
	require.NoError(t, err)
	require.Equal(t, []float64{0.25, 0.5}, vector)

	_, err = generator.GenerateDocument(context.Background(), "count users")
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	require.Contains(t, bodies[0], "RETRIEVAL_QUERY")
	require.Contains(t, bodies[0], strings.Repeat("x", domain.MaxEmbeddingInputChars))
	require.NotContains(t, bodies[0], strings.Repeat("x", domain.MaxEmbeddingInputChars+1))
	require.Contains(t, bodies[1], "RETRIEVAL_DOCUMENT")
}

var _ domain.DocumentEmbedder = (*gemini.Generator)(nil)
