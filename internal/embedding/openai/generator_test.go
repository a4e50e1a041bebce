package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/embedding/openai"
)

func TestGenerator_Generate(t *testing.T) {
	var sent []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "text-embedding-3-small", body.Model)
		sent = body.Input

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",` +
			`"data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}],` +
			`"usage":{"prompt_tokens":3,"total_tokens":3}}`))
	}))
	t.Cleanup(server.Close)

	generator, err := openai.NewGenerator(openai.Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	vector, err := generator.Generate(context.Background(), strings.Repeat("x", domain.MaxEmbeddingInputChars+100))
	require.NoError(t, err)
	require.Equal(t, []float64{0.1, 0.2, 0.3}, vector)
	require.Len(t, sent, 1)
	require.Len(t, sent[0], domain.MaxEmbeddingInputChars)

	_, err = generator.Generate(context.Background(), "")
	require.ErrorContains(t, err, "text cannot be empty")
}

func TestGenerator_Metadata(t *testing.T) {
	_, err := openai.NewGenerator(openai.Config{})
	require.Error(t, err)

	generator, err := openai.NewGenerator(openai.Config{APIKey: "k", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	require.Equal(t, "openai", generator.Name())
	require.Equal(t, 3072, generator.Dimension())
}
