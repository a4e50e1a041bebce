package registry_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/provider/registry"
)

// stubProvider announces a fixed model list and optionally accepts a model prefix.
type stubProvider struct {
	name    string
	models  []string
	prefix  string
	lookups atomic.Int32
}

func (s *stubProvider) Stream(_ context.Context, _ *domain.CompletionRequest) (<-chan domain.StreamEvent, error) {
	ch := make(chan domain.StreamEvent)
	close(ch)
	return ch, nil
}

func (s *stubProvider) Name() string {
	return s.name
}

func (s *stubProvider) IsModelSupported(_ context.Context, model string) bool {
	s.lookups.Add(1)
	for _, m := range s.models {
		if m == model {
			return true
		}
	}
	return s.prefix != "" && strings.HasPrefix(model, s.prefix)
}

func (s *stubProvider) SupportedModels(_ context.Context) []string {
	return s.models
}

func TestRegistry_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("should register provider successfully", func(t *testing.T) {
		reg := registry.NewRegistry()

		require.NoError(t, reg.Register(ctx, &stubProvider{name: "openai"}))

		registered, err := reg.Get(ctx, "openai")
		require.NoError(t, err)
		require.Equal(t, "openai", registered.Name())
	})

	t.Run("should reject nil and unnamed providers", func(t *testing.T) {
		reg := registry.NewRegistry()

		err := reg.Register(ctx, nil)
		require.ErrorContains(t, err, "provider cannot be nil")

		err = reg.Register(ctx, &stubProvider{name: ""})
		require.ErrorContains(t, err, "provider name cannot be empty")
	})

	t.Run("should reject duplicate names", func(t *testing.T) {
		reg := registry.NewRegistry()

		require.NoError(t, reg.Register(ctx, &stubProvider{name: "openai"}))
		require.ErrorContains(t, reg.Register(ctx, &stubProvider{name: "openai"}), "already registered")
	})
}

func TestRegistry_List(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewRegistry()

	providers, err := reg.List(ctx)
	require.NoError(t, err)
	require.Empty(t, providers)

	for _, name := range []string{"openai", "anthropic", "gemini"} {
		require.NoError(t, reg.Register(ctx, &stubProvider{name: name}))
	}

	providers, err = reg.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"anthropic", "gemini", "openai"}, providers)
}

func TestRegistry_GetByModel(t *testing.T) {
	ctx := context.Background()

	t.Run("should resolve announced models", func(t *testing.T) {
		reg := registry.NewRegistry()
		require.NoError(t, reg.Register(ctx, &stubProvider{name: "openai", models: []string{"gpt-4o"}}))
		require.NoError(t, reg.Register(ctx, &stubProvider{name: "anthropic", models: []string{"claude-sonnet-4-5"}}))

		provider, err := reg.GetByModel(ctx, "gpt-4o")
		require.NoError(t, err)
		require.Equal(t, "openai", provider.Name())

		provider, err = reg.GetByModel(ctx, "claude-sonnet-4-5")
		require.NoError(t, err)
		require.Equal(t, "anthropic", provider.Name())
	})

	t.Run("should keep the first provider announcing a model", func(t *testing.T) {
		reg := registry.NewRegistry()
		require.NoError(t, reg.Register(ctx, &stubProvider{name: "openai", models: []string{"shared"}}))
		require.NoError(t, reg.Register(ctx, &stubProvider{name: "proxy", models: []string{"shared"}}))

		provider, err := reg.GetByModel(ctx, "shared")
		require.NoError(t, err)
		require.Equal(t, "openai", provider.Name())
	})

	t.Run("should resolve dynamic models once and remember them", func(t *testing.T) {
		reg := registry.NewRegistry()
		gemini := &stubProvider{name: "gemini", prefix: "gemini-"}
		require.NoError(t, reg.Register(ctx, gemini))

		for range 5 {
			provider, err := reg.GetByModel(ctx, "gemini-2.5-pro")
			require.NoError(t, err)
			require.Equal(t, "gemini", provider.Name())
		}
		require.Equal(t, int32(1), gemini.lookups.Load())
	})

	t.Run("should fail for empty or unknown models", func(t *testing.T) {
		reg := registry.NewRegistry()
		require.NoError(t, reg.Register(ctx, &stubProvider{name: "openai", models: []string{"gpt-4o"}}))

		_, err := reg.GetByModel(ctx, "")
		require.ErrorContains(t, err, "model cannot be empty")

		_, err = reg.GetByModel(ctx, "unsupported-model")
		require.ErrorContains(t, err, "no provider found for model")
	})
}

func TestRegistry_Concurrent(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewRegistry()

	done := make(chan struct{})
	for i := range 10 {
		go func(idx int) {
			defer func() { done <- struct{}{} }()
			_ = reg.Register(ctx, &stubProvider{name: string(rune('a' + idx)), prefix: string(rune('a' + idx))})
			_, _ = reg.GetByModel(ctx, string(rune('a'+idx))+"-model")
		}(i)
	}
	for range 10 {
		<-done
	}

	providers, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, providers, 10)
}
