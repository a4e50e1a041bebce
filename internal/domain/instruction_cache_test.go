package domain_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/mocks"
)

func TestInstructionCache_FetchesOncePerDialect(t *testing.T) {
	source := mocks.NewMockInstructionSource(t)
	source.EXPECT().Instructions(mock.Anything, "sql").Return("sql grammar", nil).Once()
	source.EXPECT().Instructions(mock.Anything, "promql").Return("promql grammar", nil).Once()

	cache := domain.NewInstructionCache(source)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := cache.Instructions(ctx, "sql")
			assertNoErrorEqual(t, err, "sql grammar", text)
		}()
	}
	wg.Wait()

	text, err := cache.Instructions(ctx, "promql")
	require.NoError(t, err)
	require.Equal(t, "promql grammar", text)

	text, err = cache.Instructions(ctx, "sql")
	require.NoError(t, err)
	require.Equal(t, "sql grammar", text)
}

func assertNoErrorEqual(t *testing.T, err error, expected, actual string) {
	t.Helper()
	if err != nil || expected != actual {
		t.Errorf("got (%q, %v), want %q", actual, err, expected)
	}
}

func TestInstructionCache_FallsThroughSources(t *testing.T) {
	primary := mocks.NewMockInstructionSource(t)
	primary.EXPECT().Instructions(mock.Anything, "sql").Return("", errors.New("grammar endpoint down")).Once()
	primary.EXPECT().Instructions(mock.Anything, "datalog").Return("", nil).Once()

	fallback := mocks.NewMockInstructionSource(t)
	fallback.EXPECT().Instructions(mock.Anything, "sql").Return("catalog sql", nil).Once()
	fallback.EXPECT().Instructions(mock.Anything, "datalog").Return("catalog datalog", nil).Once()

	cache := domain.NewInstructionCache(primary, nil, fallback)

	text, err := cache.Instructions(context.Background(), "sql")
	require.NoError(t, err)
	require.Equal(t, "catalog sql", text)

	text, err = cache.Instructions(context.Background(), "datalog")
	require.NoError(t, err)
	require.Equal(t, "catalog datalog", text)
}

func TestInstructionCache_FailuresAreNotCached(t *testing.T) {
	source := mocks.NewMockInstructionSource(t)
	source.EXPECT().Instructions(mock.Anything, "sql").Return("", errors.New("timeout")).Once()
	source.EXPECT().Instructions(mock.Anything, "sql").Return("sql grammar", nil).Once()

	cache := domain.NewInstructionCache(source)

	_, err := cache.Instructions(context.Background(), "sql")
	require.ErrorContains(t, err, "timeout")

	text, err := cache.Instructions(context.Background(), "sql")
	require.NoError(t, err)
	require.Equal(t, "sql grammar", text)
}

func TestInstructionCache_NoSources(t *testing.T) {
	_, err := domain.NewInstructionCache().Instructions(context.Background(), "sql")
	require.Error(t, err)
}

type blockingSource struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSource) Instructions(ctx context.Context, _ string) (string, error) {
	close(b.started)
	<-b.release
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "sql grammar", nil
}

func TestInstructionCache_FetchIgnoresCallerCancellation(t *testing.T) {
	source := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	cache := domain.NewInstructionCache(source)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := cache.Instructions(ctx, "sql")
		done <- result{text, err}
	}()

	<-source.started
	cancel()
	close(source.release)

	got := <-done
	require.NoError(t, got.err)
	require.Equal(t, "sql grammar", got.text)

	text, err := cache.Instructions(context.Background(), "sql")
	require.NoError(t, err)
	require.Equal(t, "sql grammar", text)
}
