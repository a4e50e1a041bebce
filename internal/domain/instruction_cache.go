package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/davidbz/forge/internal/observability"
)

// instructionFetchTimeout bounds one shared fetch. The fetch is detached from
// the caller's cancellation because concurrent callers wait on it.
const instructionFetchTimeout = 10 * time.Second

// InstructionCache fetches dialect instruction text once per dialect and
// keeps it for the lifetime of the cache. Sources are tried in order.
type InstructionCache struct {
	sources []InstructionSource
	entries sync.Map // dialect -> string
	group   singleflight.Group
}

// NewInstructionCache creates a cache over the given sources.
func NewInstructionCache(sources ...InstructionSource) *InstructionCache {
	nonNil := make([]InstructionSource, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			nonNil = append(nonNil, s)
		}
	}
	return &InstructionCache{sources: nonNil}
}

// Instructions returns the cached text for dialect, fetching it on first use.
// Failed fetches are not cached.
func (c *InstructionCache) Instructions(ctx context.Context, dialect string) (string, error) {
	if v, ok := c.entries.Load(dialect); ok {
		return v.(string), nil //nolint:forcetypeassert // only strings are stored
	}

	v, err, _ := c.group.Do(dialect, func() (interface{}, error) {
		if cached, ok := c.entries.Load(dialect); ok {
			return cached, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), instructionFetchTimeout)
		defer cancel()
		text, fetchErr := c.fetch(fetchCtx, dialect)
		if fetchErr != nil {
			return "", fetchErr
		}
		c.entries.Store(dialect, text)
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil //nolint:forcetypeassert // closure returns string
}

func (c *InstructionCache) fetch(ctx context.Context, dialect string) (string, error) {
	if len(c.sources) == 0 {
		return "", errors.New("no instruction sources configured")
	}

	var errs []error
	for _, source := range c.sources {
		text, err := source.Instructions(ctx, dialect)
		if err == nil && text != "" {
			return text, nil
		}
		if err == nil {
			err = fmt.Errorf("empty instructions for dialect %s", dialect)
		}
		observability.FromContext(ctx).Debug("instruction source failed",
			observability.String("dialect", dialect),
			observability.Error(err))
		errs = append(errs, err)
	}

	return "", fmt.Errorf("failed to fetch instructions for dialect %s: %w", dialect, errors.Join(errs...))
}
