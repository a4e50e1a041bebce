package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/davidbz/forge/internal/domain"
)

// Registry implements the ProviderRegistry interface.
type Registry struct {
	mu              sync.RWMutex
	providers       map[string]domain.Provider
	order           []string // registration order, used for dynamic model lookup
	modelToProvider map[string]string
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:              sync.RWMutex{},
		providers:       make(map[string]domain.Provider),
		modelToProvider: make(map[string]string),
	}
}

// Register adds a provider to the registry. A model announced by two
// providers stays with the one registered first.
func (r *Registry) Register(ctx context.Context, provider domain.Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.providers[name] = provider
	r.order = append(r.order, name)

	for _, model := range provider.SupportedModels(ctx) {
		if _, taken := r.modelToProvider[model]; !taken {
			r.modelToProvider[model] = name
		}
	}

	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(_ context.Context, providerName string) (domain.Provider, error) {
	if providerName == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[providerName]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", providerName)
	}

	return provider, nil
}

// List returns the names of all registered providers, sorted.
func (r *Registry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// GetByModel retrieves the provider serving model. Models missing from the
// announced lists are resolved by asking providers in registration order,
// and the answer is remembered.
func (r *Registry) GetByModel(ctx context.Context, model string) (domain.Provider, error) {
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	r.mu.RLock()
	providerName, known := r.modelToProvider[model]
	if known {
		provider := r.providers[providerName]
		r.mu.RUnlock()
		return provider, nil
	}
	order := append([]string(nil), r.order...)
	r.mu.RUnlock()

	for _, name := range order {
		r.mu.RLock()
		provider := r.providers[name]
		r.mu.RUnlock()

		if provider.IsModelSupported(ctx, model) {
			r.mu.Lock()
			r.modelToProvider[model] = name
			r.mu.Unlock()
			return provider, nil
		}
	}

	return nil, fmt.Errorf("no provider found for model: %s", model)
}
