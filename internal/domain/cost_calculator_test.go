package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/domain"
)

func TestStandardCostCalculator_Calculate(t *testing.T) {
	ctx := context.Background()
	registry := domain.NewInMemoryPricingRegistry()

	err := registry.RegisterPricing(ctx, "test-model", domain.PricingConfig{
		InputCostPerMillion:  3,
		OutputCostPerMillion: 15,
	})
	require.NoError(t, err)

	calculator := domain.NewStandardCostCalculator(registry)

	tests := []struct {
		name           string
		model          string
		usage          domain.Usage
		expectedCost   float64
		expectedPriced bool
		expectError    bool
	}{
		{
			name:           "priced model",
			model:          "test-model",
			usage:          domain.Usage{InputTokens: 1000, OutputTokens: 500},
			expectedCost:   0.0105,
			expectedPriced: true,
		},
		{
			name:         "unknown model is unpriced",
			model:        "unknown-model",
			usage:        domain.Usage{InputTokens: 1000, OutputTokens: 500},
			expectedCost: 0,
		},
		{
			name:        "empty model returns error",
			model:       "",
			expectError: true,
		},
		{
			name:           "zero tokens",
			model:          "test-model",
			expectedCost:   0,
			expectedPriced: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, priced, err := calculator.Calculate(ctx, tt.model, tt.usage)

			if tt.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expectedPriced, priced)
			require.InDelta(t, tt.expectedCost, cost, 1e-12)
		})
	}
}

func TestInMemoryPricingRegistry(t *testing.T) {
	ctx := context.Background()
	registry := domain.NewInMemoryPricingRegistry()

	require.Error(t, registry.RegisterPricing(ctx, "", domain.PricingConfig{}))
	require.Error(t, registry.RegisterPricing(ctx, "m", domain.PricingConfig{InputCostPerMillion: -1}))

	_, err := registry.GetPricing(ctx, "m")
	require.ErrorIs(t, err, domain.ErrPricingNotFound)

	require.NoError(t, registry.RegisterPricing(ctx, "m", domain.PricingConfig{InputCostPerMillion: 1}))
	pricing, err := registry.GetPricing(ctx, "m")
	require.NoError(t, err)
	require.InDelta(t, 1.0, pricing.InputCostPerMillion, 0)
}
