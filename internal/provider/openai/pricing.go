package openai

import (
	"context"
	"fmt"

	"github.com/davidbz/forge/internal/domain"
)

// RegisterPricing registers OpenAI model pricing (USD per million tokens) with the registry.
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry) error {
	models := map[string]domain.PricingConfig{
		"gpt-4o":       {InputCostPerMillion: 2.50, OutputCostPerMillion: 10.00},
		"gpt-4o-mini":  {InputCostPerMillion: 0.15, OutputCostPerMillion: 0.60},
		"gpt-4.1":      {InputCostPerMillion: 2.00, OutputCostPerMillion: 8.00},
		"gpt-4.1-mini": {InputCostPerMillion: 0.40, OutputCostPerMillion: 1.60},
		"o3-mini":      {InputCostPerMillion: 1.10, OutputCostPerMillion: 4.40},
	}

	for model, config := range models {
		if err := registry.RegisterPricing(ctx, model, config); err != nil {
			return fmt.Errorf("failed to register pricing for model %s: %w", model, err)
		}
	}

	return nil
}
