package anthropic

import (
	"context"
	"fmt"

	"github.com/davidbz/forge/internal/domain"
)

// RegisterPricing registers Anthropic model pricing (USD per million tokens).
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry) error {
	models := map[string]domain.PricingConfig{
		"claude-sonnet-4-5": {InputCostPerMillion: 3.00, OutputCostPerMillion: 15.00},
		"claude-haiku-4-5":  {InputCostPerMillion: 1.00, OutputCostPerMillion: 5.00},
		"claude-opus-4-1":   {InputCostPerMillion: 15.00, OutputCostPerMillion: 75.00},
	}

	for model, config := range models {
		if err := registry.RegisterPricing(ctx, model, config); err != nil {
			return fmt.Errorf("failed to register pricing for model %s: %w", model, err)
		}
	}
	return nil
}
