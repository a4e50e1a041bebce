package gemini

import (
	"context"
	"fmt"

	"github.com/davidbz/forge/internal/domain"
)

// RegisterPricing registers Gemini model pricing (USD per million tokens).
func RegisterPricing(ctx context.Context, registry domain.PricingRegistry) error {
	models := map[string]domain.PricingConfig{
		"gemini-2.5-flash": {InputCostPerMillion: 0.30, OutputCostPerMillion: 2.50},
		"gemini-2.5-pro":   {InputCostPerMillion: 1.25, OutputCostPerMillion: 10.00},
	}

	for model, config := range models {
		if err := registry.RegisterPricing(ctx, model, config); err != nil {
			return fmt.Errorf("failed to register pricing for model %s: %w", model, err)
		}
	}
	return nil
}
