package domain

import "context"

// PricingConfig contains model pricing information.
type PricingConfig struct {
	InputCostPerMillion  float64 // USD per 1M input tokens
	OutputCostPerMillion float64 // USD per 1M output tokens
}

// CostCalculator calculates cost based on token usage.
type CostCalculator interface {
	// Calculate returns the total cost for a given model and usage.
	// priced is false when the model has no registered pricing.
	Calculate(ctx context.Context, model string, usage Usage) (cost float64, priced bool, err error)
}

// PricingRegistry maintains pricing information for models.
type PricingRegistry interface {
	// GetPricing returns pricing config for a model.
	GetPricing(ctx context.Context, model string) (PricingConfig, error)

	// RegisterPricing adds pricing for a model.
	RegisterPricing(ctx context.Context, model string, config PricingConfig) error
}
