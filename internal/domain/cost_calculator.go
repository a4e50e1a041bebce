package domain

import (
	"context"
	"errors"
)

const tokensPerMillion = 1_000_000.0

// StandardCostCalculator implements standard token-based cost calculation.
type StandardCostCalculator struct {
	pricingRegistry PricingRegistry
}

// NewStandardCostCalculator creates a new cost calculator.
func NewStandardCostCalculator(registry PricingRegistry) *StandardCostCalculator {
	return &StandardCostCalculator{
		pricingRegistry: registry,
	}
}

// Calculate computes the total cost based on token usage and model pricing.
// Unknown models are unpriced: zero cost, priced=false, no error.
func (c *StandardCostCalculator) Calculate(
	ctx context.Context,
	model string,
	usage Usage,
) (float64, bool, error) {
	if model == "" {
		return 0, false, errors.New("model cannot be empty")
	}

	pricing, err := c.pricingRegistry.GetPricing(ctx, model)
	if err != nil {
		//nolint:nilerr // unpriced tiers are billed by token ratio, not rejected
		return 0, false, nil
	}

	inputCost := float64(usage.InputTokens) * pricing.InputCostPerMillion / tokensPerMillion
	outputCost := float64(usage.OutputTokens) * pricing.OutputCostPerMillion / tokensPerMillion

	return inputCost + outputCost, true, nil
}
