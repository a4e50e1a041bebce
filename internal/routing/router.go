package routing

import (
	"context"
	"strings"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/observability"
)

// TierConfig names the default model and the premium tier.
type TierConfig struct {
	DefaultModel  string   `env:"PIPELINE_DEFAULT_MODEL"  envDefault:"gpt-4o-mini"`
	PremiumModel  string   `env:"PIPELINE_PREMIUM_MODEL"  envDefault:"gpt-4o"`
	PremiumModels []string `env:"PIPELINE_PREMIUM_MODELS" envSeparator:","`
}

// TierRouter picks the model for each attempt and applies the escalation rule.
type TierRouter struct {
	registry     domain.ProviderRegistry
	defaultModel string
	premiumModel string
	premium      map[string]struct{}
}

// NewTierRouter creates a new router.
func NewTierRouter(registry domain.ProviderRegistry, cfg TierConfig) *TierRouter {
	premium := make(map[string]struct{}, len(cfg.PremiumModels)+1)
	for _, m := range append([]string{cfg.PremiumModel}, cfg.PremiumModels...) {
		if m = strings.TrimSpace(m); m != "" {
			premium[m] = struct{}{}
		}
	}

	return &TierRouter{
		registry:     registry,
		defaultModel: cfg.DefaultModel,
		premiumModel: cfg.PremiumModel,
		premium:      premium,
	}
}

// DefaultModel returns requested when a provider serves it, else the configured default.
func (r *TierRouter) DefaultModel(ctx context.Context, requested string) string {
	if requested == "" {
		return r.defaultModel
	}

	if _, err := r.registry.GetByModel(ctx, requested); err != nil {
		observability.FromContext(ctx).Warn("requested model not served, using default",
			observability.String("requested_model", requested),
			observability.String("default_model", r.defaultModel),
			observability.Error(err))
		return r.defaultModel
	}
	return requested
}

// Escalate returns the premium model after a failure on a non-premium model.
// Premium models keep their tier.
func (r *TierRouter) Escalate(ctx context.Context, current string) string {
	if r.IsPremium(current) || r.premiumModel == "" {
		return current
	}

	observability.FromContext(ctx).Info("escalating to premium tier",
		observability.String("from_model", current),
		observability.String("to_model", r.premiumModel))
	return r.premiumModel
}

// IsPremium reports whether model belongs to the premium tier.
func (r *TierRouter) IsPremium(model string) bool {
	_, ok := r.premium[model]
	return ok
}
