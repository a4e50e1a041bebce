package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/davidbz/forge/internal/observability"
)

const (
	// DefaultOriginalShare is the fraction of tokens attributed to the original
	// tier when a run escalated. It is an approximation, not a measured split.
	DefaultOriginalShare = 0.7

	periodLayout = "2006-01"
	ceilEpsilon  = 1e-9
)

// ErrUsageStoreDisabled is returned by lookups when no usage store is configured.
var ErrUsageStoreDisabled = errors.New("usage store is not configured")

// BillingOptions configures conversion of usage into compile units.
type BillingOptions struct {
	UnitPrice     float64 // USD per compile unit for priced tiers
	TokensPerUnit int     // tokens per compile unit for unpriced tiers
	OriginalShare float64
}

// UsageInput is what the pipeline observed for one completed run.
type UsageInput struct {
	RequestID   string
	AccountID   string
	Usage       Usage
	Models      []string // in order of use; the last one is the escalated tier
	FixAttempts int
}

// UsageAccountant converts token consumption into billing units and persists totals.
type UsageAccountant struct {
	calculator CostCalculator
	store      UsageStore
	events     EventPublisher
	opts       BillingOptions
	now        func() time.Time
}

// NewUsageAccountant creates a new usage accountant. store may be nil, in
// which case records are computed but not persisted.
func NewUsageAccountant(
	calculator CostCalculator,
	store UsageStore,
	events EventPublisher,
	opts BillingOptions,
) *UsageAccountant {
	if opts.OriginalShare <= 0 || opts.OriginalShare >= 1 {
		opts.OriginalShare = DefaultOriginalShare
	}
	if opts.TokensPerUnit <= 0 {
		opts.TokensPerUnit = 1000
	}

	return &UsageAccountant{
		calculator: calculator,
		store:      store,
		events:     events,
		opts:       opts,
		now:        time.Now,
	}
}

// WithClock overrides the accountant's clock.
func (a *UsageAccountant) WithClock(now func() time.Time) *UsageAccountant {
	a.now = now
	return a
}

// Account prices one completed run, persists its audit record and adds it to
// the account's running total for the current period.
func (a *UsageAccountant) Account(ctx context.Context, in UsageInput) (*UsageRecord, error) {
	if in.RequestID == "" {
		return nil, errors.New("request id cannot be empty")
	}

	models := distinctModels(in.Models)
	if len(models) == 0 {
		return nil, errors.New("at least one model is required")
	}

	cost, priced, err := a.Cost(ctx, in.Usage, models)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate cost: %w", err)
	}

	now := a.now().UTC()
	record := &UsageRecord{
		RequestID:   in.RequestID,
		AccountID:   in.AccountID,
		Tokens:      in.Usage,
		Cost:        cost,
		BilledUnits: BilledUnits(cost, priced, in.Usage.Total(), a.opts),
		Models:      models,
		FixAttempts: in.FixAttempts,
		Timestamp:   now,
	}

	if a.store == nil {
		return record, nil
	}

	if appendErr := a.store.Append(ctx, record); appendErr != nil {
		return record, fmt.Errorf("failed to append usage record: %w", appendErr)
	}

	total, err := a.store.AddToPeriod(ctx, Period(now), record)
	if err != nil {
		return record, fmt.Errorf("failed to update period total: %w", err)
	}

	observability.FromContext(ctx).Info("usage accounted",
		observability.Float64("cost", cost),
		observability.Int64("billed_units", record.BilledUnits),
		observability.Int64("period_units", total.Units),
		observability.String("period", total.Period))

	if a.events != nil {
		a.events.Publish(ctx, "usage.accounted", map[string]interface{}{
			"cost":          cost,
			"billed_units":  record.BilledUnits,
			"input_tokens":  in.Usage.InputTokens,
			"output_tokens": in.Usage.OutputTokens,
			"models":        models,
			"fix_attempts":  in.FixAttempts,
		})
	}

	return record, nil
}

// CurrentPeriod returns the account's running total for the current month.
func (a *UsageAccountant) CurrentPeriod(ctx context.Context, accountID string) (*PeriodTotal, error) {
	if a.store == nil {
		return nil, ErrUsageStoreDisabled
	}
	return a.store.PeriodTotal(ctx, accountID, Period(a.now()))
}

// Cost prices usage across the models of a run. With one model the whole
// usage is billed at its price; after escalation the tokens are apportioned
// between the original and the escalated tier. priced is true only when
// every model involved has pricing.
func (a *UsageAccountant) Cost(ctx context.Context, usage Usage, models []string) (float64, bool, error) {
	switch len(models) {
	case 0:
		return 0, false, errors.New("at least one model is required")
	case 1:
		return a.calculator.Calculate(ctx, models[0], usage)
	}

	original, escalated := SplitUsage(usage, a.opts.OriginalShare)

	originalCost, originalPriced, err := a.calculator.Calculate(ctx, models[0], original)
	if err != nil {
		return 0, false, err
	}
	escalatedCost, escalatedPriced, err := a.calculator.Calculate(ctx, models[len(models)-1], escalated)
	if err != nil {
		return 0, false, err
	}

	return originalCost + escalatedCost, originalPriced && escalatedPriced, nil
}

// SplitUsage apportions usage between two tiers, share going to the first.
func SplitUsage(usage Usage, share float64) (Usage, Usage) {
	first := Usage{
		InputTokens:  int(math.Round(float64(usage.InputTokens) * share)),
		OutputTokens: int(math.Round(float64(usage.OutputTokens) * share)),
	}
	second := Usage{
		InputTokens:  usage.InputTokens - first.InputTokens,
		OutputTokens: usage.OutputTokens - first.OutputTokens,
	}
	return first, second
}

// BilledUnits converts cost (priced tiers) or tokens (unpriced tiers) into
// whole compile units, never less than one.
func BilledUnits(cost float64, priced bool, tokens int, opts BillingOptions) int64 {
	var units float64
	switch {
	case priced && opts.UnitPrice > 0:
		units = math.Ceil(cost/opts.UnitPrice - ceilEpsilon)
	case opts.TokensPerUnit > 0:
		units = math.Ceil(float64(tokens)/float64(opts.TokensPerUnit) - ceilEpsilon)
	}

	if units < 1 {
		return 1
	}
	return int64(units)
}

// Period returns the billing period key (UTC month) for t.
func Period(t time.Time) string {
	return t.UTC().Format(periodLayout)
}

func distinctModels(models []string) []string {
	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
