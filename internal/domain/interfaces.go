package domain

import "context"

// Provider represents any streaming LLM provider.
type Provider interface {
	// Stream sends a request and returns canonical events. The channel is
	// closed after a terminal event. Cancelling ctx releases the stream.
	Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamEvent, error)

	// Name returns the provider identifier.
	Name() string

	// IsModelSupported checks if the provider supports the given model.
	IsModelSupported(ctx context.Context, model string) bool

	// SupportedModels lists the models known up front.
	SupportedModels(ctx context.Context) []string
}

// ProviderRegistry manages available providers.
type ProviderRegistry interface {
	// Register adds a provider to the registry.
	Register(ctx context.Context, provider Provider) error

	// Get retrieves a provider by name.
	Get(ctx context.Context, providerName string) (Provider, error)

	// GetByModel retrieves the provider serving a model.
	GetByModel(ctx context.Context, model string) (Provider, error)

	// List returns all available providers.
	List(ctx context.Context) ([]string, error)
}

// EventPublisher publishes trace records for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

// ModelRouter decides which model serves each attempt.
type ModelRouter interface {
	// DefaultModel resolves the model for the first attempt.
	DefaultModel(ctx context.Context, requested string) string

	// Escalate returns the model for a repair attempt following a failure on current.
	Escalate(ctx context.Context, current string) string

	// IsPremium reports whether a model belongs to the premium tier.
	IsPremium(model string) bool
}

// SpecCompiler is the optional external prompt-specification compiler.
type SpecCompiler interface {
	// Compile builds a PromptSpec for a generation attempt.
	Compile(ctx context.Context, pack *ContextPack) (*PromptSpec, error)

	// Repair builds a PromptSpec for a repair attempt.
	Repair(ctx context.Context, pack *ContextPack) (*PromptSpec, error)
}

// InstructionSource provides the instructional text of a dialect.
type InstructionSource interface {
	Instructions(ctx context.Context, dialect string) (string, error)
}

// CompilerClient is the external compiler / task-execution service.
type CompilerClient interface {
	// Submit registers an ephemeral compile task and returns its ID.
	Submit(ctx context.Context, source, dialect string) (string, error)

	// FetchResult returns the raw task result.
	FetchResult(ctx context.Context, taskID, authToken string) (*TaskResult, error)
}

// Formatter canonicalizes code with a dialect's own parser and printer.
type Formatter interface {
	Format(ctx context.Context, source, dialect string) (string, error)
}

// UsageStore persists usage audit records and period aggregates.
type UsageStore interface {
	// Append stores an immutable audit record.
	Append(ctx context.Context, record *UsageRecord) error

	// AddToPeriod atomically adds a record to the account's running total for period.
	AddToPeriod(ctx context.Context, period string, record *UsageRecord) (*PeriodTotal, error)

	// PeriodTotal reads the account's running total for period.
	PeriodTotal(ctx context.Context, accountID, period string) (*PeriodTotal, error)
}
