package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidbz/forge/internal/observability"
)

const (
	// DefaultMaxFixAttempts bounds the repair cycles after the first attempt.
	DefaultMaxFixAttempts = 2

	// DefaultRetrievalK is the number of few-shot examples retrieved per request.
	DefaultRetrievalK = 3

	// MaxRequestTokens caps the per-request output token limit.
	MaxRequestTokens = 200_000
)

var (
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownDialect is returned for dialects missing from the catalog.
	ErrUnknownDialect = errors.New("unknown dialect")

	// ErrGenerationFailed is returned when generation failed before any usable output existed.
	ErrGenerationFailed = errors.New("generation failed")
)

// Retriever finds few-shot examples for a request.
type Retriever interface {
	Retrieve(ctx context.Context, query, dialect string, k int) []RetrievedExample
}

// PromptCompiler produces prompt specs for generation and repair.
type PromptCompiler interface {
	Compile(ctx context.Context, pack *ContextPack, taskType string) *PromptSpec
	CompileExternal(ctx context.Context, pack *ContextPack, taskType string) *PromptSpec
	CompileLegacy(ctx context.Context, pack *ContextPack, taskType string) *PromptSpec
}

// CodeGenerator runs one complete (auto-continued) generation.
type CodeGenerator interface {
	GenerateLongCode(ctx context.Context, system string, messages []Message, opts GenerateOptions) GenerationResult
}

// CodeVerifier compiles code and reports a normalized verdict.
type CodeVerifier interface {
	Verify(ctx context.Context, code, dialect, authToken string) VerificationResult
}

// Accountant records the usage of a completed run.
type Accountant interface {
	Account(ctx context.Context, in UsageInput) (*UsageRecord, error)
}

// DialectCatalog resolves a dialect's static constraints.
type DialectCatalog interface {
	Lookup(dialect string) (DialectConstraints, bool)
}

// PipelineOptions configures the repair loop.
type PipelineOptions struct {
	MaxFixAttempts     int
	RetrievalK         int
	DefaultTemperature float64
	DefaultMaxTokens   int
}

// PipelineService orchestrates retrieve → compile → generate → post-process →
// verify, repairing failed attempts with model-tier escalation.
type PipelineService struct {
	retriever    Retriever
	prompts      PromptCompiler
	generator    CodeGenerator
	post         *PostProcessor
	verifier     CodeVerifier
	classifier   *ErrorClassifier
	router       ModelRouter
	accountant   Accountant
	dialects     DialectCatalog
	instructions InstructionSource
	events       EventPublisher
	opts         PipelineOptions
}

// PipelineDeps groups the collaborators of the pipeline.
type PipelineDeps struct {
	Retriever    Retriever
	Prompts      PromptCompiler
	Generator    CodeGenerator
	Post         *PostProcessor
	Verifier     CodeVerifier
	Classifier   *ErrorClassifier
	Router       ModelRouter
	Accountant   Accountant
	Dialects     DialectCatalog
	Instructions InstructionSource
	Events       EventPublisher
}

// NewPipelineService creates a new pipeline (DI constructor).
func NewPipelineService(deps PipelineDeps, opts PipelineOptions) *PipelineService {
	if opts.MaxFixAttempts < 0 {
		opts.MaxFixAttempts = 0
	}
	if opts.RetrievalK <= 0 {
		opts.RetrievalK = DefaultRetrievalK
	}
	if deps.Post == nil {
		deps.Post = NewPostProcessor(nil)
	}
	if deps.Classifier == nil {
		deps.Classifier = NewErrorClassifier(nil)
	}

	return &PipelineService{
		retriever:    deps.Retriever,
		prompts:      deps.Prompts,
		generator:    deps.Generator,
		post:         deps.Post,
		verifier:     deps.Verifier,
		classifier:   deps.Classifier,
		router:       deps.Router,
		accountant:   deps.Accountant,
		dialects:     deps.Dialects,
		instructions: deps.Instructions,
		events:       deps.Events,
		opts:         opts,
	}
}

// run carries the mutable state of one pipeline execution.
type run struct {
	req          *GenerationRequest
	requestID    string
	dialect      DialectConstraints
	pack         *ContextPack
	model        string
	models       []string
	usage        Usage
	code         string
	codeModel    string
	verification VerificationResult
	fixAttempts  int
}

// GenerateCode runs the pipeline for req. It returns an error only for
// invalid requests and for generation failures without usable output; an
// exhausted repair loop returns the last code with its failing verification.
// req is not modified. The correlation key is req.RequestID, else the
// context's request ID, else a fresh one.
func (p *PipelineService) GenerateCode(ctx context.Context, req *GenerationRequest) (*GenerateCodeResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		return nil, fmt.Errorf("%w: prompt cannot be empty", ErrInvalidRequest)
	}
	if req.MaxTokens < 0 || req.MaxTokens > MaxRequestTokens {
		return nil, fmt.Errorf("%w: max_tokens must be between 0 and %d", ErrInvalidRequest, MaxRequestTokens)
	}

	dialect, ok := p.dialects.Lookup(req.Dialect)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, req.Dialect)
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = observability.GetRequestID(ctx)
	}
	if requestID == "" {
		requestID = observability.GenerateRequestID()
	}
	ctx = observability.WithRequestID(ctx, requestID)
	ctx = observability.WithDialect(ctx, req.Dialect)
	ctx = observability.WithAccount(ctx, req.AccountID)
	logger := observability.FromContext(ctx)

	if p.instructions != nil {
		if text, err := p.instructions.Instructions(ctx, req.Dialect); err == nil {
			dialect.Instructions = text
		} else {
			logger.Warn("dialect instructions unavailable", observability.Error(err))
		}
	}

	r := &run{
		req:       req,
		requestID: requestID,
		dialect:   dialect,
		model:     p.router.DefaultModel(ctx, req.Model),
	}

	examples := p.retriever.Retrieve(ctx, req.UserPrompt, req.Dialect, p.opts.RetrievalK)
	r.pack = &ContextPack{
		RequestID:           requestID,
		UserPrompt:          req.UserPrompt,
		CurrentCode:         req.CurrentCode,
		ConversationSummary: req.ConversationSummary,
		Examples:            examples,
		Dialect:             dialect,
	}

	spec := p.prompts.Compile(ctx, r.pack, TaskGenerate)
	if spec == nil {
		return nil, ErrPromptUnavailable
	}

	if err := p.attempt(ctx, r, spec, ClassUnknown); err != nil {
		p.account(ctx, r)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	for !r.verification.Succeeded() && r.fixAttempts < p.opts.MaxFixAttempts {
		class := p.classifier.Classify(r.verification)

		r.fixAttempts++
		if !p.router.IsPremium(r.model) {
			r.model = p.router.Escalate(ctx, r.model)
		}

		r.pack = &ContextPack{
			RequestID:           requestID,
			UserPrompt:          req.UserPrompt,
			CurrentCode:         req.CurrentCode,
			ConversationSummary: req.ConversationSummary,
			Examples:            examples,
			Dialect:             dialect,
			PriorOutput:         r.code,
			Errors:              r.verification.Errors,
		}

		if err := p.attempt(ctx, r, p.repairSpec(ctx, r.pack, class), class); err != nil {
			logger.Warn("repair attempt failed, returning previous output",
				observability.Int("fix_attempt", r.fixAttempts),
				observability.Error(err))
			break
		}
	}

	p.account(ctx, r)

	logger.Info("pipeline finished",
		observability.String("status", r.verification.Status),
		observability.Int("fix_attempts", r.fixAttempts),
		observability.Strings("models", r.models))

	return &GenerateCodeResponse{
		RequestID:    requestID,
		Code:         r.code,
		Model:        r.codeModel,
		Usage:        r.usage,
		Verification: r.verification,
		FixAttempts:  r.fixAttempts,
	}, nil
}

// repairSpec prefers the spec compiler's repair path for semantic failures
// and uses the legacy repair template otherwise.
func (p *PipelineService) repairSpec(ctx context.Context, pack *ContextPack, class Classification) *PromptSpec {
	if class == ClassSemantic {
		if spec := p.prompts.CompileExternal(ctx, pack, TaskRepair); spec != nil {
			return spec
		}
	}
	return p.prompts.CompileLegacy(ctx, pack, TaskRepair)
}

// attempt generates, post-processes and verifies once. On a transport
// failure the run keeps its previous code and verification.
func (p *PipelineService) attempt(ctx context.Context, r *run, spec *PromptSpec, class Classification) error {
	start := time.Now()
	attemptCtx := observability.WithModel(ctx, r.model)

	system, messages := Render(spec, NewRenderContext(r.pack), r.dialect.FenceTag)
	result := p.generator.GenerateLongCode(attemptCtx, system, messages, GenerateOptions{
		Model:       r.model,
		Temperature: p.temperature(r.req),
		MaxTokens:   p.maxTokens(r.req),
		Terminator:  r.dialect.Terminator,
	})

	r.usage = r.usage.Add(result.Usage)
	r.models = append(r.models, r.model)

	trace := map[string]interface{}{
		"attempt":        r.fixAttempts,
		"model":          r.model,
		"task_type":      spec.TaskType,
		"spec_id":        spec.SpecID,
		"classification": string(class),
		"input_tokens":   result.Usage.InputTokens,
		"output_tokens":  result.Usage.OutputTokens,
		"chunks":         result.ChunkCount,
	}

	if result.Err != nil {
		trace["outcome"] = "transport_error"
		trace["latency_ms"] = time.Since(start).Milliseconds()
		p.publish(ctx, "pipeline.attempt", trace)
		return result.Err
	}

	r.code = p.post.Process(attemptCtx, result.Content, r.dialect)
	r.codeModel = r.model
	r.verification = p.verifier.Verify(attemptCtx, r.code, r.req.Dialect, r.req.AuthToken)

	trace["outcome"] = r.verification.Status
	trace["latency_ms"] = time.Since(start).Milliseconds()
	p.publish(ctx, "pipeline.attempt", trace)
	return nil
}

// account commits the run's aggregate usage. Failures are logged and swallowed.
func (p *PipelineService) account(ctx context.Context, r *run) {
	if p.accountant == nil || len(r.models) == 0 {
		return
	}

	_, err := p.accountant.Account(ctx, UsageInput{
		RequestID:   r.requestID,
		AccountID:   r.req.AccountID,
		Usage:       r.usage,
		Models:      r.models,
		FixAttempts: r.fixAttempts,
	})
	if err != nil {
		observability.FromContext(ctx).Error("usage accounting failed", observability.Error(err))
	}
}

func (p *PipelineService) temperature(req *GenerationRequest) float64 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	return p.opts.DefaultTemperature
}

func (p *PipelineService) maxTokens(req *GenerationRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return p.opts.DefaultMaxTokens
}

func (p *PipelineService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.events != nil {
		p.events.Publish(ctx, eventType, data)
	}
}
