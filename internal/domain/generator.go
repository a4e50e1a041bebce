package domain

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/davidbz/forge/internal/observability"
)

const (
	// DefaultMaxContinuations bounds the continuation calls after the first one.
	DefaultMaxContinuations = 10

	// ContinuePrompt is appended as a user turn when output was truncated.
	ContinuePrompt = "Continue exactly where you left off. Do not repeat anything you already wrote and do not add commentary."

	codeFence = "```"
)

var (
	// ErrStreamConsumed is emitted when a generation stream is iterated twice.
	ErrStreamConsumed = errors.New("generation stream already consumed")

	// ErrStreamInterrupted is emitted when a provider closes its stream without a terminal event.
	ErrStreamInterrupted = errors.New("provider stream ended without completion")
)

// GenerateOptions configures one generation.
type GenerateOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Terminator  string // dialect statement terminator used by the truncation test
}

// StreamingGenerator issues streaming provider calls and auto-continues truncated output.
type StreamingGenerator struct {
	registry         ProviderRegistry
	events           EventPublisher
	maxContinuations int
}

// NewStreamingGenerator creates a new generator. A negative bound disables continuation.
func NewStreamingGenerator(registry ProviderRegistry, events EventPublisher, maxContinuations int) *StreamingGenerator {
	if maxContinuations < 0 {
		maxContinuations = 0
	}
	return &StreamingGenerator{
		registry:         registry,
		events:           events,
		maxContinuations: maxContinuations,
	}
}

// IsTruncated reports whether accumulated output looks cut off: an odd number
// of code fences, or a missing statement terminator.
func IsTruncated(text, terminator string) bool {
	if strings.Count(text, codeFence)%2 == 1 {
		return true
	}
	if terminator == "" {
		return false
	}
	return !strings.Contains(text, terminator)
}

type drainState int

const (
	drainCompleted drainState = iota
	drainFailed
	drainStopped
)

// Generate returns a lazy, single-use sequence of events. No provider call is
// made until the sequence is iterated; iterating it a second time yields a
// single ErrStreamConsumed error event. Content and usage events of every
// call are forwarded; exactly one terminal event (error or complete) ends the
// sequence unless the consumer stops early.
func (g *StreamingGenerator) Generate(
	ctx context.Context,
	system string,
	messages []Message,
	opts GenerateOptions,
) iter.Seq[StreamEvent] {
	var consumed atomic.Bool

	return func(yield func(StreamEvent) bool) {
		if consumed.Swap(true) {
			yield(ErrorEvent(ErrStreamConsumed))
			return
		}
		g.run(ctx, system, messages, opts, yield)
	}
}

func (g *StreamingGenerator) run(
	ctx context.Context,
	system string,
	messages []Message,
	opts GenerateOptions,
	yield func(StreamEvent) bool,
) {
	provider, err := g.registry.GetByModel(ctx, opts.Model)
	if err != nil {
		yield(ErrorEvent(fmt.Errorf("provider routing failed: %w", err)))
		return
	}

	ctx = observability.WithModel(observability.WithProvider(ctx, provider.Name()), opts.Model)
	logger := observability.FromContext(ctx)
	start := time.Now()

	turns := slices.Clone(messages)
	var full strings.Builder
	calls := 0
	outcome := "error"

	defer func() {
		g.publish(ctx, "generation.completed", map[string]interface{}{
			"outcome":    outcome,
			"calls":      calls,
			"chars":      full.Len(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
	}()

	for {
		calls++
		callCtx, cancel := context.WithCancel(ctx)
		events, streamErr := provider.Stream(callCtx, &CompletionRequest{
			Model:       opts.Model,
			System:      system,
			Messages:    turns,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		})
		if streamErr != nil {
			cancel()
			yield(ErrorEvent(fmt.Errorf("failed to start stream: %w", streamErr)))
			return
		}

		partial, state := drain(events, &full, yield)
		cancel()

		switch state {
		case drainStopped:
			outcome = "stopped"
			return
		case drainFailed:
			return
		case drainCompleted:
		}

		if !IsTruncated(full.String(), opts.Terminator) {
			outcome = "complete"
			yield(CompleteEvent())
			return
		}

		if calls > g.maxContinuations {
			logger.Warn("continuation bound reached, returning best-effort output",
				observability.Int("calls", calls))
			outcome = "truncated"
			yield(CompleteEvent())
			return
		}

		logger.Info("output truncated, continuing",
			observability.Int("call", calls),
			observability.Int("chars", full.Len()))

		if partial != "" {
			turns = append(turns, Message{Role: RoleAssistant, Content: partial})
		}
		turns = append(turns, Message{Role: RoleUser, Content: ContinuePrompt})
	}
}

// drain forwards one provider call's events, returning that call's text.
func drain(events <-chan StreamEvent, full *strings.Builder, yield func(StreamEvent) bool) (string, drainState) {
	var partial strings.Builder

	for ev := range events {
		switch ev.Type {
		case EventContent:
			partial.WriteString(ev.Text)
			full.WriteString(ev.Text)
			if !yield(ev) {
				return partial.String(), drainStopped
			}
		case EventUsage:
			if !yield(ev) {
				return partial.String(), drainStopped
			}
		case EventError:
			yield(ev)
			return partial.String(), drainFailed
		case EventComplete:
			return partial.String(), drainCompleted
		}
	}

	yield(ErrorEvent(ErrStreamInterrupted))
	return partial.String(), drainFailed
}

// GenerateLongCode collects a full generation into a GenerationResult.
// On a transport error the partial content collected so far is kept and Err is set.
func (g *StreamingGenerator) GenerateLongCode(
	ctx context.Context,
	system string,
	messages []Message,
	opts GenerateOptions,
) GenerationResult {
	var (
		content strings.Builder
		result  GenerationResult
	)

	for ev := range g.Generate(ctx, system, messages, opts) {
		switch ev.Type {
		case EventContent:
			content.WriteString(ev.Text)
			result.ChunkCount++
		case EventUsage:
			result.Usage = result.Usage.Add(ev.Usage)
		case EventError:
			result.Err = ev.Err
		case EventComplete:
		}
	}

	result.Content = content.String()
	return result
}

func (g *StreamingGenerator) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if g.events != nil {
		g.events.Publish(ctx, eventType, data)
	}
}
