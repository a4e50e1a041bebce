package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/forge/internal/observability"
)

const (
	// DefaultSpecCompilerTimeout bounds every external spec-compiler call.
	DefaultSpecCompilerTimeout = 5 * time.Second

	legacySpecVersion = "legacy-1"
)

// ErrPromptUnavailable is returned when no prompt spec could be produced.
var ErrPromptUnavailable = errors.New("prompt spec unavailable")

const legacySystemTemplate = `You are an expert {dialect} programmer.
Translate the user's request into one complete, compilable {dialect} program.
Only use constructs that exist in {dialect}; never invent functions or keywords.`

const legacyUserTemplate = `Target dialect: {dialect}

Request:
{user_request}

Current code:
{current_code}

Conversation so far:
{conversation_summary}

Relevant examples:
{retrieved_context}`

const legacyRepairSystemTemplate = `You are an expert {dialect} programmer fixing code that failed to compile.
Keep the program's intent, change only what is needed to make it compile, and return the whole corrected program.`

const legacyRepairUserTemplate = `Original request:
{user_request}

Code that failed to compile:
{current_code}

Return the corrected {dialect} program.`

// PromptCompilerOptions toggles the external spec-compiler path.
type PromptCompilerOptions struct {
	SpecCompilerEnabled bool
	LegacyFallback      bool
	Timeout             time.Duration
}

// PromptCompilerService builds PromptSpecs, preferring the external spec
// compiler and degrading to locally assembled legacy specs.
type PromptCompilerService struct {
	external SpecCompiler
	events   EventPublisher
	opts     PromptCompilerOptions
}

// NewPromptCompilerService creates a new prompt compiler. external may be nil.
func NewPromptCompilerService(external SpecCompiler, events EventPublisher, opts PromptCompilerOptions) *PromptCompilerService {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSpecCompilerTimeout
	}
	if external == nil {
		opts.SpecCompilerEnabled = false
	}

	return &PromptCompilerService{
		external: external,
		events:   events,
		opts:     opts,
	}
}

// Compile returns a spec for taskType, or nil when the external path failed
// and the legacy fallback is disabled.
func (p *PromptCompilerService) Compile(ctx context.Context, pack *ContextPack, taskType string) *PromptSpec {
	if p.opts.SpecCompilerEnabled {
		if spec := p.CompileExternal(ctx, pack, taskType); spec != nil {
			return spec
		}
		if !p.opts.LegacyFallback {
			return nil
		}
	}

	return p.CompileLegacy(ctx, pack, taskType)
}

// CompileExternal delegates to the spec compiler under the configured
// timeout. Any failure returns nil.
func (p *PromptCompilerService) CompileExternal(ctx context.Context, pack *ContextPack, taskType string) *PromptSpec {
	if !p.opts.SpecCompilerEnabled || pack == nil {
		return nil
	}

	logger := observability.FromContext(ctx)
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	var (
		spec *PromptSpec
		err  error
	)
	if taskType == TaskRepair {
		spec, err = p.external.Repair(callCtx, pack)
	} else {
		spec, err = p.external.Compile(callCtx, pack)
	}
	if err == nil {
		err = validateSpec(spec)
	}

	p.publish(ctx, "prompt.compiled", map[string]interface{}{
		"path":       "spec_compiler",
		"task_type":  taskType,
		"ok":         err == nil,
		"latency_ms": time.Since(start).Milliseconds(),
	})

	if err != nil {
		logger.Warn("spec compiler unavailable, degrading",
			observability.String("task_type", taskType),
			observability.Error(err))
		return nil
	}

	if spec.TaskType == "" {
		spec.TaskType = taskType
	}
	return spec
}

// CompileLegacy assembles a spec locally from fixed templates.
func (p *PromptCompilerService) CompileLegacy(ctx context.Context, pack *ContextPack, taskType string) *PromptSpec {
	var spec *PromptSpec
	if taskType == TaskRepair {
		spec = LegacyRepairSpec(pack)
	} else {
		spec = LegacyGenerateSpec(pack)
	}

	p.publish(ctx, "prompt.compiled", map[string]interface{}{
		"path":      "legacy",
		"task_type": taskType,
		"ok":        true,
		"spec_id":   spec.SpecID,
	})
	return spec
}

func (p *PromptCompilerService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.events != nil {
		p.events.Publish(ctx, eventType, data)
	}
}

// LegacyGenerateSpec builds the local generation spec: fixed instructions,
// dialect rules, retrieved examples as few-shot pairs and the default user template.
func LegacyGenerateSpec(pack *ContextPack) *PromptSpec {
	shots := make([]FewShot, 0, len(pack.Examples))
	for _, ex := range pack.Examples {
		shots = append(shots, FewShot{Prompt: ex.PromptText, Code: ex.CodeText})
	}

	return &PromptSpec{
		Version:        legacySpecVersion,
		SpecID:         uuid.New().String(),
		TaskType:       TaskGenerate,
		System:         legacySystemTemplate,
		Developer:      dialectRules(pack.Dialect),
		FewShot:        shots,
		UserTemplate:   legacyUserTemplate,
		OutputContract: outputContract(pack.Dialect),
		ValidatorHints: validatorHints(pack.Dialect),
	}
}

// LegacyRepairSpec builds the fixed repair spec restating the dialect
// grammar and the concatenated compiler errors.
func LegacyRepairSpec(pack *ContextPack) *PromptSpec {
	developer := dialectRules(pack.Dialect) +
		"\n\nThe previous attempt failed to compile with these errors:\n" +
		FormatCompilerErrors(pack.Errors)

	return &PromptSpec{
		Version:        legacySpecVersion,
		SpecID:         uuid.New().String(),
		TaskType:       TaskRepair,
		System:         legacyRepairSystemTemplate,
		Developer:      developer,
		UserTemplate:   legacyRepairUserTemplate,
		OutputContract: outputContract(pack.Dialect),
		ValidatorHints: validatorHints(pack.Dialect),
	}
}

// FormatCompilerErrors concatenates errors one per line with their positions.
func FormatCompilerErrors(errs []StructuredCompilerError) string {
	if len(errs) == 0 {
		return "- (the compiler reported no details)"
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		var b strings.Builder
		b.WriteString("- ")
		if e.Line != nil {
			fmt.Fprintf(&b, "line %d", *e.Line)
			if e.Column != nil {
				fmt.Fprintf(&b, ", column %d", *e.Column)
			}
			b.WriteString(": ")
		}
		b.WriteString(e.Message)
		if e.Expected != "" || e.Found != "" {
			fmt.Fprintf(&b, " (expected %q, found %q)", e.Expected, e.Found)
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func dialectRules(d DialectConstraints) string {
	var b strings.Builder
	if strings.TrimSpace(d.Instructions) != "" {
		b.WriteString("Dialect reference:\n")
		b.WriteString(strings.TrimSpace(d.Instructions))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Return exactly one fenced code block tagged %q containing the full program.", d.FenceTag)
	if d.Terminator != "" {
		fmt.Fprintf(&b, "\nEvery statement ends with %q.", d.Terminator)
	}
	return b.String()
}

func outputContract(d DialectConstraints) OutputContract {
	markers := []string{"```" + d.FenceTag}
	if d.Terminator != "" {
		markers = append(markers, d.Terminator)
	}
	return OutputContract{RequiredMarkers: markers}
}

func validatorHints(d DialectConstraints) []string {
	hints := []string{"single fenced block"}
	if d.Terminator != "" {
		hints = append(hints, "statements terminated by "+d.Terminator)
	}
	return hints
}

func validateSpec(spec *PromptSpec) error {
	switch {
	case spec == nil:
		return errors.New("spec compiler returned no spec")
	case strings.TrimSpace(spec.System) == "":
		return errors.New("spec compiler returned a spec without system instructions")
	case strings.TrimSpace(spec.UserTemplate) == "":
		return errors.New("spec compiler returned a spec without a user template")
	}
	return nil
}
