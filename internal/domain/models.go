package domain

import "time"

// Message roles used in provider requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest represents one provider call.
type CompletionRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add returns the sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// StreamEventType tags a StreamEvent.
type StreamEventType int

const (
	// EventContent carries a text delta.
	EventContent StreamEventType = iota
	// EventUsage carries token counts for the call that produced it.
	EventUsage
	// EventError is terminal and carries the transport error.
	EventError
	// EventComplete is terminal and signals natural end of output.
	EventComplete
)

// String returns the event type name.
func (t StreamEventType) String() string {
	switch t {
	case EventContent:
		return "content"
	case EventUsage:
		return "usage"
	case EventError:
		return "error"
	case EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// StreamEvent is the canonical event every provider adapter emits.
// Only the field matching Type is meaningful.
type StreamEvent struct {
	Type  StreamEventType
	Text  string
	Usage Usage
	Err   error
}

// ContentEvent builds a content event.
func ContentEvent(text string) StreamEvent { return StreamEvent{Type: EventContent, Text: text} }

// UsageEvent builds a usage event.
func UsageEvent(input, output int) StreamEvent {
	return StreamEvent{Type: EventUsage, Usage: Usage{InputTokens: input, OutputTokens: output}}
}

// ErrorEvent builds a terminal error event.
func ErrorEvent(err error) StreamEvent { return StreamEvent{Type: EventError, Err: err} }

// CompleteEvent builds a terminal completion event.
func CompleteEvent() StreamEvent { return StreamEvent{Type: EventComplete} }

// GenerationRequest is the caller-facing request for one pipeline execution.
type GenerationRequest struct {
	RequestID           string  `json:"-"`
	UserPrompt          string  `json:"prompt"`
	Dialect             string  `json:"dialect"`
	CurrentCode         string  `json:"current_code,omitempty"`
	ConversationSummary string  `json:"conversation_summary,omitempty"`
	Model               string  `json:"model,omitempty"`
	Temperature         float64 `json:"temperature,omitempty"`
	MaxTokens           int     `json:"max_tokens,omitempty"`
	AccountID           string  `json:"-"`
	AuthToken           string  `json:"-"`
}

// RetrievedExample is a ranked corpus example.
type RetrievedExample struct {
	ID            string  `json:"id"`
	PromptText    string  `json:"prompt"`
	CodeText      string  `json:"code"`
	Similarity    float64 `json:"similarity"`
	KeywordScore  float64 `json:"keyword_score"`
	CombinedScore float64 `json:"combined_score"`
}

// Task types understood by the prompt compiler.
const (
	TaskGenerate = "generate"
	TaskRepair   = "repair"
)

// FewShot is a (prompt, code) demonstration pair.
type FewShot struct {
	Prompt string `json:"prompt"`
	Code   string `json:"code"`
}

// OutputContract lists textual markers the output must contain.
type OutputContract struct {
	RequiredMarkers []string `json:"required_markers"`
}

// PromptSpec is the structured definition used to build one provider request.
type PromptSpec struct {
	Version        string         `json:"version"`
	SpecID         string         `json:"spec_id"`
	TaskType       string         `json:"task_type"`
	System         string         `json:"system"`
	Developer      string         `json:"developer"`
	FewShot        []FewShot      `json:"few_shot"`
	UserTemplate   string         `json:"user_template"`
	OutputContract OutputContract `json:"output_contract"`
	ValidatorHints []string       `json:"validator_hints,omitempty"`
}

// DialectConstraints describe the target dialect.
type DialectConstraints struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	Terminator   string `json:"terminator"`
	FenceTag     string `json:"fence_tag"`
}

// ContextPack bundles everything the prompt compiler needs for one attempt.
type ContextPack struct {
	RequestID           string                    `json:"request_id"`
	UserPrompt          string                    `json:"latest_request"`
	CurrentCode         string                    `json:"current_code,omitempty"`
	ConversationSummary string                    `json:"conversation_summary,omitempty"`
	Examples            []RetrievedExample        `json:"retrieved_examples"`
	Dialect             DialectConstraints        `json:"dialect"`
	PriorOutput         string                    `json:"prior_output,omitempty"`
	Errors              []StructuredCompilerError `json:"errors,omitempty"`
}

// GenerationResult is the collected output of one generator run.
type GenerationResult struct {
	Content    string `json:"content"`
	Usage      Usage  `json:"usage"`
	ChunkCount int    `json:"chunk_count"`
	Err        error  `json:"-"`
}

// Verification statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Structured error kinds.
const (
	KindSyntax   = "syntax"
	KindSemantic = "semantic"
	KindUnknown  = "unknown"
)

// StructuredCompilerError is one normalized compiler diagnostic.
type StructuredCompilerError struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Line     *int   `json:"line,omitempty"`
	Column   *int   `json:"column,omitempty"`
	Expected string `json:"expected,omitempty"`
	Found    string `json:"found,omitempty"`
}

// VerificationResult is the normalized compiler verdict.
type VerificationResult struct {
	Status string                    `json:"status"`
	TaskID string                    `json:"task_id,omitempty"`
	Errors []StructuredCompilerError `json:"errors,omitempty"`
}

// Succeeded reports whether the code compiled.
func (v VerificationResult) Succeeded() bool {
	return v.Status == StatusSuccess
}

// UsageRecord is the immutable audit entry for one pipeline run.
type UsageRecord struct {
	RequestID   string    `json:"request_id"`
	AccountID   string    `json:"account_id"`
	Tokens      Usage     `json:"tokens"`
	Cost        float64   `json:"cost"`
	BilledUnits int64     `json:"billed_units"`
	Models      []string  `json:"models"`
	FixAttempts int       `json:"fix_attempts"`
	Timestamp   time.Time `json:"timestamp"`
}

// PeriodTotal is the running usage aggregate of an account for one billing period.
type PeriodTotal struct {
	AccountID    string  `json:"account_id"`
	Period       string  `json:"period"`
	Units        int64   `json:"units"`
	Cost         float64 `json:"cost"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Requests     int64   `json:"requests"`
}

// GenerateCodeResponse is the terminal result handed to the caller.
// Code is processed but only verified when Verification.Status is success.
type GenerateCodeResponse struct {
	RequestID    string             `json:"request_id"`
	Code         string             `json:"code"`
	Model        string             `json:"model"`
	Usage        Usage              `json:"usage"`
	Verification VerificationResult `json:"verification"`
	FixAttempts  int                `json:"fix_attempts"`
}
