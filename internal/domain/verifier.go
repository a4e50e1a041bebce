package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/davidbz/forge/internal/observability"
)

// Task states reported by the compiler service.
const (
	TaskStatusPending = "pending"
	TaskStatusRunning = "running"
)

// TaskResult is the raw result of a compile task. Errors may be a JSON
// string, a single object, or an array of objects.
type TaskResult struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Errors json.RawMessage `json:"errors,omitempty"`
}

// VerifierOptions configures result polling.
type VerifierOptions struct {
	PollInterval time.Duration
	PollAttempts int
}

// VerifierService submits code to the compiler and normalizes its verdict.
type VerifierService struct {
	client     CompilerClient
	classifier *ErrorClassifier
	events     EventPublisher
	opts       VerifierOptions
}

// NewVerifierService creates a new verifier.
func NewVerifierService(
	client CompilerClient,
	classifier *ErrorClassifier,
	events EventPublisher,
	opts VerifierOptions,
) *VerifierService {
	if classifier == nil {
		classifier = NewErrorClassifier(nil)
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = 1
	}
	return &VerifierService{
		client:     client,
		classifier: classifier,
		events:     events,
		opts:       opts,
	}
}

// Verify compiles code as an ephemeral task. Transport failures are reported
// as an error verdict with one unknown error rather than returned.
func (v *VerifierService) Verify(ctx context.Context, code, dialect, authToken string) VerificationResult {
	start := time.Now()
	result := v.verify(ctx, code, dialect, authToken)

	v.publish(ctx, "verification.completed", map[string]interface{}{
		"status":     result.Status,
		"task_id":    result.TaskID,
		"errors":     len(result.Errors),
		"latency_ms": time.Since(start).Milliseconds(),
	})
	return result
}

func (v *VerifierService) verify(ctx context.Context, code, dialect, authToken string) VerificationResult {
	logger := observability.FromContext(ctx)

	if strings.TrimSpace(code) == "" {
		return v.failure("", "no code to verify")
	}

	taskID, err := v.client.Submit(ctx, code, dialect)
	if err != nil {
		logger.Warn("compile task submission failed", observability.Error(err))
		return v.failure("", fmt.Sprintf("verifier unavailable: %v", err))
	}

	var raw *TaskResult
	for attempt := 1; ; attempt++ {
		raw, err = v.client.FetchResult(ctx, taskID, authToken)
		if err != nil {
			logger.Warn("compile result fetch failed",
				observability.String("task_id", taskID),
				observability.Error(err))
			return v.failure(taskID, fmt.Sprintf("verifier unavailable: %v", err))
		}
		if !isPending(raw.Status) || attempt >= v.opts.PollAttempts {
			break
		}
		if sleepErr := sleepContext(ctx, v.opts.PollInterval); sleepErr != nil {
			return v.failure(taskID, fmt.Sprintf("verification cancelled: %v", sleepErr))
		}
	}

	return v.Normalize(taskID, raw)
}

// Normalize converts a raw task result into a VerificationResult. A result
// is successful only when its status says so and it carries no errors.
func (v *VerifierService) Normalize(taskID string, raw *TaskResult) VerificationResult {
	if raw == nil {
		return v.failure(taskID, "compiler returned no result")
	}

	errs := v.ParseStructuredErrors(raw.Errors)
	status := strings.ToLower(strings.TrimSpace(raw.Status))

	switch {
	case status == StatusSuccess && len(errs) == 0:
		return VerificationResult{Status: StatusSuccess, TaskID: taskID}
	case isPending(status):
		errs = append(errs, v.structured(map[string]any{"message": "compile task did not finish in time"}))
	case len(errs) == 0:
		errs = append(errs, v.structured(map[string]any{
			"message": fmt.Sprintf("compiler reported status %q without details", raw.Status),
		}))
	}

	return VerificationResult{Status: StatusError, TaskID: taskID, Errors: errs}
}

// ParseStructuredErrors flattens a string, object or array error payload
// into structured errors with their kind attached.
func (v *VerifierService) ParseStructuredErrors(raw json.RawMessage) []StructuredCompilerError {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return []StructuredCompilerError{v.structured(map[string]any{"message": trimmed})}
	}

	return v.flatten(payload)
}

func (v *VerifierService) flatten(payload any) []StructuredCompilerError {
	switch p := payload.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(p) == "" {
			return nil
		}
		return []StructuredCompilerError{v.structured(map[string]any{"message": p})}
	case map[string]any:
		return []StructuredCompilerError{v.structured(p)}
	case []any:
		out := make([]StructuredCompilerError, 0, len(p))
		for _, item := range p {
			out = append(out, v.flatten(item)...)
		}
		return out
	default:
		return []StructuredCompilerError{v.structured(map[string]any{"message": fmt.Sprint(p)})}
	}
}

func (v *VerifierService) structured(fields map[string]any) StructuredCompilerError {
	message := stringField(fields, "message", "msg", "error")
	if message == "" {
		encoded, _ := json.Marshal(fields)
		message = string(encoded)
	}

	return StructuredCompilerError{
		Kind:     v.classifier.ClassifyText(message).Kind(),
		Message:  message,
		Line:     intField(fields, "line"),
		Column:   intField(fields, "col", "column"),
		Expected: stringField(fields, "expected"),
		Found:    stringField(fields, "found"),
	}
}

func (v *VerifierService) failure(taskID, message string) VerificationResult {
	return VerificationResult{
		Status: StatusError,
		TaskID: taskID,
		Errors: []StructuredCompilerError{{Kind: KindUnknown, Message: message}},
	}
}

func (v *VerifierService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if v.events != nil {
		v.events.Publish(ctx, eventType, data)
	}
}

func isPending(status string) bool {
	s := strings.ToLower(status)
	return s == TaskStatusPending || s == TaskStatusRunning
}

func stringField(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		switch val := fields[k].(type) {
		case string:
			if val != "" {
				return val
			}
		case nil:
		default:
			return fmt.Sprint(val)
		}
	}
	return ""
}

func intField(fields map[string]any, keys ...string) *int {
	for _, k := range keys {
		switch val := fields[k].(type) {
		case float64:
			n := int(val)
			return &n
		case string:
			if n, err := strconv.Atoi(val); err == nil {
				return &n
			}
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
