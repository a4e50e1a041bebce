package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

type contextKey string

const (
	traceIDBytes = 16 // OpenTelemetry trace ID size in bytes
	spanIDBytes  = 8  // OpenTelemetry span ID size in bytes
)

const (
	// TraceIDKey holds the OpenTelemetry trace ID.
	TraceIDKey contextKey = "trace_id"

	// SpanIDKey holds the OpenTelemetry span ID.
	SpanIDKey contextKey = "span_id"

	// RequestIDKey holds the generation request identifier (the correlation key).
	RequestIDKey contextKey = "request_id"

	// ProviderKey holds the LLM provider serving the current attempt.
	ProviderKey contextKey = "provider"

	// ModelKey holds the model serving the current attempt.
	ModelKey contextKey = "model"

	// DialectKey holds the target dialect of the request.
	DialectKey contextKey = "dialect"

	// AccountKey holds the billed account.
	AccountKey contextKey = "account_id"
)

// loggedKeys lists the context keys attached to every contextual logger, in order.
//
//nolint:gochecknoglobals // fixed lookup table
var loggedKeys = []contextKey{TraceIDKey, SpanIDKey, RequestIDKey, ProviderKey, ModelKey, DialectKey, AccountKey}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithTraceID injects trace ID into context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withString(ctx, TraceIDKey, traceID)
}

// WithSpanID injects span ID into context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return withString(ctx, SpanIDKey, spanID)
}

// WithRequestID injects request ID into context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, RequestIDKey, requestID)
}

// WithProvider injects provider name into context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return withString(ctx, ProviderKey, provider)
}

// WithModel injects model name into context.
func WithModel(ctx context.Context, model string) context.Context {
	return withString(ctx, ModelKey, model)
}

// WithDialect injects the target dialect into context.
func WithDialect(ctx context.Context, dialect string) context.Context {
	return withString(ctx, DialectKey, dialect)
}

// WithAccount injects the billed account into context.
func WithAccount(ctx context.Context, accountID string) context.Context {
	return withString(ctx, AccountKey, accountID)
}

// GetTraceID extracts trace ID from context.
func GetTraceID(ctx context.Context) string { return stringFrom(ctx, TraceIDKey) }

// GetSpanID extracts span ID from context.
func GetSpanID(ctx context.Context) string { return stringFrom(ctx, SpanIDKey) }

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string { return stringFrom(ctx, RequestIDKey) }

// GetModel extracts model name from context.
func GetModel(ctx context.Context) string { return stringFrom(ctx, ModelKey) }

// GetDialect extracts the dialect from context.
func GetDialect(ctx context.Context) string { return stringFrom(ctx, DialectKey) }

// GenerateTraceID generates an OpenTelemetry-compatible trace ID (32 hex chars).
func GenerateTraceID() string {
	return randomHex(traceIDBytes, func() string { return uuid.New().String() })
}

// GenerateSpanID generates an OpenTelemetry-compatible span ID (16 hex chars).
func GenerateSpanID() string {
	return randomHex(spanIDBytes, func() string { return uuid.New().String()[:16] })
}

// GenerateRequestID generates a unique request identifier (UUID).
func GenerateRequestID() string {
	return uuid.New().String()
}

func randomHex(n int, fallback func() string) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return fallback()
	}
	return hex.EncodeToString(buf)
}
