package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventSink persists trace records outside the process log.
type EventSink interface {
	Append(ctx context.Context, eventType string, data map[string]interface{}) error
}

// EventBus implements the domain EventPublisher interface.
// Every record is written to the contextual logger; when a sink is
// configured (analytics enabled) it is also appended there.
type EventBus struct {
	sink EventSink
}

// NewEventBus creates a new event bus. A nil sink disables analytics export.
func NewEventBus(sink EventSink) *EventBus {
	return &EventBus{
		sink: sink,
	}
}

// Publish publishes an event with the given type and data.
func (e *EventBus) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	logger := FromContext(ctx)

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(data)+1)
	fields = append(fields, zap.String("event", eventType))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, data[k]))
	}
	logger.Info("trace record", fields...)

	if e.sink == nil {
		return
	}

	if err := e.sink.Append(ctx, eventType, data); err != nil {
		logger.Warn("failed to export trace record",
			zap.String("event", eventType),
			zap.Error(err))
	}
}

// RedisStreamSink appends trace records to a Redis stream.
type RedisStreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamSink creates a sink writing to the given stream, trimmed approximately to maxLen.
func NewRedisStreamSink(client *redis.Client, stream string, maxLen int64) *RedisStreamSink {
	return &RedisStreamSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Append adds one record to the stream.
func (s *RedisStreamSink) Append(ctx context.Context, eventType string, data map[string]interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal trace record: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"event":      eventType,
			"request_id": GetRequestID(ctx),
			"data":       string(payload),
			"at":         time.Now().UTC().Format(time.RFC3339Nano),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append to stream %s: %w", s.stream, err)
	}
	return nil
}
