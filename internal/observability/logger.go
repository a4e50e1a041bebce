package observability

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Global logger instance - shared across the application.
// Loggers are not stored in context; only the correlation values are.
//
//nolint:gochecknoglobals // Singleton logger is a standard pattern
var (
	globalLogger *zap.Logger
	loggerMu     sync.RWMutex
)

// InitLogger initializes the base logger (called once at startup).
func InitLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	SetLogger(logger)
	return logger, nil
}

// SetLogger replaces the base logger. Tests use it to install zap.NewNop or an observer core.
func SetLogger(logger *zap.Logger) {
	loggerMu.Lock()
	globalLogger = logger
	loggerMu.Unlock()
}

// getBaseLogger returns the global logger instance.
func getBaseLogger() *zap.Logger {
	loggerMu.RLock()
	logger := globalLogger
	loggerMu.RUnlock()

	if logger == nil {
		// Fallback to production logger if not initialized
		logger, _ = zap.NewProduction()
	}

	return logger
}

// FromContext creates a logger with the correlation fields extracted from context.
func FromContext(ctx context.Context) *zap.Logger {
	logger := getBaseLogger()
	if ctx == nil {
		return logger
	}

	fields := make([]zap.Field, 0, len(loggedKeys))
	for _, key := range loggedKeys {
		if v := stringFrom(ctx, key); v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}

	return logger.With(fields...)
}
