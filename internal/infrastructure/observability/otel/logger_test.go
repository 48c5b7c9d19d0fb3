package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewLogger(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	logger := NewLogger(tracer)

	assert.NotNil(t, logger)
	assert.Equal(t, tracer, logger.tracer)
}

func TestLogger_Log(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	logger := NewLogger(tracer)

	tests := []struct {
		name    string
		level   LogLevel
		message string
		fields  map[string]interface{}
	}{
		{
			name:    "Infoレベルのログ",
			level:   LogLevelInfo,
			message: "payment created",
			fields:  map[string]interface{}{"payment_id": "pf_123"},
		},
		{
			name:    "Debugレベルのログ",
			level:   LogLevelDebug,
			message: "debug message",
			fields:  nil,
		},
		{
			name:    "Warnレベルのログ",
			level:   LogLevelWarn,
			message: "polling exhausted",
			fields:  map[string]interface{}{"attempts": 5},
		},
		{
			name:    "Errorレベルのログ",
			level:   LogLevelError,
			message: "status check failed",
			fields:  map[string]interface{}{"error": "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			// パニックせずに出力できることを確認
			logger.Log(ctx, tt.level, tt.message, tt.fields)
		})
	}
}

func TestLogger_LevelMethods(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	logger := NewLogger(tracer)
	ctx := context.Background()

	logger.Debug(ctx, "debug", nil)
	logger.Info(ctx, "info", nil)
	logger.Warn(ctx, "warn", nil)
	logger.Error(ctx, "error", assert.AnError, map[string]interface{}{"key": "value"})
}
