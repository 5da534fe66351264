package logging

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field names shared across packages.
const (
	RequestID     = "request_id"
	OrderID       = "order_id"
	PaymentAction = "payment_action"
	Reference     = "unique_ref"
	Endpoint      = "endpoint"
)

type loggerKey struct{}

var base = newLogger()

func newLogger() *zap.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		_ = level.UnmarshalText([]byte(v))
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// From returns the logger stored in ctx, or the base logger.
func From(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return base
	}
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return base
}

// With returns a copy of ctx carrying l.
func With(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// WithFields adds fields to the logger carried by ctx.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return With(ctx, From(ctx).With(fields...))
}

// Print logs an informational event.
func Print(ctx context.Context, msg string, fields ...zap.Field) {
	From(ctx).Info(msg, fields...)
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	From(ctx).Debug(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	From(ctx).Warn(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	From(ctx).Error(msg, fields...)
}
