package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request or batch logger, or a no-op logger when
// none was attached. Library callers that never set one stay silent.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// With derives a child of the context logger carrying fields and stores it
// back, so nested calls (per-query searches inside a batch) inherit them.
func With(ctx context.Context, fields ...zap.Field) (context.Context, *zap.Logger) {
	l := FromContext(ctx).With(fields...)
	return ContextWithLogger(ctx, l), l
}
