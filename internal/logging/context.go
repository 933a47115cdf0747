package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// IntoContext stores item-scoped attrs in the context so nested stages tag
// their records consistently.
func IntoContext(ctx context.Context, attrs ...Attr) context.Context {
	existing, _ := ctx.Value(contextKey{}).([]Attr)
	merged := make([]Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, contextKey{}, merged)
}

// WithContext returns the logger enriched with any attrs carried by ctx.
// A nil logger yields the nop logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	attrs, _ := ctx.Value(contextKey{}).([]Attr)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return logger.With(args...)
}
