package logger

import (
	"context"
	"log/slog"
)

type fieldsKey struct{}

// With returns ctx carrying fields in addition to any already attached.
// Loggers read back with From include them all, oldest first.
func With(ctx context.Context, fields ...any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	prev, _ := ctx.Value(fieldsKey{}).([]any)
	merged := make([]any, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// From returns the process logger annotated with the fields attached to ctx.
func From(ctx context.Context) *slog.Logger {
	l := LoggerWrapper()
	if ctx == nil {
		return l
	}
	if fields, ok := ctx.Value(fieldsKey{}).([]any); ok && len(fields) > 0 {
		return l.With(fields...)
	}
	return l
}
