package logger

import "context"

type contextKey string

const TraceIDKey contextKey = "trace_id"
const StreamIDKey contextKey = "stream_id"

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}

func GetTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(TraceIDKey).(string); ok {
		return id
	}
	return ""
}

func WithStreamID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, StreamIDKey, id)
}

func GetStreamID(ctx context.Context) string {
	if id, ok := ctx.Value(StreamIDKey).(string); ok {
		return id
	}
	return ""
}
