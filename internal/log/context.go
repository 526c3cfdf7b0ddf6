package log

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type requestID struct{}

func RequestIDFromContext(c context.Context) string {
	id, _ := c.Value(requestID{}).(string)
	return id
}

func AttachRequestIDToContext(c context.Context, id string) context.Context {
	return context.WithValue(c, requestID{}, id)
}

// AttachTraceIDFromContext stamps every event with the request id and,
// when a span is active, the trace and span ids.
func AttachTraceIDFromContext() zerolog.HookFunc {
	return func(e *zerolog.Event, level zerolog.Level, message string) {
		c := e.GetCtx()
		if reqID := RequestIDFromContext(c); reqID != "" {
			e.Str(KeyRequestID, reqID)
		}
		spanCtx := trace.SpanContextFromContext(c)
		if spanCtx.IsValid() {
			e.Str(KeyTraceID, spanCtx.TraceID().String()).
				Str(KeySpanID, spanCtx.SpanID().String())
		}
	}
}
