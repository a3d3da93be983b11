package tracing

import (
	"context"
	"time"
)

type TracingContextKey string

const TracingInfoKey = TracingContextKey("requestTracingInfo")
const TraceIdKey = TracingContextKey("requestTraceId")

type SpanDetail struct {
	Name     string
	Duration int64
}

type TracingInfo struct {
	SpanDetails []SpanDetail
}

func (t *TracingInfo) addSpanDetail(detail SpanDetail) {
	t.SpanDetails = append(t.SpanDetails, detail)
}

// NewContext attaches a fresh TracingInfo and trace id to ctx.
func NewContext(ctx context.Context, traceId string) (context.Context, *TracingInfo) {
	info := &TracingInfo{}
	ctx = context.WithValue(ctx, TracingInfoKey, info)
	ctx = context.WithValue(ctx, TraceIdKey, traceId)
	return ctx, info
}

func FromContext(ctx context.Context) *TracingInfo {
	info, _ := ctx.Value(TracingInfoKey).(*TracingInfo)
	return info
}

// WrapWithSpan times next and appends the span to the TracingInfo in ctx.
// Without a TracingInfo the call is made untraced.
func WrapWithSpan[Result any](ctx context.Context, name string, next func() (Result, error)) (Result, error) {
	tracingInfo := FromContext(ctx)

	startTime := time.Now()
	defer func() {
		if tracingInfo != nil {
			duration := time.Since(startTime).Milliseconds()
			tracingInfo.addSpanDetail(SpanDetail{Name: name, Duration: duration})
		}
	}()

	return next()
}
