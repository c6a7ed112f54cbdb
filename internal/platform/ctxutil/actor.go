package ctxutil

import (
	"context"
	"strings"
)

type requestDataKey struct{}

// RequestData carries per-request identity: the trace and request ids set by
// the trace middleware and the authenticated caller.
type RequestData struct {
	TraceID   string
	RequestID string
	Actor     string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// UpdateRequestData stores a copy of the current request data with fn applied.
// Values already in ctx are never mutated.
func UpdateRequestData(ctx context.Context, fn func(rd *RequestData)) context.Context {
	next := RequestData{}
	if rd := GetRequestData(ctx); rd != nil {
		next = *rd
	}
	fn(&next)
	return WithRequestData(Default(ctx), &next)
}

// Actor returns the caller identity or "" when the request is anonymous.
func Actor(ctx context.Context) string {
	rd := GetRequestData(ctx)
	if rd == nil {
		return ""
	}
	return strings.TrimSpace(rd.Actor)
}

// TraceIDs returns the trace and request ids, empty outside a request.
func TraceIDs(ctx context.Context) (traceID, requestID string) {
	rd := GetRequestData(ctx)
	if rd == nil {
		return "", ""
	}
	return rd.TraceID, rd.RequestID
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
