package httpx

import (
	"context"
	"net/http"
)

type ctxKey int

const (
	callerKey ctxKey = iota
	requestIDKey
)

// UserIDFrom returns the authenticated caller, or "" for an anonymous request.
func UserIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(callerKey).(string)
	return id
}

// ContextWithUser marks ctx as belonging to the caller userID.
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, callerKey, userID)
}

func RequestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
