package kernel

import "context"

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// RequestIDKey stores the RequestID of the current request
	RequestIDKey ContextKey = "request_id"

	// SessionIDKey stores the SessionID the request operates on
	SessionIDKey ContextKey = "session_id"
)

// WithRequestID returns a copy of ctx carrying id
func WithRequestID(ctx context.Context, id RequestID) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestIDFrom extracts the request id, or an empty RequestID
func RequestIDFrom(ctx context.Context) RequestID {
	id, _ := ctx.Value(RequestIDKey).(RequestID)
	return id
}

// WithSessionID returns a copy of ctx carrying id
func WithSessionID(ctx context.Context, id SessionID) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

// SessionIDFrom extracts the session id, or an empty SessionID
func SessionIDFrom(ctx context.Context) SessionID {
	id, _ := ctx.Value(SessionIDKey).(SessionID)
	return id
}
