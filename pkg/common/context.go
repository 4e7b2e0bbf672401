package common

import (
	"context"
)

// ContextKey represents a context key type
type ContextKey string

// Context keys
const (
	ContextKeyClientID  ContextKey = "client_id"
	ContextKeyRequestID ContextKey = "request_id"
)

// WithClientID adds the pseudo-anonymous client identity to the context
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ContextKeyClientID, clientID)
}

// GetClientID extracts the client identity from the context
func GetClientID(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(ContextKeyClientID).(string)
	return clientID, ok
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	return requestID, ok
}
