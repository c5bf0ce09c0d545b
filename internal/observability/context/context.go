// Package context carries request-scoped observability identifiers.
package context

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
)

type requestIDKey struct{}
type actorKey struct{}

// WithRequestID stores the request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request identifier or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDKey{}).(string); ok {
		return value
	}
	return ""
}

// WithActor records who performs the request, e.g. a username or "anonymous".
func WithActor(ctx context.Context, actor string) context.Context {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(actorKey{}).(string); ok {
		return value
	}
	return ""
}

type clientKey struct{}

// Client describes the remote peer of the current request.
type Client struct {
	IPAddress string
	UserAgent string
}

func WithClient(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, Client{
		IPAddress: strings.TrimSpace(ip),
		UserAgent: strings.TrimSpace(userAgent),
	})
}

func ClientFromContext(ctx context.Context) Client {
	if ctx == nil {
		return Client{}
	}
	if value, ok := ctx.Value(clientKey{}).(Client); ok {
		return value
	}
	return Client{}
}

type correlationKey struct{}

// WithCorrelationID stores id on the context, or a fresh ULID when id is
// blank, and returns the id in effect.
func WithCorrelationID(ctx context.Context, id string) (context.Context, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = ulid.Make().String()
	}
	return context.WithValue(ctx, correlationKey{}, id), id
}

func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(correlationKey{}).(string); ok {
		return value
	}
	return ""
}
