// Package identity carries the optional authenticated user of a request.
package identity

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

const (
	// CreatorSystem tags rows written without an authenticated user.
	CreatorSystem = "System"
	// CreatorDevice tags rows pushed by the device ingestion endpoint.
	CreatorDevice = "Tasmota"
)

// Identity is the authenticated account behind a request.
type Identity struct {
	AccountID snowflake.ID
	Username  string
	SessionID snowflake.ID
}

type identityKey struct{}

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if strings.TrimSpace(id.Username) == "" {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the authenticated identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || strings.TrimSpace(id.Username) == "" {
		return Identity{}, false
	}
	return id, true
}

// Creator resolves the created_by tag for rows written under ctx,
// falling back when nobody is logged in.
func Creator(ctx context.Context, fallback string) string {
	if id, ok := FromContext(ctx); ok {
		return id.Username
	}
	if strings.TrimSpace(fallback) == "" {
		return CreatorSystem
	}
	return fallback
}
