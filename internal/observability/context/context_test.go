package context

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), " req-1 ")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := RequestIDFromContext(WithRequestID(context.Background(), "  ")); got != "" {
		t.Fatalf("expected blank request id to be ignored, got %q", got)
	}
}

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), "alice")
	if got := ActorFromContext(ctx); got != "alice" {
		t.Fatalf("expected alice, got %q", got)
	}
	if got := ActorFromContext(nil); got != "" {
		t.Fatalf("expected empty actor for nil context, got %q", got)
	}
}

func TestCorrelationIDGeneratesULID(t *testing.T) {
	ctx, cid := WithCorrelationID(context.Background(), "")
	if _, err := ulid.Parse(cid); err != nil {
		t.Fatalf("expected ulid, got %q: %v", cid, err)
	}
	if got := CorrelationIDFromContext(ctx); got != cid {
		t.Fatalf("expected %q on context, got %q", cid, got)
	}
}

func TestCorrelationIDKeepsProvided(t *testing.T) {
	ctx, cid := WithCorrelationID(context.Background(), " upstream-7 ")
	if cid != "upstream-7" || CorrelationIDFromContext(ctx) != "upstream-7" {
		t.Fatalf("expected provided id, got %q", cid)
	}
}
