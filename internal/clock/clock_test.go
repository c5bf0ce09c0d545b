package clock

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestOrReal(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	if got := OrReal(fake); got != fake {
		t.Fatalf("expected fake clock to be returned")
	}
	if OrReal(nil) == nil {
		t.Fatalf("expected real clock fallback")
	}
}
