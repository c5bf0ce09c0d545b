// Package clock provides the injectable time source shared by services.
package clock

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
)

var Module = fx.Module("clock",
	fx.Provide(New),
)

// New returns the wall clock. Tests substitute clockwork.NewFakeClockAt.
func New() clockwork.Clock {
	return clockwork.NewRealClock()
}

// OrReal returns c, or the wall clock when c is nil.
func OrReal(c clockwork.Clock) clockwork.Clock {
	if c == nil {
		return clockwork.NewRealClock()
	}
	return c
}
