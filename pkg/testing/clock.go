package testing

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Epoch is the time a tester's clock starts at.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewClock returns a mock clock set to Epoch. Advance it with Add or Set.
func NewClock() *clock.Mock {
	clk := clock.NewMock()
	clk.Set(Epoch)
	return clk
}
