package clock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickInterval is how often a LiveClock refreshes.
const TickInterval = time.Second

// LiveClock periodically renders the current time in the viewer's zone.
type LiveClock struct {
	clk    clockwork.Clock
	zone   func() *time.Location
	emit   func(string)
	logger *slog.Logger
}

// NewLiveClock creates a live clock. zone is consulted on every tick so a
// preference change takes effect without a restart.
func NewLiveClock(clk clockwork.Clock, zone func() *time.Location, emit func(string), logger *slog.Logger) *LiveClock {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveClock{clk: clk, zone: zone, emit: emit, logger: logger}
}

// Run emits once immediately and then once per tick until ctx is cancelled.
func (c *LiveClock) Run(ctx context.Context) {
	c.tick()

	ticker := c.clk.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.tick()
		}
	}
}

func (c *LiveClock) tick() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("live clock tick failed", "err", fmt.Sprint(r))
		}
	}()
	c.emit(CurrentInstantFormatted(c.clk, c.zone()))
}
