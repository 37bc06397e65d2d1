package movement

import (
	"context"
	"time"

	"github.com/ironclad-games/skirmish-core/logging"
	"github.com/ironclad-games/skirmish-core/logging/simulation"
)

// Loop is the runnable harness around Core.Step (§4.13). It owns no
// movement semantics of its own — Advance and Run both delegate straight
// to Core.Step — only the timing, backpressure, and observability concern,
// mirroring the separation the source lineage drew between its own fixed-
// timestep ticker and the engine it drove.
type Loop struct {
	core *Core
	rate time.Duration

	pub logging.Publisher

	// AfterStep, if set, runs after every Advance call, given the step's
	// wall-clock duration. Tests use it to assert on tick counts without a
	// running ticker.
	AfterStep func(d time.Duration)
	// OnQueueWarning, if set, runs when Advance's duration exceeds the
	// configured tick budget.
	OnQueueWarning func(d, budget time.Duration)

	overrunStreak uint64
}

// NewLoop constructs a Loop around core, ticking at rate (MOVE_TICK_RATE
// from config, expressed as a duration here since Go's ticker API wants
// one).
func NewLoop(core *Core, rate time.Duration, pub logging.Publisher) *Loop {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Loop{core: core, rate: rate, pub: pub}
}

// Advance runs exactly one tick, timing it against the loop's configured
// rate and publishing a tick-budget-overrun event if it ran over. This is
// the entry point tests call directly, without a ticker.
func (l *Loop) Advance(ctx context.Context) {
	start := time.Now()
	l.core.Step()
	d := time.Since(start)

	if l.AfterStep != nil {
		l.AfterStep(d)
	}

	if d > l.rate {
		l.overrunStreak++
		ratio := float64(d) / float64(l.rate)
		simulation.TickBudgetOverrun(ctx, l.pub, l.core.Tick(), simulation.TickBudgetOverrunPayload{
			DurationMillis: d.Milliseconds(),
			BudgetMillis:   l.rate.Milliseconds(),
			Ratio:          ratio,
			Streak:         l.overrunStreak,
		}, nil)
		if l.OnQueueWarning != nil {
			l.OnQueueWarning(d, l.rate)
		}
	} else {
		l.overrunStreak = 0
	}
}

// Run drives Advance at the configured rate until stop is closed or ctx is
// cancelled.
func (l *Loop) Run(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(l.rate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			l.Advance(ctx)
		}
	}
}
