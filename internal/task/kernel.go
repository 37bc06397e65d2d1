package task

import (
	"context"
	"time"

	"github.com/ironclad-games/skirmish-core/internal/telemetry"
	"github.com/ironclad-games/skirmish-core/logging"
)

// Kernel owns a Scheduler and the two always-on system tasks, the Go
// rendering of the source lineage's Task_CreateServices entry point
// (§4.10, §4.11, §4.12).
type Kernel struct {
	sched *Scheduler

	tickRate time.Duration
	stopTick chan struct{}
}

// New starts a Scheduler bound to ctx and immediately spawns the name
// server and time server as its first two tasks, so their tids are
// resolvable before any caller-supplied task runs.
func New(ctx context.Context, pub logging.Publisher, metrics telemetry.Metrics) *Kernel {
	sched := NewScheduler(ctx, pub, metrics)

	nsResp := make(chan Tid, 1)
	sched.submit(&request{kind: reqCreate, tid: NullTid, prio: 0, entry: nameServerEntry, arg: nil, tidResp: nsResp})
	select {
	case sched.nsTid = <-nsResp:
	case <-sched.ctx.Done():
	}

	tsResp := make(chan Tid, 1)
	sched.submit(&request{kind: reqCreate, tid: NullTid, prio: 0, entry: timeServerEntry, arg: nil, tidResp: tsResp})
	select {
	case sched.tsTid = <-tsResp:
	case <-sched.ctx.Done():
	}

	return &Kernel{sched: sched}
}

// Scheduler exposes the underlying Scheduler, mainly so callers can spawn
// their own root tasks via Create on a bootstrap Task, or drive FireEvent.
func (k *Kernel) Scheduler() *Scheduler { return k.sched }

// Spawn creates a new top-level task with no parent of its own, returning
// its tid. Entry functions created this way see NullTid from ParentTid.
func (k *Kernel) Spawn(prio int, entry Entry, arg any) Tid {
	resp := make(chan Tid, 1)
	k.sched.submit(&request{kind: reqCreate, tid: NullTid, prio: prio, entry: entry, arg: arg, tidResp: resp})
	select {
	case tid := <-resp:
		return tid
	case <-k.sched.ctx.Done():
		return NullTid
	}
}

// StartTickSource fires Event60HzTick on a ticker at rate, driving the
// time server's tick notifier child task (§4.12). Call Shutdown or cancel
// the kernel's ctx to stop it.
func (k *Kernel) StartTickSource(rate time.Duration) {
	k.tickRate = rate
	k.stopTick = make(chan struct{})
	go func() {
		ticker := time.NewTicker(rate)
		defer ticker.Stop()
		var tick uint64
		for {
			select {
			case <-k.stopTick:
				return
			case <-k.sched.ctx.Done():
				return
			case <-ticker.C:
				tick++
				k.sched.FireEvent(Event60HzTick, tick)
			}
		}
	}()
}

// Shutdown stops the tick source (if started) and cancels every task,
// waiting for all task goroutines — including the name and time servers —
// to finish retiring before returning.
func (k *Kernel) Shutdown() {
	if k.stopTick != nil {
		close(k.stopTick)
	}
	k.sched.Shutdown()
}
