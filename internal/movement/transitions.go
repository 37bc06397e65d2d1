package movement

import "context"

// transitionState moves rec into newState and does nothing else. Callers
// are responsible for every side effect of the transition (blocker
// bookkeeping, flock membership, wait bookkeeping, motion events)
// documented in §4.2.
func (c *Core) transitionState(rec *agentRecord, newState State) {
	rec.Move.State = newState
}

// acquireBlockerFor registers a nav blocker at the agent's current position
// and marks Blocking true, satisfying invariant 3 (§3) for still states.
func (c *Core) acquireBlockerFor(rec *agentRecord) {
	if rec.Move.Blocking {
		return
	}
	pos := rec.Pos.XZ()
	c.nav.AcquireBlocker(pos, rec.Radius)
	rec.Move.Blocking = true
	rec.Move.LastStopPos = pos
	rec.Move.LastStopRadius = rec.Radius
}

// releaseBlockerFor releases the agent's currently-registered blocker, if
// any, and clears Blocking.
func (c *Core) releaseBlockerFor(rec *agentRecord) {
	if !rec.Move.Blocking {
		return
	}
	c.nav.ReleaseBlocker(rec.Move.LastStopPos, rec.Move.LastStopRadius)
	rec.Move.Blocking = false
}

func (c *Core) emitMotionStart(rec *agentRecord) {
	movementLogMotionStart(c, rec)
}

func (c *Core) emitMotionEnd(rec *agentRecord) {
	movementLogMotionEnd(c, rec)
}

// enterArrived transitions rec to ARRIVED: motion end, blocker acquired,
// velocities zeroed (§4.2).
func (c *Core) enterArrived(rec *agentRecord) {
	wasStill := rec.Move.State.stillState()
	c.transitionState(rec, StateArrived)
	rec.Move.VDes = Vec2{}
	rec.Move.VNew = Vec2{}
	rec.Move.Velocity = Vec2{}
	c.acquireBlockerFor(rec)
	if !wasStill {
		c.emitMotionEnd(rec)
	}
}

// enterWaiting transitions rec to WAITING, remembering the state to resume
// once WaitTicks have elapsed (§4.2).
func (c *Core) enterWaiting(rec *agentRecord) {
	rec.Move.WaitPrev = rec.Move.State
	c.transitionState(rec, StateWaiting)
	rec.Move.WaitTicksLeft = c.cfg.WaitTicks
	c.acquireBlockerFor(rec)
	c.emitMotionEnd(rec)
}

// leaveWaiting restores the pre-wait state once WaitTicksLeft has decayed
// to zero; blocker released, MOTION_START emitted (§4.2).
func (c *Core) leaveWaiting(rec *agentRecord) {
	c.releaseBlockerFor(rec)
	c.transitionState(rec, rec.Move.WaitPrev)
	c.emitMotionStart(rec)
}

// stop implements Move_Stop: any non-still state transitions to ARRIVED,
// leaving the flock it belonged to (if any). A second call on an already
// still agent is a no-op, satisfying the idempotence law in §8.
func (c *Core) stop(rec *agentRecord) {
	if rec.Move.State.stillState() {
		return
	}
	c.removeFromFlocks(rec.UID)
	c.enterArrived(rec)
}

func (c *Core) ctx() context.Context {
	if c.baseCtx != nil {
		return c.baseCtx
	}
	return context.Background()
}
