package movement

// flockForAgent returns the flock containing agent, if any.
func (c *Core) flockForAgent(uid uint64) *Flock {
	for _, f := range c.flocks {
		if _, ok := f.Members[uid]; ok {
			return f
		}
	}
	return nil
}

// flockForDest returns the flock with the given dest id, if any.
func (c *Core) flockForDest(destID uint64) *Flock {
	for _, f := range c.flocks {
		if f.DestID == destID {
			return f
		}
	}
	return nil
}

// removeFromFlocks removes uid from whichever flock it belongs to, then
// destroys that flock if it is now empty. Iteration is over an index into
// c.flocks so the swap-removal below is safe (§9: "erase-during-reverse-
// iteration is safe; swap-to-back semantics").
func (c *Core) removeFromFlocks(uid uint64) {
	for i := len(c.flocks) - 1; i >= 0; i-- {
		f := c.flocks[i]
		if _, ok := f.Members[uid]; !ok {
			continue
		}
		delete(f.Members, uid)
		if len(f.Members) == 0 {
			c.destroyFlockAt(i)
		}
		return
	}
}

// destroyFlockAt removes the flock at index i via swap-to-back, preserving
// the "safe under reverse iteration" contract for callers walking c.flocks
// from the end.
func (c *Core) destroyFlockAt(i int) {
	f := c.flocks[i]
	movementLogFlockDisbanded(c, f)
	last := len(c.flocks) - 1
	c.flocks[i] = c.flocks[last]
	c.flocks = c.flocks[:last]
}

// disbandEmptyFlocks destroys every flock whose members are all in state
// ARRIVED (an empty flock is trivially such a flock). Must run before
// computing forces each tick (§4.8 step 1).
func (c *Core) disbandEmptyFlocks() {
	for i := len(c.flocks) - 1; i >= 0; i-- {
		f := c.flocks[i]
		allArrived := true
		for uid := range f.Members {
			rec, ok := c.agents[uid]
			if !ok || rec.Move.State != StateArrived {
				allArrived = false
				break
			}
		}
		if allArrived {
			c.destroyFlockAt(i)
		}
	}
}

// makeFlock implements §4.1's make_flock: selection is a set of agent uids
// and target is the point clicked/commanded. attack distinguishes an
// attack-move click from a plain move click for the caller's own bookkeeping
// (e.g. a future "seek enemies once arrived" hook); it does not put members
// into SEEK_ENEMIES directly, since invariant 2 (§3) requires every flock
// member to be in state MOVING — SEEK_ENEMIES is reached only via the
// explicit SetSeekEnemies command. Returns false and mutates nothing if
// selection is empty or no reachable destination exists.
func (c *Core) makeFlock(selection []uint64, target Vec2, attack bool) bool {
	_ = attack
	moving := make([]uint64, 0, len(selection))
	for _, uid := range selection {
		rec, ok := c.agents[uid]
		if !ok || rec.Flags.Has(FlagStatic) || rec.MaxSpeed == 0 {
			continue
		}
		moving = append(moving, uid)
	}
	if len(moving) == 0 {
		return false
	}

	destID, snapped, ok := c.nav.DestIDForPos(target)
	if !ok {
		return false
	}

	for _, uid := range moving {
		c.removeFromFlocks(uid)
	}

	dst := c.flockForDest(destID)
	merged := dst != nil
	if dst == nil {
		dst = newFlock(destID, snapped)
		c.flocks = append(c.flocks, dst)
	}

	for _, uid := range moving {
		dst.Members[uid] = struct{}{}
		rec := c.agents[uid]
		wasStill := rec.Move.State.stillState()
		c.transitionState(rec, StateMoving)
		if wasStill {
			c.releaseBlockerFor(rec)
			c.emitMotionStart(rec)
		}
	}

	if merged {
		movementLogFlockMerged(c, dst)
	}
	return true
}
