package movement

import "math"

// pendingCommit carries the first pass's output for one agent into the
// second pass, keeping the two passes strictly separated: nothing written
// in pass two is visible to pass one of the same tick (§4.8, §5).
type pendingCommit struct {
	uid  uint64
	vnew Vec2
}

// Step runs one full movement tick: disband empty/all-arrived flocks, then
// the two-pass velocity-then-commit sweep over every dynamic, non-still
// agent (§4.8). It is the method internal/movement.Loop calls every tick;
// tests call it directly without a ticker via the same entry point.
func (c *Core) Step() {
	c.tick++
	c.disbandEmptyFlocks()

	active := c.activeAgents()
	pending := make([]pendingCommit, 0, len(active))
	for _, rec := range active {
		vnew := c.computeVelocity(rec)
		rec.Move.pushVelHist(vnew)
		pending = append(pending, pendingCommit{uid: rec.UID, vnew: vnew})
	}

	for _, p := range pending {
		rec := c.assertRec(p.uid)
		c.commit(rec, p.vnew)
	}
}

// activeAgents returns every agent whose velocity needs recomputing this
// tick: dynamic (selection radius > 0, non-static) and not currently still.
func (c *Core) activeAgents() []*agentRecord {
	out := make([]*agentRecord, 0, len(c.agents))
	for _, rec := range c.agents {
		if rec.Flags.Has(FlagStatic) || rec.MaxSpeed == 0 {
			continue
		}
		if rec.Move.State.stillState() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// computeVelocity is pass one for a single agent: desired velocity, the
// steering cascade, velocity integration, ClearPath reconciliation, and the
// smoothing hook — everything that only reads the tick's opening snapshot.
func (c *Core) computeVelocity(rec *agentRecord) Vec2 {
	pos := rec.Pos.XZ()

	var vdes Vec2
	var f *Flock
	if rec.Move.State == StateSeekEnemies {
		vdes = c.nav.DesiredEnemySeekVelocity(pos, rec.Faction)
	} else {
		f = c.flockForAgent(rec.UID)
		if f != nil {
			vdes = c.nav.DesiredPointSeekVelocity(f.DestID, pos, f.TargetXZ)
		}
	}
	rec.Move.VDes = vdes

	steerForce := c.computePreferredForce(rec, f, vdes)
	vpref := c.integratePreferredVelocity(rec, steerForce)

	dyn, stat := c.neighborsWithin(rec, c.cfg.ClearpathNeighbRadius)
	vnew := clearpathReconcile(rec, vpref, dyn, stat)

	// The deliberate integration hook (§4.5, §9 open question 2): compute
	// vel_diff then re-derive vnew from it rather than using ClearPath's
	// output directly, preserving the placeholder shape for a future
	// smoothing/damping term.
	velDiff := vnew.Sub(rec.Move.Velocity)
	vnew = applySmoothingHook(rec.Move.Velocity, velDiff)
	vnew = vtruncate(vnew, rec.MaxSpeed/c.cfg.TickRes)

	return vnew
}

// integratePreferredVelocity turns the steering cascade's force into the
// preferred velocity ClearPath reconciles, mirroring point_seek_vpref /
// enemy_seek_vpref: accel = force/ENTITY_MASS, vpref = velocity + accel,
// truncated to the agent's own per-tick speed limit (§4.4 integration
// substep).
func (c *Core) integratePreferredVelocity(rec *agentRecord, steerForce Vec2) Vec2 {
	accel := steerForce.Scale(1.0 / c.cfg.EntityMass)
	vpref := rec.Move.Velocity.Add(accel)
	return vtruncate(vpref, rec.MaxSpeed/c.cfg.TickRes)
}

// applySmoothingHook is the named hook standing in for the source
// lineage's vnew = velocity + (vnew - velocity) placeholder. It is an
// identity transform today; a future damping/smoothing term would read
// velocity and velDiff here instead of just summing them back together.
func applySmoothingHook(velocity, velDiff Vec2) Vec2 {
	return velocity.Add(velDiff)
}

// computePreferredForce runs the vpref priority cascade (§4.4).
func (c *Core) computePreferredForce(rec *agentRecord, f *Flock, vdes Vec2) Vec2 {
	pos := rec.Pos.XZ()
	cfg := &c.cfg

	if rec.Move.State == StateSeekEnemies {
		arriveForce := c.arriveNoDest(rec, vdes)
		sepNeighbors, _ := c.neighborsWithin(rec, cfg.SeparationNeighbRadius)
		sepForce := separation(neighbor{Pos: pos, Radius: rec.Radius}, sepNeighbors, cfg)
		total := vtruncate(arriveForce.Scale(cfg.ArriveScale).Add(sepForce.Scale(cfg.SeparationScale)), cfg.MaxForce)
		return c.nullifyAgainstImpassable(pos, total)
	}

	arriveForce := c.arriveTo(rec, f, vdes)
	flockmates := c.flockmateNeighbors(rec, f)
	cohesionForce := cohesion(neighbor{Pos: pos, Radius: rec.Radius}, flockmates, rec.Move.Velocity, cfg)
	sepNeighbors, _ := c.neighborsWithin(rec, cfg.SeparationNeighbRadius)
	sepForce := separation(neighbor{Pos: pos, Radius: rec.Radius}, sepNeighbors, cfg)

	total := arriveForce.Scale(cfg.ArriveScale).
		Add(cohesionForce.Scale(cfg.CohesionScale)).
		Add(sepForce.Scale(cfg.SeparationScale))
	total = vtruncate(total, cfg.MaxForce)
	total = c.nullifyAgainstImpassable(pos, total)

	if vlen(total) <= 0.01*cfg.MaxForce {
		total = c.nullifyAgainstImpassable(pos, sepForce.Scale(cfg.SeparationScale))
	}
	if vlen(total) <= 0.01*cfg.MaxForce {
		total = c.nullifyAgainstImpassable(pos, arriveForce.Scale(cfg.ArriveScale))
	}
	return total
}

func (c *Core) arriveTo(rec *agentRecord, f *Flock, vdes Vec2) Vec2 {
	pos := rec.Pos.XZ()
	if f == nil {
		return Vec2{}
	}
	hasLOS := c.nav.LineOfSight(pos, f.TargetXZ)
	return arrive(pos, f.TargetXZ, vdes, rec.Move.Velocity, hasLOS, rec.MaxSpeed, c.cfg.ArriveSlowingRadius, &c.cfg)
}

// arriveNoDest is Arrive's degenerate form for enemy-seek agents, which have
// no fixed destination point to check line-of-sight against: it always
// uses vdes as the desired direction (§4.4 "dest-less arrive").
func (c *Core) arriveNoDest(rec *agentRecord, vdes Vec2) Vec2 {
	desired := vdes.Scale(rec.MaxSpeed / c.cfg.TickRes)
	return vtruncate(desired.Sub(rec.Move.Velocity), c.cfg.MaxForce)
}

func (c *Core) nullifyAgainstImpassable(pos, force Vec2) Vec2 {
	const tileSize = 1.0
	return nullifyImpassable(pos, force, tileSize, c.nav.IsImpassable)
}

func clearpathReconcile(rec *agentRecord, vpref Vec2, dyn, stat []neighbor) Vec2 {
	self := clearpathSelf(rec)
	out := newVelocityFromClearpath(self, vpref, dyn, stat)
	return out
}

func clearpathSelf(rec *agentRecord) selfParams {
	return selfParams{
		pos:      rec.Pos.XZ(),
		vel:      rec.Move.Velocity,
		radius:   rec.Radius,
		maxSpeed: rec.MaxSpeed,
	}
}

type selfParams struct {
	pos      Vec2
	vel      Vec2
	radius   float64
	maxSpeed float64
}

// commit is pass two for a single agent: §4.7's position-commit rule,
// followed by the state-machine transitions that rule enables.
func (c *Core) commit(rec *agentRecord, vnew Vec2) {
	pos := rec.Pos.XZ()
	if !c.nav.IsPathable(pos) {
		// Current position is non-pathable (e.g. forced by scripting):
		// leave the state machine alone and skip transition evaluation.
		rec.Move.Velocity = Vec2{}
		return
	}

	newPos := pos.Add(vnew)
	moved := false
	if vlen(vnew) > 0 && c.nav.IsPathable(newPos) {
		rec.Pos.X = newPos.X
		rec.Pos.Z = newPos.Y
		rec.Move.Velocity = vnew
		moved = true
	} else {
		rec.Move.Velocity = Vec2{}
	}
	rec.Move.VNew = vnew
	_ = moved

	c.applyOrientationSmoothing(rec)
	c.evaluateTransitions(rec)
}

// applyOrientationSmoothing derives rec's facing from the weighted moving
// average of its recent velocities (§4.6), the Go rendering of
// entity_update's ent->rotation = dir_quat_from_velocity(wma), simplified
// from a quaternion to a single ground-plane heading since this module
// only steers on the XZ plane. A zero average (no recent motion) leaves
// Rotation at whatever it last was, rather than snapping to a meaningless
// heading of zero.
func (c *Core) applyOrientationSmoothing(rec *agentRecord) {
	wma := rec.Move.weightedMovingAverage()
	if wma == (Vec2{}) {
		return
	}
	rec.Rotation = math.Atan2(wma.Y, wma.X) - math.Pi/2
}

// evaluateTransitions runs the commit-time state machine (§4.2). Arrival is
// checked before the WAITING entry condition: a MOVING agent that has both
// reached its target and observes ‖vdes‖ < ε this tick transitions to
// ARRIVED, not WAITING, since arrival is the more specific outcome.
func (c *Core) evaluateTransitions(rec *agentRecord) {
	switch rec.Move.State {
	case StateWaiting:
		rec.Move.WaitTicksLeft--
		if rec.Move.WaitTicksLeft <= 0 {
			c.leaveWaiting(rec)
		}
		return
	case StateMoving:
		f := c.flockForAgent(rec.UID)
		if f == nil {
			return
		}
		if c.hasArrived(rec, f) || c.anyAdjacentArrived(rec, f) {
			// Arrived members stay in the flock (removed only on Stop,
			// RemoveEntity, or a later makeFlock merge) so still-moving
			// flockmates can observe them via anyAdjacentArrived;
			// disbandEmptyFlocks reaps the flock once every member has
			// arrived (§4.2).
			c.enterArrived(rec)
			return
		}
		if vlen(rec.Move.VDes) < c.cfg.Epsilon {
			c.enterWaiting(rec)
		}
	case StateSeekEnemies:
		if vlen(rec.Move.VDes) < c.cfg.Epsilon {
			c.enterWaiting(rec)
		}
	}
}

// hasArrived reports whether rec is within arrive-threshold of its flock's
// target, or nav reports it cannot get any closer (§4.2).
func (c *Core) hasArrived(rec *agentRecord, f *Flock) bool {
	pos := rec.Pos.XZ()
	distance := vlen(f.TargetXZ.Sub(pos))
	if distance <= c.cfg.ArriveSlowingRadius*0.1 {
		return true
	}
	return vlen(rec.Move.VDes) < c.cfg.Epsilon && !c.nav.LineOfSight(pos, f.TargetXZ)
}

// anyAdjacentArrived reports whether any flockmate adjacent to rec (within
// r_a + r_b + ADJACENCY_SEP_DIST) is in state ARRIVED, whether it arrived
// earlier in this tick's commit pass or on an earlier tick, triggering the
// arrival cascade (§4.2, §8 scenario 2).
func (c *Core) anyAdjacentArrived(rec *agentRecord, f *Flock) bool {
	pos := rec.Pos.XZ()
	for uid := range f.Members {
		if uid == rec.UID {
			continue
		}
		other, ok := c.agents[uid]
		if !ok || other.Move.State != StateArrived {
			continue
		}
		threshold := rec.Radius + other.Radius + c.cfg.AdjacencySepDist
		if vlen(other.Pos.XZ().Sub(pos)) <= threshold {
			return true
		}
	}
	return false
}
