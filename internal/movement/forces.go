package movement

import "math"

// neighbor is a lightweight snapshot of another agent used by the steering
// forces; passing snapshots rather than *agentRecord keeps a force
// implementation from ever mutating a peer.
type neighbor struct {
	Pos      Vec2
	Velocity Vec2
	Radius   float64
	Static   bool
}

// seekDesired returns the unit-scale desired velocity toward target at
// maxSpeed, converted to per-tick magnitude.
func seekDesired(pos, target Vec2, maxSpeed, tickRes float64) Vec2 {
	return vnorm(target.Sub(pos)).Scale(maxSpeed / tickRes)
}

// seek returns the steering force toward target at maxSpeed, truncated by
// the caller. It is a utility used by Arrive.
func seek(pos, target, velocity Vec2, maxSpeed, tickRes float64) Vec2 {
	return seekDesired(pos, target, maxSpeed, tickRes).Sub(velocity)
}

// arrive implements §4.4's Arrive force. When nav reports line-of-sight to
// dest, desired velocity slows linearly inside slowingRadius; otherwise it
// falls back to vdes (the flow-field direction), scaled to per-tick speed.
func arrive(pos, dest, vdes, velocity Vec2, hasLineOfSight bool, maxSpeed float64, slowingRadius float64, cfg *Config) Vec2 {
	tickRes := cfg.TickRes
	if hasLineOfSight {
		distance := vlen(dest.Sub(pos))
		desired := seekDesired(pos, dest, maxSpeed, tickRes)
		if distance < slowingRadius && slowingRadius > 0 {
			desired = desired.Scale(distance / slowingRadius)
		}
		return vtruncate(desired.Sub(velocity), cfg.MaxForce)
	}
	desired := vdes.Scale(maxSpeed / tickRes)
	return vtruncate(desired.Sub(velocity), cfg.MaxForce)
}

// alignment averages the *self* velocity across every flockmate within
// AlignNeighbourRadius, then subtracts the agent's own velocity. This
// mirrors the source lineage exactly, self-velocity term and all: it
// algebraically cancels to zero and is preserved rather than "fixed" per
// the open design question this behaviour was carried forward under.
func alignment(self neighbor, flockmates []neighbor, velocity Vec2, cfg *Config) Vec2 {
	var sum Vec2
	count := 0
	for _, m := range flockmates {
		if vlen(m.Pos.Sub(self.Pos)) > cfg.AlignNeighbRadius {
			continue
		}
		sum = sum.Add(velocity)
		count++
	}
	if count == 0 {
		return Vec2{}
	}
	avg := sum.Scale(1.0 / float64(count))
	return vtruncate(avg.Sub(velocity), cfg.MaxForce)
}

// cohesion steers toward a weighted centre of mass over flockmates, with
// weight decaying smoothly toward the edge of the neighbourhood radius so
// agents crossing the boundary don't produce a force discontinuity.
func cohesion(self neighbor, flockmates []neighbor, velocity Vec2, cfg *Config) Vec2 {
	var weightedSum Vec2
	var weightTotal float64
	for _, m := range flockmates {
		diff := m.Pos.Sub(self.Pos)
		distance := vlen(diff)
		if distance == 0 || distance > cfg.CohesionNeighbRadius {
			continue
		}
		t := (distance - 0.75*cfg.CohesionNeighbRadius) / cfg.CohesionNeighbRadius
		weight := math.Exp(-6 * t)
		weightedSum = weightedSum.Add(m.Pos.Scale(weight))
		weightTotal += weight
	}
	if weightTotal == 0 {
		return Vec2{}
	}
	centreOfMass := weightedSum.Scale(1.0 / weightTotal)
	desired := vnorm(centreOfMass.Sub(self.Pos))
	return vtruncate(desired.Sub(velocity), cfg.MaxForce)
}

// separation accumulates a smoothly decaying push-away term from every
// non-static neighbour within SeparationNeighbRadius, negated so the result
// points away from crowding.
func separation(self neighbor, neighbors []neighbor, cfg *Config) Vec2 {
	var sum Vec2
	for _, n := range neighbors {
		if n.Static {
			continue
		}
		diff := n.Pos.Sub(self.Pos)
		distance := vlen(diff)
		if distance == 0 || distance > cfg.SeparationNeighbRadius {
			continue
		}
		radius := self.Radius + n.Radius + cfg.SeparationBufferDist
		t := (distance - 0.85*radius) / distance
		weight := math.Exp(-20 * t)
		sum = sum.Add(diff.Scale(weight))
	}
	force := Vec2{X: -sum.X, Y: -sum.Y}
	return vtruncate(force, cfg.MaxForce)
}

// nullifyImpassable zeroes a force axis pointing into an impassable
// neighbour tile, probed one tile-dimension out along each cardinal
// direction (§4.4).
func nullifyImpassable(pos, force Vec2, tileSize float64, isImpassable func(Vec2) bool) Vec2 {
	if force.X > 0 && isImpassable(Vec2{X: pos.X + tileSize, Y: pos.Y}) {
		force.X = 0
	} else if force.X < 0 && isImpassable(Vec2{X: pos.X - tileSize, Y: pos.Y}) {
		force.X = 0
	}
	if force.Y > 0 && isImpassable(Vec2{X: pos.X, Y: pos.Y + tileSize}) {
		force.Y = 0
	} else if force.Y < 0 && isImpassable(Vec2{X: pos.X, Y: pos.Y - tileSize}) {
		force.Y = 0
	}
	return force
}
