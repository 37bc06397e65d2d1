// Package clearpath implements the local collision-avoidance primitive the
// movement core treats as a pure black-box function: given a preferred
// velocity and a neighbourhood snapshot, return the closest velocity that
// does not lead to an imminent collision.
package clearpath

import "math"

// Vec2 mirrors nav.Vec2 structurally; clearpath is kept dependency-free so
// it can be imported without pulling in the navigation grid.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) sub(o Vec2) Vec2     { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) add(o Vec2) Vec2     { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) length() float64     { return math.Hypot(v.X, v.Y) }
func (v Vec2) dot(o Vec2) float64  { return v.X*o.X + v.Y*o.Y }

// Neighbor is one other agent in range of the local-avoidance query.
type Neighbor struct {
	Pos    Vec2
	Vel    Vec2 // zero for static (still) neighbors
	Radius float64
}

// Self describes the querying agent.
type Self struct {
	Pos    Vec2
	Vel    Vec2
	Radius float64
	// MaxSpeed bounds the candidate velocities sampled while reconciling.
	MaxSpeed float64
}

// timeHorizon is how far ahead collisions are projected when scoring
// candidate velocities; short enough to be a local, reactive avoidance
// step rather than a long-range planner (that is the flow field's job).
const timeHorizon = 2.0

const candidateAngleCount = 16

// NewVelocity returns the velocity closest to preferred that keeps self
// clear of an imminent collision with dynNeighbors (moving agents) and
// statNeighbors (still agents), projecting timeHorizon ticks ahead at
// constant velocity. If no candidate is fully clear, the least-bad
// candidate (smallest time-to-collision violation) is returned.
func NewVelocity(self Self, preferred Vec2, dynNeighbors, statNeighbors []Neighbor) Vec2 {
	speed := preferred.length()
	if speed == 0 {
		speed = self.MaxSpeed
	}

	candidates := buildCandidates(preferred, speed, self.MaxSpeed)

	bestScore := math.Inf(1)
	best := preferred
	for _, cand := range candidates {
		penalty := collisionPenalty(self, cand, dynNeighbors, statNeighbors)
		deviation := cand.sub(preferred).length()
		score := deviation + penalty*1000
		if score < bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

func buildCandidates(preferred Vec2, speed, maxSpeed float64) []Vec2 {
	if maxSpeed <= 0 {
		maxSpeed = speed
	}
	candidates := make([]Vec2, 0, candidateAngleCount+2)
	candidates = append(candidates, preferred)
	candidates = append(candidates, Vec2{})

	baseAngle := math.Atan2(preferred.Y, preferred.X)
	for i := 0; i < candidateAngleCount; i++ {
		angle := baseAngle + (2*math.Pi*float64(i))/float64(candidateAngleCount)
		for _, s := range []float64{maxSpeed, maxSpeed * 0.5} {
			candidates = append(candidates, Vec2{
				X: math.Cos(angle) * s,
				Y: math.Sin(angle) * s,
			})
		}
	}
	return candidates
}

// collisionPenalty returns 0 if candidate velocity is fully clear of every
// neighbor over the time horizon, otherwise a positive value proportional
// to how deep and how soon the worst violation is.
func collisionPenalty(self Self, candidate Vec2, dynNeighbors, statNeighbors []Neighbor) float64 {
	worst := 0.0
	check := func(n Neighbor) {
		relPos := n.Pos.sub(self.Pos)
		relVel := candidate.sub(n.Vel)
		combinedRadius := self.Radius + n.Radius
		t, penetrates := timeToCollision(relPos, relVel, combinedRadius, timeHorizon)
		if !penetrates {
			return
		}
		urgency := (timeHorizon - t) / timeHorizon
		if urgency > worst {
			worst = urgency
		}
	}
	for _, n := range dynNeighbors {
		check(n)
	}
	for _, n := range statNeighbors {
		check(n)
	}
	return worst
}

// timeToCollision computes the time at which two circles (self at origin
// moving at relVel, neighbor at relPos stationary in the relative frame)
// first overlap, if that happens before horizon. Circles that already
// overlap collide immediately (t = 0) only if relVel closes the gap further;
// a velocity that holds or opens the gap is clear.
func timeToCollision(relPos, relVel Vec2, combinedRadius, horizon float64) (float64, bool) {
	a := relVel.dot(relVel)
	b := -2 * relPos.dot(relVel)
	c := relPos.dot(relPos) - combinedRadius*combinedRadius

	if c < 0 {
		return 0, relPos.dot(relVel) > 0
	}
	if a == 0 {
		return 0, false
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sqrtDisc := math.Sqrt(disc)
	t := (-b - sqrtDisc) / (2 * a)
	if t < 0 || t > horizon {
		return 0, false
	}
	return t, true
}
