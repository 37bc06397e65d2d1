package movement

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestSeekDesiredPointsTowardTarget(t *testing.T) {
	d := seekDesired(Vec2{X: 0, Y: 0}, Vec2{X: 10, Y: 0}, 2.0, 20.0)
	if d.Y != 0 || d.X <= 0 {
		t.Fatalf("expected a positive-X desired velocity, got %+v", d)
	}
	if !approxEqual(vlen(d), 2.0/20.0, 1e-9) {
		t.Fatalf("expected desired velocity magnitude maxSpeed/tickRes, got %v", vlen(d))
	}
}

func TestArriveSlowsWithinSlowingRadius(t *testing.T) {
	cfg := DefaultConfig()
	far := arrive(Vec2{X: 0, Y: 0}, Vec2{X: 100, Y: 0}, Vec2{}, Vec2{}, true, 2.0, cfg.ArriveSlowingRadius, &cfg)
	near := arrive(Vec2{X: 95, Y: 0}, Vec2{X: 100, Y: 0}, Vec2{}, Vec2{}, true, 2.0, cfg.ArriveSlowingRadius, &cfg)
	if vlen(near) >= vlen(far) {
		t.Fatalf("expected arrive force to shrink inside the slowing radius: far=%v near=%v", vlen(far), vlen(near))
	}
}

func TestArriveFallsBackToVdesWithoutLineOfSight(t *testing.T) {
	cfg := DefaultConfig()
	vdes := Vec2{X: 1, Y: 0}
	force := arrive(Vec2{X: 0, Y: 0}, Vec2{X: 100, Y: 0}, vdes, Vec2{}, false, 2.0, cfg.ArriveSlowingRadius, &cfg)
	if force.X <= 0 {
		t.Fatalf("expected the no-line-of-sight branch to follow vdes, got %+v", force)
	}
}

// TestAlignmentCancelsToZero exercises the preserved self-velocity averaging
// behaviour (§9 open question 1): it must always evaluate to zero,
// regardless of neighbour positions or count, because it always averages
// the querying agent's own velocity rather than each neighbour's.
func TestAlignmentCancelsToZero(t *testing.T) {
	cfg := DefaultConfig()
	self := neighbor{Pos: Vec2{X: 0, Y: 0}, Radius: 5}
	flockmates := []neighbor{
		{Pos: Vec2{X: 1, Y: 0}, Radius: 5},
		{Pos: Vec2{X: 2, Y: 2}, Radius: 5},
	}
	velocity := Vec2{X: 3, Y: -4}

	got := alignment(self, flockmates, velocity, &cfg)
	if vlen(got) > 1e-9 {
		t.Fatalf("expected alignment to cancel to the zero vector, got %+v", got)
	}
}

func TestAlignmentIgnoresNeighborsOutsideRadius(t *testing.T) {
	cfg := DefaultConfig()
	self := neighbor{Pos: Vec2{X: 0, Y: 0}, Radius: 5}
	far := []neighbor{{Pos: Vec2{X: 1000, Y: 0}, Radius: 5}}

	got := alignment(self, far, Vec2{X: 1, Y: 1}, &cfg)
	if got != (Vec2{}) {
		t.Fatalf("expected no neighbours in range to produce the zero vector, got %+v", got)
	}
}

func TestCohesionSteersTowardCentreOfMass(t *testing.T) {
	cfg := DefaultConfig()
	self := neighbor{Pos: Vec2{X: 0, Y: 0}, Radius: 5}
	flockmates := []neighbor{
		{Pos: Vec2{X: 10, Y: 0}, Radius: 5},
		{Pos: Vec2{X: 10, Y: 0}, Radius: 5},
	}
	got := cohesion(self, flockmates, Vec2{}, &cfg)
	if got.X <= 0 {
		t.Fatalf("expected cohesion to steer toward the flockmates, got %+v", got)
	}
}

func TestSeparationPushesAwayFromCrowding(t *testing.T) {
	cfg := DefaultConfig()
	self := neighbor{Pos: Vec2{X: 0, Y: 0}, Radius: 5}
	crowd := []neighbor{{Pos: Vec2{X: 5, Y: 0}, Radius: 5}}
	got := separation(self, crowd, &cfg)
	if got.X >= 0 {
		t.Fatalf("expected separation to push away from a crowding neighbour on the +X side, got %+v", got)
	}
}

func TestSeparationIgnoresStaticNeighbors(t *testing.T) {
	cfg := DefaultConfig()
	self := neighbor{Pos: Vec2{X: 0, Y: 0}, Radius: 5}
	statics := []neighbor{{Pos: Vec2{X: 5, Y: 0}, Radius: 5, Static: true}}
	got := separation(self, statics, &cfg)
	if got != (Vec2{}) {
		t.Fatalf("expected static neighbours to be excluded from separation, got %+v", got)
	}
}

func TestNullifyImpassableZeroesAxisTowardWall(t *testing.T) {
	impassable := func(p Vec2) bool { return p.X > 0.5 }
	got := nullifyImpassable(Vec2{X: 0, Y: 0}, Vec2{X: 1, Y: 1}, 1.0, impassable)
	if got.X != 0 {
		t.Fatalf("expected the X component to be nullified, got %+v", got)
	}
	if got.Y != 1 {
		t.Fatalf("expected the Y component to be untouched, got %+v", got)
	}
}
