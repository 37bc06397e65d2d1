package nav

import (
	"math"
	"testing"
)

func TestDestIDForPosSharedComponent(t *testing.T) {
	g := NewGrid(nil, 256, 256, 32, 8)

	idA, _, ok := g.DestIDForPos(Vec2{X: 20, Y: 20})
	if !ok {
		t.Fatalf("expected ok for open area")
	}
	idB, _, ok := g.DestIDForPos(Vec2{X: 220, Y: 220})
	if !ok {
		t.Fatalf("expected ok for open area")
	}
	if idA != idB {
		t.Fatalf("expected same dest id within one open region, got %d and %d", idA, idB)
	}
}

func TestDestIDForPosSplitByWall(t *testing.T) {
	wall := []Rect{{X: 120, Y: 0, Width: 16, Height: 256}}
	g := NewGrid(wall, 256, 256, 32, 8)

	left, _, ok := g.DestIDForPos(Vec2{X: 20, Y: 128})
	if !ok {
		t.Fatalf("expected ok on the left side")
	}
	right, _, ok := g.DestIDForPos(Vec2{X: 220, Y: 128})
	if !ok {
		t.Fatalf("expected ok on the right side")
	}
	if left == right {
		t.Fatalf("expected different dest ids across a dividing wall")
	}
}

func TestDesiredPointSeekVelocityPointsTowardTarget(t *testing.T) {
	g := NewGrid(nil, 256, 256, 32, 8)
	target := Vec2{X: 220, Y: 128}
	destID, snapped, ok := g.DestIDForPos(target)
	if !ok {
		t.Fatalf("expected ok")
	}

	vel := g.DesiredPointSeekVelocity(destID, Vec2{X: 20, Y: 128}, snapped)
	if vel.X <= 0 {
		t.Fatalf("expected a rightward vector toward the target, got %+v", vel)
	}
	if mag := math.Hypot(vel.X, vel.Y); math.Abs(mag-1) > 1e-6 && mag != 0 {
		t.Fatalf("expected a unit-scale vector, got magnitude %v", mag)
	}
}

func TestAcquireReleaseBlockerMakesCellImpassable(t *testing.T) {
	g := NewGrid(nil, 256, 256, 32, 8)
	pos := Vec2{X: 100, Y: 100}
	if g.IsImpassable(pos) {
		t.Fatalf("expected pos to start passable")
	}

	g.AcquireBlocker(pos, 16)
	if !g.IsImpassable(pos) {
		t.Fatalf("expected pos to become impassable after AcquireBlocker")
	}

	g.AcquireBlocker(pos, 16)
	g.ReleaseBlocker(pos, 16)
	if !g.IsImpassable(pos) {
		t.Fatalf("expected pos to remain impassable while one reference remains")
	}

	g.ReleaseBlocker(pos, 16)
	if g.IsImpassable(pos) {
		t.Fatalf("expected pos to become passable once all references are released")
	}
}

func TestReleaseBlockerBelowZeroIsNoop(t *testing.T) {
	g := NewGrid(nil, 256, 256, 32, 8)
	pos := Vec2{X: 100, Y: 100}
	g.ReleaseBlocker(pos, 16)
	if g.IsImpassable(pos) {
		t.Fatalf("releasing an unreferenced blocker must not make the cell impassable")
	}
}

func TestLineOfSightBlockedByWall(t *testing.T) {
	wall := []Rect{{X: 120, Y: 0, Width: 16, Height: 256}}
	g := NewGrid(wall, 256, 256, 32, 8)

	if g.LineOfSight(Vec2{X: 20, Y: 128}, Vec2{X: 220, Y: 128}) {
		t.Fatalf("expected line of sight to be blocked by the dividing wall")
	}
	if !g.LineOfSight(Vec2{X: 20, Y: 128}, Vec2{X: 60, Y: 128}) {
		t.Fatalf("expected a clear line of sight within the open region")
	}
}
