// Package nav defines the navigation black box the movement core treats as
// an external collaborator: flow-field-derived desired velocities,
// line-of-sight queries, reachable-destination snapping, and reference
// counted blockers.
package nav

// Vec2 is a point or vector on the ground plane the movement core steers
// agents across.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Nav is the interface the movement core depends on. Nothing in
// internal/movement imports the concrete Grid type; a host may swap in any
// implementation (a richer flow-field solver, a navmesh, a mock for tests).
type Nav interface {
	// DestIDForPos snaps pos to the nearest reachable destination and
	// returns an opaque handle identifying that destination's connected
	// navigable region. ok is false if no walkable cell is reachable.
	DestIDForPos(pos Vec2) (destID uint64, snapped Vec2, ok bool)

	// DesiredPointSeekVelocity returns a unit-scale vector along the flow
	// field toward target within the region identified by destID, or the
	// zero vector if the field provides no guidance at pos.
	DesiredPointSeekVelocity(destID uint64, pos, target Vec2) Vec2

	// DesiredEnemySeekVelocity returns a unit-scale vector guiding an agent
	// toward the nearest opposing-faction presence, or zero if none is
	// known to the navigation layer.
	DesiredEnemySeekVelocity(pos Vec2, faction int) Vec2

	// LineOfSight reports whether a straight line from a to b crosses no
	// impassable cell.
	LineOfSight(a, b Vec2) bool

	// IsImpassable reports whether pos lies over an impassable cell,
	// including cells made impassable purely by blocker references.
	IsImpassable(pos Vec2) bool

	// IsPathable reports whether pos is within bounds and not impassable;
	// used for the position-commit check in the movement tick (§4.7).
	IsPathable(pos Vec2) bool

	// AcquireBlocker increments the blocker reference count of every cell
	// within radius of pos.
	AcquireBlocker(pos Vec2, radius float64)

	// ReleaseBlocker decrements the blocker reference count of every cell
	// within radius of pos. Releasing a cell with a zero count is a no-op.
	ReleaseBlocker(pos Vec2, radius float64)
}
