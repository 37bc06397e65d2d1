// Package movement implements the flock-based steering core: per-agent
// arrival state machines, a flock registry, priority-cascaded steering
// forces, and the fixed-rate two-pass tick that reconciles them against
// ClearPath local avoidance.
package movement

import (
	"math"

	"github.com/ironclad-games/skirmish-core/internal/nav"
)

// Vec2 is the 2D ground-plane vector type shared with the navigation black
// box; movement never needs a vector representation of its own.
type Vec2 = nav.Vec2

func vlen(v Vec2) float64 { return math.Hypot(v.X, v.Y) }

func vnorm(v Vec2) Vec2 {
	l := vlen(v)
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

func vtruncate(v Vec2, max float64) Vec2 {
	l := vlen(v)
	if l <= max || l == 0 {
		return v
	}
	scale := max / l
	return Vec2{X: v.X * scale, Y: v.Y * scale}
}

// Vec3 is a world-space position; only X/Z feed the nav plane, Y is carried
// through untouched (sampled from the host's height field on commit).
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) XZ() Vec2 { return Vec2{X: v.X, Y: v.Z} }

// Flags mirror the entity flag bits the movement core reads but never owns.
type Flags uint8

const (
	FlagStatic Flags = 1 << iota
	FlagCombatable
	FlagMarker
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// State is a per-agent arrival state.
type State int

const (
	StateMoving State = iota
	StateArrived
	StateSeekEnemies
	StateWaiting
)

func (s State) String() string {
	switch s {
	case StateMoving:
		return "MOVING"
	case StateArrived:
		return "ARRIVED"
	case StateSeekEnemies:
		return "SEEK_ENEMIES"
	case StateWaiting:
		return "WAITING"
	default:
		return "UNKNOWN"
	}
}

func (s State) stillState() bool { return s == StateArrived || s == StateWaiting }
