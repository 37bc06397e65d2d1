package movement

// MoveState is the per-agent movement record. Invariant 3 (§3): Blocking is
// true iff State is a still state, and the nav blocker at LastStopPos/
// LastStopRadius reflects exactly one reference from this agent.
type MoveState struct {
	State State
	VDes  Vec2
	VNew  Vec2
	Velocity Vec2

	Blocking       bool
	LastStopPos    Vec2
	LastStopRadius float64

	WaitPrev      State
	WaitTicksLeft int

	VelHist    []Vec2
	VelHistIdx int
}

func newMoveState(cfg Config) *MoveState {
	return &MoveState{
		State:   StateArrived,
		VelHist: make([]Vec2, cfg.VelHistLen),
	}
}

func (ms *MoveState) pushVelHist(v Vec2) {
	if len(ms.VelHist) == 0 {
		return
	}
	ms.VelHist[ms.VelHistIdx] = v
	ms.VelHistIdx = (ms.VelHistIdx + 1) % len(ms.VelHist)
}

// weightedMovingAverage assigns weight len-i to the sample i steps behind
// the write cursor, so the most recent push carries weight len and the
// oldest carries weight 1 (§4.6).
func (ms *MoveState) weightedMovingAverage() Vec2 {
	n := len(ms.VelHist)
	if n == 0 {
		return Vec2{}
	}
	var sum Vec2
	var weightTotal float64
	for i := 0; i < n; i++ {
		idx := (ms.VelHistIdx - 1 - i + n*2) % n
		weight := float64(n - i)
		sample := ms.VelHist[idx]
		sum.X += sample.X * weight
		sum.Y += sample.Y * weight
		weightTotal += weight
	}
	if weightTotal == 0 {
		return Vec2{}
	}
	return Vec2{X: sum.X / weightTotal, Y: sum.Y / weightTotal}
}

// Entity is the identity/geometry the movement core reads from the host's
// entity store. The store itself is out of scope; Core keeps its own copy
// because nothing else in this module owns one.
type Entity struct {
	UID      uint64
	Pos      Vec3
	Radius   float64
	MaxSpeed float64
	Flags    Flags
	Faction  int

	// Rotation is the agent's ground-plane facing, in radians, derived each
	// tick from the smoothed velocity history (§4.6). It holds its last
	// value while the agent is still, rather than snapping to zero.
	Rotation float64
}

type agentRecord struct {
	Entity
	Move MoveState
}

// Flock is a set of agents sharing a destination. Membership is exclusive:
// an agent belongs to at most one flock (§3 invariant 2).
type Flock struct {
	Members  map[uint64]struct{}
	TargetXZ Vec2
	DestID   uint64
}

func newFlock(destID uint64, target Vec2) *Flock {
	return &Flock{
		Members:  make(map[uint64]struct{}),
		TargetXZ: target,
		DestID:   destID,
	}
}
