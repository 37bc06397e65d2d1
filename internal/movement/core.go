package movement

import (
	"context"
	"fmt"

	"github.com/ironclad-games/skirmish-core/internal/clearpath"
	"github.com/ironclad-games/skirmish-core/internal/nav"
	"github.com/ironclad-games/skirmish-core/internal/telemetry"
	"github.com/ironclad-games/skirmish-core/logging"
)

// Core owns every movement-relevant piece of process state as a single
// struct threaded through Init/Shutdown, re-expressing the source lineage's
// process-wide static state (§9 design note) as an explicit value with a
// bound lifetime.
type Core struct {
	nav nav.Nav
	cfg Config

	pub     logging.Publisher
	metrics telemetry.Metrics
	baseCtx context.Context

	agents map[uint64]*agentRecord
	flocks []*Flock

	attackOnLeftClick bool

	tick uint64
}

// Options configures a Core at construction time.
type Options struct {
	Nav       nav.Nav
	Config    Config
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
}

// Init constructs a Core bound to a navigation black box. It corresponds to
// Move_Init(map) in §6; "map" is represented here by the Nav collaborator
// the host has already built.
func Init(opts Options) *Core {
	if opts.Nav == nil {
		panic("movement: Init requires a non-nil Nav")
	}
	pub := opts.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Core{
		nav:     opts.Nav,
		cfg:     opts.Config,
		pub:     pub,
		metrics: opts.Metrics,
		baseCtx: context.Background(),
		agents:  make(map[uint64]*agentRecord),
	}
}

// Shutdown releases every registered blocker and drops all state. The Nav
// collaborator itself is owned by the host and is not touched beyond that.
func (c *Core) Shutdown() {
	for _, rec := range c.agents {
		c.releaseBlockerFor(rec)
	}
	c.agents = make(map[uint64]*agentRecord)
	c.flocks = nil
}

// Tick returns the current movement tick counter, used by hosts that want
// to stamp their own events with the tick a command took effect on.
func (c *Core) Tick() uint64 { return c.tick }

// AddEntity registers a new agent. Initial state is ARRIVED with a blocker
// immediately acquired (§3 lifecycle). Agents with zero selection radius
// are not tracked (§3 invariant 1 only covers agents with a positive
// selection radius): they never enter MOVING and have no MoveState.
func (c *Core) AddEntity(e Entity) {
	if e.Radius <= 0 {
		return
	}
	rec := &agentRecord{Entity: e}
	rec.Move = *newMoveState(c.cfg)
	c.agents[e.UID] = rec
	c.acquireBlockerFor(rec)
}

// RemoveEntity destroys uid's MoveState: its blocker is released and any
// flock membership revoked (§3 lifecycle).
func (c *Core) RemoveEntity(uid uint64) {
	rec, ok := c.agents[uid]
	if !ok {
		return
	}
	c.removeFromFlocks(uid)
	c.releaseBlockerFor(rec)
	delete(c.agents, uid)
}

// Stop implements Move_Stop: transitions uid to ARRIVED from any non-still
// state. A no-op on an unknown agent or one already still.
func (c *Core) Stop(uid uint64) {
	rec, ok := c.agents[uid]
	if !ok {
		return
	}
	c.stop(rec)
}

// GetDest returns the target point of the flock uid belongs to, if any.
func (c *Core) GetDest(uid uint64) (Vec2, bool) {
	f := c.flockForAgent(uid)
	if f == nil {
		return Vec2{}, false
	}
	return f.TargetXZ, true
}

// SetDest implements Move_SetDest: a single-agent move command. Calling it
// twice with the same target creates exactly one flock for that target
// (§8): the second call snaps to the same dest id and merges into the
// flock the first call already created.
func (c *Core) SetDest(uid uint64, target Vec2) bool {
	if _, ok := c.agents[uid]; !ok {
		return false
	}
	return c.makeFlock([]uint64{uid}, target, c.attackOnLeftClick)
}

// SetMoveOnLeftClick and SetAttackOnLeftClick toggle which command a host's
// left-click handler should issue; the movement core itself only remembers
// the mode, it does not read input.
func (c *Core) SetMoveOnLeftClick() { c.attackOnLeftClick = false }
func (c *Core) SetAttackOnLeftClick() { c.attackOnLeftClick = true }

// SetSeekEnemies implements the explicit SEEK_ENEMIES transition (§4.2):
// only valid from ARRIVED. Releases the blocker and emits MOTION_START.
func (c *Core) SetSeekEnemies(uid uint64) bool {
	rec, ok := c.agents[uid]
	if !ok || rec.Move.State != StateArrived {
		return false
	}
	c.transitionState(rec, StateSeekEnemies)
	c.releaseBlockerFor(rec)
	c.emitMotionStart(rec)
	return true
}

// UpdatePos implements Move_UpdatePos: when the host mutates an agent's
// position out of band (scripting, teleport), blocker accounting must
// follow: release at the old position, acquire at the new one, if the
// agent is currently still.
func (c *Core) UpdatePos(uid uint64, pos Vec3) {
	rec, ok := c.agents[uid]
	if !ok {
		return
	}
	wasBlocking := rec.Move.Blocking
	if wasBlocking {
		c.releaseBlockerFor(rec)
	}
	rec.Pos = pos
	if wasBlocking {
		c.acquireBlockerFor(rec)
	}
}

// UpdateSelectionRadius implements Move_UpdateSelectionRadius, re-acquiring
// the blocker at the new radius if the agent is currently still.
func (c *Core) UpdateSelectionRadius(uid uint64, radius float64) {
	rec, ok := c.agents[uid]
	if !ok {
		return
	}
	wasBlocking := rec.Move.Blocking
	if wasBlocking {
		c.releaseBlockerFor(rec)
	}
	rec.Radius = radius
	if wasBlocking {
		c.acquireBlockerFor(rec)
	}
}

// HandleClick issues a move or attack-move command for selection toward
// target, per the mode last set by SetMoveOnLeftClick/SetAttackOnLeftClick.
// It is the Go-native stand-in for the MOUSEBUTTONDOWN event listed in §6;
// the movement core has no input-handling logic of its own, it only reacts
// to the resolved (selection, target) pair a host's input layer produces.
func (c *Core) HandleClick(selection []uint64, target Vec2) bool {
	return c.makeFlock(selection, target, c.attackOnLeftClick)
}

func (c *Core) assertRec(uid uint64) *agentRecord {
	rec, ok := c.agents[uid]
	if !ok {
		panic(fmt.Sprintf("movement: no MoveState for uid %d", uid))
	}
	return rec
}

// neighborsWithin discovers every tracked agent other than self within
// radius, partitioned into moving (dynamic) and still (static) lists per
// §4.5. Agents with the STATIC flag or zero selection radius are excluded
// entirely, matching the source's exclusion of markers/decorations.
func (c *Core) neighborsWithin(self *agentRecord, radius float64) (dyn, stat []neighbor) {
	selfPos := self.Pos.XZ()
	for uid, rec := range c.agents {
		if uid == self.UID {
			continue
		}
		if rec.Radius == 0 || rec.Flags.Has(FlagStatic) {
			continue
		}
		if vlen(rec.Pos.XZ().Sub(selfPos)) > radius {
			continue
		}
		n := neighbor{Pos: rec.Pos.XZ(), Velocity: rec.Move.Velocity, Radius: rec.Radius}
		if rec.Move.State.stillState() {
			n.Static = true
			stat = append(stat, n)
		} else {
			dyn = append(dyn, n)
		}
	}
	return dyn, stat
}

// flockmateNeighbors returns neighbor snapshots for every other member of
// f, used by Alignment and Cohesion (which only see flockmates, unlike
// Separation which sees every nearby agent).
func (c *Core) flockmateNeighbors(self *agentRecord, f *Flock) []neighbor {
	if f == nil {
		return nil
	}
	out := make([]neighbor, 0, len(f.Members))
	for uid := range f.Members {
		if uid == self.UID {
			continue
		}
		rec, ok := c.agents[uid]
		if !ok {
			continue
		}
		out = append(out, neighbor{Pos: rec.Pos.XZ(), Velocity: rec.Move.Velocity, Radius: rec.Radius})
	}
	return out
}

func toClearpathNeighbors(ns []neighbor) []clearpath.Neighbor {
	out := make([]clearpath.Neighbor, 0, len(ns))
	for _, n := range ns {
		out = append(out, clearpath.Neighbor{
			Pos:    clearpath.Vec2{X: n.Pos.X, Y: n.Pos.Y},
			Vel:    clearpath.Vec2{X: n.Velocity.X, Y: n.Velocity.Y},
			Radius: n.Radius,
		})
	}
	return out
}

// newVelocityFromClearpath is the §4.5 reconciliation call: ClearPath is a
// pure black-box function, so the bridge does nothing but translate
// vector types between internal/movement and internal/clearpath.
func newVelocityFromClearpath(self selfParams, preferred Vec2, dyn, stat []neighbor) Vec2 {
	cpSelf := clearpath.Self{
		Pos:      clearpath.Vec2{X: self.pos.X, Y: self.pos.Y},
		Vel:      clearpath.Vec2{X: self.vel.X, Y: self.vel.Y},
		Radius:   self.radius,
		MaxSpeed: self.maxSpeed,
	}
	cpPreferred := clearpath.Vec2{X: preferred.X, Y: preferred.Y}
	out := clearpath.NewVelocity(cpSelf, cpPreferred, toClearpathNeighbors(dyn), toClearpathNeighbors(stat))
	return Vec2{X: out.X, Y: out.Y}
}
