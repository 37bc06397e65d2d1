package movement

import "fmt"

// SavedFlock is the serialised form of a Flock (§4.9).
type SavedFlock struct {
	Members  []uint64 `json:"members" yaml:"members"`
	TargetXZ Vec2     `json:"targetXz" yaml:"targetXz"`
	DestID   uint64   `json:"destId" yaml:"destId"`
}

// SavedAgent is the serialised form of one agent's MoveState. LastStopPos
// and LastStopRadius are deliberately absent: they are reconstructed from
// the loaded position rather than re-serialised, to avoid drift between a
// saved blocker location and wherever the entity store says the agent
// actually is (§4.9).
type SavedAgent struct {
	UID           uint64  `json:"uid" yaml:"uid"`
	State         State   `json:"state" yaml:"state"`
	VDes          Vec2    `json:"vdes" yaml:"vdes"`
	Velocity      Vec2    `json:"velocity" yaml:"velocity"`
	Blocking      bool    `json:"blocking" yaml:"blocking"`
	WaitPrev      State   `json:"waitPrev" yaml:"waitPrev"`
	WaitTicksLeft int     `json:"waitTicksLeft" yaml:"waitTicksLeft"`
	VelHist       []Vec2  `json:"velHist" yaml:"velHist"`
	VelHistIdx    int     `json:"velHistIdx" yaml:"velHistIdx"`
}

// SaveState is Move_SaveState: a snapshot of every flock and every agent's
// movement state. It does not include agent identity/geometry (owned by
// the host's entity store, out of scope) or LastStopPos/LastStopRadius.
type SaveState struct {
	Flocks []SavedFlock `json:"flocks" yaml:"flocks"`
	Agents []SavedAgent `json:"agents" yaml:"agents"`
}

// SaveState captures the current flock and per-agent movement state.
func (c *Core) SaveState() SaveState {
	out := SaveState{
		Flocks: make([]SavedFlock, 0, len(c.flocks)),
		Agents: make([]SavedAgent, 0, len(c.agents)),
	}
	for _, f := range c.flocks {
		members := make([]uint64, 0, len(f.Members))
		for uid := range f.Members {
			members = append(members, uid)
		}
		out.Flocks = append(out.Flocks, SavedFlock{
			Members:  members,
			TargetXZ: f.TargetXZ,
			DestID:   f.DestID,
		})
	}
	for uid, rec := range c.agents {
		out.Agents = append(out.Agents, SavedAgent{
			UID:           uid,
			State:         rec.Move.State,
			VDes:          rec.Move.VDes,
			Velocity:      rec.Move.Velocity,
			Blocking:      rec.Move.Blocking,
			WaitPrev:      rec.Move.WaitPrev,
			WaitTicksLeft: rec.Move.WaitTicksLeft,
			VelHist:       append([]Vec2(nil), rec.Move.VelHist...),
			VelHistIdx:    rec.Move.VelHistIdx,
		})
	}
	return out
}

// LoadState restores flock and per-agent state onto entities that must
// already be registered via AddEntity (entity identity/geometry is the
// host's to restore, not this package's). Fails the whole load and leaves
// already-applied state in place if a saved agent references an unknown
// uid, per §7's serialisation-mismatch rule.
func (c *Core) LoadState(s SaveState) error {
	for _, sa := range s.Agents {
		rec, ok := c.agents[sa.UID]
		if !ok {
			return fmt.Errorf("movement: load references unknown agent uid %d", sa.UID)
		}
		// AddEntity's initial creation acquires a blocker; if the saved
		// state says this agent was not blocking, release it so the final
		// state matches the save exactly (§4.9).
		if !sa.Blocking && rec.Move.Blocking {
			c.releaseBlockerFor(rec)
		}
		rec.Move.State = sa.State
		rec.Move.VDes = sa.VDes
		rec.Move.Velocity = sa.Velocity
		rec.Move.WaitPrev = sa.WaitPrev
		rec.Move.WaitTicksLeft = sa.WaitTicksLeft
		rec.Move.VelHistIdx = sa.VelHistIdx
		rec.Move.VelHist = append([]Vec2(nil), sa.VelHist...)
		rec.Move.LastStopPos = rec.Pos.XZ()
		rec.Move.LastStopRadius = rec.Radius
		if sa.Blocking && !rec.Move.Blocking {
			c.acquireBlockerFor(rec)
		}
	}

	c.flocks = c.flocks[:0]
	for _, sf := range s.Flocks {
		f := newFlock(sf.DestID, sf.TargetXZ)
		for _, uid := range sf.Members {
			f.Members[uid] = struct{}{}
		}
		c.flocks = append(c.flocks, f)
	}
	return nil
}
