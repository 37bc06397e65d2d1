package movement

import (
	"github.com/ironclad-games/skirmish-core/logging"
	logmovement "github.com/ironclad-games/skirmish-core/logging/movement"
)

func entityRef(uid uint64) logging.EntityRef {
	return logging.EntityRef{ID: formatUID(uid), Kind: logging.EntityKindUnknown}
}

func formatUID(uid uint64) string {
	const digits = "0123456789"
	if uid == 0 {
		return "0"
	}
	buf := make([]byte, 0, 20)
	for uid > 0 {
		buf = append(buf, digits[uid%10])
		uid /= 10
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

func movementLogMotionStart(c *Core, rec *agentRecord) {
	if c.pub == nil {
		return
	}
	logmovement.MotionStart(c.ctx(), c.pub, c.tick, entityRef(rec.UID), logmovement.MotionPayload{
		FromState: "still",
		ToState:   rec.Move.State.String(),
		Tick:      c.tick,
	})
}

func movementLogMotionEnd(c *Core, rec *agentRecord) {
	if c.pub == nil {
		return
	}
	logmovement.MotionEnd(c.ctx(), c.pub, c.tick, entityRef(rec.UID), logmovement.MotionPayload{
		FromState: "moving",
		ToState:   rec.Move.State.String(),
		Tick:      c.tick,
	})
}

func movementLogFlockMerged(c *Core, f *Flock) {
	if c.pub == nil {
		return
	}
	logmovement.FlockMerged(c.ctx(), c.pub, c.tick, logmovement.FlockPayload{
		DestID:  f.DestID,
		Members: len(f.Members),
	})
}

func movementLogFlockDisbanded(c *Core, f *Flock) {
	if c.pub == nil {
		return
	}
	logmovement.FlockDisbanded(c.ctx(), c.pub, c.tick, logmovement.FlockPayload{
		DestID:  f.DestID,
		Members: len(f.Members),
	})
}
