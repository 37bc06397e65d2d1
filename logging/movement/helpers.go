package movement

import (
	"context"

	"github.com/ironclad-games/skirmish-core/logging"
)

const (
	// EventMotionStart is emitted when an agent leaves a still state (ARRIVED or WAITING).
	EventMotionStart logging.EventType = "movement.motion_start"
	// EventMotionEnd is emitted when an agent enters a still state.
	EventMotionEnd logging.EventType = "movement.motion_end"
	// EventFlockMerged is emitted when a move command merges into an existing flock.
	EventFlockMerged logging.EventType = "movement.flock_merged"
	// EventFlockDisbanded is emitted when a flock is destroyed: it lost its last member or every member has arrived.
	EventFlockDisbanded logging.EventType = "movement.flock_disbanded"
)

// MotionPayload captures the state transition that produced a motion event.
type MotionPayload struct {
	FromState string `json:"fromState"`
	ToState   string `json:"toState"`
	Tick      uint64 `json:"tick"`
}

// FlockPayload describes a flock lifecycle event.
type FlockPayload struct {
	DestID  uint64 `json:"destId"`
	Members int    `json:"members"`
}

// MotionStart publishes a motion start event for the given agent.
func MotionStart(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MotionPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMotionStart,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: "movement",
		Payload:  payload,
	})
}

// MotionEnd publishes a motion end event for the given agent.
func MotionEnd(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MotionPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMotionEnd,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: "movement",
		Payload:  payload,
	})
}

// FlockMerged publishes an event when a move command merges into an existing flock.
func FlockMerged(ctx context.Context, pub logging.Publisher, tick uint64, payload FlockPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFlockMerged,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Category: "movement",
		Payload:  payload,
	})
}

// FlockDisbanded publishes an event when a flock is destroyed.
func FlockDisbanded(ctx context.Context, pub logging.Publisher, tick uint64, payload FlockPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFlockDisbanded,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Category: "movement",
		Payload:  payload,
	})
}
