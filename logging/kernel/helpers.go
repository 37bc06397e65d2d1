package kernel

import (
	"context"

	"github.com/ironclad-games/skirmish-core/logging"
)

const (
	// EventTaskCreated is emitted when the scheduler admits a new task.
	EventTaskCreated logging.EventType = "kernel.task_created"
	// EventTaskExited is emitted when a task returns and its destructor has run.
	EventTaskExited logging.EventType = "kernel.task_exited"
	// EventSendBlocked is emitted when a Send blocks awaiting a Receive/Reply rendezvous.
	EventSendBlocked logging.EventType = "kernel.send_blocked"
)

// TaskLifecyclePayload describes a task creation or exit, and is also the
// payload of EventSendBlocked, where Tid is the blocked sender and ParentID
// holds the tid it is sending to.
type TaskLifecyclePayload struct {
	Tid      uint32 `json:"tid"`
	ParentID uint32 `json:"parentTid"`
	Priority int    `json:"priority,omitempty"`
}

// TaskCreated publishes a task creation event.
func TaskCreated(ctx context.Context, pub logging.Publisher, tick uint64, payload TaskLifecyclePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTaskCreated,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "kernel",
		Payload:  payload,
	})
}

// TaskExited publishes a task exit event.
func TaskExited(ctx context.Context, pub logging.Publisher, tick uint64, payload TaskLifecyclePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTaskExited,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "kernel",
		Payload:  payload,
	})
}

// SendBlocked publishes an event noting that a Send had to queue because no
// Receive was waiting yet.
func SendBlocked(ctx context.Context, pub logging.Publisher, tick uint64, payload TaskLifecyclePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSendBlocked,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "kernel",
		Payload:  payload,
	})
}
