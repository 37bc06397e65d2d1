package task

import (
	"container/heap"
	"encoding/json"
	"time"
)

type tsReqKind int

const (
	tsNotify tsReqKind = iota
	tsDelay
)

type tsRequest struct {
	Kind  tsReqKind `json:"kind"`
	Ticks uint32    `json:"ticks"`
}

const tsReplyBufSize = 4

// Sleep blocks the calling task for at least d, by Sending a DELAY request
// to the time server and waiting for its Reply (§4.12, §8 invariant 6).
// The time server never replies before d has elapsed, but may reply later,
// since it only checks the delay heap when some other request wakes it.
func Sleep(t *Task, d time.Duration) {
	req, _ := json.Marshal(tsRequest{Kind: tsDelay, Ticks: uint32(d.Milliseconds())})
	reply := make([]byte, tsReplyBufSize)
	t.Send(t.sched.tsTid, req, reply)
}

// delayDesc mirrors the source lineage's struct delay_desc: a tid waiting
// on a wake_tick, ordered into a min-heap by wake_tick.
type delayDesc struct {
	tid      Tid
	wakeTick int64
}

type delayHeap []delayDesc

func (h delayHeap) Len() int            { return len(h) }
func (h delayHeap) Less(i, j int) bool  { return h[i].wakeTick < h[j].wakeTick }
func (h delayHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *delayHeap) Push(x any)         { *h = append(*h, x.(delayDesc)) }
func (h *delayHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// tickNotifierEntry repeatedly waits for Event60HzTick and nudges its
// parent (the time server) with a NOTIFY, giving the time server a reason
// to wake up and drain its delay heap even when nothing else is pending
// (§4.12), grounded on the source lineage's tick_notifier.
func tickNotifierEntry(t *Task, arg any) {
	parent := t.ParentTid()
	req, _ := json.Marshal(tsRequest{Kind: tsNotify})
	reply := make([]byte, tsReplyBufSize)
	for {
		payload := t.AwaitEvent(Event60HzTick)
		if payload == nil {
			return // cancelled
		}
		t.Send(parent, req, reply)
	}
}

// timeServerEntry is the time server task body (§4.12): a Receive loop
// that, on every iteration regardless of request kind, drains every delay
// heap entry whose wake_tick has passed, grounded on the source lineage's
// timeserver_task do-while drain loop.
func timeServerEntry(t *Task, arg any) {
	var descs delayHeap
	heap.Init(&descs)

	t.Create(0, tickNotifierEntry, nil, 0)

	buf := make([]byte, 64)
	for {
		from, n := t.Receive(buf)
		if from == NullTid {
			return
		}
		now := nowMillis()

		var req tsRequest
		if err := json.Unmarshal(buf[:n], &req); err == nil {
			switch req.Kind {
			case tsNotify:
				t.Reply(from, mustJSON(0))
			case tsDelay:
				heap.Push(&descs, delayDesc{tid: from, wakeTick: now + int64(req.Ticks)})
			}
		}

		for descs.Len() > 0 && descs[0].wakeTick <= now {
			due := heap.Pop(&descs).(delayDesc)
			t.Reply(due.tid, mustJSON(0))
		}
	}
}

// nowMillis stands in for the source lineage's SDL_GetTicks(): a
// wall-clock millisecond reading used purely to order delay wakeups, never
// serialised or compared across processes.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
