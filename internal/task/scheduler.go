package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/ironclad-games/skirmish-core/internal/telemetry"
	"github.com/ironclad-games/skirmish-core/logging"
	logkernel "github.com/ironclad-games/skirmish-core/logging/kernel"
)

type reqKind int

const (
	reqSend reqKind = iota
	reqReceive
	reqReply
	reqYield
	reqAwaitEvent
	reqCreate
	reqWait
	reqSetDestructor
	reqExit
	reqFireEvent
)

// request is the single typed carrier every Task method funnels through,
// the Go rendering of the source lineage's Sched_Request primitive: one
// channel, one dispatch point, strongly-typed fields standing in for the
// five opaque argv slots (§9 design note on hand-erased comparator args
// applies equally here — prefer a typed field per kind over void*).
type request struct {
	kind reqKind
	tid  Tid // acting task
	to   Tid // target, where applicable

	env *sendEnvelope // reqSend

	buf         []byte               // reqReceive
	receiveResp chan receiveResult   // reqReceive

	msg      []byte        // reqReply
	replyAck chan struct{} // reqReply, reqYield, reqSetDestructor

	event        Event   // reqAwaitEvent, reqFireEvent
	eventResp    chan any // reqAwaitEvent
	eventPayload any      // reqFireEvent

	prio    int     // reqCreate
	entry   Entry   // reqCreate
	arg     any     // reqCreate
	tidResp chan Tid // reqCreate

	waitResp chan bool // reqWait

	destructor    Destructor // reqSetDestructor
	destructorArg any

	exitDone chan struct{} // reqExit
}

type taskInfo struct {
	tid        Tid
	parentTid  Tid
	prio       int
	cancel     context.CancelFunc
	destructor Destructor
	destructorArg any
	exited     bool
	waiters    []chan bool
}

// Scheduler is the single-threaded cooperative dispatcher: exactly one
// goroutine (run) ever touches the maps below, so no locking is needed
// there, matching §5's "between suspension points a task has exclusive
// access to all process state it reaches". Task entry functions run in
// their own goroutines but only ever mutate kernel state by sending a
// request through reqCh, never directly.
type Scheduler struct {
	reqCh  chan *request
	ctx    context.Context
	cancel context.CancelFunc

	pub     logging.Publisher
	metrics telemetry.Metrics

	wg sync.WaitGroup // tracks live task goroutines for Shutdown to drain

	tasks      map[Tid]*taskInfo
	nextTid    Tid
	tick       uint64

	pendingSendQueue map[Tid][]*sendEnvelope
	pendingReceive   map[Tid]*request
	awaitingReply    map[Tid]*sendEnvelope

	eventWaiters map[Event][]chan any

	// nsTid and tsTid are write-once, set by New (kernel.go) before any
	// user task runs, mirroring the source lineage's static s_ns_tid /
	// s_ts_tid (§4.11, §4.12).
	nsTid Tid
	tsTid Tid
}

// NewScheduler starts the scheduler's dispatch goroutine, bound to ctx:
// cancelling ctx (or calling Shutdown) causes every blocked Task call to
// unblock via its own ctx.Done() select arm, which is this Go rendering's
// answer to "there is no generic cancellation" in the original cooperative
// fiber model — an unkillable leaked goroutine is a real resource leak in
// Go in a way it never was for cooperative fibers (§5 shutdown expansion).
func NewScheduler(ctx context.Context, pub logging.Publisher, metrics telemetry.Metrics) *Scheduler {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	sctx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		reqCh:            make(chan *request, 64),
		ctx:              sctx,
		cancel:           cancel,
		pub:              pub,
		metrics:          metrics,
		tasks:            make(map[Tid]*taskInfo),
		nextTid:          1,
		pendingSendQueue: make(map[Tid][]*sendEnvelope),
		pendingReceive:   make(map[Tid]*request),
		awaitingReply:    make(map[Tid]*sendEnvelope),
		eventWaiters:     make(map[Event][]chan any),
	}
	go s.run()
	return s
}

func (s *Scheduler) submit(req *request) {
	select {
	case s.reqCh <- req:
	case <-s.ctx.Done():
	}
}

func (s *Scheduler) run() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case req := <-s.reqCh:
			s.handle(req)
		}
	}
}

func (s *Scheduler) handle(req *request) {
	switch req.kind {
	case reqSend:
		s.handleSend(req)
	case reqReceive:
		s.handleReceive(req)
	case reqReply:
		s.handleReply(req)
	case reqYield:
		close(req.replyAck)
	case reqAwaitEvent:
		s.eventWaiters[req.event] = append(s.eventWaiters[req.event], req.eventResp)
	case reqCreate:
		req.tidResp <- s.createTask(req.tid, req.prio, req.entry, req.arg)
	case reqWait:
		s.handleWait(req)
	case reqSetDestructor:
		if info, ok := s.tasks[req.tid]; ok {
			info.destructor = req.destructor
			info.destructorArg = req.destructorArg
		}
		close(req.replyAck)
	case reqExit:
		s.handleExit(req)
	case reqFireEvent:
		if n, ok := req.eventPayload.(uint64); ok {
			s.tick = n
		}
		waiters := s.eventWaiters[req.event]
		delete(s.eventWaiters, req.event)
		for _, w := range waiters {
			w <- req.eventPayload
		}
		close(req.replyAck)
	}
}

// handleExit retires tid: runs its destructor, marks it exited, and wakes
// every Wait(tid) caller. Run on the scheduler goroutine like everything
// else that touches s.tasks, since runTask's defer calls this from the
// dying task's own goroutine.
func (s *Scheduler) handleExit(req *request) {
	info, ok := s.tasks[req.tid]
	if ok {
		if info.destructor != nil {
			info.destructor(info.destructorArg)
		}
		info.exited = true
		for _, w := range info.waiters {
			w <- true
		}
		info.waiters = nil
		delete(s.tasks, req.tid)

		logkernel.TaskExited(s.ctx, s.pub, s.tick, logkernel.TaskLifecyclePayload{
			Tid: uint32(req.tid), ParentID: uint32(info.parentTid), Priority: info.prio,
		})
	}
	close(req.exitDone)
}

func (s *Scheduler) handleSend(req *request) {
	env := req.env
	if waiting, ok := s.pendingReceive[req.to]; ok {
		delete(s.pendingReceive, req.to)
		n := truncate(waiting.buf, env.msg)
		s.awaitingReply[env.from] = env
		waiting.receiveResp <- receiveResult{from: env.from, n: n}
		return
	}
	s.pendingSendQueue[req.to] = append(s.pendingSendQueue[req.to], env)
	logkernel.SendBlocked(s.ctx, s.pub, s.tick, logkernel.TaskLifecyclePayload{
		Tid: uint32(env.from), ParentID: uint32(req.to),
	})
}

func (s *Scheduler) handleReceive(req *request) {
	queue := s.pendingSendQueue[req.tid]
	if len(queue) == 0 {
		s.pendingReceive[req.tid] = req
		return
	}
	idx := nextSenderIndex(queue, s.tasks)
	env := queue[idx]
	queue = append(queue[:idx], queue[idx+1:]...)
	s.pendingSendQueue[req.tid] = queue
	n := truncate(req.buf, env.msg)
	s.awaitingReply[env.from] = env
	req.receiveResp <- receiveResult{from: env.from, n: n}
}

// nextSenderIndex picks the queued sender with the lowest task priority
// (lower runs first), breaking ties by queue order (FIFO among equals),
// matching §5's ready-task ordering rule applied to the rendezvous queue.
func nextSenderIndex(queue []*sendEnvelope, tasks map[Tid]*taskInfo) int {
	best := 0
	bestPrio := priorityOf(tasks, queue[0].from)
	for i := 1; i < len(queue); i++ {
		p := priorityOf(tasks, queue[i].from)
		if p < bestPrio {
			best, bestPrio = i, p
		}
	}
	return best
}

func priorityOf(tasks map[Tid]*taskInfo, tid Tid) int {
	if info, ok := tasks[tid]; ok {
		return info.prio
	}
	return 0
}

func (s *Scheduler) handleReply(req *request) {
	env, ok := s.awaitingReply[req.to]
	if !ok {
		panic(fmt.Sprintf("task: Reply to tid %d which is not send-blocked on %d", req.to, req.tid))
	}
	delete(s.awaitingReply, req.to)
	n := truncate(env.replyBuf, req.msg)
	env.done <- n
	close(req.replyAck)
}

func (s *Scheduler) handleWait(req *request) {
	info, ok := s.tasks[req.to]
	if !ok {
		// Exited tasks are removed from s.tasks; tids are allocated
		// sequentially and never reused, so any tid below nextTid existed.
		req.waitResp <- req.to != NullTid && req.to < s.nextTid
		return
	}
	if info.exited {
		req.waitResp <- true
		return
	}
	info.waiters = append(info.waiters, req.waitResp)
}

func (s *Scheduler) createTask(parent Tid, prio int, entry Entry, arg any) Tid {
	tid := s.nextTid
	s.nextTid++
	tctx, cancel := context.WithCancel(s.ctx)
	info := &taskInfo{tid: tid, parentTid: parent, prio: prio, cancel: cancel}
	s.tasks[tid] = info

	logkernel.TaskCreated(s.ctx, s.pub, s.tick, logkernel.TaskLifecyclePayload{
		Tid: uint32(tid), ParentID: uint32(parent), Priority: prio,
	})

	s.wg.Add(1)
	go s.runTask(tid, parent, tctx, entry, arg)
	return tid
}

func (s *Scheduler) runTask(tid, parent Tid, ctx context.Context, entry Entry, arg any) {
	defer s.wg.Done()
	t := &Task{tid: tid, parentTid: parent, sched: s, ctx: ctx}
	defer s.retire(tid)
	entry(t, arg)
}

// retire runs tid's destructor (if any) and wakes every Wait(tid) caller,
// the Go rendering of the source lineage's task-exit/Wait release. It must
// go through the scheduler's own request channel rather than touching
// s.tasks directly, since s.tasks is owned exclusively by the run goroutine
// and retire executes on the exiting task's own goroutine.
func (s *Scheduler) retire(tid Tid) {
	done := make(chan struct{})
	req := &request{kind: reqExit, tid: tid, exitDone: done}
	select {
	case s.reqCh <- req:
	case <-s.ctx.Done():
		return
	}
	// s.ctx.Done() stays permanently ready once closed, so even if run()
	// stopped consuming reqCh between the send above and here, this never
	// blocks forever waiting on a request nobody will process.
	select {
	case <-done:
	case <-s.ctx.Done():
	}
}

// FireEvent wakes every task currently blocked in AwaitEvent(event),
// delivering payload to each. Intended to be driven externally by a ticker
// for Event60HzTick (§4.12); any caller outside a task's own goroutine may
// call it, since it only enqueues onto reqCh like everything else.
func (s *Scheduler) FireEvent(event Event, payload any) {
	done := make(chan struct{})
	req := &request{kind: reqFireEvent, event: event, eventPayload: payload, replyAck: done}
	select {
	case s.reqCh <- req:
	case <-s.ctx.Done():
		return
	}
	select {
	case <-done:
	case <-s.ctx.Done():
	}
}

// Shutdown cancels the scheduler's context, which unblocks every pending
// Send/Receive/Reply/Wait/AwaitEvent call via its ctx.Done() select arm,
// then waits for every task goroutine to finish returning from its Entry
// function before returning itself. A task's destructor runs only if its
// exit request was handled before the cancellation; tasks that return
// after it exit without their destructor running.
func (s *Scheduler) Shutdown() {
	s.cancel()
	s.wg.Wait()
}
