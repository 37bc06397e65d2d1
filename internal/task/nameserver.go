package task

import "encoding/json"

// nsReqKind mirrors the source lineage's ns_req.type discriminant.
type nsReqKind int

const (
	nsRegister nsReqKind = iota
	nsWhoIs
)

type nsRequest struct {
	Kind nsReqKind `json:"kind"`
	Name string    `json:"name"`
}

const nsReplyBufSize = 16

// Register publishes tid under name with the name server, overwriting any
// previous registration under the same name (§4.11).
func Register(t *Task, name string) {
	req, _ := json.Marshal(nsRequest{Kind: nsRegister, Name: name})
	reply := make([]byte, nsReplyBufSize)
	t.Send(t.sched.nsTid, req, reply)
}

// WhoIs resolves name to a tid, or NullTid if nothing is registered under
// it.
func WhoIs(t *Task, name string) Tid {
	req, _ := json.Marshal(nsRequest{Kind: nsWhoIs, Name: name})
	reply := make([]byte, nsReplyBufSize)
	n := t.Send(t.sched.nsTid, req, reply)
	var tid Tid
	if n > 0 {
		_ = json.Unmarshal(reply[:n], &tid)
	}
	return tid
}

// nameServerEntry is the name server task body (§4.11), grounded on the
// source lineage's nameserver_task: a single Receive loop over a name->tid
// map, with REGISTER overwriting any existing entry and WHOIS replying
// NullTid on a miss.
func nameServerEntry(t *Task, arg any) {
	names := make(map[string]Tid)
	buf := make([]byte, 256)
	for {
		from, n := t.Receive(buf)
		if from == NullTid {
			return // ctx cancelled, scheduler shutting down
		}
		var req nsRequest
		if err := json.Unmarshal(buf[:n], &req); err != nil {
			t.Reply(from, mustJSON(0))
			continue
		}
		switch req.Kind {
		case nsRegister:
			names[req.Name] = from
			t.Reply(from, mustJSON(0))
		case nsWhoIs:
			tid, ok := names[req.Name]
			if !ok {
				tid = NullTid
			}
			t.Reply(from, mustJSON(tid))
		}
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
