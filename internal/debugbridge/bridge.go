// Package debugbridge exposes a read-only WebSocket endpoint that streams
// every published logging.Event to connected inspector clients (§4.14). It
// registers as a logging.Sink; it never originates movement or task
// commands.
package debugbridge

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ironclad-games/skirmish-core/logging"
)

const writeWait = 10 * time.Second

// Bridge is a logging.Sink that fans every event out to every currently
// connected WebSocket subscriber, grounded on the teacher's
// Hub/subscriber broadcast pattern (hub.go's broadcastState) with the
// player-specific bookkeeping stripped: a debug bridge subscriber carries
// nothing but a connection and a correlation id.
type Bridge struct {
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[uuid.UUID]*subscriber

	fallback *log.Logger
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// New constructs a Bridge with an origin-permissive upgrader, matching the
// teacher's own `/ws` upgrader (a local dev-tool endpoint, not
// internet-facing).
func New() *Bridge {
	return &Bridge{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subscribers: make(map[uuid.UUID]*subscriber),
		fallback:    log.New(log.Writer(), "[debugbridge] ", log.LstdFlags),
	}
}

// ServeHTTP upgrades the request to a WebSocket and registers the
// connection as a subscriber until it disconnects. Register this at the
// `/ws` path.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.fallback.Printf("upgrade failed: %v", err)
		return
	}
	id := uuid.New()
	sub := &subscriber{conn: conn}

	b.mu.Lock()
	b.subscribers[id] = sub
	b.mu.Unlock()

	b.fallback.Printf("subscriber %s connected", id)

	// Reads are discarded; this endpoint is read-only from the client's
	// perspective. A dead connection is detected the next time Write
	// fails, same as the teacher's own broadcast loop.
	go func() {
		defer b.disconnect(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (b *Bridge) disconnect(id uuid.UUID) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	delete(b.subscribers, id)
	b.mu.Unlock()
	if ok {
		sub.conn.Close()
		b.fallback.Printf("subscriber %s disconnected", id)
	}
}

// Write implements logging.Sink: it marshals event as JSON and pushes it
// to every connected subscriber, dropping any that fail to write.
func (b *Bridge) Write(event logging.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.Lock()
	subs := make(map[uuid.UUID]*subscriber, len(b.subscribers))
	for id, sub := range b.subscribers {
		subs[id] = sub
	}
	b.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			b.disconnect(id)
		}
	}
	return nil
}

// Close implements logging.Sink: it closes every open subscriber
// connection.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = make(map[uuid.UUID]*subscriber)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.conn.Close()
	}
	return nil
}
