package debugbridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ironclad-games/skirmish-core/logging"
)

func TestBridgeBroadcastsEventsToSubscribers(t *testing.T) {
	b := New()
	srv := httptest.NewServer(http.HandlerFunc(b.ServeHTTP))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// Give the server goroutine a moment to register the subscriber.
	deadline := time.Now().Add(2 * time.Second)
	for {
		b.mu.Lock()
		n := len(b.subscribers)
		b.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for subscriber registration")
		}
		time.Sleep(time.Millisecond)
	}

	if err := b.Write(logging.Event{Type: "movement.motion_start", Tick: 42}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("expected to receive the broadcast event: %v", err)
	}
	if !strings.Contains(string(data), "movement.motion_start") {
		t.Fatalf("expected the event type in the broadcast payload, got %s", data)
	}

	if err := b.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
