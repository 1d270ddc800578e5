package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"studentattendance/internal/queue"
)

func dial(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(w, r, sessionID); err != nil {
			t.Errorf("serve: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return evt
}

func TestBroadcastReachesOnlySessionSubscribers(t *testing.T) {
	hub := NewHub(nil, nil)
	a := dial(t, hub, "s1")
	b := dial(t, hub, "s2")
	waitFor(t, func() bool { return hub.Subscribers("s1") == 1 && hub.Subscribers("s2") == 1 })

	hub.Broadcast(Event{Type: queue.TypeCheckIn, SessionID: "s1", Data: json.RawMessage(`{"student_id":"u1"}`)})
	hub.Broadcast(Event{Type: queue.TypeCheckIn, SessionID: "s2", Data: json.RawMessage(`{"student_id":"u2"}`)})

	if evt := readEvent(t, a); evt.SessionID != "s1" || string(evt.Data) != `{"student_id":"u1"}` {
		t.Fatalf("unexpected event on s1: %+v", evt)
	}
	if evt := readEvent(t, b); evt.SessionID != "s2" {
		t.Fatalf("unexpected event on s2: %+v", evt)
	}
}

func TestDispatchClosesEndedSession(t *testing.T) {
	hub := NewHub(nil, nil)
	conn := dial(t, hub, "s1")
	waitFor(t, func() bool { return hub.Subscribers("s1") == 1 })

	bus := queue.NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Dispatch(ctx, bus) }()

	if err := bus.Publish(ctx, queue.Message{Type: queue.TypeSessionEnded, SessionID: "s1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if evt := readEvent(t, conn); evt.Type != queue.TypeSessionEnded {
		t.Fatalf("expected session_ended, got %+v", evt)
	}
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
	waitFor(t, func() bool { return hub.Subscribers("s1") == 0 })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("dispatch did not stop")
	}
}
