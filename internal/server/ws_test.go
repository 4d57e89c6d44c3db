package server

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rohanpai/fallwatch/internal/store"
)

func TestEventsHub_BroadcastToClient(t *testing.T) {
	hub := NewEventsHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Registration happens on the server goroutine after the upgrade.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	sent := &store.FallEvent{
		ID:         "event-1",
		CameraID:   "cam-1",
		Timestamp:  time.Now(),
		Confidence: 0.875,
		Severity:   store.SeverityHigh,
		Status:     store.EventNew,
	}
	hub.Broadcast(sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got eventMessage
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if got.ID != sent.ID || got.CameraID != sent.CameraID {
		t.Errorf("got %+v, want ids matching %s/%s", got, sent.ID, sent.CameraID)
	}
	if got.Severity != string(store.SeverityHigh) {
		t.Errorf("Severity = %q, want %q", got.Severity, store.SeverityHigh)
	}
	if got.Timestamp != sent.Timestamp.UnixMilli() {
		t.Errorf("Timestamp = %d, want %d", got.Timestamp, sent.Timestamp.UnixMilli())
	}
}

func TestEventsHub_ConcurrentBroadcasters(t *testing.T) {
	hub := NewEventsHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Two cameras can confirm falls at the same time, so Broadcast must be
	// safe to call from multiple frame loops at once.
	const perCamera = 20
	var wg sync.WaitGroup
	for _, cameraID := range []string{"cam-1", "cam-2"} {
		wg.Add(1)
		go func(cameraID string) {
			defer wg.Done()
			for i := 0; i < perCamera; i++ {
				hub.Broadcast(&store.FallEvent{
					ID:         cameraID + "-event",
					CameraID:   cameraID,
					Timestamp:  time.Now(),
					Confidence: 0.9,
					Severity:   store.SeverityHigh,
					Status:     store.EventNew,
				})
			}
		}(cameraID)
	}
	wg.Wait()

	for i := 0; i < 2*perCamera; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got eventMessage
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("read broadcast %d: %v", i, err)
		}
		if got.CameraID != "cam-1" && got.CameraID != "cam-2" {
			t.Fatalf("CameraID = %q, want cam-1 or cam-2", got.CameraID)
		}
	}
}

func TestEventsHub_ClientRemovedOnclose(t *testing.T) {
	hub := NewEventsHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never removed after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
