package hub

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewHub(t *testing.T) {
	h := NewHub()

	if h == nil {
		t.Fatal("NewHub() returned nil")
	}
	if h.rooms == nil {
		t.Error("Hub rooms map is nil")
	}
	if h.clients == nil {
		t.Error("Hub clients map is nil")
	}
}

func TestSubscribeAndToRoom(t *testing.T) {
	h := NewHub()

	inRoom := make(Client, 1)
	outside := make(Client, 1)
	h.Register(inRoom)
	h.Register(outside)
	h.Subscribe(7, inRoom)

	h.ToRoom(7, "game-state", map[string]string{"message": "new round"})

	select {
	case frame := <-inRoom:
		var event Event
		if err := json.Unmarshal(frame, &event); err != nil {
			t.Fatalf("Unmarshal broadcast frame: %v", err)
		}
		if event.Event != "game-state" {
			t.Errorf("Expected game-state event, got %q", event.Event)
		}
	default:
		t.Fatal("Room member received nothing")
	}

	select {
	case <-outside:
		t.Error("Client outside the room received a room broadcast")
	default:
	}
}

func TestToAll(t *testing.T) {
	h := NewHub()

	first := make(Client, 1)
	second := make(Client, 1)
	h.Register(first)
	h.Register(second)

	h.ToAll("online-user-count", map[string]int{"count": 2})

	for i, client := range []Client{first, second} {
		select {
		case <-client:
		default:
			t.Errorf("Client %d missed a global broadcast", i)
		}
	}
}

func TestUnsubscribeRemovesFromRoom(t *testing.T) {
	h := NewHub()

	client := make(Client, 1)
	h.Register(client)
	h.Subscribe(7, client)
	h.Unsubscribe(7, client)

	if _, ok := h.rooms[7]; ok {
		t.Error("Empty room not cleaned up after Unsubscribe")
	}

	h.ToRoom(7, "game-state", nil)
	select {
	case <-client:
		t.Error("Unsubscribed client still received a room broadcast")
	default:
	}
}

func TestUnregisterClosesClient(t *testing.T) {
	h := NewHub()

	client := make(Client, 1)
	h.Register(client)
	h.Subscribe(7, client)
	h.Unregister(client)

	if _, open := <-client; open {
		t.Error("Client channel still open after Unregister")
	}
	if _, ok := h.rooms[7]; ok {
		t.Error("Room still holds an unregistered client")
	}

	// Unregistering twice must not panic on a closed channel.
	h.Unregister(client)
}

func TestSlowClientDoesNotBlockBroadcast(t *testing.T) {
	h := NewHub()

	slow := make(Client) // unbuffered and never drained
	h.Register(slow)
	h.Subscribe(7, slow)

	done := make(chan struct{})
	go func() {
		h.ToRoom(7, "game-state", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a slow client")
	}
}
