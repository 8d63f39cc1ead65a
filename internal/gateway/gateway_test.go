package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"matchmind/backend/internal/game"
	"matchmind/backend/internal/hub"

	"github.com/gin-gonic/gin"
)

func TestDispatchTableCoversAllEvents(t *testing.T) {
	g := NewGateway(nil, nil)

	for _, event := range []string{"start-game", "join-game", "flip-card", "send-message", "leave-game"} {
		if _, ok := g.handlers[event]; !ok {
			t.Errorf("No handler registered for %q", event)
		}
	}
	if len(g.handlers) != 5 {
		t.Errorf("Expected 5 handlers, got %d", len(g.handlers))
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		kind game.Kind
		want int
	}{
		{game.KindNotFound, http.StatusNotFound},
		{game.KindConflict, http.StatusConflict},
		{game.KindUnauthenticated, http.StatusUnauthorized},
		{game.KindUpstream, http.StatusBadGateway},
		{game.KindInvalid, http.StatusBadRequest},
		{game.KindUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusOf(tt.kind); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestHandshakeToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(target string, header string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		if header != "" {
			c.Request.Header.Set("Authorization", header)
		}
		return c
	}

	if got := handshakeToken(newCtx("/ws?token=abc", "")); got != "abc" {
		t.Errorf("Expected query token abc, got %q", got)
	}
	if got := handshakeToken(newCtx("/ws", "Bearer xyz")); got != "xyz" {
		t.Errorf("Expected header token xyz, got %q", got)
	}
	if got := handshakeToken(newCtx("/ws", "Basic xyz")); got != "" {
		t.Errorf("Expected no token for Basic auth, got %q", got)
	}
	if got := handshakeToken(newCtx("/ws", "")); got != "" {
		t.Errorf("Expected no token, got %q", got)
	}
}

func TestSendErrorAck(t *testing.T) {
	g := NewGateway(nil, nil)
	conn := &connection{send: make(hub.Client, 1)}

	g.sendError(conn, game.Conflictf("game is already full"))

	var event hub.Event
	select {
	case frame := <-conn.send:
		if err := json.Unmarshal(frame, &event); err != nil {
			t.Fatalf("Unmarshal error frame: %v", err)
		}
	default:
		t.Fatal("No error ack queued")
	}

	if event.Event != "error" {
		t.Errorf("Expected error event, got %q", event.Event)
	}

	payload, ok := event.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("Unexpected payload shape %T", event.Payload)
	}
	if payload["status"].(float64) != http.StatusConflict {
		t.Errorf("Expected status 409, got %v", payload["status"])
	}
	if payload["message"] != "game is already full" {
		t.Errorf("Unexpected message %v", payload["message"])
	}
}

func TestSendDirectDropsWhenQueueFull(t *testing.T) {
	g := NewGateway(nil, nil)
	conn := &connection{send: make(hub.Client, 1)}

	g.sendDirect(conn, "card-flipped", gin.H{"gameId": 1})
	// The queue is full now; a second send must not block.
	g.sendDirect(conn, "card-flipped", gin.H{"gameId": 2})

	if len(conn.send) != 1 {
		t.Errorf("Expected 1 queued frame, got %d", len(conn.send))
	}
}
