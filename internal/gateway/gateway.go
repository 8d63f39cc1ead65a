package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"matchmind/backend/internal/game"
	"matchmind/backend/internal/hub"
	"matchmind/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// connection is one authenticated websocket client.
type connection struct {
	id       string
	ws       *websocket.Conn
	send     hub.Client
	userID   uint
	username string
}

type handlerFunc func(ctx context.Context, c *connection, data json.RawMessage)

// Gateway binds websocket connections to identities and translates
// client events into engine calls. It performs no game logic itself.
type Gateway struct {
	engine *game.Engine
	hub    *hub.Hub

	mu     sync.Mutex
	online map[uint]string // userID -> connection id

	handlers map[string]handlerFunc
}

// NewGateway creates a gateway dispatching onto engine and h.
func NewGateway(engine *game.Engine, h *hub.Hub) *Gateway {
	g := &Gateway{
		engine: engine,
		hub:    h,
		online: make(map[uint]string),
	}

	g.handlers = map[string]handlerFunc{
		"start-game":   g.handleStartGame,
		"join-game":    g.handleJoinGame,
		"flip-card":    g.handleFlipCard,
		"send-message": g.handleSendMessage,
		"leave-game":   g.handleLeaveGame,
	}
	return g
}

// HandleWS upgrades the request, verifies the handshake token and runs
// the connection's pumps. An invalid token closes the connection; it
// is the only connection-fatal error.
func (g *Gateway) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("gateway: websocket upgrade failed: %v", err)
		return
	}

	claims, err := jwt.VerifyToken(handshakeToken(c))
	if err != nil {
		frame, _ := json.Marshal(hub.Event{Event: "error", Payload: ErrorPayload{
			Status:  http.StatusUnauthorized,
			Message: "invalid or missing token",
		}})
		ws.SetWriteDeadline(time.Now().Add(writeWait))
		ws.WriteMessage(websocket.TextMessage, frame)
		ws.Close()
		return
	}

	conn := &connection{
		id:       uuid.NewString(),
		ws:       ws,
		send:     make(hub.Client, 256),
		userID:   claims.UserID,
		username: claims.Username,
	}

	g.hub.Register(conn.send)

	g.mu.Lock()
	g.online[conn.userID] = conn.id
	count := len(g.online)
	g.mu.Unlock()
	g.hub.ToAll("online-user-count", gin.H{"count": count})

	go conn.writePump()
	g.readPump(conn)
}

func handshakeToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// readPump dispatches inbound frames until the connection drops, then
// treats the drop as a leave everywhere the user plays.
func (g *Gateway) readPump(c *connection) {
	defer func() {
		g.disconnect(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("gateway: websocket error: %v", err)
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			g.sendError(c, game.Invalidf("malformed event frame"))
			continue
		}

		handler, ok := g.handlers[in.Event]
		if !ok {
			g.sendError(c, game.Invalidf("unknown event %q", in.Event))
			continue
		}

		handler(context.Background(), c, in.Data)
	}
}

func (g *Gateway) disconnect(c *connection) {
	g.engine.HandleDisconnect(context.Background(), c.userID)
	g.hub.Unregister(c.send)

	g.mu.Lock()
	if g.online[c.userID] == c.id {
		delete(g.online, c.userID)
	}
	count := len(g.online)
	g.mu.Unlock()
	g.hub.ToAll("online-user-count", gin.H{"count": count})
}

func (g *Gateway) handleStartGame(ctx context.Context, c *connection, data json.RawMessage) {
	var payload StartGamePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.sendError(c, game.Invalidf("malformed start-game payload"))
		return
	}

	gameID, err := g.engine.StartGame(ctx, c.userID, payload.NoOfPlayers)
	if err != nil {
		g.sendError(c, err)
		return
	}

	g.hub.Subscribe(gameID, c.send)
	g.sendDirect(c, "game-started", gin.H{"gameId": gameID, "player": c.userID})
}

func (g *Gateway) handleJoinGame(ctx context.Context, c *connection, data json.RawMessage) {
	var payload GameIDPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.sendError(c, game.Invalidf("malformed join-game payload"))
		return
	}

	if err := g.engine.JoinGame(ctx, payload.GameID, c.userID); err != nil {
		g.sendError(c, err)
		return
	}

	g.hub.Subscribe(payload.GameID, c.send)
	g.sendDirect(c, "game-joined", gin.H{"gameId": payload.GameID, "player": c.userID})
}

func (g *Gateway) handleFlipCard(ctx context.Context, c *connection, data json.RawMessage) {
	var payload FlipCardPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.sendError(c, game.Invalidf("malformed flip-card payload"))
		return
	}

	if err := g.engine.FlipCard(ctx, payload.GameID, c.userID, payload.CardID); err != nil {
		g.sendError(c, err)
		return
	}

	g.sendDirect(c, "card-flipped", gin.H{"gameId": payload.GameID, "player": c.userID})
}

func (g *Gateway) handleSendMessage(ctx context.Context, c *connection, data json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.sendError(c, game.Invalidf("malformed send-message payload"))
		return
	}

	if err := g.engine.SendMessage(ctx, payload.GameID, c.userID, payload.Message); err != nil {
		g.sendError(c, err)
	}
}

func (g *Gateway) handleLeaveGame(ctx context.Context, c *connection, data json.RawMessage) {
	var payload GameIDPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.sendError(c, game.Invalidf("malformed leave-game payload"))
		return
	}

	if err := g.engine.LeaveGame(ctx, payload.GameID, c.userID); err != nil {
		g.sendError(c, err)
		return
	}

	g.hub.Unsubscribe(payload.GameID, c.send)
	g.sendDirect(c, "game-left", gin.H{"gameId": payload.GameID})
}

func (g *Gateway) sendDirect(c *connection, event string, payload interface{}) {
	frame, err := json.Marshal(hub.Event{Event: event, Payload: payload})
	if err != nil {
		log.Printf("gateway: marshaling %q event: %v", event, err)
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// sendError converts an engine error into a direct error ack. No
// taxonomy error ever terminates the connection.
func (g *Gateway) sendError(c *connection, err error) {
	g.sendDirect(c, "error", ErrorPayload{
		Status:  statusOf(game.KindOf(err)),
		Message: err.Error(),
	})
}

func statusOf(kind game.Kind) int {
	switch kind {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindConflict:
		return http.StatusConflict
	case game.KindUnauthenticated:
		return http.StatusUnauthorized
	case game.KindUpstream:
		return http.StatusBadGateway
	case game.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writePump drains the outbound queue onto the wire and keeps the
// connection alive with pings.
func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
