// Package ws is the websocket gateway: it owns the physical
// connections, implements the transport port for the fan-out router,
// and translates inbound frames into lifecycle and service calls.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"team-chat/domain"
	"team-chat/runtime"
	"team-chat/services"
)

// client wraps one websocket connection. Writes are serialized by a
// per-connection mutex since gorilla allows one concurrent writer.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// inboundFrame is the client-to-server message envelope.
type inboundFrame struct {
	Action  string `json:"action" validate:"required,oneof=register send private typing join"`
	User    string `json:"user,omitempty" validate:"omitempty,min=1,max=64"`
	Group   string `json:"group,omitempty"`
	To      string `json:"to,omitempty"`
	Team    string `json:"team,omitempty"`
	Content string `json:"content,omitempty"`
	Typing  bool   `json:"typing,omitempty"`
}

// Gateway accepts websocket connections and routes their frames into
// the core. It is constructed before the core (the router needs a
// transport port); Bind attaches the core once it exists.
type Gateway struct {
	log              *slog.Logger
	upgrader         websocket.Upgrader
	validate         *validator.Validate
	maxContentLength int
	searchLimit      int

	mu    sync.RWMutex
	conns map[domain.ConnID]*client

	lifecycle *runtime.Lifecycle
	chat      services.IChatService
}

func NewGateway(log *slog.Logger, allowedOrigins []string, maxContentLength, searchLimit int) *Gateway {
	allowed := make(map[string]bool)
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &Gateway{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Same-origin tools (no Origin header) are allowed.
				return origin == "" || allowed[origin]
			},
		},
		validate:         validator.New(),
		maxContentLength: maxContentLength,
		searchLimit:      searchLimit,
		conns:            make(map[domain.ConnID]*client),
	}
}

// Bind attaches the core. Must be called before serving traffic.
func (g *Gateway) Bind(lifecycle *runtime.Lifecycle, chat services.IChatService) {
	g.lifecycle = lifecycle
	g.chat = chat
}

// Deliver implements the transport port. A missing or closed
// connection is an ordinary failed delivery, reported as false.
func (g *Gateway) Deliver(conn domain.ConnID, payload []byte) bool {
	g.mu.RLock()
	c, ok := g.conns[conn]
	g.mu.RUnlock()
	if !ok {
		return false
	}
	if err := c.write(payload); err != nil {
		g.log.Debug("Delivery failed, dropping connection", "conn", conn, "err", err)
		g.drop(conn)
		return false
	}
	return true
}

// HandleWebSocket upgrades GET /ws and runs the connection's read
// loop until the socket closes.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sock, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("WebSocket upgrade failed", "err", err)
		return
	}

	connID := domain.ConnID(uuid.NewString())
	c := &client{conn: sock}

	g.mu.Lock()
	g.conns[connID] = c
	total := len(g.conns)
	g.mu.Unlock()

	g.lifecycle.OnConnectionEstablished(connID)
	g.log.Info("New websocket connection", "conn", connID, "total", total)

	defer func() {
		g.drop(connID)
		g.lifecycle.OnDisconnect(r.Context(), connID)
	}()

	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			g.log.Debug("Connection closed", "conn", connID, "err", err)
			return
		}
		g.dispatch(r.Context(), connID, c, data)
	}
}

// dispatch handles one inbound frame. Errors are reported back to the
// sender and never tear the connection down.
func (g *Gateway) dispatch(ctx context.Context, connID domain.ConnID, c *client, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		g.replyError(c, "malformed frame")
		return
	}
	if err := g.validate.Struct(frame); err != nil {
		g.replyError(c, fmt.Sprintf("invalid frame: %v", err))
		return
	}
	if len(frame.Content) > g.maxContentLength {
		g.replyError(c, fmt.Sprintf("content exceeds %d characters", g.maxContentLength))
		return
	}

	session, _ := g.lifecycle.Session(connID)
	user := session.UserID

	switch frame.Action {
	case "register":
		if err := g.lifecycle.OnRegister(ctx, connID, domain.UserID(frame.User)); err != nil {
			g.log.Error("Registration failed", "conn", connID, "user", frame.User, "err", err)
			g.replyError(c, "registration failed")
		}
	case "send":
		g.requireUser(c, user, func() {
			_, outcome, err := g.chat.Send(ctx, user, domain.GroupKey(frame.Group), frame.Content)
			g.replyOutcome(c, outcome, err)
		})
	case "private":
		g.requireUser(c, user, func() {
			_, outcome, err := g.chat.SendPrivate(ctx, user, domain.UserID(frame.To), frame.Content)
			g.replyOutcome(c, outcome, err)
		})
	case "typing":
		g.requireUser(c, user, func() {
			g.chat.Typing(user, domain.UserID(frame.To), frame.Typing)
		})
	case "join":
		g.requireUser(c, user, func() {
			if err := g.chat.JoinTeam(ctx, frame.Team, user); err != nil {
				g.replyError(c, fmt.Sprintf("join failed: %v", err))
			}
		})
	}
}

// requireUser rejects frames arriving before registration; the
// connection is anonymous until then.
func (g *Gateway) requireUser(c *client, user domain.UserID, fn func()) {
	if user == "" {
		g.replyError(c, "not registered")
		return
	}
	fn()
}

type ackFrame struct {
	Kind      string `json:"kind"`
	Attempted int    `json:"attempted,omitempty"`
	Delivered int    `json:"delivered,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (g *Gateway) replyOutcome(c *client, outcome domain.DeliveryOutcome, err error) {
	ack := ackFrame{Kind: "ack", Attempted: outcome.Attempted, Delivered: outcome.Delivered}
	if err != nil {
		ack.Kind = "error"
		ack.Error = err.Error()
	}
	b, _ := json.Marshal(ack)
	if werr := c.write(b); werr != nil {
		g.log.Debug("Failed to write ack", "err", werr)
	}
}

func (g *Gateway) replyError(c *client, msg string) {
	b, _ := json.Marshal(ackFrame{Kind: "error", Error: msg})
	if err := c.write(b); err != nil {
		g.log.Debug("Failed to write error frame", "err", err)
	}
}

func (g *Gateway) drop(conn domain.ConnID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.conns[conn]; ok {
		_ = c.conn.Close()
		delete(g.conns, conn)
	}
}
