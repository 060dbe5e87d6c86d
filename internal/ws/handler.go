package ws

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/eightball/internal/auth"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/game"
	"github.com/playmatatu/eightball/internal/logger"
	"github.com/playmatatu/eightball/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

func newUpgrader(cfg *config.Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if cfg == nil || !cfg.IsProduction() {
				return true // Allow all origins in development
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == cfg.FrontendURL
		},
	}
}

// Client is one WebSocket connection. Observers have no player id.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	identity game.Identity
	send     chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, id game.Identity) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		identity: id,
		send:     make(chan []byte, sendBuffer),
	}
}

func (c *Client) playerID() string {
	return c.identity.ID
}

// Send encodes msg and queues it without blocking. It is safe to call after
// the connection is gone.
func (c *Client) Send(msg game.Message) {
	data, err := Encode(msg)
	if err != nil {
		logger.Log.Errorf("[WS] refusing to send %T: %v", msg, err)
		return
	}
	c.enqueue(data)
}

func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		logger.Log.Warnf("[WS] send buffer full for player %q, dropping message", c.playerID())
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Log.Debugf("[WS] write error for player %q: %v", c.playerID(), err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.Debugf("[WS] ping error for player %q: %v", c.playerID(), err)
				return
			}
		}
	}
}

// readPump reads client events until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warnf("[WS] unexpected close for player %q: %v", c.playerID(), err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(raw []byte) {
	env, err := Decode(raw)
	if err != nil {
		c.enqueue(encodeError("Invalid message"))
		return
	}

	ack, err := dispatch(c.hub.server, c.playerID(), env)
	if err != nil {
		logger.Log.Debugf("[WS] %s from player %q rejected: %v", env.Event, c.playerID(), err)
	}
	if ack != nil {
		data, encErr := EncodeAck(env.Ack, *ack)
		if encErr != nil {
			logger.Log.Errorf("[WS] failed to encode ack: %v", encErr)
			return
		}
		c.enqueue(data)
		return
	}
	if err != nil {
		c.enqueue(encodeError(err.Error()))
	}
}

// Hub tracks live connections and attaches them to the game server.
type Hub struct {
	server     GameServer
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub(srv GameServer) *Hub {
	return &Hub{
		server:     srv,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run attaches and detaches connections until ctx is cancelled, then closes
// every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			logger.Log.Infof("[WS] Hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()

			if c.playerID() != "" {
				h.server.Connect(c.identity, c)
			} else {
				h.server.AddObserver(c)
			}
			go c.writePump()
			go c.readPump()

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			delete(h.clients, c)
			h.mu.Unlock()
			if !ok {
				continue
			}
			c.close()
			if c.playerID() != "" {
				h.server.Disconnect(c.playerID(), c)
			} else {
				h.server.RemoveObserver(c)
			}
		}
	}
}

// Register hands a new connection to the hub. It returns false once the hub
// has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserLookup loads a registered user for a session.
type UserLookup interface {
	ByID(ctx context.Context, id int) (*models.User, error)
}

// identityFor builds the game identity of a session, refreshing a
// registered user's profile and rating from the store when possible.
func identityFor(ctx context.Context, s auth.Session, users UserLookup) game.Identity {
	id := game.Identity{ID: s.PlayerID, Username: s.Username, Country: s.Country, IsGuest: s.Guest}
	if s.Guest || users == nil {
		return id
	}
	uid, err := strconv.Atoi(s.PlayerID)
	if err != nil {
		return id
	}
	user, err := users.ByID(ctx, uid)
	if err != nil {
		logger.Log.Warnf("[WS] could not refresh user %d: %v", uid, err)
		return id
	}
	id.Username = user.Username
	if user.Country.Valid {
		id.Country = user.Country.String
	}
	if user.Rating.Valid {
		r := int(user.Rating.Int64)
		id.Rating = &r
	}
	return id
}

// HandleWebSocket upgrades /ws. A valid ?token= attaches the connection to
// that player; without a token the connection only observes presence.
func HandleWebSocket(hub *Hub, cfg *config.Config, users UserLookup) gin.HandlerFunc {
	upgrader := newUpgrader(cfg)
	return func(c *gin.Context) {
		var id game.Identity
		if token := c.Query("token"); token != "" {
			session, err := auth.ParseToken(cfg.JWTSecret, token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			id = identityFor(c.Request.Context(), session, users)
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Log.Warnf("[WS] Upgrade error: %v", err)
			return
		}

		client := newClient(hub, conn, id)
		if !hub.Register(client) {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			conn.Close()
		}
	}
}
