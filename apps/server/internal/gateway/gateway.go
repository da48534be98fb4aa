// Package gateway terminates client WebSockets and routes their requests to
// room actors.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"belote-lite/apps/server/internal/auth"
	"belote-lite/apps/server/internal/codec"
	"belote-lite/apps/server/internal/lobby"
	"belote-lite/apps/server/internal/room"
	"belote-lite/belote"
	"belote-lite/card"
)

const (
	sendBuffer   = 256
	readLimit    = 65536
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// RatingSource looks up stored ratings for authenticated players.
type RatingSource interface {
	Rating(ctx context.Context, userID uint64) (rating int, ok bool, err error)
}

type Options struct {
	Rooms          *lobby.Registry
	Auth           auth.Service
	Ratings        RatingSource
	DefaultRating  int
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Gateway manages WebSocket connections.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection

	rooms         *lobby.Registry
	auth          auth.Service
	ratings       RatingSource
	defaultRating int
	upgrader      websocket.Upgrader
	log           *zap.Logger

	lobbyDirty chan struct{}
}

// Connection is one WebSocket client.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Format  codec.Format
	Account *auth.Account // nil for guests

	gateway   *Gateway
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       *zap.Logger

	mu       sync.Mutex
	playerID string
	room     *room.Room
}

func New(opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		connections:   make(map[string]*Connection),
		rooms:         opts.Rooms,
		auth:          opts.Auth,
		ratings:       opts.Ratings,
		defaultRating: opts.DefaultRating,
		log:           logger.Named("gateway"),
		lobbyDirty:    make(chan struct{}, 1),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		Subprotocols:    []string{codec.SubprotocolJSON, codec.SubprotocolProto},
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	if g.rooms != nil {
		g.rooms.SetOnChange(func(int) { g.MarkLobbyDirty() })
	}
	return g
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[strings.TrimRight(origin, "/")]
	}
}

// HandleWebSocket upgrades the request. A valid session (cookie or bearer
// token) makes the connection an authenticated player.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	var account *auth.Account
	if g.auth != nil {
		if token := auth.TokenFromRequest(r); token != "" {
			if a, ok := g.auth.ResolveSession(token); ok {
				account = &a
			}
		}
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := &Connection{
		ID:      uuid.NewString(),
		Conn:    conn,
		Format:  codec.FormatForSubprotocol(conn.Subprotocol()),
		Account: account,
		gateway: g,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
	c.log = g.log.With(zap.String("conn", c.ID))
	if account != nil {
		c.log = c.log.With(zap.Uint64("account", account.ID))
	}

	g.mu.Lock()
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	c.log.Info("client connected", zap.Int("total", total), zap.String("subprotocol", conn.Subprotocol()))

	go c.writePump()
	c.sendRoomList(codec.TypeRoomList)
	go c.readPump()
}

func (c *Connection) readPump() {
	defer func() {
		c.gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Debug("read error", zap.Error(err))
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.Format == codec.FormatProto {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case message := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(frameType, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	msg, err := codec.Decode(c.Format, data)
	if err != nil {
		c.log.Debug("malformed frame", zap.Error(err))
		c.sendError("invalid message format")
		return
	}

	switch msg.Type {
	case codec.TypeGetRooms:
		c.sendRoomList(codec.TypeRoomList)
	case codec.TypeJoinRoom:
		c.handleJoin(msg)
	case codec.TypeLeaveRoom:
		c.handleLeave()
	default:
		c.handleTableAction(msg)
	}
}

func (c *Connection) handleJoin(msg codec.ClientMessage) {
	g := c.gateway
	target, err := g.rooms.GetRoom(msg.RoomID)
	if err != nil {
		if errors.Is(err, lobby.ErrInvalidRoomID) {
			c.sendError("invalid room id")
			return
		}
		c.log.Error("open room failed", zap.Int("room", msg.RoomID), zap.Error(err))
		c.sendError("room unavailable")
		return
	}

	c.mu.Lock()
	previous := c.room
	c.mu.Unlock()
	if previous != nil && previous != target {
		if err := previous.ExplicitLeave(c.ID); err != nil && !errors.Is(err, room.ErrRoomClosed) {
			c.log.Warn("leave previous room failed", zap.Int("room", previous.ID), zap.Error(err))
		}
	}

	req := c.joinRequest(msg)
	c.mu.Lock()
	c.playerID = req.PlayerID
	c.room = target
	c.mu.Unlock()

	if err := target.Join(req, c.sendView); err != nil {
		c.log.Warn("join failed", zap.Int("room", target.ID), zap.Error(err))
		c.sendError("room unavailable")
		return
	}
	c.log.Info("joined room", zap.Int("room", target.ID), zap.String("player", req.PlayerID))
}

func (c *Connection) joinRequest(msg codec.ClientMessage) belote.JoinRequest {
	req := belote.JoinRequest{ConnID: c.ID, Name: msg.Username, Avatar: msg.Avatar}
	if c.Account != nil {
		req.PlayerID = auth.PlayerID(c.Account.ID)
		req.Name = c.Account.Name()
		if c.Account.Avatar != "" {
			req.Avatar = c.Account.Avatar
		}
		req.Rating, req.HasRating = c.gateway.defaultRating, true
		if c.gateway.ratings != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			rating, ok, err := c.gateway.ratings.Rating(ctx, c.Account.ID)
			cancel()
			switch {
			case err != nil:
				c.log.Warn("rating lookup failed", zap.Error(err))
			case ok:
				req.Rating = rating
			}
		}
		return req
	}

	guest := strings.TrimSpace(msg.UserID)
	if guest == "" {
		guest = c.ID
	}
	req.PlayerID = auth.GuestID(guest)
	return req
}

func (c *Connection) handleLeave() {
	c.mu.Lock()
	current := c.room
	c.room = nil
	c.mu.Unlock()
	if current != nil {
		if err := current.ExplicitLeave(c.ID); err != nil && !errors.Is(err, room.ErrRoomClosed) {
			c.log.Warn("leave failed", zap.Int("room", current.ID), zap.Error(err))
		}
	}
	c.sendRoomList(codec.TypeRoomList)
}

func (c *Connection) handleTableAction(msg codec.ClientMessage) {
	c.mu.Lock()
	current := c.room
	c.mu.Unlock()
	if current == nil {
		c.log.Debug("action outside a room", zap.String("type", msg.Type))
		return
	}

	var err error
	switch msg.Type {
	case codec.TypeStartWithBots:
		err = current.StartWithBots(c.ID)
	case codec.TypeStartGame:
		err = current.Start(c.ID)
	case codec.TypeResetGame:
		err = current.FullReset(c.ID)
	case codec.TypePlayerReady:
		err = current.SetReady(c.ID)
	case codec.TypePlayerBid:
		action, perr := belote.ParseBidAction(msg.Action)
		if perr != nil {
			c.sendError("invalid bid action")
			return
		}
		suit, perr := card.ParseSuit(msg.Suit)
		if perr != nil {
			c.sendError("invalid suit")
			return
		}
		err = current.Bid(c.ID, action, suit)
	case codec.TypePlayCard:
		err = current.PlayCard(c.ID, msg.CardID)
	case codec.TypeDeclare:
		decision := msg.Decision != nil && *msg.Decision
		err = current.Declare(c.ID, decision)
	default:
		c.sendError("unknown message type")
		return
	}
	switch {
	case errors.Is(err, room.ErrNotSeated):
		c.log.Debug("table command from unseated connection", zap.String("type", msg.Type))
	case err != nil:
		c.log.Warn("room action failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (c *Connection) viewerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playerID != "" {
		return c.playerID
	}
	if c.Account != nil {
		return auth.PlayerID(c.Account.ID)
	}
	return ""
}

func (c *Connection) sendView(v codec.View) {
	c.sendMessage(codec.ServerMessage{Type: codec.TypeGameUpdate, Payload: v})
}

func (c *Connection) sendRoomList(kind string) {
	c.sendMessage(codec.ServerMessage{Type: kind, Payload: c.gateway.rooms.LobbyList(c.viewerID())})
}

func (c *Connection) sendError(msg string) {
	c.sendMessage(codec.ServerMessage{Type: codec.TypeError, Payload: codec.ErrorPayload{Message: msg}})
}

func (c *Connection) sendMessage(msg codec.ServerMessage) {
	data, err := codec.Encode(c.Format, msg)
	if err != nil {
		c.log.Error("encode failed", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.log.Warn("send buffer full, dropping message", zap.String("type", msg.Type))
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	c.closeOnce.Do(func() { close(c.done) })

	g.mu.Lock()
	delete(g.connections, c.ID)
	total := len(g.connections)
	g.mu.Unlock()

	c.mu.Lock()
	current := c.room
	c.room = nil
	c.mu.Unlock()
	if current != nil {
		if err := current.Leave(c.ID); err != nil && !errors.Is(err, room.ErrRoomClosed) {
			c.log.Warn("leave on disconnect failed", zap.Error(err))
		}
	}
	c.log.Info("client disconnected", zap.Int("total", total))
}

// MarkLobbyDirty schedules a lobby-update broadcast. Repeated calls before
// the broadcast coalesce.
func (g *Gateway) MarkLobbyDirty() {
	select {
	case g.lobbyDirty <- struct{}{}:
	default:
	}
}

// Run broadcasts lobby updates until ctx is done.
func (g *Gateway) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.lobbyDirty:
			g.BroadcastLobby()
		}
	}
}

// BroadcastLobby sends every connection its personalised lobby list.
func (g *Gateway) BroadcastLobby() {
	g.mu.RLock()
	conns := make([]*Connection, 0, len(g.connections))
	for _, c := range g.connections {
		conns = append(conns, c)
	}
	g.mu.RUnlock()

	for _, c := range conns {
		c.sendRoomList(codec.TypeLobbyUpdate)
	}
}

// ConnectionCount reports the number of live connections.
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}
