package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"skitgubben/internal/game"
	"skitgubben/internal/playerid"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a websocket connection to one player. The
// connection's generated ID doubles as the player's stable identity.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	server    *Server
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once

	playerName string
	roomID     string
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := playerid.New()

	return &Connection{
		conn:     conn,
		send:     make(chan *Message, 256),
		playerID: id,
		server:   server,
		logger:   logger.WithPrefix("conn").With("player", id),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// PlayerID returns the connection's player identity
func (c *Connection) PlayerID() string {
	return c.playerID
}

// RoomID returns the room this connection has joined, if any
func (c *Connection) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// PlayerName returns the name given on join, if any
func (c *Connection) PlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

func (c *Connection) setRoom(roomID, playerName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
	c.playerName = playerName
}

// SendMessage queues a message for delivery to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches a client intent
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join room data")
			return
		}
		c.handleJoinRoom(data)

	case MessageTypeStartGame:
		c.handleStartGame(false)

	case MessageTypeRestartGame:
		c.handleStartGame(true)

	case MessageTypePlayCard:
		var data PlayCardData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse play card data")
			return
		}
		c.handlePlayCard(data)

	case MessageTypeDrawCard:
		c.handleDrawCard()

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

func (c *Connection) handleJoinRoom(data JoinRoomData) {
	if data.RoomID == "" || data.PlayerName == "" {
		c.sendError("invalid_join", "Room ID and player name are required")
		return
	}
	if c.RoomID() != "" {
		c.sendError("already_joined", "Already in a room")
		return
	}

	development := data.Development || c.server.devDefault
	room, added := c.server.manager.JoinRoom(data.RoomID, development, c.playerID, data.PlayerName)
	if !added {
		c.sendError("join_failed", "Could not join the game. It may already have started.")
		return
	}

	var (
		state game.PublicState
		view  *game.PlayerView
	)
	room.Do(func(g *game.Game) {
		state = g.Public()
		view = g.View(c.playerID)
	})

	c.setRoom(data.RoomID, data.PlayerName)
	c.logger.Info("player joined room", "room", data.RoomID, "name", data.PlayerName)

	roster := rosterFromState(state)

	joined, _ := NewMessage(MessageTypeJoined, JoinedData{
		RoomID:      data.RoomID,
		PlayerID:    c.playerID,
		Development: state.Development,
		Players:     roster,
	})
	_ = c.SendMessage(joined)

	notice, _ := NewMessage(MessageTypePlayerJoined, PlayerJoinedData{
		PlayerID:   c.playerID,
		PlayerName: data.PlayerName,
		Players:    roster,
		Message:    data.PlayerName + " has joined the game.",
	})
	c.server.BroadcastToRoom(data.RoomID, notice)

	stateMsg, _ := NewMessage(MessageTypeGameState, view)
	_ = c.SendMessage(stateMsg)
}

func (c *Connection) handleStartGame(restart bool) {
	roomID := c.RoomID()
	room, ok := c.server.manager.Get(roomID)
	if roomID == "" || !ok {
		c.sendError("not_in_room", "Join a room first")
		return
	}

	var (
		started bool
		views   map[string]*game.PlayerView
	)
	room.Do(func(g *game.Game) {
		started = g.StartGame()
		if started {
			views = collectViews(g)
		}
	})

	if !started {
		if restart {
			c.sendError("start_failed", "Could not restart the game.")
		} else {
			c.sendError("start_failed", "Could not start the game. At least 2 players are required.")
		}
		return
	}

	message := "The game has started!"
	if restart {
		message = "The game has been restarted!"
	}
	c.logger.Info("game started", "room", roomID, "restart", restart)

	startedMsg, _ := NewMessage(MessageTypeGameStarted, GameStartedData{Message: message})
	c.server.BroadcastToRoom(roomID, startedMsg)
	c.server.sendViews(views)
}

func (c *Connection) handlePlayCard(data PlayCardData) {
	roomID := c.RoomID()
	room, ok := c.server.manager.Get(roomID)
	if roomID == "" || !ok {
		c.sendError("not_in_room", "Join a room first")
		return
	}

	var (
		result game.Result
		status game.Status
		views  map[string]*game.PlayerView
		loser  string
	)
	room.Do(func(g *game.Game) {
		result = g.PlayCard(c.playerID, data.CardIndex, data.FromTable)
		if result.Success {
			status = g.CheckGameOver()
			views = collectViews(g)
			if status.SkitGubben != "" {
				loser, _ = g.PlayerName(status.SkitGubben)
			}
		}
	})

	if !result.Success {
		c.sendError("play_failed", result.Message)
		return
	}

	c.broadcastPlay(roomID, result.Message)
	c.server.sendViews(views)
	if status.GameOver {
		c.server.broadcastGameOver(roomID, status, loser)
	}
}

func (c *Connection) handleDrawCard() {
	roomID := c.RoomID()
	room, ok := c.server.manager.Get(roomID)
	if roomID == "" || !ok {
		c.sendError("not_in_room", "Join a room first")
		return
	}

	var (
		result game.Result
		status game.Status
		views  map[string]*game.PlayerView
		loser  string
	)
	room.Do(func(g *game.Game) {
		result = g.DrawCard(c.playerID)
		if result.Success {
			status = g.CheckGameOver()
			views = collectViews(g)
			if status.SkitGubben != "" {
				loser, _ = g.PlayerName(status.SkitGubben)
			}
		}
	})

	if !result.Success {
		c.sendError("draw_failed", result.Message)
		return
	}

	c.broadcastPlay(roomID, result.Message)
	c.server.sendViews(views)
	if status.GameOver {
		c.server.broadcastGameOver(roomID, status, loser)
	}
}

func (c *Connection) broadcastPlay(roomID, message string) {
	played, _ := NewMessage(MessageTypeCardPlayed, CardPlayedData{
		PlayerID:   c.playerID,
		PlayerName: c.PlayerName(),
		Message:    message,
	})
	c.server.BroadcastToRoom(roomID, played)
}

// collectViews derives the private projection for every player. Must be
// called with the room lock held.
func collectViews(g *game.Game) map[string]*game.PlayerView {
	views := make(map[string]*game.PlayerView)
	for _, entry := range g.Public().Players {
		views[entry.ID] = g.View(entry.ID)
	}
	return views
}
