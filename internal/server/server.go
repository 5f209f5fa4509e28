package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"skitgubben/internal/game"
)

// Server accepts websocket connections and routes player intents into
// the room registry.
type Server struct {
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	manager     *RoomManager
	devDefault  bool
	httpServer  *http.Server
}

// NewServer creates a websocket server over the given room registry.
// devDefault makes rooms created over the wire default to development
// mode when the join request doesn't ask for it.
func NewServer(logger *log.Logger, manager *RoomManager, devDefault bool) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Clients are served from arbitrary origins for now
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
		manager:     manager,
		devDefault:  devDefault,
	}
}

// Start starts the websocket server on addr and blocks until it stops.
func (s *Server) Start(addr string) error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/rooms", s.handleRooms)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	s.logger.Info("starting websocket server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and closes the existing ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				s.handleDisconnect(conn)
				_ = conn.Close()
				s.logger.Info("client disconnected", "total", total)
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// handleDisconnect removes a departing player from their room, deleting
// the room when it empties and force-ending a game left mid-play.
func (s *Server) handleDisconnect(conn *Connection) {
	roomID := conn.RoomID()
	if roomID == "" {
		return
	}
	room, ok := s.manager.Get(roomID)
	if !ok {
		return
	}

	playerName := conn.PlayerName()
	s.logger.Info("cleaning up disconnected player", "player", playerName, "room", roomID)

	var (
		removed   bool
		remaining int
		state     game.PublicState
		ended     bool
		status    game.Status
	)
	room.Do(func(g *game.Game) {
		wasLive := g.Started() && !g.Over()
		removed = g.RemovePlayer(conn.PlayerID())
		if !removed {
			return
		}
		remaining = g.PlayerCount()
		if remaining == 0 {
			return
		}
		if wasLive {
			g.EndGame()
			ended = true
			status = g.CheckGameOver()
		}
		state = g.Public()
	})

	if !removed {
		return
	}
	if remaining == 0 {
		// Re-checked under the registry lock: a join that raced the
		// departure keeps the room.
		s.manager.DeleteIfEmpty(roomID)
		return
	}

	left, _ := NewMessage(MessageTypePlayerLeft, PlayerLeftData{
		PlayerID:   conn.PlayerID(),
		PlayerName: playerName,
		Players:    rosterFromState(state),
		Message:    playerName + " has left the game.",
	})
	s.BroadcastToRoom(roomID, left)

	if ended {
		over, _ := NewMessage(MessageTypeGameOver, GameOverData{
			FinishedPlayers: status.FinishedPlayers,
			Message:         fmt.Sprintf("The game ended because %s left.", playerName),
		})
		s.BroadcastToRoom(roomID, over)
	}
}

// handleWebSocket handles websocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s)
	s.register <- client
	client.Start()

	go s.watchConnection(client)
}

// watchConnection hands the connection to the unregister path when it
// closes. Once the server context is cancelled the run loop is gone, so
// the send must not block.
func (s *Server) watchConnection(client *Connection) {
	<-client.ctx.Done()
	select {
	case s.unregister <- client:
	case <-s.ctx.Done():
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// handleRooms serves a JSON snapshot of live rooms
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.manager.List()); err != nil {
		s.logger.Error("failed to encode room list", "error", err)
	}
}

// BroadcastToRoom sends a message to every connection in a room
func (s *Server) BroadcastToRoom(roomID string, msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.RoomID() == roomID {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Error("failed to send message", "error", err, "player", conn.PlayerID())
			} else {
				count++
			}
		}
	}

	s.logger.Debug("broadcast to room", "room", roomID, "type", msg.Type, "recipients", count)
}

// SendToPlayer sends a message to a specific player
func (s *Server) SendToPlayer(playerID string, msg *Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.PlayerID() == playerID {
			return conn.SendMessage(msg)
		}
	}

	return fmt.Errorf("player not found: %s", playerID)
}

// sendViews delivers each player their private projection.
func (s *Server) sendViews(views map[string]*game.PlayerView) {
	for playerID, view := range views {
		msg, err := NewMessage(MessageTypeGameState, view)
		if err != nil {
			s.logger.Error("failed to create game state message", "error", err)
			continue
		}
		if err := s.SendToPlayer(playerID, msg); err != nil {
			s.logger.Debug("could not deliver game state", "player", playerID, "error", err)
		}
	}
}

// broadcastGameOver announces the end of a game to a room.
func (s *Server) broadcastGameOver(roomID string, status game.Status, loserName string) {
	over, _ := NewMessage(MessageTypeGameOver, GameOverData{
		SkitGubbenID:    status.SkitGubben,
		SkitGubbenName:  loserName,
		FinishedPlayers: status.FinishedPlayers,
		Message:         "The game is over!",
	})
	s.BroadcastToRoom(roomID, over)
}
