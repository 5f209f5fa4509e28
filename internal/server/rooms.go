package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"skitgubben/internal/game"
	"skitgubben/internal/randutil"
)

// Room pairs a game with the mutex that serializes intents for it.
// Rooms are fully independent; locking one never touches another.
type Room struct {
	ID string

	mu   sync.Mutex
	game *game.Game
}

// Do runs fn with exclusive access to the room's game. All reads and
// mutations of engine state go through here so concurrent intents for
// the same room serialize.
func (r *Room) Do(fn func(g *game.Game)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.game)
}

// RoomSummary holds lightweight room metadata for the /rooms listing.
type RoomSummary struct {
	ID          string `json:"id"`
	Players     int    `json:"players"`
	Started     bool   `json:"started"`
	Over        bool   `json:"over"`
	Development bool   `json:"isDevelopment"`
}

// RoomManager owns the process-wide room registry: rooms are created on
// the first join to an ID and deleted when the last player leaves.
type RoomManager struct {
	logger *log.Logger
	seed   *int64
	seq    atomic.Int64

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRoomManager constructs an empty registry. A non-nil seed makes room
// RNGs deterministic (each room derives its own stream from seed+N).
func NewRoomManager(logger *log.Logger, seed *int64) *RoomManager {
	return &RoomManager{
		logger: logger.WithPrefix("rooms"),
		seed:   seed,
		rooms:  make(map[string]*Room),
	}
}

// GetOrCreate returns the room for an ID, creating it on first use.
// The development flag only applies when the room is created.
func (rm *RoomManager) GetOrCreate(roomID string, development bool) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.getOrCreateLocked(roomID, development)
}

func (rm *RoomManager) getOrCreateLocked(roomID string, development bool) *Room {
	if room, ok := rm.rooms[roomID]; ok {
		return room
	}

	rng := randutil.New(rm.nextSeed())
	gameLogger := rm.logger.WithPrefix("game").With("room", roomID)
	room := &Room{
		ID:   roomID,
		game: game.NewGame(roomID, development, rng, gameLogger),
	}
	rm.rooms[roomID] = room
	rm.logger.Info("room created", "room", roomID, "development", development)
	return room
}

// JoinRoom adds a player to a room, creating the room on first join. The
// registry lock is held across the add so an empty-room cleanup running
// concurrently can never delete the room out from under a fresh joiner.
func (rm *RoomManager) JoinRoom(roomID string, development bool, playerID, playerName string) (*Room, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room := rm.getOrCreateLocked(roomID, development)
	added := false
	room.Do(func(g *game.Game) {
		added = g.AddPlayer(playerID, playerName)
	})
	return room, added
}

// Get retrieves an existing room
func (rm *RoomManager) Get(roomID string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	room, ok := rm.rooms[roomID]
	return room, ok
}

// Delete removes a room from the registry
func (rm *RoomManager) Delete(roomID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, ok := rm.rooms[roomID]; ok {
		delete(rm.rooms, roomID)
		rm.logger.Info("room deleted", "room", roomID)
	}
}

// DeleteIfEmpty removes a room only when it has no players, re-checking
// the count under the registry lock. A join that lands between the last
// departure and the cleanup keeps the room alive.
func (rm *RoomManager) DeleteIfEmpty(roomID string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[roomID]
	if !ok {
		return false
	}

	empty := false
	room.Do(func(g *game.Game) {
		empty = g.PlayerCount() == 0
	})
	if !empty {
		return false
	}

	delete(rm.rooms, roomID)
	rm.logger.Info("room deleted", "room", roomID)
	return true
}

// Count returns the number of live rooms
func (rm *RoomManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// List returns a snapshot of all rooms for the admin listing.
func (rm *RoomManager) List() []RoomSummary {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		room.Do(func(g *game.Game) {
			summaries = append(summaries, RoomSummary{
				ID:          room.ID,
				Players:     g.PlayerCount(),
				Started:     g.Started(),
				Over:        g.Over(),
				Development: g.Development(),
			})
		})
	}
	return summaries
}

func (rm *RoomManager) nextSeed() int64 {
	if rm.seed != nil {
		return *rm.seed + rm.seq.Add(1) - 1
	}
	return time.Now().UnixNano() + rm.seq.Add(1)
}
