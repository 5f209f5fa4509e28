package game

import (
	"skitgubben/internal/deck"
)

// RosterEntry is the room-wide view of one player: counts and face-up
// table cards only, never hand contents.
type RosterEntry struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	HandSize            int         `json:"handSize"`
	TableCardsUpCount   int         `json:"tableCardsUpCount"`
	TableCardsDownCount int         `json:"tableCardsDownCount"`
	TableCardsUp        []deck.Card `json:"tableCardsUp"`
	PlayingTableCards   bool        `json:"playingTableCards"`
	Connected           bool        `json:"connected"`
}

// PublicState is the room-wide projection broadcast to every client.
type PublicState struct {
	RoomID             string        `json:"roomId"`
	Players            []RosterEntry `json:"players"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	CurrentPlayerID    string        `json:"currentPlayerId"`
	CurrentPlayerName  string        `json:"currentPlayerName"`
	Pile               *deck.Card    `json:"pile"`
	FullPile           []deck.Card   `json:"fullPile"`
	PileSize           int           `json:"pileSize"`
	DeckSize           int           `json:"deckSize"`
	CurrentRank        *string       `json:"currentRank"`
	GameStarted        bool          `json:"gameStarted"`
	GameOver           bool          `json:"gameOver"`
	SkitGubben         string        `json:"skitGubben,omitempty"`
	FinishedPlayers    []string      `json:"finishedPlayers"`
	Development        bool          `json:"isDevelopment"`
}

// PlayerView is the per-player projection: the public state plus the
// requesting player's own zones.
type PlayerView struct {
	PublicState
	Hand              []deck.Card `json:"hand"`
	TableCardsUp      []deck.Card `json:"tableCardsUp"`
	TableCardsDown    []deck.Card `json:"tableCardsDown"`
	PlayingTableCards bool        `json:"playingTableCards"`
}

// Public derives the room-wide view. It is computed fresh on every call
// and never aliases engine state.
func (g *Game) Public() PublicState {
	players := make([]RosterEntry, len(g.players))
	for i, p := range g.players {
		players[i] = RosterEntry{
			ID:                  p.ID,
			Name:                p.Name,
			HandSize:            len(p.Hand),
			TableCardsUpCount:   len(p.TableCardsUp),
			TableCardsDownCount: len(p.TableCardsDown),
			TableCardsUp:        copyCards(p.TableCardsUp),
			PlayingTableCards:   p.PlayingTableCards,
			Connected:           p.Connected,
		}
	}

	state := PublicState{
		RoomID:             g.roomID,
		Players:            players,
		CurrentPlayerIndex: g.currentPlayerIndex,
		FullPile:           copyCards(g.pile),
		PileSize:           len(g.pile),
		DeckSize:           g.deck.Len(),
		GameStarted:        g.gameStarted,
		GameOver:           g.gameOver,
		SkitGubben:         g.skitGubben,
		FinishedPlayers:    append([]string{}, g.finishedPlayers...),
		Development:        g.development,
	}

	if g.currentPlayerIndex >= 0 && g.currentPlayerIndex < len(g.players) {
		state.CurrentPlayerID = g.players[g.currentPlayerIndex].ID
		state.CurrentPlayerName = g.players[g.currentPlayerIndex].Name
	}
	if len(g.pile) > 0 {
		top := g.pile[len(g.pile)-1]
		state.Pile = &top
	}
	if g.currentRank != rankOpen {
		rank := deck.ValueFromRank(g.currentRank).String()
		state.CurrentRank = &rank
	}
	return state
}

// View derives the private projection for one player. Returns nil for an
// unknown player ID.
func (g *Game) View(playerID string) *PlayerView {
	index := g.playerIndex(playerID)
	if index < 0 {
		return nil
	}
	p := g.players[index]

	return &PlayerView{
		PublicState:       g.Public(),
		Hand:              copyCards(p.Hand),
		TableCardsUp:      copyCards(p.TableCardsUp),
		TableCardsDown:    copyCards(p.TableCardsDown),
		PlayingTableCards: p.PlayingTableCards,
	}
}

func copyCards(cards []deck.Card) []deck.Card {
	out := make([]deck.Card, len(cards))
	copy(out, cards)
	return out
}
