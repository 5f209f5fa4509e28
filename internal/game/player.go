package game

import (
	"skitgubben/internal/deck"
)

// Player holds one participant's card zones. The engine is the only
// mutator; everyone else sees players through projections.
type Player struct {
	ID                string
	Name              string
	Hand              []deck.Card
	TableCardsUp      []deck.Card
	TableCardsDown    []deck.Card
	PlayingTableCards bool
	Connected         bool
}

// NewPlayer creates a player with empty zones
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Connected: true,
	}
}

// HasCards returns true if any zone still holds a card
func (p *Player) HasCards() bool {
	return len(p.Hand) > 0 || len(p.TableCardsUp) > 0 || len(p.TableCardsDown) > 0
}

// CardCount returns the total number of cards across all three zones
func (p *Player) CardCount() int {
	return len(p.Hand) + len(p.TableCardsUp) + len(p.TableCardsDown)
}

// clearZones empties all three zones and leaves table-card mode.
func (p *Player) clearZones() {
	p.Hand = p.Hand[:0]
	p.TableCardsUp = p.TableCardsUp[:0]
	p.TableCardsDown = p.TableCardsDown[:0]
	p.PlayingTableCards = false
}
