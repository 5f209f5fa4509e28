package deck

import (
	"encoding/json"
	"fmt"
)

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// Value represents a card value in the shedding-game ordering:
// two is the lowest, ace the highest, independent of suit.
type Value int

const (
	Two Value = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a value
func (v Value) String() string {
	switch v {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		if v >= Two && v <= Ten {
			return fmt.Sprintf("%d", int(v))
		}
		return "?"
	}
}

// Rank returns the dense rank index (0 for two .. 12 for ace) used for
// play legality comparisons.
func (v Value) Rank() int {
	return int(v) - 2
}

// ValueFromRank returns the value for a dense rank index.
func ValueFromRank(rank int) Value {
	return Value(rank + 2)
}

// Card represents a playing card
type Card struct {
	Suit  Suit
	Value Value
}

// NewCard creates a new card
func NewCard(suit Suit, value Value) Card {
	return Card{Suit: suit, Value: value}
}

// String returns the string representation of a card (e.g., "10♥")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Value, c.Suit)
}

// Rank returns the card's dense rank index.
func (c Card) Rank() int {
	return c.Value.Rank()
}

// MarshalJSON encodes the card in the wire shape clients render:
// display strings for suit and value plus the rank index.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Suit  string `json:"suit"`
		Value string `json:"value"`
		Rank  int    `json:"rank"`
	}{
		Suit:  c.Suit.String(),
		Value: c.Value.String(),
		Rank:  c.Rank(),
	})
}
