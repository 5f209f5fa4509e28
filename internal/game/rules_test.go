package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skitgubben/internal/deck"
)

// rigGame returns a started game with staged zones: every player holds a
// single filler nine so they stay in the turn rotation until a test
// replaces their hand.
func rigGame(names ...string) *Game {
	g := newTestGame(false, names...)
	g.gameStarted = true
	g.currentPlayerIndex = 0
	for i, p := range g.players {
		p.clearZones()
		p.Hand = []deck.Card{deck.NewCard(deck.Suit(i%4), deck.Nine)}
	}
	return g
}

func drainDeck(g *Game) {
	for {
		if _, ok := g.deck.Deal(); !ok {
			return
		}
	}
}

// dealUntil discards from the deck until the next card to be dealt
// matches, and returns it.
func dealUntil(g *Game, match func(deck.Card) bool) deck.Card {
	for {
		cards := g.deck.Cards()
		top := cards[len(cards)-1]
		if match(top) {
			return top
		}
		g.deck.Deal()
	}
}

func TestOpeningPlaySetsRank(t *testing.T) {
	g := rigGame("Alice", "Bob")
	drainDeck(g)
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Hearts, deck.Five), deck.NewCard(deck.Diamonds, deck.Three)}

	res := g.PlayCard("p1", 0, false)

	require.True(t, res.Success)
	assert.Equal(t, "Alice played 5♥", res.Message)
	assert.Equal(t, deck.Five.Rank(), g.currentRank, "a five carries rank index 3")
	assert.Equal(t, []deck.Card{deck.NewCard(deck.Hearts, deck.Five)}, g.pile)
	assert.Equal(t, 0, g.lastPlayerToPlay)
	assert.Equal(t, 1, g.currentPlayerIndex)
}

func TestEqualRankPicksUpPile(t *testing.T) {
	g := rigGame("Alice", "Bob")
	drainDeck(g)
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Hearts, deck.Five), deck.NewCard(deck.Diamonds, deck.Three)}
	g.players[1].Hand = []deck.Card{deck.NewCard(deck.Spades, deck.Five)}

	require.True(t, g.PlayCard("p1", 0, false).Success)

	res := g.PlayCard("p2", 0, false)
	require.True(t, res.Success, "a failed play is still a valid game event")
	assert.Contains(t, res.Message, "picks up the pile")

	// Bob keeps his five and takes the pile
	assert.Len(t, g.players[1].Hand, 2)
	assert.Empty(t, g.pile)
	assert.Equal(t, rankOpen, g.currentRank)
	assert.Equal(t, 0, g.currentPlayerIndex)
}

func TestLowerRankPicksUpPile(t *testing.T) {
	g := rigGame("Alice", "Bob")
	drainDeck(g)
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Hearts, deck.Five), deck.NewCard(deck.Diamonds, deck.Three)}
	g.players[1].Hand = []deck.Card{deck.NewCard(deck.Spades, deck.Four)}

	require.True(t, g.PlayCard("p1", 0, false).Success)

	res := g.PlayCard("p2", 0, false)
	require.True(t, res.Success)
	assert.Contains(t, res.Message, "picks up the pile")
	assert.Len(t, g.players[1].Hand, 2)
}

func TestHigherRankBeatsPile(t *testing.T) {
	g := rigGame("Alice", "Bob")
	drainDeck(g)
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Hearts, deck.Five), deck.NewCard(deck.Diamonds, deck.Three)}
	g.players[1].Hand = []deck.Card{deck.NewCard(deck.Spades, deck.Six), deck.NewCard(deck.Clubs, deck.Three)}

	require.True(t, g.PlayCard("p1", 0, false).Success)

	res := g.PlayCard("p2", 0, false)
	require.True(t, res.Success)
	assert.Equal(t, "Bob played 6♠", res.Message)
	assert.Equal(t, deck.Six.Rank(), g.currentRank)
	assert.Len(t, g.pile, 2)
}

func TestTwoResetsRank(t *testing.T) {
	g := rigGame("Alice", "Bob")
	drainDeck(g)
	g.currentRank = deck.Queen.Rank()
	g.lastPlayerToPlay = 1
	g.pile = []deck.Card{deck.NewCard(deck.Hearts, deck.Queen)}
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Clubs, deck.Two), deck.NewCard(deck.Diamonds, deck.Three)}

	res := g.PlayCard("p1", 0, false)

	require.True(t, res.Success)
	assert.Equal(t, rankOpen, g.currentRank, "a two always opens the rank")
	assert.Len(t, g.pile, 2, "the two joins the pile")
}

func TestTenBurnsPile(t *testing.T) {
	g := rigGame("Alice", "Bob")
	drainDeck(g)
	g.currentRank = deck.Queen.Rank()
	g.lastPlayerToPlay = 1
	g.pile = []deck.Card{deck.NewCard(deck.Hearts, deck.Queen), deck.NewCard(deck.Spades, deck.Jack)}
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Diamonds, deck.Ten), deck.NewCard(deck.Diamonds, deck.Three)}

	res := g.PlayCard("p1", 0, false)

	require.True(t, res.Success)
	assert.Empty(t, g.pile, "a ten clears the pile")
	assert.Equal(t, rankOpen, g.currentRank)
	assert.Len(t, g.burned, 3, "pile and the ten itself leave play")
	assert.Equal(t, 0, g.lastPlayerToPlay)
}

func TestUncontestedPileMayBeRestarted(t *testing.T) {
	g := rigGame("Alice", "Bob")
	drainDeck(g)
	g.currentRank = deck.Queen.Rank()
	g.lastPlayerToPlay = 0
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Clubs, deck.Three), deck.NewCard(deck.Diamonds, deck.Four)}

	res := g.PlayCard("p1", 0, false)

	require.True(t, res.Success, "last player to play may start over below the rank")
	assert.Equal(t, deck.Three.Rank(), g.currentRank)
}

func TestGoingOutRestriction(t *testing.T) {
	for _, value := range []deck.Value{deck.Two, deck.Ten, deck.Ace} {
		t.Run(value.String(), func(t *testing.T) {
			g := rigGame("Alice", "Bob")
			drainDeck(g)
			p := g.players[0]
			p.Hand = nil
			p.TableCardsUp = nil
			p.TableCardsDown = []deck.Card{deck.NewCard(deck.Spades, value)}
			p.PlayingTableCards = true

			res := g.PlayCard("p1", 0, true)

			assert.False(t, res.Success)
			assert.Equal(t, "You cannot go out on a two, a ten or an ace!", res.Message)
			assert.Len(t, p.TableCardsDown, 1, "no mutation on rejection")
			assert.Equal(t, 0, g.currentPlayerIndex)
		})
	}

	t.Run("a normal card may go out", func(t *testing.T) {
		g := rigGame("Alice", "Bob")
		drainDeck(g)
		p := g.players[0]
		p.Hand = nil
		p.TableCardsUp = nil
		p.TableCardsDown = []deck.Card{deck.NewCard(deck.Spades, deck.Seven)}
		p.PlayingTableCards = true

		res := g.PlayCard("p1", 0, true)

		require.True(t, res.Success)
		assert.False(t, p.HasCards())
	})
}

func TestFaceUpCardsComeFirst(t *testing.T) {
	g := rigGame("Alice", "Bob")
	p := g.players[0]
	p.PlayingTableCards = true
	p.TableCardsUp = []deck.Card{deck.NewCard(deck.Diamonds, deck.Nine)}
	p.TableCardsDown = []deck.Card{deck.NewCard(deck.Spades, deck.King)}

	res := g.PlayCard("p1", 0, true)

	assert.False(t, res.Success)
	assert.Equal(t, "You must play all your face-up cards first!", res.Message)
}

func TestTableModeFlips(t *testing.T) {
	t.Run("after last hand card with empty deck", func(t *testing.T) {
		g := rigGame("Alice", "Bob")
		drainDeck(g)
		p := g.players[0]
		p.Hand = []deck.Card{deck.NewCard(deck.Hearts, deck.Eight)}
		p.TableCardsUp = nil
		p.TableCardsDown = []deck.Card{deck.NewCard(deck.Spades, deck.King)}

		require.True(t, g.PlayCard("p1", 0, false).Success)
		assert.True(t, p.PlayingTableCards)
	})

	t.Run("after last face-up card", func(t *testing.T) {
		g := rigGame("Alice", "Bob")
		drainDeck(g)
		p := g.players[0]
		p.Hand = nil
		p.TableCardsUp = []deck.Card{deck.NewCard(deck.Diamonds, deck.Nine)}
		p.TableCardsDown = []deck.Card{deck.NewCard(deck.Spades, deck.King)}

		require.True(t, g.PlayCard("p1", 0, true).Success)
		assert.True(t, p.PlayingTableCards)

		// the mode never reverts, and subsequent table plays hit face-down
		g.currentPlayerIndex = 0
		require.True(t, g.PlayCard("p1", 0, true).Success)
		assert.Empty(t, p.TableCardsDown)
	})
}

func TestHandToppedUpToThree(t *testing.T) {
	g := rigGame("Alice", "Bob")
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Hearts, deck.Five)}

	require.True(t, g.PlayCard("p1", 0, false).Success)
	assert.Len(t, g.players[0].Hand, 3, "hand refills from the deck after a hand play")
}

func TestPlayCardRejections(t *testing.T) {
	t.Run("not started", func(t *testing.T) {
		g := newTestGame(false, "Alice", "Bob")
		res := g.PlayCard("p1", 0, false)
		assert.False(t, res.Success)
		assert.Equal(t, "The game has not started or is already over.", res.Message)
	})

	t.Run("already over", func(t *testing.T) {
		g := rigGame("Alice", "Bob")
		g.EndGame()
		res := g.PlayCard("p1", 0, false)
		assert.False(t, res.Success)
		assert.Equal(t, "The game has not started or is already over.", res.Message)
	})

	t.Run("unknown player", func(t *testing.T) {
		g := rigGame("Alice", "Bob")
		res := g.PlayCard("ghost", 0, false)
		assert.False(t, res.Success)
		assert.Equal(t, "Player not found.", res.Message)
	})

	t.Run("not your turn", func(t *testing.T) {
		g := rigGame("Alice", "Bob")
		res := g.PlayCard("p2", 0, false)
		assert.False(t, res.Success)
		assert.Equal(t, "It is not your turn.", res.Message)
	})

	t.Run("index out of range", func(t *testing.T) {
		g := rigGame("Alice", "Bob")
		res := g.PlayCard("p1", 5, false)
		assert.False(t, res.Success)
		assert.Equal(t, "Invalid card selection.", res.Message)
	})
}

func TestDrawRejectedWhenHandPlayable(t *testing.T) {
	tests := []struct {
		name string
		card deck.Card
	}{
		// note: an equal rank counts as playable on the draw path, unlike
		// the strict beat required by PlayCard
		{"equal rank", deck.NewCard(deck.Spades, deck.Five)},
		{"higher rank", deck.NewCard(deck.Spades, deck.King)},
		{"a two", deck.NewCard(deck.Clubs, deck.Two)},
		{"a ten", deck.NewCard(deck.Diamonds, deck.Ten)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := rigGame("Alice", "Bob")
			g.currentRank = deck.Five.Rank()
			g.lastPlayerToPlay = 1
			g.players[0].Hand = []deck.Card{tt.card}

			res := g.DrawCard("p1")
			assert.False(t, res.Success)
			assert.Equal(t, "You can still play a card from your hand.", res.Message)
		})
	}
}

func TestDrawRejectedWhenDeckEmpty(t *testing.T) {
	g := rigGame("Alice", "Bob")
	drainDeck(g)
	g.currentRank = deck.Queen.Rank()
	g.lastPlayerToPlay = 1
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Clubs, deck.Three)}

	res := g.DrawCard("p1")
	assert.False(t, res.Success)
	assert.Equal(t, "There are no cards left in the deck.", res.Message)
}

func TestDrawnTwoEarnsAnotherTurn(t *testing.T) {
	g := rigGame("Alice", "Bob")
	g.currentRank = deck.Queen.Rank()
	g.lastPlayerToPlay = 1
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Clubs, deck.Three)}
	dealUntil(g, func(c deck.Card) bool { return c.Value == deck.Two })

	res := g.DrawCard("p1")

	require.True(t, res.Success)
	assert.Contains(t, res.Message, "special card")
	assert.Equal(t, 0, g.currentPlayerIndex, "a drawn special card does not pass the turn")
	assert.Equal(t, rankOpen, g.currentRank)
	assert.Equal(t, deck.Two, g.pile[len(g.pile)-1].Value)
}

func TestDrawnTenBurnsPile(t *testing.T) {
	g := rigGame("Alice", "Bob")
	g.currentRank = deck.Queen.Rank()
	g.lastPlayerToPlay = 1
	g.pile = []deck.Card{deck.NewCard(deck.Hearts, deck.Queen)}
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Clubs, deck.Three)}
	dealUntil(g, func(c deck.Card) bool { return c.Value == deck.Ten })

	res := g.DrawCard("p1")

	require.True(t, res.Success)
	assert.Empty(t, g.pile)
	assert.Equal(t, rankOpen, g.currentRank)
	assert.Equal(t, 0, g.currentPlayerIndex)
}

func TestDrawnPlayableCardAdvancesTurn(t *testing.T) {
	g := rigGame("Alice", "Bob")
	g.currentRank = deck.Jack.Rank()
	g.lastPlayerToPlay = 1
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Clubs, deck.Three)}
	top := dealUntil(g, func(c deck.Card) bool {
		return c.Value != deck.Two && c.Value != deck.Ten && c.Rank() >= deck.Jack.Rank()
	})

	res := g.DrawCard("p1")

	require.True(t, res.Success)
	assert.Equal(t, top.Rank(), g.currentRank)
	assert.Equal(t, top, g.pile[len(g.pile)-1])
	assert.Equal(t, 1, g.currentPlayerIndex)
}

func TestDrawnUnplayableCardPicksUpPile(t *testing.T) {
	g := rigGame("Alice", "Bob")
	g.currentRank = deck.Ace.Rank()
	g.lastPlayerToPlay = 1
	g.pile = []deck.Card{deck.NewCard(deck.Spades, deck.Ace)}
	g.players[0].Hand = []deck.Card{deck.NewCard(deck.Clubs, deck.Three)}
	top := dealUntil(g, func(c deck.Card) bool {
		return c.Value != deck.Two && c.Value != deck.Ten && c.Value != deck.Ace
	})

	res := g.DrawCard("p1")

	require.True(t, res.Success)
	assert.Contains(t, res.Message, "picks up the pile")
	assert.Len(t, g.players[0].Hand, 3, "kept card, drawn card and the pile")
	assert.Contains(t, g.players[0].Hand, top)
	assert.Empty(t, g.pile)
	assert.Equal(t, rankOpen, g.currentRank)
	assert.Equal(t, 1, g.currentPlayerIndex)
}
