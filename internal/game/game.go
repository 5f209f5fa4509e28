package game

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"skitgubben/internal/deck"
)

// rankOpen means any rank is playable.
const rankOpen = -1

// Result is the outcome of a player intent. Rule violations are expected,
// user-facing outcomes, so they come back as a failed Result with a
// message rather than an error.
type Result struct {
	Success bool
	Message string
}

func failure(message string) Result {
	return Result{Success: false, Message: message}
}

func success(format string, args ...interface{}) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

// Status is the outcome of a termination check.
type Status struct {
	GameOver        bool
	FinishedPlayers []string
	SkitGubben      string // loser's player ID, empty if none
}

// Game owns the full state of one room: deck, players' zones, pile, turn
// order and finish tracking. All mutation goes through its methods; the
// transport layer serializes intents per room, so Game itself is not
// safe for concurrent use.
type Game struct {
	roomID             string
	players            []*Player
	deck               *deck.Deck
	pile               []deck.Card
	burned             []deck.Card
	currentPlayerIndex int
	currentRank        int
	lastPlayerToPlay   int
	gameStarted        bool
	gameOver           bool
	skitGubben         string
	finishedPlayers    []string
	development        bool
	rng                *rand.Rand
	logger             *log.Logger
}

// NewGame creates the state for a fresh room. In development mode a game
// can start with a single player and only ends when no cards remain.
func NewGame(roomID string, development bool, rng *rand.Rand, logger *log.Logger) *Game {
	return &Game{
		roomID:           roomID,
		deck:             deck.New(rng),
		currentRank:      rankOpen,
		lastPlayerToPlay: -1,
		development:      development,
		rng:              rng,
		logger:           logger,
	}
}

// RoomID returns the room this game belongs to
func (g *Game) RoomID() string { return g.roomID }

// Development reports whether the game runs in development mode
func (g *Game) Development() bool { return g.development }

// Started reports whether the game has been started
func (g *Game) Started() bool { return g.gameStarted }

// Over reports whether the game has ended
func (g *Game) Over() bool { return g.gameOver }

// PlayerCount returns the number of players in the room
func (g *Game) PlayerCount() int { return len(g.players) }

// PlayerName resolves a player ID to its display name.
func (g *Game) PlayerName(id string) (string, bool) {
	if i := g.playerIndex(id); i >= 0 {
		return g.players[i].Name, true
	}
	return "", false
}

// AddPlayer appends a new player with empty zones. It fails without
// mutation once the game has started or when the ID is already present.
func (g *Game) AddPlayer(id, name string) bool {
	if g.gameStarted {
		return false
	}
	if g.playerIndex(id) >= 0 {
		return false
	}
	g.players = append(g.players, NewPlayer(id, name))
	g.logger.Debug("player added", "player", name, "players", len(g.players))
	return true
}

// RemovePlayer drops a player from the room. The departing player's cards
// leave play entirely (they are burned, not redistributed). The turn
// pointer is shifted so it keeps referring to the same logical player,
// and a started game with fewer than two players left is over.
func (g *Game) RemovePlayer(id string) bool {
	index := g.playerIndex(id)
	if index < 0 {
		return false
	}

	p := g.players[index]
	g.burned = append(g.burned, p.Hand...)
	g.burned = append(g.burned, p.TableCardsUp...)
	g.burned = append(g.burned, p.TableCardsDown...)
	g.players = append(g.players[:index], g.players[index+1:]...)

	if g.gameStarted && len(g.players) < 2 {
		g.gameOver = true
	}
	if g.currentPlayerIndex >= index && g.currentPlayerIndex > 0 {
		g.currentPlayerIndex--
	}

	g.logger.Debug("player removed", "player", p.Name, "players", len(g.players))
	return true
}

// StartGame resets the deck and all zones, deals, and picks a random
// starting player. With four or more players everyone gets two face-down
// and two face-up table cards, otherwise three of each; hands are always
// three cards. A finished game may be started again for another round;
// finish history from previous rounds is kept.
func (g *Game) StartGame() bool {
	if !g.development && len(g.players) < 2 {
		return false
	}
	if g.gameStarted && !g.gameOver {
		return false
	}

	g.gameStarted = true
	g.gameOver = false
	g.deck.Reset()
	g.deck.Shuffle()
	g.pile = g.pile[:0]
	g.burned = g.burned[:0]
	g.currentRank = rankOpen
	g.lastPlayerToPlay = -1
	g.skitGubben = ""

	tableCards := 3
	if len(g.players) > 3 {
		tableCards = 2
	}

	for _, p := range g.players {
		p.clearZones()
	}
	for _, p := range g.players {
		for i := 0; i < tableCards; i++ {
			if card, ok := g.deck.Deal(); ok {
				p.TableCardsDown = append(p.TableCardsDown, card)
			}
		}
		for i := 0; i < tableCards; i++ {
			if card, ok := g.deck.Deal(); ok {
				p.TableCardsUp = append(p.TableCardsUp, card)
			}
		}
		for i := 0; i < 3; i++ {
			if card, ok := g.deck.Deal(); ok {
				p.Hand = append(p.Hand, card)
			}
		}
	}

	g.currentPlayerIndex = g.rng.IntN(len(g.players))

	g.logger.Info("game started",
		"players", len(g.players),
		"tableCards", tableCards,
		"startingPlayer", g.players[g.currentPlayerIndex].Name)
	return true
}

// PlayCard plays the card at cardIndex from the acting player's hand, or
// from their table cards when fromTable is set. An illegal card is not an
// error: the player picks up the pile and the turn moves on, which is a
// successful game event.
func (g *Game) PlayCard(playerID string, cardIndex int, fromTable bool) Result {
	if !g.gameStarted || g.gameOver {
		return failure("The game has not started or is already over.")
	}
	playerIndex := g.playerIndex(playerID)
	if playerIndex < 0 {
		return failure("Player not found.")
	}
	if playerIndex != g.currentPlayerIndex {
		return failure("It is not your turn.")
	}

	player := g.players[playerIndex]

	var source *[]deck.Card
	if fromTable {
		if player.PlayingTableCards && len(player.TableCardsUp) > 0 {
			return failure("You must play all your face-up cards first!")
		}
		if player.PlayingTableCards {
			source = &player.TableCardsDown
		} else {
			source = &player.TableCardsUp
		}
	} else {
		source = &player.Hand
	}

	if cardIndex < 0 || cardIndex >= len(*source) {
		return failure("Invalid card selection.")
	}
	card := (*source)[cardIndex]

	// A two, ten or ace cannot be the very last card out.
	if len(player.Hand) == 0 && len(player.TableCardsUp) == 0 && len(player.TableCardsDown) == 1 &&
		(card.Value == deck.Two || card.Value == deck.Ten || card.Value == deck.Ace) {
		return failure("You cannot go out on a two, a ten or an ace!")
	}

	validPlay := false
	switch {
	case card.Value == deck.Two:
		// A two resets the rank and can be played on anything.
		validPlay = true
		g.currentRank = rankOpen
	case card.Value == deck.Ten:
		// A ten burns the pile and never joins it.
		validPlay = true
		g.burnPile()
		g.currentRank = rankOpen
	case g.currentRank == rankOpen || playerIndex == g.lastPlayerToPlay:
		validPlay = true
		g.currentRank = card.Rank()
	case card.Rank() > g.currentRank:
		// Equal rank is not enough; the pile must be strictly beaten.
		validPlay = true
		g.currentRank = card.Rank()
	}

	if validPlay {
		*source = append((*source)[:cardIndex], (*source)[cardIndex+1:]...)

		if card.Value == deck.Ten {
			g.burned = append(g.burned, card)
		} else {
			g.pile = append(g.pile, card)
		}
		g.lastPlayerToPlay = playerIndex

		if !fromTable {
			g.drawCardsToMinimum(player)
		}
		if len(player.TableCardsUp) == 0 && len(player.TableCardsDown) > 0 {
			player.PlayingTableCards = true
		}

		g.nextPlayer()

		g.logger.Debug("card played", "player", player.Name, "card", card.String())
		return success("%s played %s", player.Name, card)
	}

	// Illegal card: the acting player takes the whole pile into hand and
	// the turn still advances.
	player.Hand = append(player.Hand, g.pile...)
	g.pile = g.pile[:0]
	g.currentRank = rankOpen
	g.nextPlayer()

	g.logger.Debug("pile picked up", "player", player.Name, "card", card.String())
	return success("%s could not play %s and picks up the pile!", player.Name, card)
}

// DrawCard lets the acting player draw a chance card, but only when
// nothing in their hand is playable and the deck still has cards. The
// drawn card is played immediately when it can be; otherwise it joins
// the hand together with the pile.
func (g *Game) DrawCard(playerID string) Result {
	if !g.gameStarted || g.gameOver {
		return failure("The game has not started or is already over.")
	}
	playerIndex := g.playerIndex(playerID)
	if playerIndex < 0 {
		return failure("Player not found.")
	}
	if playerIndex != g.currentPlayerIndex {
		return failure("It is not your turn.")
	}

	player := g.players[playerIndex]

	for _, card := range player.Hand {
		if g.handCardPlayable(card) {
			return failure("You can still play a card from your hand.")
		}
	}

	card, ok := g.deck.Deal()
	if !ok {
		return failure("There are no cards left in the deck.")
	}

	validPlay := false
	specialAction := false
	switch {
	case card.Value == deck.Two:
		validPlay = true
		specialAction = true
		g.currentRank = rankOpen
	case card.Value == deck.Ten:
		validPlay = true
		specialAction = true
		g.burnPile()
		g.currentRank = rankOpen
	case g.currentRank == rankOpen || card.Rank() >= g.currentRank:
		// Note the >= here: a drawn card ties with the pile where a played
		// one would not. This mirrors the original game's behavior.
		validPlay = true
		g.currentRank = card.Rank()
	}

	if validPlay {
		if card.Value == deck.Ten {
			g.burned = append(g.burned, card)
		} else {
			g.pile = append(g.pile, card)
		}
		g.lastPlayerToPlay = playerIndex

		// A special card earns the player another turn on the draw path.
		if !specialAction {
			g.nextPlayer()
		}

		g.logger.Debug("card drawn and played", "player", player.Name, "card", card.String(), "special", specialAction)
		if specialAction {
			return success("%s drew and played %s (special card!)", player.Name, card)
		}
		return success("%s drew and played %s", player.Name, card)
	}

	player.Hand = append(player.Hand, card)
	player.Hand = append(player.Hand, g.pile...)
	g.pile = g.pile[:0]
	g.currentRank = rankOpen
	g.nextPlayer()

	g.logger.Debug("card drawn, pile picked up", "player", player.Name, "card", card.String())
	return success("%s drew %s but could not play it and picks up the pile!", player.Name, card)
}

// handCardPlayable is the draw-eligibility test. Unlike PlayCard it
// treats an equal rank as playable.
func (g *Game) handCardPlayable(card deck.Card) bool {
	if card.Value == deck.Two || card.Value == deck.Ten {
		return true
	}
	return g.currentRank == rankOpen || card.Rank() >= g.currentRank
}

// drawCardsToMinimum tops the hand back up to three cards. An empty deck
// simply leaves the hand short.
func (g *Game) drawCardsToMinimum(player *Player) {
	for len(player.Hand) < 3 && !g.deck.IsEmpty() {
		if card, ok := g.deck.Deal(); ok {
			player.Hand = append(player.Hand, card)
		}
	}
}

// nextPlayer advances the turn pointer to the next player who still has
// cards. If a full cycle finds nobody, the pile and rank reset; the
// termination check is expected to catch this state.
func (g *Game) nextPlayer() {
	count := 0
	for {
		g.currentPlayerIndex = (g.currentPlayerIndex + 1) % len(g.players)
		count++

		if g.players[g.currentPlayerIndex].HasCards() {
			return
		}
		if count > len(g.players) {
			g.currentRank = rankOpen
			g.burnPile()
			return
		}
	}
}

// burnPile removes the pile from play without giving it to anyone.
func (g *Game) burnPile() {
	g.burned = append(g.burned, g.pile...)
	g.pile = g.pile[:0]
}

// CheckGameOver records newly finished players in the order they first
// emptied all three zones, then decides whether the game is over. In
// development mode it only ends once nobody has cards; in normal mode it
// ends when at most one active player remains, and that player is the
// skitgubben.
func (g *Game) CheckGameOver() Status {
	for _, p := range g.players {
		if !p.HasCards() && !g.isFinished(p.ID) {
			g.finishedPlayers = append(g.finishedPlayers, p.ID)
		}
	}

	active := 0
	var lastActive *Player
	for _, p := range g.players {
		if p.HasCards() {
			active++
			lastActive = p
		}
	}

	if g.development {
		if active == 0 {
			g.gameOver = true
		}
		return g.status()
	}

	if active <= 1 {
		g.gameOver = true
		if lastActive != nil {
			g.skitGubben = lastActive.ID
			if !g.isFinished(g.skitGubben) {
				g.finishedPlayers = append(g.finishedPlayers, g.skitGubben)
			}
		}
		g.logger.Info("game over", "skitgubben", g.skitGubben, "finished", len(g.finishedPlayers))
	}
	return g.status()
}

func (g *Game) status() Status {
	return Status{
		GameOver:        g.gameOver,
		FinishedPlayers: append([]string(nil), g.finishedPlayers...),
		SkitGubben:      g.skitGubben,
	}
}

// EndGame force-ends a running game, used when a player departs mid-play.
func (g *Game) EndGame() {
	g.gameOver = true
}

func (g *Game) isFinished(playerID string) bool {
	for _, id := range g.finishedPlayers {
		if id == playerID {
			return true
		}
	}
	return false
}

func (g *Game) playerIndex(playerID string) int {
	for i, p := range g.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// ValidateCardConservation checks that every one of the 52 cards sits in
// exactly one zone (deck, a player's zones, the pile, or the burn pile).
// A violation is a programming defect, never a game outcome.
func (g *Game) ValidateCardConservation() error {
	seen := make(map[deck.Card]int, 52)
	track := func(cards []deck.Card) {
		for _, c := range cards {
			seen[c]++
		}
	}

	track(g.deck.Cards())
	track(g.pile)
	track(g.burned)
	for _, p := range g.players {
		track(p.Hand)
		track(p.TableCardsUp)
		track(p.TableCardsDown)
	}

	total := 0
	for card, n := range seen {
		if n != 1 {
			return fmt.Errorf("card %s appears %d times", card, n)
		}
		total++
	}
	if total != 52 {
		return fmt.Errorf("expected 52 distinct cards in play, found %d", total)
	}
	return nil
}
