package squeak

import (
	"math/rand"
	"time"

	"github.com/squeakgame/squeak/pkg/cards"
)

// Board dimensions: 20 shared build piles.
const (
	BoardRows = 4
	BoardCols = 5
)

// BoardCell is one shared pile, built upward by suit from Ace. Only the
// top card matters for validation; the count is kept for snapshots.
type BoardCell struct {
	Top   *cards.Card
	Count int

	// LastPlacedAt is consumed only by the bot engine's contention
	// cooldown, never by human move validation.
	LastPlacedAt time.Time
}

// Config holds the room settings the engine needs.
type Config struct {
	PointsToWin int

	// Seed gives deterministic deals when non-zero.
	Seed int64

	// Now is the clock used for cell timestamps and bot cooldowns.
	// Defaults to time.Now; tests substitute a fake.
	Now func() time.Time
}

// Game is the authoritative card state for one room. It is owned by that
// room's actor goroutine and is not safe for concurrent use; all access
// goes through the room's command queue.
type Game struct {
	Board [BoardRows][BoardCols]BoardCell

	players map[string]*Player
	order   []string // seat order, stable for ranking tie-breaks

	Round int

	// Disconnected marks players who left mid-round: their cards stay
	// in play but they cannot act, and votes auto-record them as agree.
	Disconnected map[string]bool

	pointsToWin int
	rng         *rand.Rand
	now         func() time.Time

	// frozen blocks all mutation between a round-end trigger and the
	// next deal, preventing a second squeak from double-scoring.
	frozen bool

	// stuckRotations counts consecutive stuck cycles; at the cap the
	// detector forces a round reset instead of another rotation.
	stuckRotations int

	// blacklist remembers, per bot, cards recently shuffled between
	// squeak stacks and the stack they came from, so the bot does not
	// immediately undo its own move. Entries clear when the card is
	// played to the board.
	blacklist map[string]map[string]int

	vote *voteState
}

// NewGame creates an empty game for the given seated players, in seat
// order. Cards are not dealt until StartRound.
func NewGame(cfg Config, players []*Player) *Game {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	g := &Game{
		players:      make(map[string]*Player, len(players)),
		order:        make([]string, 0, len(players)),
		Disconnected: make(map[string]bool),
		pointsToWin:  cfg.PointsToWin,
		rng:          rand.New(rand.NewSource(seed)),
		now:          now,
		blacklist:    make(map[string]map[string]int),
	}
	for _, p := range players {
		g.players[p.ID] = p
		g.order = append(g.order, p.ID)
	}
	return g
}

// StartRound clears the board, deals every player a fresh 52-card
// allocation and unfreezes the game. Scores and ranks persist across
// rounds.
func (g *Game) StartRound() {
	g.Round++
	g.frozen = false
	g.stuckRotations = 0
	g.vote = nil
	g.Board = [BoardRows][BoardCols]BoardCell{}
	g.blacklist = make(map[string]map[string]int)

	for _, id := range g.order {
		g.players[id].deal(g.rng)
	}
}

// Player returns the player with the given ID.
func (g *Game) Player(id string) (*Player, bool) {
	p, ok := g.players[id]
	return p, ok
}

// Players returns the seated players in seat order.
func (g *Game) Players() []*Player {
	out := make([]*Player, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.players[id])
	}
	return out
}

// PlayerIDs returns the seated player IDs in seat order.
func (g *Game) PlayerIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Frozen reports whether the round has been frozen for scoring.
func (g *Game) Frozen() bool {
	return g.frozen
}

// Freeze marks the round as frozen so no further mutation (or second
// squeak) can slip in while scoring runs.
func (g *Game) Freeze() {
	g.frozen = true
}

// MarkDisconnected records a mid-round leaver. Idempotent.
func (g *Game) MarkDisconnected(playerID string) {
	if _, ok := g.players[playerID]; ok {
		g.Disconnected[playerID] = true
	}
}

// canAct reports whether the player may currently mutate game state.
func (g *Game) canAct(playerID string) error {
	if g.frozen {
		return ErrRoundFrozen
	}
	if _, ok := g.players[playerID]; !ok {
		return ErrPlayerNotFound
	}
	if g.Disconnected[playerID] {
		return ErrNotSeated
	}
	return nil
}

// cell returns the board cell at (row, col), or nil when out of bounds.
func (g *Game) cell(row, col int) *BoardCell {
	if row < 0 || row >= BoardRows || col < 0 || col >= BoardCols {
		return nil
	}
	return &g.Board[row][col]
}
