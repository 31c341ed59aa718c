package server

import (
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/squeakgame/squeak/pkg/cards"
	"github.com/squeakgame/squeak/pkg/squeak"
)

// BoardCellSnapshot is the public view of one shared build pile.
type BoardCellSnapshot struct {
	Top   *cards.Card `json:"top"`
	Count int         `json:"count"`
}

// PlayerSnapshot is the public view of one seated player. Face-down piles
// appear only as counts; the exposed window and squeak stacks are face up
// for everyone.
type PlayerSnapshot struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	IsBot        bool           `json:"isBot"`
	Disconnected bool           `json:"disconnected"`

	DrawPileCount   int            `json:"drawPileCount"`
	ExposedWindow   []*cards.Card  `json:"exposedWindow"`
	SqueakDeckCount int            `json:"squeakDeckCount"`
	SqueakStacks    [][]cards.Card `json:"squeakStacks"`

	TotalPoints int `json:"totalPoints"`
	Rank        int `json:"rank"`
}

// RoomSnapshot is the full authoritative view of a room, sufficient for a
// client to rebuild its display from scratch.
type RoomSnapshot struct {
	RoomID  string                                                `json:"roomId"`
	Round   int                                                   `json:"round"`
	Frozen  bool                                                  `json:"frozen"`
	Board   [squeak.BoardRows][squeak.BoardCols]BoardCellSnapshot `json:"board"`
	Players []*PlayerSnapshot                                     `json:"players"`

	Timestamp time.Time `json:"timestamp"`
}

// BuildRoomSnapshot captures the public state of the game. Must run on
// the room's actor goroutine.
func BuildRoomSnapshot(roomID string, g *squeak.Game) *RoomSnapshot {
	snap := &RoomSnapshot{
		RoomID:    roomID,
		Round:     g.Round,
		Frozen:    g.Frozen(),
		Timestamp: time.Now(),
	}
	for row := 0; row < squeak.BoardRows; row++ {
		for col := 0; col < squeak.BoardCols; col++ {
			cell := g.Board[row][col]
			var top *cards.Card
			if cell.Top != nil {
				c := *cell.Top
				top = &c
			}
			snap.Board[row][col] = BoardCellSnapshot{Top: top, Count: cell.Count}
		}
	}
	for _, p := range g.Players() {
		ps := &PlayerSnapshot{
			ID:              p.ID,
			Name:            p.Name,
			IsBot:           p.IsBot,
			Disconnected:    g.Disconnected[p.ID],
			DrawPileCount:   len(p.DrawPile),
			SqueakDeckCount: len(p.SqueakDeck),
			TotalPoints:     p.TotalPoints,
			Rank:            p.Rank,
		}
		for i := 0; i < squeak.ExposedWindowSize; i++ {
			if p.ExposedWindow[i] == nil {
				ps.ExposedWindow = append(ps.ExposedWindow, nil)
				continue
			}
			c := *p.ExposedWindow[i]
			ps.ExposedWindow = append(ps.ExposedWindow, &c)
		}
		for i := 0; i < squeak.NumSqueakStacks; i++ {
			ps.SqueakStacks = append(ps.SqueakStacks, append([]cards.Card(nil), p.SqueakStacks[i]...))
		}
		snap.Players = append(snap.Players, ps)
	}
	return snap
}

// ClientStateReport is the digest a client periodically submits so the
// server can detect drift: board tops plus the client's own pile counts.
type ClientStateReport struct {
	PlayerID string `json:"playerId"`

	// BoardTops is the client's view of every cell top in row-major
	// order; nil for an empty cell.
	BoardTops []*cards.Card `json:"boardTops"`

	DrawPileCount   int `json:"drawPileCount"`
	SqueakDeckCount int `json:"squeakDeckCount"`
	StackSizes      []int `json:"stackSizes"`
}

// diverged reports whether the client's digest disagrees with the
// authoritative state.
func diverged(g *squeak.Game, report *ClientStateReport) bool {
	if len(report.BoardTops) != squeak.BoardRows*squeak.BoardCols {
		return true
	}
	for row := 0; row < squeak.BoardRows; row++ {
		for col := 0; col < squeak.BoardCols; col++ {
			want := g.Board[row][col].Top
			got := report.BoardTops[row*squeak.BoardCols+col]
			if (want == nil) != (got == nil) {
				return true
			}
			if want != nil && !want.SameCard(*got) {
				return true
			}
		}
	}

	p, ok := g.Player(report.PlayerID)
	if !ok {
		return true
	}
	if report.DrawPileCount != len(p.DrawPile) || report.SqueakDeckCount != len(p.SqueakDeck) {
		return true
	}
	if len(report.StackSizes) != squeak.NumSqueakStacks {
		return true
	}
	for i := 0; i < squeak.NumSqueakStacks; i++ {
		if report.StackSizes[i] != len(p.SqueakStacks[i]) {
			return true
		}
	}
	return false
}

// Reconcile checks a client's digest against the authoritative state and,
// when they disagree, returns the full snapshot the client must replace
// its view with. Returns nil when the client is in sync. Must run on the
// room's actor goroutine.
func (r *Room) Reconcile(report *ClientStateReport) *RoomSnapshot {
	if !diverged(r.game, report) {
		return nil
	}
	r.log.Warnf("Client %s diverged from room %s state; forcing resync", report.PlayerID, r.ID)
	r.log.Debugf("Divergent client report:\n%s", spew.Sdump(report))
	return BuildRoomSnapshot(r.ID, r.game)
}
