package squeak

import (
	"github.com/squeakgame/squeak/pkg/cards"
)

// StuckRotationCap is how many consecutive stuck cycles are resolved by
// rotation before the detector gives up and forces a round reset.
const StuckRotationCap = 8

// StuckOutcome is the result of one stuck-game detector pass.
type StuckOutcome int

const (
	// StuckNone: at least one legal move exists somewhere; nothing done.
	StuckNone StuckOutcome = iota

	// StuckRotated: no legal move anywhere; every draw pile was rotated
	// by one card and all cursors reset.
	StuckRotated

	// StuckForcedReset: the rotation cap was hit; the round must be
	// ended with no squeak winner.
	StuckForcedReset
)

// boardAccepts reports whether the card can be legally placed on any
// board cell.
func (g *Game) boardAccepts(card cards.Card) bool {
	for row := 0; row < BoardRows; row++ {
		for col := 0; col < BoardCols; col++ {
			if cards.IsValidBoardPlacement(g.Board[row][col].Top, card) {
				return true
			}
		}
	}
	return false
}

// playerHasLegalMove reports whether the player could place anything on
// the board or relocate anything between their own squeak stacks. The
// scan covers every reachable draw-pile card, every squeak-stack top and
// every sub-stack opening card.
func (g *Game) playerHasLegalMove(p *Player) bool {
	// Currently exposed playable card plus everything reachable by
	// drawing alone.
	if c := p.PlayableCard(); c != nil {
		if g.boardAccepts(*c) {
			return true
		}
		for i := 0; i < NumSqueakStacks; i++ {
			if cards.IsValidStackPlacement(p.stackTop(i), *c) {
				return true
			}
		}
	}
	for _, c := range p.ReachableDrawCards() {
		if g.boardAccepts(c) {
			return true
		}
		for i := 0; i < NumSqueakStacks; i++ {
			if cards.IsValidStackPlacement(p.stackTop(i), c) {
				return true
			}
		}
	}

	// Squeak stack tops onto the board, and any-depth relocations onto
	// the player's own other stacks.
	for from := 0; from < NumSqueakStacks; from++ {
		stack := p.SqueakStacks[from]
		if top := p.stackTop(from); top != nil && g.boardAccepts(*top) {
			return true
		}
		for depth := range stack {
			for to := 0; to < NumSqueakStacks; to++ {
				if to == from {
					continue
				}
				if cards.IsValidStackPlacement(p.stackTop(to), stack[depth]) {
					return true
				}
			}
		}
	}

	// An empty stack slot with reserve cards left is always an action.
	if len(p.SqueakDeck) > 0 {
		for i := 0; i < NumSqueakStacks; i++ {
			if len(p.SqueakStacks[i]) == 0 {
				return true
			}
		}
	}

	return false
}

// AnyLegalMove reports whether any seated, connected player has any legal
// move anywhere.
func (g *Game) AnyLegalMove() bool {
	for _, id := range g.order {
		if g.Disconnected[id] {
			continue
		}
		if g.playerHasLegalMove(g.players[id]) {
			return true
		}
	}
	return false
}

// rotateDrawPile moves the front card of the pile to the back and fully
// resets the cursor and window. The parity shift is what unsticks the
// draw-three windowing.
func (p *Player) rotateDrawPile() {
	if len(p.DrawPile) > 1 {
		front := p.DrawPile[0]
		p.DrawPile = append(p.DrawPile[1:], front)
	}
	p.DrawCursor = -1
	p.ExposedWindow = [ExposedWindowSize]*cards.Card{}
}

// RotateAllDecks applies the rotation primitive to every player.
func (g *Game) RotateAllDecks() {
	for _, id := range g.order {
		g.players[id].rotateDrawPile()
	}
}

// MergeWindowsAndRotate folds each player's exposed window back into
// their draw pile and rotates by one card. This is the action of a
// passed rotate-decks vote; the cards are already in the pile, so merging
// is just a window reset before the rotation.
func (g *Game) MergeWindowsAndRotate() {
	g.RotateAllDecks()
}

// StuckTick runs one detector pass. When any legal move exists it resets
// the consecutive-stuck counter and does nothing. Otherwise it rotates
// every draw pile, or reports that the cap was reached and the round
// must be reset; the caller performs the reset via ScoreRound("").
func (g *Game) StuckTick() StuckOutcome {
	if g.frozen {
		return StuckNone
	}
	if g.AnyLegalMove() {
		g.stuckRotations = 0
		return StuckNone
	}

	if g.stuckRotations >= StuckRotationCap {
		return StuckForcedReset
	}
	g.stuckRotations++
	g.RotateAllDecks()
	return StuckRotated
}
