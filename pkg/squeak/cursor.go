package squeak

import (
	"github.com/squeakgame/squeak/pkg/cards"
)

// DrawOutcome describes what a single draw action did to a player's
// exposed window.
type DrawOutcome struct {
	// Exposed holds the cards turned face up by this draw, most recent
	// first. Empty when the draw was a reset.
	Exposed []cards.Card

	// Reset reports that the pile was exhausted and this draw flipped
	// the window back over: the cursor returns to the pile start and
	// nothing is exposed until the next draw.
	Reset bool
}

// PlayableCard returns the player's currently playable drawn card: the
// first non-empty slot of the exposed window. Nil when nothing is exposed.
func (p *Player) PlayableCard() *cards.Card {
	for i := 0; i < ExposedWindowSize; i++ {
		if p.ExposedWindow[i] != nil {
			return p.ExposedWindow[i]
		}
	}
	return nil
}

// windowEmpty reports whether no draw-pile card is currently exposed.
func (p *Player) windowEmpty() bool {
	return p.PlayableCard() == nil
}

// DrawFromDeck advances the draw pile window by up to three cards.
//
// With three or more undrawn cards ahead of the cursor the next three are
// exposed (most recent first) and the cursor advances by three, wrapping
// to -1 when that exhausts the pile. With only one or two cards left they
// are exposed padded with empties and the cursor wraps to -1. Once the
// pile is exhausted the following draw is a full reset: the window clears
// and the cursor starts over from the front of the pile.
func (p *Player) DrawFromDeck() DrawOutcome {
	if len(p.DrawPile) == 0 {
		return DrawOutcome{Reset: true}
	}

	// Exhausted pile still showing its final window: this draw resets.
	if p.DrawCursor == -1 && !p.windowEmpty() {
		p.ExposedWindow = [ExposedWindowSize]*cards.Card{}
		return DrawOutcome{Reset: true}
	}

	start := p.DrawCursor + 1
	if start >= len(p.DrawPile) {
		// Cursor ran off the end (cards were spliced out from under
		// it); treat as a reset back to the front.
		p.DrawCursor = -1
		p.ExposedWindow = [ExposedWindowSize]*cards.Card{}
		return DrawOutcome{Reset: true}
	}

	n := ExposedWindowSize
	if remaining := len(p.DrawPile) - start; remaining < n {
		n = remaining
	}

	p.ExposedWindow = [ExposedWindowSize]*cards.Card{}
	exposed := make([]cards.Card, 0, n)
	for i := 0; i < n; i++ {
		// Window entries are copies: the pile is spliced when cards
		// are played and must not be aliased.
		c := p.DrawPile[start+n-1-i]
		p.ExposedWindow[i] = &c
		exposed = append(exposed, c)
	}

	if start+n >= len(p.DrawPile) {
		p.DrawCursor = -1
	} else {
		p.DrawCursor = start + n - 1
	}

	return DrawOutcome{Exposed: exposed}
}

// ReachableDrawCards replays the windowing over the whole draw pile and
// returns every card the player could expose as playable by drawing
// repeatedly, without playing a board or stack card in between. Used by
// the stuck-game detector.
func (p *Player) ReachableDrawCards() []cards.Card {
	reachable := make([]cards.Card, 0, (len(p.DrawPile)+ExposedWindowSize-1)/ExposedWindowSize)
	for i := 0; i < len(p.DrawPile); {
		n := ExposedWindowSize
		if remaining := len(p.DrawPile) - i; remaining < n {
			n = remaining
		}
		reachable = append(reachable, p.DrawPile[i+n-1])
		i += n
	}
	return reachable
}
