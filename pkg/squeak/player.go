package squeak

import (
	"math/rand"

	"github.com/squeakgame/squeak/pkg/cards"
)

// NumSqueakStacks is the number of face-up squeak stacks each player keeps.
const NumSqueakStacks = 4

// SqueakDeckSize is the size of the face-down reserve dealt at round start.
// Emptying it ends the round in that player's favor.
const SqueakDeckSize = 13

// ExposedWindowSize is how many draw-pile cards can be face up at once.
const ExposedWindowSize = 3

// Player holds one seated player's card state for the current round plus
// their running game score. Human and bot players use the identical state;
// bots act through the same move handlers.
type Player struct {
	ID   string
	Name string

	IsBot      bool
	Difficulty BotDifficulty

	// DrawPile is the ordered draw pile. Cards are removed only when
	// played; drawing just moves the cursor window across it.
	DrawPile []cards.Card

	// DrawCursor is the index of the most recently exposed card, or -1
	// when the pile is at start/reset.
	DrawCursor int

	// ExposedWindow holds up to three face-up draw-pile cards,
	// most-recently-exposed first. The playable card is the first
	// non-nil entry.
	ExposedWindow [ExposedWindowSize]*cards.Card

	// SqueakDeck is the face-down 13-card reserve. Shrinking only.
	SqueakDeck []cards.Card

	// SqueakStacks are the four face-up piles built downward by
	// alternating color. The last element of a stack is the exposed,
	// normally-playable card.
	SqueakStacks [NumSqueakStacks][]cards.Card

	TotalPoints int
	Rank        int
}

// NewPlayer creates a player with an empty card state. Cards are dealt by
// Game.dealPlayer at round start.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:         id,
		Name:       name,
		DrawCursor: -1,
	}
}

// NewBot creates a bot player with the given difficulty.
func NewBot(id, name string, difficulty BotDifficulty) *Player {
	p := NewPlayer(id, name)
	p.IsBot = true
	p.Difficulty = difficulty
	return p
}

// deal resets the player's round state from a freshly shuffled personal
// 52-card deck: 13 to the squeak deck, one starter per squeak stack, the
// remaining 35 to the draw pile.
func (p *Player) deal(rng *rand.Rand) {
	deck := cards.NewDeck(rng)

	p.SqueakDeck = deck.DrawN(SqueakDeckSize)
	for i := 0; i < NumSqueakStacks; i++ {
		starter, _ := deck.Draw()
		p.SqueakStacks[i] = []cards.Card{starter}
	}
	p.DrawPile = deck.DrawN(deck.Size())

	p.DrawCursor = -1
	p.ExposedWindow = [ExposedWindowSize]*cards.Card{}
}

// HeldCards returns every card the player currently holds: draw pile,
// squeak deck and all squeak stacks. Everything from the original 52-card
// allocation that is absent here has been played to the board, which is
// what makes round scoring a set difference.
func (p *Player) HeldCards() []cards.Card {
	held := make([]cards.Card, 0, len(p.DrawPile)+len(p.SqueakDeck)+NumSqueakStacks*4)
	held = append(held, p.DrawPile...)
	held = append(held, p.SqueakDeck...)
	for i := range p.SqueakStacks {
		held = append(held, p.SqueakStacks[i]...)
	}
	return held
}

// HeldCount returns the number of cards the player currently holds.
func (p *Player) HeldCount() int {
	n := len(p.DrawPile) + len(p.SqueakDeck)
	for i := range p.SqueakStacks {
		n += len(p.SqueakStacks[i])
	}
	return n
}

// stackTop returns the exposed (last) card of the given squeak stack, or
// nil when the stack is empty.
func (p *Player) stackTop(idx int) *cards.Card {
	stack := p.SqueakStacks[idx]
	if len(stack) == 0 {
		return nil
	}
	return &stack[len(stack)-1]
}

// popStackTail removes and returns the exposed card of the given stack.
func (p *Player) popStackTail(idx int) cards.Card {
	stack := p.SqueakStacks[idx]
	card := stack[len(stack)-1]
	p.SqueakStacks[idx] = stack[:len(stack)-1]
	return card
}

// removeFromDrawPile splices the card matching by suit and value out of the
// draw pile, keeping the cursor pointing at the same logical position.
// Returns false if the card is not in the pile.
func (p *Player) removeFromDrawPile(card cards.Card) bool {
	for i := range p.DrawPile {
		if p.DrawPile[i].SameCard(card) {
			p.DrawPile = append(p.DrawPile[:i], p.DrawPile[i+1:]...)
			if p.DrawCursor >= i {
				p.DrawCursor--
			}
			return true
		}
	}
	return false
}

// consumePlayable removes the current playable card from the exposed
// window, shifting the remaining exposed cards up so the card beneath
// becomes playable.
func (p *Player) consumePlayable() {
	for i := 0; i < ExposedWindowSize; i++ {
		if p.ExposedWindow[i] != nil {
			for j := i; j < ExposedWindowSize-1; j++ {
				p.ExposedWindow[j] = p.ExposedWindow[j+1]
			}
			p.ExposedWindow[ExposedWindowSize-1] = nil
			return
		}
	}
}
