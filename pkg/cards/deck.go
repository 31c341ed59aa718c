package cards

import (
	"math/rand"
)

// suits and values in canonical order; also the iteration order for the
// reference deck used by round scoring.
var (
	allSuits  = []Suit{Spades, Hearts, Diamonds, Clubs}
	allValues = []Value{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}
)

// Deck represents a single player's 52-card allocation
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates a new shuffled deck of 52 cards using the given random
// number generator.
func NewDeck(rng *rand.Rand) *Deck {
	deck := &Deck{
		cards: NewReferenceDeck(),
		rng:   rng,
	}

	deck.Shuffle()

	return deck
}

// NewReferenceDeck returns the canonical ordered 52-card allocation.
// Every player's cards are drawn from a copy of this set, which is what
// makes end-of-round scoring computable by set difference.
func NewReferenceDeck() []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range allSuits {
		for _, value := range allValues {
			cards = append(cards, Card{suit: suit, value: value})
		}
	}
	return cards
}

// Shuffle randomizes the order of cards in the deck
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card from the deck
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DrawN removes and returns up to n cards from the top of the deck.
func (d *Deck) DrawN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	drawn := make([]Card, n)
	copy(drawn, d.cards[:n])
	d.cards = d.cards[n:]
	return drawn
}

// Size returns the number of cards remaining in the deck
func (d *Deck) Size() int {
	return len(d.cards)
}
