package cards

import (
	"encoding/json"
	"fmt"
)

// Suit represents a card suit
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Value represents a card value
type Value string

const (
	Ace   Value = "A"
	Two   Value = "2"
	Three Value = "3"
	Four  Value = "4"
	Five  Value = "5"
	Six   Value = "6"
	Seven Value = "7"
	Eight Value = "8"
	Nine  Value = "9"
	Ten   Value = "10"
	Jack  Value = "J"
	Queen Value = "Q"
	King  Value = "K"
)

// rankOf maps each value to its board-building rank, Ace low (1) through King (13).
var rankOf = map[Value]int{
	Ace: 1, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
	Eight: 8, Nine: 9, Ten: 10, Jack: 11, Queen: 12, King: 13,
}

// Card represents a playing card
type Card struct {
	suit  Suit
	value Value
}

// NewCard creates a new Card with the given suit and value.
// Card fields are unexported so all construction goes through here.
func NewCard(suit Suit, value Value) Card {
	return Card{suit: suit, value: value}
}

// Suit returns the card's suit
func (c Card) Suit() Suit {
	return c.suit
}

// Value returns the card's value
func (c Card) Value() Value {
	return c.value
}

// Rank returns the card's numeric rank, Ace=1 up through King=13.
func (c Card) Rank() int {
	return rankOf[c.value]
}

// IsRed reports whether the card belongs to a red suit (hearts or diamonds).
func (c Card) IsRed() bool {
	return c.suit == Hearts || c.suit == Diamonds
}

// SameCard reports whether two cards have identical suit and value.
// Cards are matched this way rather than by position because client and
// server orderings of a pile can drift slightly.
func (c Card) SameCard(other Card) bool {
	return c.suit == other.suit && c.value == other.value
}

// String returns a string representation of the card
func (c Card) String() string {
	return string(c.value) + string(c.suit)
}

// CardJSON represents a card for JSON serialization
type CardJSON struct {
	Suit  string `json:"suit"`
	Value string `json:"value"`
}

// MarshalJSON implements json.Marshaler interface for Card
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(CardJSON{
		Suit:  string(c.suit),
		Value: string(c.value),
	})
}

// UnmarshalJSON implements json.Unmarshaler interface for Card
func (c *Card) UnmarshalJSON(data []byte) error {
	var cardJSON CardJSON
	if err := json.Unmarshal(data, &cardJSON); err != nil {
		return err
	}

	// Validate and convert suit
	switch cardJSON.Suit {
	case "♠", "s", "S", "spades", "Spades":
		c.suit = Spades
	case "♥", "h", "H", "hearts", "Hearts":
		c.suit = Hearts
	case "♦", "d", "D", "diamonds", "Diamonds":
		c.suit = Diamonds
	case "♣", "c", "C", "clubs", "Clubs":
		c.suit = Clubs
	default:
		return fmt.Errorf("invalid suit: %s", cardJSON.Suit)
	}

	// Validate and convert value
	switch cardJSON.Value {
	case "A", "a", "ace", "Ace":
		c.value = Ace
	case "K", "k", "king", "King":
		c.value = King
	case "Q", "q", "queen", "Queen":
		c.value = Queen
	case "J", "j", "jack", "Jack":
		c.value = Jack
	case "10", "T", "t", "ten", "Ten":
		c.value = Ten
	case "9", "nine", "Nine":
		c.value = Nine
	case "8", "eight", "Eight":
		c.value = Eight
	case "7", "seven", "Seven":
		c.value = Seven
	case "6", "six", "Six":
		c.value = Six
	case "5", "five", "Five":
		c.value = Five
	case "4", "four", "Four":
		c.value = Four
	case "3", "three", "Three":
		c.value = Three
	case "2", "two", "Two":
		c.value = Two
	default:
		return fmt.Errorf("invalid value: %s", cardJSON.Value)
	}

	return nil
}
