package cards

import (
	"encoding/json"
	"math/rand"
	"testing"
)

func TestNewDeck(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	deck := NewDeck(rng)

	if deck.Size() != 52 {
		t.Errorf("Expected deck size 52, got %d", deck.Size())
	}

	// Every card must be unique
	seen := make(map[string]bool)
	for {
		card, ok := deck.Draw()
		if !ok {
			break
		}
		key := card.String()
		if seen[key] {
			t.Errorf("Duplicate card in deck: %s", key)
		}
		seen[key] = true
	}

	if len(seen) != 52 {
		t.Errorf("Expected 52 unique cards, got %d", len(seen))
	}
}

func TestDrawN(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	deck := NewDeck(rng)

	first := deck.DrawN(13)
	if len(first) != 13 {
		t.Errorf("Expected 13 cards, got %d", len(first))
	}
	if deck.Size() != 39 {
		t.Errorf("Expected 39 remaining, got %d", deck.Size())
	}

	// Drawing past the end returns what is left
	deck.DrawN(35)
	rest := deck.DrawN(10)
	if len(rest) != 4 {
		t.Errorf("Expected 4 cards from exhausted draw, got %d", len(rest))
	}
}

func TestReferenceDeckIsStable(t *testing.T) {
	a := NewReferenceDeck()
	b := NewReferenceDeck()
	for i := range a {
		if !a[i].SameCard(b[i]) {
			t.Fatalf("Reference deck not stable at index %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestCardJSONRoundTrip(t *testing.T) {
	card := NewCard(Hearts, Ten)
	data, err := json.Marshal(card)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Card
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.SameCard(card) {
		t.Errorf("Expected %s after round trip, got %s", card, decoded)
	}

	// Letter forms are accepted too
	var fromLetters Card
	if err := json.Unmarshal([]byte(`{"suit":"h","value":"T"}`), &fromLetters); err != nil {
		t.Fatalf("Unmarshal letter form failed: %v", err)
	}
	if !fromLetters.SameCard(card) {
		t.Errorf("Expected %s from letter form, got %s", card, fromLetters)
	}
}
