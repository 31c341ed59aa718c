package squeak

import (
	"testing"

	"github.com/squeakgame/squeak/pkg/cards"
)

// pileOf builds a player with a hand-assembled draw pile.
func pileOf(values ...cards.Value) *Player {
	p := NewPlayer("p", "P")
	for _, v := range values {
		p.DrawPile = append(p.DrawPile, cards.NewCard(cards.Spades, v))
	}
	return p
}

func TestDrawExposesThreeMostRecentFirst(t *testing.T) {
	p := pileOf(cards.Ace, cards.Two, cards.Three, cards.Four, cards.Five, cards.Six, cards.Seven)

	out := p.DrawFromDeck()
	if out.Reset {
		t.Fatal("Expected an exposing draw, got reset")
	}
	if len(out.Exposed) != 3 {
		t.Fatalf("Expected 3 exposed, got %d", len(out.Exposed))
	}
	// Most recently exposed first: 3, 2, A
	if out.Exposed[0].Value() != cards.Three {
		t.Errorf("Expected 3 first, got %s", out.Exposed[0])
	}
	if pc := p.PlayableCard(); pc == nil || pc.Value() != cards.Three {
		t.Errorf("Expected playable 3, got %v", pc)
	}
	if p.DrawCursor != 2 {
		t.Errorf("Expected cursor 2, got %d", p.DrawCursor)
	}
}

func TestDrawPartialWindowAndExhaustion(t *testing.T) {
	p := pileOf(cards.Ace, cards.Two, cards.Three, cards.Four, cards.Five)

	p.DrawFromDeck() // A 2 3
	out := p.DrawFromDeck()
	if len(out.Exposed) != 2 {
		t.Fatalf("Expected 2 exposed from the remainder, got %d", len(out.Exposed))
	}
	if pc := p.PlayableCard(); pc == nil || pc.Value() != cards.Five {
		t.Errorf("Expected playable 5, got %v", pc)
	}
	if p.DrawCursor != -1 {
		t.Errorf("Expected exhausted cursor -1, got %d", p.DrawCursor)
	}

	// The next draw is a full reset: window clears, nothing exposed.
	out = p.DrawFromDeck()
	if !out.Reset {
		t.Fatal("Expected a reset draw")
	}
	if p.PlayableCard() != nil {
		t.Error("Expected empty window after reset")
	}

	// And the draw after that starts over from the pile front.
	out = p.DrawFromDeck()
	if out.Reset {
		t.Fatal("Expected an exposing draw after reset")
	}
	if pc := p.PlayableCard(); pc == nil || pc.Value() != cards.Three {
		t.Errorf("Expected playable 3 after restart, got %v", pc)
	}
}

func TestDrawExactMultipleWrapsToReset(t *testing.T) {
	p := pileOf(cards.Ace, cards.Two, cards.Three, cards.Four, cards.Five, cards.Six)

	p.DrawFromDeck()
	out := p.DrawFromDeck()
	if len(out.Exposed) != 3 {
		t.Fatalf("Expected final 3 exposed, got %d", len(out.Exposed))
	}
	// Exhausting the pile exactly wraps the cursor to -1 while the
	// window still shows the final cards.
	if p.DrawCursor != -1 {
		t.Errorf("Expected cursor -1, got %d", p.DrawCursor)
	}
	if pc := p.PlayableCard(); pc == nil || pc.Value() != cards.Six {
		t.Errorf("Expected playable 6, got %v", pc)
	}

	if out = p.DrawFromDeck(); !out.Reset {
		t.Error("Expected reset after exact-multiple exhaustion")
	}
}

func TestConsumePlayableRevealsCardBeneath(t *testing.T) {
	p := pileOf(cards.Ace, cards.Two, cards.Three)
	p.DrawFromDeck()

	p.consumePlayable()
	if pc := p.PlayableCard(); pc == nil || pc.Value() != cards.Two {
		t.Errorf("Expected 2 beneath the played 3, got %v", pc)
	}
	p.consumePlayable()
	if pc := p.PlayableCard(); pc == nil || pc.Value() != cards.Ace {
		t.Errorf("Expected A at the bottom of the window, got %v", pc)
	}
	p.consumePlayable()
	if p.PlayableCard() != nil {
		t.Error("Expected empty window after consuming all three")
	}
}

func TestRemoveFromDrawPileAdjustsCursor(t *testing.T) {
	p := pileOf(cards.Ace, cards.Two, cards.Three, cards.Four, cards.Five, cards.Six, cards.Seven)
	p.DrawFromDeck() // cursor at index 2 (the 3)

	if !p.removeFromDrawPile(cards.NewCard(cards.Spades, cards.Two)) {
		t.Fatal("Expected removal to succeed")
	}
	if p.DrawCursor != 1 {
		t.Errorf("Expected cursor 1 after splice before it, got %d", p.DrawCursor)
	}

	// Removing a card past the cursor leaves it alone.
	if !p.removeFromDrawPile(cards.NewCard(cards.Spades, cards.Seven)) {
		t.Fatal("Expected removal to succeed")
	}
	if p.DrawCursor != 1 {
		t.Errorf("Expected cursor unchanged, got %d", p.DrawCursor)
	}

	// Cards not in the pile are reported missing.
	if p.removeFromDrawPile(cards.NewCard(cards.Hearts, cards.Ace)) {
		t.Error("Expected removal of absent card to fail")
	}
}

func TestReachableDrawCards(t *testing.T) {
	p := pileOf(cards.Ace, cards.Two, cards.Three, cards.Four, cards.Five, cards.Six, cards.Seven, cards.Eight)

	reachable := p.ReachableDrawCards()
	// Triple tops at indices 2 and 5, then the leftover top at 7.
	want := []cards.Value{cards.Three, cards.Six, cards.Eight}
	if len(reachable) != len(want) {
		t.Fatalf("Expected %d reachable cards, got %d", len(want), len(reachable))
	}
	for i, v := range want {
		if reachable[i].Value() != v {
			t.Errorf("reachable[%d] = %s, want %s", i, reachable[i], v)
		}
	}
}

func TestRotateDrawPileShiftsReachability(t *testing.T) {
	p := pileOf(cards.Ace, cards.Two, cards.Three, cards.Four, cards.Five, cards.Six)

	p.rotateDrawPile()
	reachable := p.ReachableDrawCards()
	// After rotation the pile is 2 3 4 5 6 A: tops at 4 and A.
	if reachable[0].Value() != cards.Four || reachable[1].Value() != cards.Ace {
		t.Errorf("Expected reachable [4 A], got %v", reachable)
	}
	if p.DrawCursor != -1 || p.PlayableCard() != nil {
		t.Error("Expected rotation to reset cursor and window")
	}
}
