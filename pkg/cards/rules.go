package cards

// IsValidBoardPlacement reports whether card may be placed on a board cell
// whose current top card is cellTop (nil for an empty cell).
//
// An empty cell accepts only an Ace. A non-empty cell accepts only the
// next-higher value of the same suit. A King is terminal: nothing can be
// placed on top of one.
func IsValidBoardPlacement(cellTop *Card, card Card) bool {
	if cellTop == nil {
		return card.Value() == Ace
	}
	if cellTop.Value() == King {
		return false
	}
	return cellTop.Suit() == card.Suit() && card.Rank() == cellTop.Rank()+1
}

// IsValidStackPlacement reports whether card may be placed on a squeak stack
// whose current bottom-most playable card is stackTop. Squeak stacks build
// downward by alternating color: the placed card must be the opposite color
// of stackTop and exactly one rank lower. An empty stack never accepts a
// placement; empty slots are refilled from the squeak deck instead.
func IsValidStackPlacement(stackTop *Card, card Card) bool {
	if stackTop == nil {
		return false
	}
	if card.IsRed() == stackTop.IsRed() {
		return false
	}
	return card.Rank() == stackTop.Rank()-1
}
