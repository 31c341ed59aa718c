package squeak

import (
	"fmt"

	"github.com/squeakgame/squeak/pkg/cards"
)

// Move source/destination labels used in broadcast payloads.
const (
	LocDeck        = "deck"
	LocSqueakStack = "squeakStack"
	LocBoard       = "board"
)

// MoveResult describes a successfully applied move for broadcast.
type MoveResult struct {
	PlayerID string
	Card     cards.Card
	Source   string
	Dest     string

	// Board destination, when Dest == LocBoard.
	Row, Col int

	// Stack indices, when applicable. -1 when not involved.
	FromStack int
	ToStack   int

	// Carried holds the sub-stack cards moved along with Card on a
	// stack-to-stack relocation, in preserved order (Card excluded).
	Carried []cards.Card

	// EmptiedStack is the index of a squeak stack this move left empty,
	// or -1. The room schedules an automatic redraw for it.
	EmptiedStack int

	// ClearedKing reports that a King played from a squeak stack was
	// consumed and its cell cleared rather than kept.
	ClearedKing bool
}

func newMoveResult(playerID string, card cards.Card) *MoveResult {
	return &MoveResult{
		PlayerID:     playerID,
		Card:         card,
		FromStack:    -1,
		ToStack:      -1,
		EmptiedStack: -1,
		Row:          -1,
		Col:          -1,
	}
}

// placeOnBoard commits a validated card to a cell and stamps it for the
// bot cooldown.
func (g *Game) placeOnBoard(cell *BoardCell, card cards.Card) {
	c := card
	cell.Top = &c
	cell.Count++
	cell.LastPlacedAt = g.now()
}

// clearBlacklist drops any bot blacklist entries for a card once it
// reaches the board.
func (g *Game) clearBlacklist(playerID string, card cards.Card) {
	if m, ok := g.blacklist[playerID]; ok {
		delete(m, card.String())
	}
}

// PlayDeckToBoard plays the player's currently playable drawn card onto a
// board cell. The client's claim is never trusted: the card must match the
// first exposed window slot and the placement is re-validated.
func (g *Game) PlayDeckToBoard(playerID string, card cards.Card, row, col int) (*MoveResult, error) {
	if err := g.canAct(playerID); err != nil {
		return nil, err
	}
	p := g.players[playerID]

	playable := p.PlayableCard()
	if playable == nil || !playable.SameCard(card) {
		return nil, ErrNotPlayable
	}

	cell := g.cell(row, col)
	if cell == nil {
		return nil, fmt.Errorf("%w: no board cell (%d,%d)", ErrInvalidMove, row, col)
	}
	if !cards.IsValidBoardPlacement(cell.Top, card) {
		return nil, ErrInvalidMove
	}

	p.consumePlayable()
	if !p.removeFromDrawPile(card) {
		// Window and pile disagree; should not happen, but never
		// mutate the board on inconsistent state.
		return nil, fmt.Errorf("%w: exposed card missing from draw pile", ErrInvalidMove)
	}
	g.placeOnBoard(cell, card)
	g.clearBlacklist(playerID, card)

	res := newMoveResult(playerID, card)
	res.Source, res.Dest = LocDeck, LocBoard
	res.Row, res.Col = row, col
	return res, nil
}

// PlayDeckToStack plays the playable drawn card onto one of the player's
// own squeak stacks.
func (g *Game) PlayDeckToStack(playerID string, card cards.Card, stackIdx int) (*MoveResult, error) {
	if err := g.canAct(playerID); err != nil {
		return nil, err
	}
	p := g.players[playerID]

	if stackIdx < 0 || stackIdx >= NumSqueakStacks {
		return nil, fmt.Errorf("%w: no squeak stack %d", ErrInvalidMove, stackIdx)
	}
	playable := p.PlayableCard()
	if playable == nil || !playable.SameCard(card) {
		return nil, ErrNotPlayable
	}
	if !cards.IsValidStackPlacement(p.stackTop(stackIdx), card) {
		return nil, ErrInvalidMove
	}

	p.consumePlayable()
	if !p.removeFromDrawPile(card) {
		return nil, fmt.Errorf("%w: exposed card missing from draw pile", ErrInvalidMove)
	}
	p.SqueakStacks[stackIdx] = append(p.SqueakStacks[stackIdx], card)

	res := newMoveResult(playerID, card)
	res.Source, res.Dest = LocDeck, LocSqueakStack
	res.ToStack = stackIdx
	return res, nil
}

// PlayStackToBoard plays the exposed card of a squeak stack onto a board
// cell. A King played this way is consumed and its cell cleared, matching
// the original game's behavior (deck plays keep the King in place).
func (g *Game) PlayStackToBoard(playerID string, stackIdx, row, col int) (*MoveResult, error) {
	if err := g.canAct(playerID); err != nil {
		return nil, err
	}
	p := g.players[playerID]

	if stackIdx < 0 || stackIdx >= NumSqueakStacks {
		return nil, fmt.Errorf("%w: no squeak stack %d", ErrInvalidMove, stackIdx)
	}
	top := p.stackTop(stackIdx)
	if top == nil {
		return nil, ErrStackEmpty
	}
	cell := g.cell(row, col)
	if cell == nil {
		return nil, fmt.Errorf("%w: no board cell (%d,%d)", ErrInvalidMove, row, col)
	}
	if !cards.IsValidBoardPlacement(cell.Top, *top) {
		return nil, ErrInvalidMove
	}

	card := p.popStackTail(stackIdx)
	g.placeOnBoard(cell, card)
	g.clearBlacklist(playerID, card)

	res := newMoveResult(playerID, card)
	res.Source, res.Dest = LocSqueakStack, LocBoard
	res.FromStack = stackIdx
	res.Row, res.Col = row, col
	if card.Value() == cards.King {
		cell.Top = nil
		res.ClearedKing = true
	}
	if len(p.SqueakStacks[stackIdx]) == 0 {
		res.EmptiedStack = stackIdx
	}
	return res, nil
}

// PlayStackToStack relocates the exposed card of one squeak stack onto
// another of the player's stacks. Players may only move the exposed card;
// deeper sub-stack moves are a bot-only opening heuristic (see
// botMoveSubStack).
func (g *Game) PlayStackToStack(playerID string, fromStack, toStack int) (*MoveResult, error) {
	if err := g.canAct(playerID); err != nil {
		return nil, err
	}
	p := g.players[playerID]

	if fromStack < 0 || fromStack >= NumSqueakStacks || toStack < 0 || toStack >= NumSqueakStacks || fromStack == toStack {
		return nil, fmt.Errorf("%w: bad stack pair %d->%d", ErrInvalidMove, fromStack, toStack)
	}
	stack := p.SqueakStacks[fromStack]
	if len(stack) == 0 {
		return nil, ErrStackEmpty
	}
	return g.moveSubStack(playerID, fromStack, len(stack)-1, toStack)
}

// moveSubStack moves the card at the given depth of fromStack, together
// with every card after it, onto toStack. Validation runs against the
// moved card only; carried cards already satisfy the alternating
// descending order by construction.
func (g *Game) moveSubStack(playerID string, fromStack, depth, toStack int) (*MoveResult, error) {
	p := g.players[playerID]
	stack := p.SqueakStacks[fromStack]
	if depth < 0 || depth >= len(stack) {
		return nil, fmt.Errorf("%w: no card at depth %d", ErrInvalidMove, depth)
	}
	moved := stack[depth]
	if !cards.IsValidStackPlacement(p.stackTop(toStack), moved) {
		return nil, ErrInvalidMove
	}

	carried := append([]cards.Card(nil), stack[depth+1:]...)
	p.SqueakStacks[toStack] = append(p.SqueakStacks[toStack], stack[depth:]...)
	p.SqueakStacks[fromStack] = stack[:depth]

	res := newMoveResult(playerID, moved)
	res.Source, res.Dest = LocSqueakStack, LocSqueakStack
	res.FromStack, res.ToStack = fromStack, toStack
	res.Carried = carried
	if depth == 0 {
		res.EmptiedStack = fromStack
	}
	return res, nil
}

// DrawFromSqueakDeck refills an empty squeak stack slot with the next card
// of the squeak deck. Returns the refilled slot and whether the squeak
// deck is now empty, which ends the round in this player's favor.
func (g *Game) DrawFromSqueakDeck(playerID string, stackIdx int) (*RedrawResult, error) {
	if err := g.canAct(playerID); err != nil {
		return nil, err
	}
	p := g.players[playerID]

	if stackIdx < 0 || stackIdx >= NumSqueakStacks {
		return nil, fmt.Errorf("%w: no squeak stack %d", ErrInvalidMove, stackIdx)
	}
	if len(p.SqueakStacks[stackIdx]) != 0 {
		return nil, ErrStackOccupied
	}
	if len(p.SqueakDeck) == 0 {
		return nil, ErrSqueakDeckDry
	}

	card := p.SqueakDeck[0]
	p.SqueakDeck = p.SqueakDeck[1:]
	p.SqueakStacks[stackIdx] = []cards.Card{card}

	return &RedrawResult{
		PlayerID:        playerID,
		Card:            card,
		StackIdx:        stackIdx,
		SqueakDeckEmpty: len(p.SqueakDeck) == 0,
	}, nil
}

// RedrawResult describes a squeak-deck refill of an empty stack slot.
type RedrawResult struct {
	PlayerID string
	Card     cards.Card
	StackIdx int

	// SqueakDeckEmpty reports the refill consumed the last reserve
	// card: the player has squeaked and the round ends.
	SqueakDeckEmpty bool
}

// Draw advances the player's draw-pile window.
func (g *Game) Draw(playerID string) (*DrawOutcome, error) {
	if err := g.canAct(playerID); err != nil {
		return nil, err
	}
	out := g.players[playerID].DrawFromDeck()
	return &out, nil
}
