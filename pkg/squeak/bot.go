package squeak

import (
	"time"

	"github.com/squeakgame/squeak/pkg/cards"
)

// BotDifficulty selects the bot's board-play cooldown. The decision
// policy itself is identical across difficulties.
type BotDifficulty string

const (
	BotEasy   BotDifficulty = "easy"
	BotMedium BotDifficulty = "medium"
	BotHard   BotDifficulty = "hard"
)

// CooldownDelay is how long a bot leaves a freshly played board cell
// alone, giving a human contending for the same cell a fair window.
func (d BotDifficulty) CooldownDelay() time.Duration {
	switch d {
	case BotHard:
		return time.Second
	case BotMedium:
		return 2 * time.Second
	default:
		return 4 * time.Second
	}
}

// BotAction is the outcome of one bot turn.
type BotAction struct {
	// Squeaked reports the bot's squeak deck is empty: the room must
	// trigger round scoring with this bot as the squeaker.
	Squeaked bool

	// Move is set when the bot played or relocated a card.
	Move *MoveResult

	// Draw is set when the bot fell through to drawing from its deck.
	Draw *DrawOutcome
}

// cellFor finds a board cell that legally accepts the card and whose
// cooldown has elapsed.
func (g *Game) cellFor(card cards.Card, delay time.Duration) (int, int, bool) {
	now := g.now()
	for row := 0; row < BoardRows; row++ {
		for col := 0; col < BoardCols; col++ {
			cell := &g.Board[row][col]
			if !cards.IsValidBoardPlacement(cell.Top, card) {
				continue
			}
			if now.Sub(cell.LastPlacedAt) < delay {
				continue
			}
			return row, col, true
		}
	}
	return 0, 0, false
}

// blacklistedTo reports whether the bot recently moved this card off the
// given stack and must not shuffle it straight back.
func (g *Game) blacklistedTo(botID string, card cards.Card, toStack int) bool {
	m, ok := g.blacklist[botID]
	if !ok {
		return false
	}
	from, ok := m[card.String()]
	return ok && from == toStack
}

// rememberShuffle records the stack a card was just moved from, so the
// bot never immediately undoes its own relocation. The entry clears when
// the card reaches the board.
func (g *Game) rememberShuffle(botID string, card cards.Card, fromStack int) {
	m, ok := g.blacklist[botID]
	if !ok {
		m = make(map[string]int)
		g.blacklist[botID] = m
	}
	m[card.String()] = fromStack
}

// relocateTarget finds a destination stack for the card at the given
// depth of fromStack, honoring the shuffle blacklist.
func (g *Game) relocateTarget(p *Player, botID string, fromStack, depth int) (int, bool) {
	card := p.SqueakStacks[fromStack][depth]
	for to := 0; to < NumSqueakStacks; to++ {
		if to == fromStack {
			continue
		}
		if !cards.IsValidStackPlacement(p.stackTop(to), card) {
			continue
		}
		if g.blacklistedTo(botID, card, to) {
			continue
		}
		return to, true
	}
	return 0, false
}

// BotAct plays one bot turn by walking a fixed priority list and taking
// the first applicable action. The bot mutates state through the same
// move handlers a human's messages are routed to.
//
//  1. Empty squeak deck: trigger round scoring.
//  2. Open a stack slot: move a whole stack to the board (single card,
//     earns a point) or onto another stack.
//  3. Any stack top to the board.
//  4. The playable drawn card to the board.
//  5. The playable drawn card onto a stack.
//  6. Any-depth relocation between stacks.
//  7. Draw from the deck.
//
// Board plays respect the per-cell cooldown for this bot's difficulty.
func (g *Game) BotAct(botID string) (*BotAction, error) {
	if err := g.canAct(botID); err != nil {
		return nil, err
	}
	p := g.players[botID]
	delay := p.Difficulty.CooldownDelay()

	// Priority 1: already squeaked.
	if len(p.SqueakDeck) == 0 {
		return &BotAction{Squeaked: true}, nil
	}

	// Priority 2: open a stack slot, preferring a board play when the
	// opening card is alone in its stack.
	for s := 0; s < NumSqueakStacks; s++ {
		if len(p.SqueakStacks[s]) != 1 {
			continue
		}
		card := p.SqueakStacks[s][0]
		if row, col, ok := g.cellFor(card, delay); ok {
			move, err := g.PlayStackToBoard(botID, s, row, col)
			if err == nil {
				return &BotAction{Move: move}, nil
			}
		}
	}
	for s := 0; s < NumSqueakStacks; s++ {
		if len(p.SqueakStacks[s]) == 0 {
			continue
		}
		if to, ok := g.relocateTarget(p, botID, s, 0); ok {
			card := p.SqueakStacks[s][0]
			move, err := g.moveSubStack(botID, s, 0, to)
			if err == nil {
				g.rememberShuffle(botID, card, s)
				return &BotAction{Move: move}, nil
			}
		}
	}

	// Priority 3: any stack top to the board.
	for s := 0; s < NumSqueakStacks; s++ {
		top := p.stackTop(s)
		if top == nil {
			continue
		}
		if row, col, ok := g.cellFor(*top, delay); ok {
			move, err := g.PlayStackToBoard(botID, s, row, col)
			if err == nil {
				return &BotAction{Move: move}, nil
			}
		}
	}

	// Priorities 4 and 5: the playable drawn card.
	if playable := p.PlayableCard(); playable != nil {
		if row, col, ok := g.cellFor(*playable, delay); ok {
			move, err := g.PlayDeckToBoard(botID, *playable, row, col)
			if err == nil {
				return &BotAction{Move: move}, nil
			}
		}
		for s := 0; s < NumSqueakStacks; s++ {
			if cards.IsValidStackPlacement(p.stackTop(s), *playable) {
				move, err := g.PlayDeckToStack(botID, *playable, s)
				if err == nil {
					return &BotAction{Move: move}, nil
				}
			}
		}
	}

	// Priority 6: any-depth relocation between stacks.
	for s := 0; s < NumSqueakStacks; s++ {
		for depth := 1; depth < len(p.SqueakStacks[s]); depth++ {
			if to, ok := g.relocateTarget(p, botID, s, depth); ok {
				card := p.SqueakStacks[s][depth]
				move, err := g.moveSubStack(botID, s, depth, to)
				if err == nil {
					g.rememberShuffle(botID, card, s)
					return &BotAction{Move: move}, nil
				}
			}
		}
	}

	// Priority 7: draw.
	out, err := g.Draw(botID)
	if err != nil {
		return nil, err
	}
	return &BotAction{Draw: out}, nil
}
