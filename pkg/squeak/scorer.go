package squeak

import (
	"sort"

	"github.com/squeakgame/squeak/pkg/cards"
)

// SqueakBonus is the round-end modifier awarded to the player who emptied
// their squeak deck.
const SqueakBonus = 10

// PlayerRoundStats holds one player's line of the end-of-round scoreboard.
type PlayerRoundStats struct {
	PlayerID string
	Name     string

	// CardsPlayed is this round's board contribution, computed as the
	// canonical 52-card allocation minus everything the player still
	// holds.
	CardsPlayed []cards.Card

	SqueakModifier int
	RoundPoints    int
	NewTotal       int
	Rank           int
}

// RoundResult is the scoreboard payload for a finished round.
type RoundResult struct {
	Round int

	// SqueakerID is the player whose empty squeak deck ended the round,
	// or "" when the round ended by vote or forced reset.
	SqueakerID string

	// Stats is ordered by rank.
	Stats []PlayerRoundStats

	// WinnerID is set when a player reached the points target; the
	// game is over.
	WinnerID string
	GameOver bool
}

// ScoreRound freezes the game and computes the scoreboard for the current
// round, applying score deltas to every player's running total and
// re-ranking. squeakerID is "" when the round ended without a squeak
// (unanimous end-round vote or stuck-game reset).
func (g *Game) ScoreRound(squeakerID string) *RoundResult {
	g.frozen = true

	result := &RoundResult{
		Round:      g.Round,
		SqueakerID: squeakerID,
	}

	reference := cards.NewReferenceDeck()
	stats := make([]PlayerRoundStats, 0, len(g.order))
	for _, id := range g.order {
		p := g.players[id]

		held := make(map[string]int, p.HeldCount())
		for _, c := range p.HeldCards() {
			held[c.String()]++
		}
		played := make([]cards.Card, 0, 52-p.HeldCount())
		for _, c := range reference {
			if held[c.String()] > 0 {
				held[c.String()]--
				continue
			}
			played = append(played, c)
		}

		modifier := -len(p.SqueakDeck)
		if id == squeakerID {
			modifier = SqueakBonus
		}

		roundPoints := len(played) + modifier
		p.TotalPoints += roundPoints

		stats = append(stats, PlayerRoundStats{
			PlayerID:       id,
			Name:           p.Name,
			CardsPlayed:    played,
			SqueakModifier: modifier,
			RoundPoints:    roundPoints,
			NewTotal:       p.TotalPoints,
		})
	}

	// Rank by new score descending; ties keep seat order.
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].NewTotal > stats[j].NewTotal
	})
	for i := range stats {
		stats[i].Rank = i + 1
		g.players[stats[i].PlayerID].Rank = i + 1
	}

	// The game is won by the first player, in this round's ranking,
	// whose score reached the target.
	for _, st := range stats {
		if st.NewTotal >= g.pointsToWin {
			result.WinnerID = st.PlayerID
			result.GameOver = true
			break
		}
	}

	result.Stats = stats
	return result
}
