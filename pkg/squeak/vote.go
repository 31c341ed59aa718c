package squeak

import (
	"github.com/squeakgame/squeak/pkg/statemachine"
)

// VoteCategory identifies what a vote proposes.
type VoteCategory string

const (
	VoteRotateDecks VoteCategory = "rotateDecks"
	VoteEndRound    VoteCategory = "endRound"
)

// VotePhase is the coordinator's lifecycle: Idle -> Collecting -> Resolved.
type VotePhase string

const (
	VoteIdle       VotePhase = "idle"
	VoteCollecting VotePhase = "collecting"
	VoteResolved   VotePhase = "resolved"
)

// voteState is the entity driven by the vote state machine.
type voteState struct {
	category VoteCategory
	ballots  map[string]bool
	required []string
	phase    VotePhase

	machine *statemachine.StateMachine[voteState]
}

// voteCollecting waits until every required player has a recorded ballot.
func voteCollecting(v *voteState) statemachine.StateFn[voteState] {
	for _, id := range v.required {
		if _, ok := v.ballots[id]; !ok {
			v.phase = VoteCollecting
			return voteCollecting
		}
	}
	v.phase = VoteResolved
	return voteResolved
}

// voteResolved is terminal; the room resets the coordinator to idle.
func voteResolved(v *voteState) statemachine.StateFn[voteState] {
	v.phase = VoteResolved
	return nil
}

// VoteTally is the coordinator's public snapshot after a ballot.
type VoteTally struct {
	Category VoteCategory
	For      int
	Against  int
	Voted    int
	Required int

	// Finished reports every seated player has one recorded vote. A
	// single disagree still lets the tally complete so clients can
	// show the final state, but the action only executes when Passed.
	Finished bool

	// Passed requires unanimous agreement.
	Passed bool
}

// CastVote records a ballot, opening a new vote on the first one. Bots
// and players disconnected mid-round are auto-recorded as agree when the
// vote opens. A ballot for a different category than the vote already in
// progress is rejected outright (first category wins).
func (g *Game) CastVote(playerID string, category VoteCategory, agree bool) (*VoteTally, error) {
	if g.frozen {
		return nil, ErrRoundFrozen
	}
	if _, ok := g.players[playerID]; !ok {
		return nil, ErrPlayerNotFound
	}
	if g.Disconnected[playerID] {
		return nil, ErrNotSeated
	}

	if g.vote == nil {
		v := &voteState{
			category: category,
			ballots:  make(map[string]bool, len(g.order)),
			required: g.PlayerIDs(),
			phase:    VoteCollecting,
		}
		v.machine = statemachine.New(v, voteCollecting)
		for _, id := range g.order {
			if g.players[id].IsBot || g.Disconnected[id] {
				v.ballots[id] = true
			}
		}
		g.vote = v
	}

	v := g.vote
	if v.category != category {
		return nil, ErrVoteConflict
	}
	if v.phase == VoteResolved {
		return nil, ErrVoteFinished
	}

	v.ballots[playerID] = agree
	v.machine.Dispatch()

	return v.tally(), nil
}

// tally builds the public snapshot of the vote.
func (v *voteState) tally() *VoteTally {
	t := &VoteTally{
		Category: v.category,
		Required: len(v.required),
		Voted:    len(v.ballots),
		Finished: v.phase == VoteResolved,
	}
	for _, agree := range v.ballots {
		if agree {
			t.For++
		} else {
			t.Against++
		}
	}
	t.Passed = t.Finished && t.Against == 0
	return t
}

// VoteInProgress returns the category of the vote currently collecting
// ballots, if any.
func (g *Game) VoteInProgress() (VoteCategory, bool) {
	if g.vote == nil || g.vote.phase != VoteCollecting {
		return "", false
	}
	return g.vote.category, true
}

// ClearVote resets the coordinator to idle. Called by the room when a
// vote resolves or its timeout expires.
func (g *Game) ClearVote() {
	g.vote = nil
}
