package squeak

import (
	"errors"
	"testing"
)

func TestVoteNeedsUnanimousAgreement(t *testing.T) {
	g := bareGame(NewPlayer("p1", "Alice"), NewPlayer("p2", "Bob"), NewPlayer("p3", "Cora"))

	tally, err := g.CastVote("p1", VoteRotateDecks, true)
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if tally.Finished {
		t.Fatal("Vote cannot finish with ballots outstanding")
	}
	if tally.Voted != 1 || tally.Required != 3 {
		t.Errorf("Expected 1/3 voted, got %d/%d", tally.Voted, tally.Required)
	}

	if _, err := g.CastVote("p2", VoteRotateDecks, true); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	tally, err = g.CastVote("p3", VoteRotateDecks, false)
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if !tally.Finished {
		t.Error("Every ballot is in; the vote must be finished")
	}
	if tally.Passed {
		t.Error("A single disagree must sink the vote")
	}
	if tally.For != 2 || tally.Against != 1 {
		t.Errorf("Expected 2 for / 1 against, got %d/%d", tally.For, tally.Against)
	}
}

func TestVoteRejectsUnknownPlayer(t *testing.T) {
	g := bareGame(NewPlayer("p1", "Alice"), NewPlayer("p2", "Bob"))

	if _, err := g.CastVote("ghost", VoteEndRound, true); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("Expected ErrPlayerNotFound, got %v", err)
	}
	if _, inProgress := g.VoteInProgress(); inProgress {
		t.Error("A rejected ballot must not open a vote")
	}
}

func TestVotePassesWhenAllAgree(t *testing.T) {
	g := bareGame(NewPlayer("p1", "Alice"), NewPlayer("p2", "Bob"))

	g.CastVote("p1", VoteEndRound, true)
	tally, err := g.CastVote("p2", VoteEndRound, true)
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if !tally.Finished || !tally.Passed {
		t.Errorf("Expected a finished, passed vote, got finished=%v passed=%v",
			tally.Finished, tally.Passed)
	}
}

func TestVoteAutoRecordsBots(t *testing.T) {
	g := bareGame(
		NewPlayer("p1", "Alice"),
		NewBot("b1", "Bot One", BotEasy),
		NewBot("b2", "Bot Two", BotHard),
	)

	tally, err := g.CastVote("p1", VoteRotateDecks, true)
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if !tally.Finished || !tally.Passed {
		t.Error("Bots agree automatically; one human ballot settles the vote")
	}
	if tally.For != 3 {
		t.Errorf("Expected 3 for, got %d", tally.For)
	}
}

func TestVoteAutoRecordsDisconnected(t *testing.T) {
	g := bareGame(NewPlayer("p1", "Alice"), NewPlayer("p2", "Bob"))
	g.MarkDisconnected("p2")

	tally, err := g.CastVote("p1", VoteEndRound, true)
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if !tally.Finished || !tally.Passed {
		t.Error("Disconnected players must not block a vote")
	}
}

func TestVoteRejectsCompetingCategory(t *testing.T) {
	g := bareGame(NewPlayer("p1", "Alice"), NewPlayer("p2", "Bob"), NewPlayer("p3", "Cora"))

	if _, err := g.CastVote("p1", VoteRotateDecks, true); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if _, err := g.CastVote("p2", VoteEndRound, true); !errors.Is(err, ErrVoteConflict) {
		t.Errorf("Expected ErrVoteConflict, got %v", err)
	}
}

func TestVoteRejectsBallotAfterResolution(t *testing.T) {
	g := bareGame(NewPlayer("p1", "Alice"), NewPlayer("p2", "Bob"))

	g.CastVote("p1", VoteRotateDecks, true)
	g.CastVote("p2", VoteRotateDecks, false)

	if _, err := g.CastVote("p1", VoteRotateDecks, true); !errors.Is(err, ErrVoteFinished) {
		t.Errorf("Expected ErrVoteFinished, got %v", err)
	}
}

func TestClearVoteAllowsNewCategory(t *testing.T) {
	g := bareGame(NewPlayer("p1", "Alice"), NewPlayer("p2", "Bob"))

	g.CastVote("p1", VoteRotateDecks, true)
	if _, ok := g.VoteInProgress(); !ok {
		t.Fatal("Expected a vote in progress")
	}
	g.ClearVote()
	if _, ok := g.VoteInProgress(); ok {
		t.Fatal("Expected the coordinator idle after ClearVote")
	}

	tally, err := g.CastVote("p1", VoteEndRound, true)
	if err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if tally.Category != VoteEndRound {
		t.Errorf("Expected a fresh endRound vote, got %s", tally.Category)
	}
}

func TestVoteRejectedWhileFrozen(t *testing.T) {
	g := bareGame(NewPlayer("p1", "Alice"))
	g.Freeze()
	if _, err := g.CastVote("p1", VoteRotateDecks, true); !errors.Is(err, ErrRoundFrozen) {
		t.Errorf("Expected ErrRoundFrozen, got %v", err)
	}
}
