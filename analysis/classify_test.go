package analysis

import (
	"errors"
	"testing"
)

func TestClassifyByTwoPartyShare(t *testing.T) {
	votes := []VoteTotals{
		{State: "Texas", TrumpVotes: 60, ClintonVotes: 40},
		{State: "Vermont", TrumpVotes: 40, ClintonVotes: 60},
		{State: "Ohio", TrumpVotes: 50, ClintonVotes: 50},
	}
	snap := &Snapshot{States: map[string]int64{"Texas": 100, "Vermont": 10, "Ohio": 20}}
	excl := NewExclusions()

	states, report, err := Classify(votes, snap, excl)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("expected 3 states, got %d", len(states))
	}
	byName := make(map[string]ClassifiedState)
	for _, st := range states {
		byName[st.State] = st
	}
	if byName["Texas"].Category != CategoryTrump || byName["Texas"].TrumpShare != 0.6 {
		t.Fatalf("unexpected Texas classification: %+v", byName["Texas"])
	}
	if byName["Vermont"].Category != CategoryClinton {
		t.Fatalf("unexpected Vermont classification: %+v", byName["Vermont"])
	}
	if byName["Ohio"].Category != CategoryTied {
		t.Fatalf("expected exact 50/50 split to be tied, got %+v", byName["Ohio"])
	}
	if got := excl.Counts()[ReasonTiedState]; got != 1 {
		t.Fatalf("expected tied state counted, got %d", got)
	}
	if byName["Texas"].Cases != 100 {
		t.Fatalf("expected snapshot cases joined, got %d", byName["Texas"].Cases)
	}
	if report.Matched != 3 || len(report.UnmatchedLeft) != 0 || len(report.UnmatchedRight) != 0 {
		t.Fatalf("unexpected join report: %+v", report)
	}
}

func TestClassifyReportsUnmatchedSides(t *testing.T) {
	votes := []VoteTotals{
		{State: "Texas", TrumpVotes: 60, ClintonVotes: 40},
		{State: "Alaska", TrumpVotes: 30, ClintonVotes: 20},
	}
	snap := &Snapshot{States: map[string]int64{"Texas": 100, "Guam": 5}}
	excl := NewExclusions()

	states, report, err := Classify(votes, snap, excl)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("expected 1 classified state, got %d", len(states))
	}
	if len(report.UnmatchedLeft) != 1 || report.UnmatchedLeft[0] != "Alaska" {
		t.Fatalf("expected Alaska unmatched on election side, got %v", report.UnmatchedLeft)
	}
	if len(report.UnmatchedRight) != 1 || report.UnmatchedRight[0] != "Guam" {
		t.Fatalf("expected Guam unmatched on covid side, got %v", report.UnmatchedRight)
	}
}

func TestClassifyDropsZeroVoteStates(t *testing.T) {
	votes := []VoteTotals{
		{State: "Texas", TrumpVotes: 0, ClintonVotes: 0},
		{State: "Vermont", TrumpVotes: 1, ClintonVotes: 2},
	}
	snap := &Snapshot{States: map[string]int64{"Texas": 100, "Vermont": 10}}
	excl := NewExclusions()

	states, _, err := Classify(votes, snap, excl)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if len(states) != 1 || states[0].State != "Vermont" {
		t.Fatalf("expected zero-vote Texas dropped, got %+v", states)
	}
	if got := excl.Counts()[ReasonZeroMajorPartyVotes]; got != 1 {
		t.Fatalf("expected zero-vote counter, got %d", got)
	}
}

func TestClassifyErrorsOnEmptyJoin(t *testing.T) {
	votes := []VoteTotals{{State: "Texas", TrumpVotes: 60, ClintonVotes: 40}}
	snap := &Snapshot{States: map[string]int64{"Guam": 5}}
	if _, _, err := Classify(votes, snap, NewExclusions()); !errors.Is(err, ErrEmptyJoin) {
		t.Fatalf("expected ErrEmptyJoin, got %v", err)
	}
}
