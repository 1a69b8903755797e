package analysis

import "sort"

// Exclusion reasons. Every row or state the pipeline drops lands in exactly
// one of these counters at the stage that dropped it, so a run can account
// for all of its input.
const (
	ReasonUnrecognizedStateElection = "unrecognized_state_election"
	ReasonUnrecognizedStateCovid    = "unrecognized_state_covid"
	ReasonNonStatePopulationRow     = "non_state_population_row"
	ReasonStaleSnapshotState        = "stale_snapshot_state"
	ReasonZeroMajorPartyVotes       = "zero_major_party_votes"
	ReasonTiedState                 = "tied_state"
	ReasonStateWithoutPopulation    = "state_without_population"
	ReasonZeroPopulation            = "zero_population_state"
	ReasonSeriesRowUnclassified     = "series_row_unclassified_state"
	ReasonSeriesRowTiedState        = "series_row_tied_state"
	ReasonFirstDayPoint             = "first_day_point"
)

// Exclusions accumulates drop counts by reason across one run. Not safe for
// concurrent use; a run's stages execute sequentially.
type Exclusions struct {
	counts map[string]int
}

func NewExclusions() *Exclusions {
	return &Exclusions{counts: make(map[string]int)}
}

// Add records n drops for the given reason. Zero or negative n is ignored.
func (e *Exclusions) Add(reason string, n int) {
	if n <= 0 {
		return
	}
	e.counts[reason] += n
}

// Counts returns a copy of the reason -> count map.
func (e *Exclusions) Counts() map[string]int {
	out := make(map[string]int, len(e.counts))
	for reason, n := range e.counts {
		out[reason] = n
	}
	return out
}

// Total is the sum across all reasons.
func (e *Exclusions) Total() int {
	total := 0
	for _, n := range e.counts {
		total += n
	}
	return total
}

// Reasons returns the recorded reasons in sorted order, for stable logs.
func (e *Exclusions) Reasons() []string {
	out := make([]string, 0, len(e.counts))
	for reason := range e.counts {
		out = append(out, reason)
	}
	sort.Strings(out)
	return out
}

// JoinReport describes one join between two keyed tables: how many keys
// matched and which keys on each side did not.
type JoinReport struct {
	Matched        int      `json:"matched"`
	UnmatchedLeft  []string `json:"unmatched_left,omitempty"`
	UnmatchedRight []string `json:"unmatched_right,omitempty"`
}
