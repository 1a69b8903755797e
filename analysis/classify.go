package analysis

import "sort"

// Classify inner-joins vote totals with the case snapshot and labels each
// matched state by its two-party share. A share above one half is a Trump
// state, below is a Clinton state, and exactly one half is tied. States
// where both candidates somehow recorded zero votes have no defined share
// and are dropped with a counter.
func Classify(votes []VoteTotals, snap *Snapshot, excl *Exclusions) ([]ClassifiedState, JoinReport, error) {
	var (
		states []ClassifiedState
		report JoinReport
	)
	matched := make(map[string]bool, len(votes))

	for _, vt := range votes {
		cases, ok := snap.States[vt.State]
		if !ok {
			report.UnmatchedLeft = append(report.UnmatchedLeft, vt.State)
			continue
		}
		matched[vt.State] = true

		total := vt.TrumpVotes + vt.ClintonVotes
		if total == 0 {
			excl.Add(ReasonZeroMajorPartyVotes, 1)
			continue
		}
		share := float64(vt.TrumpVotes) / float64(total)
		category := CategoryClinton
		switch {
		case share > 0.5:
			category = CategoryTrump
		case share == 0.5:
			category = CategoryTied
			excl.Add(ReasonTiedState, 1)
		}
		states = append(states, ClassifiedState{
			State:        vt.State,
			Category:     category,
			TrumpVotes:   vt.TrumpVotes,
			ClintonVotes: vt.ClintonVotes,
			TrumpShare:   share,
			Cases:        cases,
		})
	}

	for state := range snap.States {
		if !matched[state] {
			report.UnmatchedRight = append(report.UnmatchedRight, state)
		}
	}
	sort.Strings(report.UnmatchedLeft)
	sort.Strings(report.UnmatchedRight)
	report.Matched = len(matched)

	if len(states) == 0 {
		return nil, report, ErrEmptyJoin
	}
	sort.Slice(states, func(i, j int) bool { return states[i].State < states[j].State })
	return states, report, nil
}
