package analysis

import (
	"sort"

	"redblue_covid/dataset"
	"redblue_covid/usstates"
)

// ElectionFilter selects the election slice to classify on: one year and
// the two candidate strings exactly as the source spells them.
type ElectionFilter struct {
	Year             int
	TrumpCandidate   string
	ClintonCandidate string
}

// ReduceElection sums major-party votes per state for the filtered year.
// The source splits a candidate's votes across party endorsement lines, so
// totals accumulate rather than assign. Rows for other years or candidates
// are out of scope and pass silently; rows matching the filter whose state
// cannot be canonicalized are dropped and counted.
func ReduceElection(records []dataset.ElectionRecord, filter ElectionFilter, excl *Exclusions) []VoteTotals {
	totals := make(map[string]*VoteTotals)
	for _, rec := range records {
		if rec.Year != filter.Year {
			continue
		}
		var trump bool
		switch rec.Candidate {
		case filter.TrumpCandidate:
			trump = true
		case filter.ClintonCandidate:
			trump = false
		default:
			continue
		}
		state, ok := usstates.Canonical(rec.State)
		if !ok {
			excl.Add(ReasonUnrecognizedStateElection, 1)
			continue
		}
		vt := totals[state]
		if vt == nil {
			vt = &VoteTotals{State: state}
			totals[state] = vt
		}
		if trump {
			vt.TrumpVotes += rec.Votes
		} else {
			vt.ClintonVotes += rec.Votes
		}
	}

	out := make([]VoteTotals, 0, len(totals))
	for _, vt := range totals {
		out = append(out, *vt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out
}
