package analysis

import (
	"sort"

	"redblue_covid/dataset"
	"redblue_covid/usstates"
)

// JoinPopulation attaches resident population to each classified state.
// Census rows that are not states (the national and regional aggregates)
// are counted and ignored. States with no population row, or with a zero
// or negative estimate, cannot produce rates and are dropped from the
// table with a counter.
func JoinPopulation(states []ClassifiedState, pops []dataset.PopulationRecord, excl *Exclusions) ([]ClassifiedState, JoinReport, error) {
	byState := make(map[string]int64, len(pops))
	for _, rec := range pops {
		state, ok := usstates.Canonical(rec.State)
		if !ok {
			excl.Add(ReasonNonStatePopulationRow, 1)
			continue
		}
		byState[state] = rec.Population
	}

	var (
		out    []ClassifiedState
		report JoinReport
	)
	matched := make(map[string]bool, len(states))
	for _, st := range states {
		pop, ok := byState[st.State]
		if !ok {
			excl.Add(ReasonStateWithoutPopulation, 1)
			report.UnmatchedLeft = append(report.UnmatchedLeft, st.State)
			continue
		}
		matched[st.State] = true
		if pop <= 0 {
			excl.Add(ReasonZeroPopulation, 1)
			continue
		}
		st.Population = pop
		out = append(out, st)
	}

	for state := range byState {
		if !matched[state] {
			report.UnmatchedRight = append(report.UnmatchedRight, state)
		}
	}
	sort.Strings(report.UnmatchedLeft)
	sort.Strings(report.UnmatchedRight)
	report.Matched = len(matched)

	if len(out) == 0 {
		return nil, report, ErrEmptyJoin
	}
	return out, report, nil
}
