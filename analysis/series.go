package analysis

import (
	"sort"
	"time"

	"redblue_covid/dataset"
	"redblue_covid/usstates"
)

// BuildDailySeries turns the full COVID table into one point per classified
// state per day, with day-over-day new cases and the share of the state's
// population newly infected. A state's first observed day has no previous
// count to diff against, so the derived fields are nil there. Gaps in the
// feed diff against the previous available day. Negative diffs, which the
// publisher produces when reallocating cases, are preserved.
func BuildDailySeries(records []dataset.CovidRecord, states []ClassifiedState, excl *Exclusions) []SeriesPoint {
	type stateInfo struct {
		category   Category
		population int64
	}
	classified := make(map[string]stateInfo, len(states))
	for _, st := range states {
		classified[st.State] = stateInfo{category: st.Category, population: st.Population}
	}

	// Last row in file order wins per state+day, like the snapshot.
	type dayKey struct {
		state string
		date  time.Time
	}
	cases := make(map[dayKey]int64)
	dates := make(map[string][]time.Time)
	for _, rec := range records {
		state, ok := usstates.Canonical(rec.State)
		if !ok {
			// Already counted as unrecognized during the snapshot pass.
			continue
		}
		info, ok := classified[state]
		if !ok {
			excl.Add(ReasonSeriesRowUnclassified, 1)
			continue
		}
		if info.category == CategoryTied {
			excl.Add(ReasonSeriesRowTiedState, 1)
			continue
		}
		key := dayKey{state: state, date: rec.Date}
		if _, seen := cases[key]; !seen {
			dates[state] = append(dates[state], rec.Date)
		}
		cases[key] = rec.Cases
	}

	var points []SeriesPoint
	for state, ds := range dates {
		sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
		info := classified[state]
		var prev *int64
		for _, d := range ds {
			c := cases[dayKey{state: state, date: d}]
			pt := SeriesPoint{
				Date:       d,
				State:      state,
				Category:   info.category,
				Cases:      c,
				Population: info.population,
			}
			if prev != nil {
				diff := c - *prev
				pct := float64(diff) / float64(info.population) * 100
				pt.PrevCases = prev
				pt.NewCases = &diff
				pt.PctInfected = &pct
			}
			prevCases := c
			prev = &prevCases
			points = append(points, pt)
		}
	}

	sort.Slice(points, func(i, j int) bool {
		if !points[i].Date.Equal(points[j].Date) {
			return points[i].Date.Before(points[j].Date)
		}
		return points[i].State < points[j].State
	})
	return points
}
