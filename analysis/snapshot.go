package analysis

import (
	"time"

	"redblue_covid/dataset"
	"redblue_covid/usstates"
)

// LatestSnapshot reduces the COVID table to cumulative cases per state on
// the feed's most recent day. States whose last report predates that day
// are stale and excluded rather than silently compared across different
// dates. When one state carries several rows for the same day, the last
// row in file order wins, matching how the publisher issues corrections.
func LatestSnapshot(records []dataset.CovidRecord, excl *Exclusions) (*Snapshot, error) {
	type latest struct {
		date  time.Time
		cases int64
	}
	byState := make(map[string]latest)
	var maxDate time.Time

	for _, rec := range records {
		state, ok := usstates.Canonical(rec.State)
		if !ok {
			excl.Add(ReasonUnrecognizedStateCovid, 1)
			continue
		}
		cur, seen := byState[state]
		if !seen || rec.Date.After(cur.date) || rec.Date.Equal(cur.date) {
			byState[state] = latest{date: rec.Date, cases: rec.Cases}
		}
		if rec.Date.After(maxDate) {
			maxDate = rec.Date
		}
	}
	if len(byState) == 0 {
		return nil, ErrNoSnapshot
	}

	snap := &Snapshot{Date: maxDate, States: make(map[string]int64, len(byState))}
	stale := 0
	for state, l := range byState {
		if !l.date.Equal(maxDate) {
			stale++
			continue
		}
		snap.States[state] = l.cases
	}
	excl.Add(ReasonStaleSnapshotState, stale)
	return snap, nil
}
