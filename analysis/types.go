// Package analysis turns the raw datasets into the joined tables the
// statistics and the chart are computed from: per-state vote totals, a
// latest-day case snapshot, red/blue classifications, and the daily
// infection-rate series. Every function is pure apart from the exclusion
// counters it feeds.
package analysis

import (
	"errors"
	"time"
)

// ErrEmptyJoin reports a join that matched no states at all, which means
// the sources do not describe the same universe and nothing downstream
// would be meaningful.
var ErrEmptyJoin = errors.New("analysis: join produced no states")

// ErrNoSnapshot reports a COVID table with no recognizable state rows.
var ErrNoSnapshot = errors.New("analysis: no recognizable covid rows")

// Category is a state's 2016 major-party lean.
type Category string

const (
	CategoryTrump   Category = "trump"
	CategoryClinton Category = "clinton"
	// CategoryTied marks an exact 50/50 two-party split. Tied states stay in
	// the state table and the share regressions but are excluded from the
	// category comparison and the daily series.
	CategoryTied Category = "tied"
)

// VoteTotals is one state's summed major-party vote counts for the
// configured election year.
type VoteTotals struct {
	State        string `json:"state"`
	TrumpVotes   int64  `json:"trump_votes"`
	ClintonVotes int64  `json:"clinton_votes"`
}

// Snapshot is the most recent day of the COVID feed: cumulative cases per
// state as of Date.
type Snapshot struct {
	Date   time.Time
	States map[string]int64
}

// ClassifiedState is one row of the fully joined state table.
type ClassifiedState struct {
	State        string   `json:"state"`
	Category     Category `json:"category"`
	TrumpVotes   int64    `json:"trump_votes"`
	ClintonVotes int64    `json:"clinton_votes"`
	TrumpShare   float64  `json:"trump_share"`
	Cases        int64    `json:"cases"`
	Population   int64    `json:"population"`
}

// SeriesPoint is one state on one day. NewCases and PctInfected are nil on
// a state's first observed day, where no previous count exists to diff
// against; negative values from upstream corrections are preserved.
type SeriesPoint struct {
	Date        time.Time
	State       string
	Category    Category
	Cases       int64
	PrevCases   *int64
	NewCases    *int64
	Population  int64
	PctInfected *float64
}

// DailySummary aggregates one day's PctInfected values within one category.
// StdErr is zero when only a single state contributed.
type DailySummary struct {
	Date     time.Time `json:"date"`
	Category Category  `json:"category"`
	MeanPct  float64   `json:"mean_pct"`
	StdErr   float64   `json:"std_err"`
	N        int       `json:"n"`
}
