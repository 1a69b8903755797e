// Package dataset loads the three inputs every analysis run joins: MIT
// Election Lab presidential returns, the New York Times COVID-19 state
// feed, and Census Bureau population estimates. Loaders keep rows as the
// publisher shipped them; canonicalization and filtering happen downstream.
package dataset

import (
	"errors"
	"time"
)

// ErrNoRows reports a source that parsed cleanly but produced nothing
// usable, which almost always means the wrong file was configured.
var ErrNoRows = errors.New("no usable rows")

// ElectionRecord is one candidate's vote line for one state in one
// presidential election year. A state usually carries several lines per
// candidate because the source splits votes by party endorsement.
type ElectionRecord struct {
	Year      int
	State     string
	StateFIPS int
	Candidate string
	Votes     int64
}

// CovidRecord is one state's cumulative case count on one day.
type CovidRecord struct {
	Date  time.Time
	State string
	FIPS  string
	Cases int64
}

// PopulationRecord is one jurisdiction's resident population estimate.
// The census file mixes states with national and regional aggregates;
// those survive here and are filtered by the join.
type PopulationRecord struct {
	State      string
	Population int64
}
