package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

const covidDateLayout = "2006-01-02"

// ParseCovid reads the NYT us-states feed: one row per state per day with a
// cumulative case count. Deaths are present in the source but not carried.
func ParseCovid(r io.Reader) ([]CovidRecord, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("covid csv: read header: %w", err)
	}
	idx := headerIndex(header)
	if err := requireColumns(idx, "date", "state", "cases"); err != nil {
		return nil, 0, fmt.Errorf("covid csv: %w", err)
	}

	var (
		records []CovidRecord
		skipped int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skippable(err) {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("covid csv: %w", err)
		}

		date, err := time.Parse(covidDateLayout, field(row, idx, "date"))
		if err != nil {
			skipped++
			continue
		}
		cases, err := strconv.ParseInt(field(row, idx, "cases"), 10, 64)
		if err != nil {
			skipped++
			continue
		}
		state := field(row, idx, "state")
		if state == "" {
			skipped++
			continue
		}

		records = append(records, CovidRecord{
			Date:  date,
			State: state,
			FIPS:  field(row, idx, "fips"),
			Cases: cases,
		})
	}
	if len(records) == 0 {
		return nil, skipped, fmt.Errorf("covid csv: %w", ErrNoRows)
	}
	return records, skipped, nil
}
