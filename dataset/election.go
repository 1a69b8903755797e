package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ParseElection reads the MIT Election Lab presidential returns. Rows with
// unparseable year or vote counts, or with an empty state or candidate, are
// skipped and counted; the second return is that skip count.
func ParseElection(r io.Reader) ([]ElectionRecord, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("election csv: read header: %w", err)
	}
	idx := headerIndex(header)
	if err := requireColumns(idx, "year", "state", "candidate", "candidatevotes"); err != nil {
		return nil, 0, fmt.Errorf("election csv: %w", err)
	}

	var (
		records []ElectionRecord
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
			return nil, skipped, fmt.Errorf("election csv: %w", err)
		}

		year, err := strconv.Atoi(field(row, idx, "year"))
		if err != nil {
			skipped++
			continue
		}
		votes, err := strconv.ParseInt(field(row, idx, "candidatevotes"), 10, 64)
		if err != nil {
			skipped++
			continue
		}
		state := field(row, idx, "state")
		candidate := field(row, idx, "candidate")
		if state == "" || candidate == "" {
			skipped++
			continue
		}
		// state_fips is provenance only; a bad value does not drop the row.
		fips, _ := strconv.Atoi(field(row, idx, "state_fips"))

		records = append(records, ElectionRecord{
			Year:      year,
			State:     state,
			StateFIPS: fips,
			Candidate: candidate,
			Votes:     votes,
		})
	}
	if len(records) == 0 {
		return nil, skipped, fmt.Errorf("election csv: %w", ErrNoRows)
	}
	return records, skipped, nil
}
