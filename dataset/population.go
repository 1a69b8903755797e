package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ParsePopulation reads the Census Bureau NST-EST2019 estimates, keeping
// only the NAME and POPESTIMATE2019 columns. Aggregate rows such as
// "United States" pass through untouched.
func ParsePopulation(r io.Reader) ([]PopulationRecord, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("population csv: read header: %w", err)
	}
	idx := headerIndex(header)
	if err := requireColumns(idx, "name", "popestimate2019"); err != nil {
		return nil, 0, fmt.Errorf("population csv: %w", err)
	}

	var (
		records []PopulationRecord
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
			return nil, skipped, fmt.Errorf("population csv: %w", err)
		}

		pop, err := strconv.ParseInt(field(row, idx, "popestimate2019"), 10, 64)
		if err != nil {
			skipped++
			continue
		}
		name := field(row, idx, "name")
		if name == "" {
			skipped++
			continue
		}

		records = append(records, PopulationRecord{State: name, Population: pop})
	}
	if len(records) == 0 {
		return nil, skipped, fmt.Errorf("population csv: %w", ErrNoRows)
	}
	return records, skipped, nil
}
