package dataset

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// headerIndex maps lowercased, trimmed column names to their position.
// A UTF-8 BOM on the first cell is stripped so files exported from
// spreadsheets still address correctly.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\uFEFF")
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

func requireColumns(idx map[string]int, names ...string) error {
	for _, name := range names {
		if _, ok := idx[name]; !ok {
			return fmt.Errorf("missing column %q", name)
		}
	}
	return nil
}

// field returns the named column of a row, or "" when the row is short.
func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// skippable reports whether a row-level read error should drop just that
// row rather than abort the whole parse.
func skippable(err error) bool {
	_, ok := err.(*csv.ParseError)
	return ok
}
