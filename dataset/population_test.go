package dataset

import (
	"strings"
	"testing"
)

const populationSample = `SUMLEV,REGION,NAME,POPESTIMATE2019
010,0,United States,328239523
040,3,Alabama,4903185
040,4,Alaska,731545
040,1,Vermont,notanumber
`

func TestParsePopulation(t *testing.T) {
	recs, skipped, err := ParsePopulation(strings.NewReader(populationSample))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", skipped)
	}
	if recs[0].State != "United States" || recs[0].Population != 328239523 {
		t.Fatalf("expected national aggregate to pass through, got %+v", recs[0])
	}
	if recs[1].State != "Alabama" || recs[1].Population != 4903185 {
		t.Fatalf("unexpected state record: %+v", recs[1])
	}
}

func TestParsePopulationHandlesBOM(t *testing.T) {
	src := "\uFEFFNAME,POPESTIMATE2019\nOhio,11689100\n"
	recs, _, err := ParsePopulation(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(recs) != 1 || recs[0].State != "Ohio" {
		t.Fatalf("expected BOM-prefixed header to parse, got %+v", recs)
	}
}
