package dataset

import (
	"strings"
	"testing"
	"time"
)

const covidSample = `date,state,fips,cases,deaths
2020-03-14,Washington,53,572,37
2020-03-15,Washington,53,643,40
2020-03-15,Guam,66,3,0
03/15/2020,Oregon,41,36,1
`

func TestParseCovid(t *testing.T) {
	recs, skipped, err := ParseCovid(strings.NewReader(covidSample))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped row for bad date, got %d", skipped)
	}
	want := time.Date(2020, 3, 14, 0, 0, 0, 0, time.UTC)
	if !recs[0].Date.Equal(want) {
		t.Fatalf("expected date %s, got %s", want, recs[0].Date)
	}
	if recs[0].State != "Washington" || recs[0].Cases != 572 {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[2].State != "Guam" || recs[2].FIPS != "66" {
		t.Fatalf("expected territory row to survive, got %+v", recs[2])
	}
}

func TestParseCovidMissingColumn(t *testing.T) {
	if _, _, err := ParseCovid(strings.NewReader("date,state\n2020-01-01,Ohio\n")); err == nil {
		t.Fatal("expected missing column error")
	}
}
