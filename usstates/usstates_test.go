package usstates

import "testing"

func TestCanonicalFoldsCasingAndPunctuation(t *testing.T) {
	cases := map[string]string{
		"ALABAMA":              "Alabama",
		"alabama":              "Alabama",
		"  New   York ":        "New York",
		"D.C.":                 "District of Columbia",
		"district of columbia": "District of Columbia",
		"DC":                   "District of Columbia",
		"U.S. Virgin Islands":  "Virgin Islands",
		"GU":                   "Guam",
		"Puerto Rico":          "Puerto Rico",
	}
	for in, want := range cases {
		got, ok := Canonical(in)
		if !ok {
			t.Fatalf("Canonical(%q) not recognized", in)
		}
		if got != want {
			t.Fatalf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalRejectsNonJurisdictions(t *testing.T) {
	for _, in := range []string{"United States", "Midwest Region", "", "Ontario", "New York County"} {
		if got, ok := Canonical(in); ok {
			t.Fatalf("Canonical(%q) = %q, want no match", in, got)
		}
	}
}

func TestAllIsStableCopy(t *testing.T) {
	a := All()
	if len(a) != 56 {
		t.Fatalf("expected 56 jurisdictions, got %d", len(a))
	}
	a[0] = "mutated"
	if b := All(); b[0] != "Alabama" {
		t.Fatalf("All returned shared backing array, got %q", b[0])
	}
}
