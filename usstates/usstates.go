// Package usstates canonicalizes U.S. state and territory names so that
// records from different publishers can be joined on a single key. Sources
// disagree on casing ("ALABAMA" vs "Alabama"), punctuation ("D.C.") and
// whether they use postal codes, so every join in this codebase goes through
// Canonical first.
package usstates

import "strings"

// canonical holds the display form of every jurisdiction we recognize:
// the 50 states, the District of Columbia, and the five inhabited
// territories that appear in the COVID-19 feed.
var canonical = []string{
	"Alabama",
	"Alaska",
	"American Samoa",
	"Arizona",
	"Arkansas",
	"California",
	"Colorado",
	"Connecticut",
	"Delaware",
	"District of Columbia",
	"Florida",
	"Georgia",
	"Guam",
	"Hawaii",
	"Idaho",
	"Illinois",
	"Indiana",
	"Iowa",
	"Kansas",
	"Kentucky",
	"Louisiana",
	"Maine",
	"Maryland",
	"Massachusetts",
	"Michigan",
	"Minnesota",
	"Mississippi",
	"Missouri",
	"Montana",
	"Nebraska",
	"Nevada",
	"New Hampshire",
	"New Jersey",
	"New Mexico",
	"New York",
	"North Carolina",
	"North Dakota",
	"Northern Mariana Islands",
	"Ohio",
	"Oklahoma",
	"Oregon",
	"Pennsylvania",
	"Puerto Rico",
	"Rhode Island",
	"South Carolina",
	"South Dakota",
	"Tennessee",
	"Texas",
	"Utah",
	"Vermont",
	"Virgin Islands",
	"Virginia",
	"Washington",
	"West Virginia",
	"Wisconsin",
	"Wyoming",
}

// postal maps USPS abbreviations to canonical names. A few sources ship
// two-letter codes instead of full names.
var postal = map[string]string{
	"AL": "Alabama",
	"AK": "Alaska",
	"AS": "American Samoa",
	"AZ": "Arizona",
	"AR": "Arkansas",
	"CA": "California",
	"CO": "Colorado",
	"CT": "Connecticut",
	"DE": "Delaware",
	"DC": "District of Columbia",
	"FL": "Florida",
	"GA": "Georgia",
	"GU": "Guam",
	"HI": "Hawaii",
	"ID": "Idaho",
	"IL": "Illinois",
	"IN": "Indiana",
	"IA": "Iowa",
	"KS": "Kansas",
	"KY": "Kentucky",
	"LA": "Louisiana",
	"ME": "Maine",
	"MD": "Maryland",
	"MA": "Massachusetts",
	"MI": "Michigan",
	"MN": "Minnesota",
	"MS": "Mississippi",
	"MO": "Missouri",
	"MT": "Montana",
	"NE": "Nebraska",
	"NV": "Nevada",
	"NH": "New Hampshire",
	"NJ": "New Jersey",
	"NM": "New Mexico",
	"NY": "New York",
	"NC": "North Carolina",
	"ND": "North Dakota",
	"MP": "Northern Mariana Islands",
	"OH": "Ohio",
	"OK": "Oklahoma",
	"OR": "Oregon",
	"PA": "Pennsylvania",
	"PR": "Puerto Rico",
	"RI": "Rhode Island",
	"SC": "South Carolina",
	"SD": "South Dakota",
	"TN": "Tennessee",
	"TX": "Texas",
	"UT": "Utah",
	"VT": "Vermont",
	"VI": "Virgin Islands",
	"VA": "Virginia",
	"WA": "Washington",
	"WV": "West Virginia",
	"WI": "Wisconsin",
	"WY": "Wyoming",
}

// aliases covers spellings seen in the wild that normalization alone does
// not fold into a canonical name.
var aliases = map[string]string{
	"us virgin islands":           "Virgin Islands",
	"u s virgin islands":          "Virgin Islands",
	"washington dc":               "District of Columbia",
	"washington d c":              "District of Columbia",
	"commonwealth of puerto rico": "Puerto Rico",
}

var byKey map[string]string

func init() {
	byKey = make(map[string]string, len(canonical)+len(postal)+len(aliases))
	for _, name := range canonical {
		byKey[normalize(name)] = name
	}
	for code, name := range postal {
		byKey[normalize(code)] = name
	}
	for alias, name := range aliases {
		byKey[alias] = name
	}
}

// normalize lowercases, strips periods, and collapses runs of whitespace so
// "D.C.", "d c" and "DC" all produce the same key.
func normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, ".", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Canonical returns the display form for a state or territory name in any
// of the spellings we recognize. The second return is false for names that
// are not U.S. jurisdictions (county rows, national aggregates, regions).
func Canonical(name string) (string, bool) {
	c, ok := byKey[normalize(name)]
	return c, ok
}

// All returns the canonical names in sorted order.
func All() []string {
	out := make([]string, len(canonical))
	copy(out, canonical)
	return out
}
