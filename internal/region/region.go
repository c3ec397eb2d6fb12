// Package region decides how a country splits into search subregions.
// Large markets are searched state by state so per-query result caps
// don't starve the run; everywhere else a single country-wide query
// bucket is used.
package region

import "strings"

// Policy says whether a country is searched as one region or expanded
// into subregions.
type Policy int

const (
	SingleRegion Policy = iota
	ExpandedRegions
)

// USStates lists the 50 state names used as search subregions when a run
// targets the United States.
var USStates = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California",
	"Colorado", "Connecticut", "Delaware", "Florida", "Georgia",
	"Hawaii", "Idaho", "Illinois", "Indiana", "Iowa",
	"Kansas", "Kentucky", "Louisiana", "Maine", "Maryland",
	"Massachusetts", "Michigan", "Minnesota", "Mississippi", "Missouri",
	"Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey",
	"New Mexico", "New York", "North Carolina", "North Dakota", "Ohio",
	"Oklahoma", "Oregon", "Pennsylvania", "Rhode Island", "South Carolina",
	"South Dakota", "Tennessee", "Texas", "Utah", "Vermont",
	"Virginia", "Washington", "West Virginia", "Wisconsin", "Wyoming",
}

// expanded maps the canonical lowercase name of each country that gets
// subregion expansion to its subregion list.
var expanded = map[string][]string{
	"united states": USStates,
	"usa":           USStates,
	"us":            USStates,
}

// ForCountry returns the expansion policy for a country.
func ForCountry(country string) Policy {
	if _, ok := expanded[canonical(country)]; ok {
		return ExpandedRegions
	}
	return SingleRegion
}

// Regions returns the regions to query for a country: the country itself,
// followed by its subregions when it has an expansion entry.
func Regions(country string) []string {
	out := []string{country}
	if subs, ok := expanded[canonical(country)]; ok {
		out = append(out, subs...)
	}
	return out
}

func canonical(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}

// isoCodes maps canonical country names to ISO 3166-1 alpha-2 codes for
// phone number parsing. Unknown two-letter inputs pass through uppercased.
var isoCodes = map[string]string{
	"united states":  "US",
	"usa":            "US",
	"us":             "US",
	"canada":         "CA",
	"united kingdom": "GB",
	"uk":             "GB",
	"australia":      "AU",
	"germany":        "DE",
	"france":         "FR",
	"india":          "IN",
	"mexico":         "MX",
	"brazil":         "BR",
	"japan":          "JP",
	"china":          "CN",
	"south africa":   "ZA",
	"netherlands":    "NL",
	"spain":          "ES",
	"italy":          "IT",
}

// ISOCode returns the ISO 3166-1 alpha-2 code for a country name, or ""
// when the country is unknown and not itself a two-letter code.
func ISOCode(country string) string {
	c := canonical(country)
	if code, ok := isoCodes[c]; ok {
		return code
	}
	if len(c) == 2 {
		return strings.ToUpper(c)
	}
	return ""
}
