package region

import "testing"

func TestRegionsUnitedStates(t *testing.T) {
	regions := Regions("United States")
	if len(regions) != 51 {
		t.Fatalf("expected country plus 50 states, got %d", len(regions))
	}
	if regions[0] != "United States" || regions[1] != "Alabama" || regions[50] != "Wyoming" {
		t.Errorf("unexpected ordering: first=%q second=%q last=%q",
			regions[0], regions[1], regions[50])
	}
	if ForCountry("united states") != ExpandedRegions {
		t.Error("United States should use expanded regions")
	}
}

func TestRegionsSingle(t *testing.T) {
	regions := Regions("Canada")
	if len(regions) != 1 || regions[0] != "Canada" {
		t.Fatalf("expected [Canada], got %v", regions)
	}
	if ForCountry("Canada") != SingleRegion {
		t.Error("Canada should be a single region")
	}
}

func TestRegionsCopyIsIndependent(t *testing.T) {
	a := Regions("US")
	a[1] = "mutated"
	b := Regions("US")
	if b[1] != "Alabama" {
		t.Error("Regions must return an independent copy")
	}
}

func TestISOCode(t *testing.T) {
	cases := []struct {
		country string
		want    string
	}{
		{"United States", "US"},
		{"usa", "US"},
		{"United Kingdom", "GB"},
		{"de", "DE"},
		{"Atlantis", ""},
	}
	for _, tc := range cases {
		if got := ISOCode(tc.country); got != tc.want {
			t.Errorf("ISOCode(%q) = %q, want %q", tc.country, got, tc.want)
		}
	}
}
