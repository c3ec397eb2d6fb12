//go:build integration

package test

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/FranksOps/ingot/internal/collect"
	"github.com/FranksOps/ingot/internal/discovery"
	"github.com/FranksOps/ingot/internal/extract"
	"github.com/FranksOps/ingot/internal/fetch"
	"github.com/FranksOps/ingot/internal/fingerprint"
	"github.com/FranksOps/ingot/internal/record/csvsink"
	"github.com/FranksOps/ingot/internal/search"
)

// startSites serves n fake scrap-yard sites; odd-numbered ones publish a
// phone number, even ones don't.
func startSites(t *testing.T, n int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int
		fmt.Sscanf(r.URL.Path, "/scrapyard/%d", &id)
		if id%2 == 1 {
			fmt.Fprintf(w, `<html><head><title>Yard %d</title></head><body>
				<h1>Scrap Yard %d</h1>
				<p>Scrap metal recycling. Call (330) 555-01%02d</p>
				<div itemprop="address">%d Main St, Akron, OH 44310</div>
				<p>We buy copper and steel.</p></body></html>`, id, id, id%100, id)
			return
		}
		fmt.Fprintf(w, `<html><body><h1>Scrap Yard %d</h1>
			<p>metal recycling, no contact published</p></body></html>`, id)
	}))
	t.Cleanup(server.Close)
	return server
}

// startSERP serves DuckDuckGo-shaped result pages linking into the sites
// server, handing out fresh links on every request.
func startSERP(t *testing.T, sites *httptest.Server) *httptest.Server {
	t.Helper()
	var next int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>")
		for i := 0; i < 10; i++ {
			next++
			fmt.Fprintf(w, `<a class="result__a" href="%s/scrapyard/%d">Scrap Yard %d</a>`,
				sites.URL, next, next)
		}
		fmt.Fprint(w, "</body></html>")
	}))
	t.Cleanup(server.Close)
	return server
}

func TestEndToEndCollection(t *testing.T) {
	sites := startSites(t, 100)
	serp := startSERP(t, sites)

	fetcher, err := fetch.New(fetch.Config{Fingerprint: fingerprint.ProfileGo})
	if err != nil {
		t.Fatalf("fetch.New() error: %v", err)
	}

	aggregator := discovery.New(
		[]search.Backend{search.NewDuckDuckGo(fetcher, serp.URL)},
		discovery.Config{
			Terms:  []string{"scrap metal recycling"},
			Tokens: []string{"scrap"},
		},
	)

	extractor := extract.New(fetcher, extract.Config{
		Tokens:    []string{"scrap", "metal", "recycl"},
		Materials: []string{"copper", "steel"},
		Services:  []string{"demolition"},
	})

	loop := collect.New(aggregator, extractor, collect.Config{Workers: 4})

	const target = 8
	records, err := loop.Collect(context.Background(), "United States", target)
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(records) != target {
		t.Fatalf("collected %d, want %d", len(records), target)
	}

	for _, b := range records {
		if !b.HasContact() {
			t.Errorf("record without contact: %+v", b)
		}
		if b.State != "OH" {
			t.Errorf("State = %q", b.State)
		}
		if b.ID == "" || b.CollectedAt.IsZero() {
			t.Error("record identity not assigned")
		}
	}

	// The SERP hands out half contactless pages, so reaching the target
	// required at least one refill.
	if loop.Stats().Refills == 0 && loop.Stats().NoContact == 0 {
		t.Error("expected the run to process contactless pages")
	}

	// Persist through the CSV sink and read back.
	path := filepath.Join(t.TempDir(), "out.csv")
	sink, err := csvsink.New(path)
	if err != nil {
		t.Fatalf("csvsink.New() error: %v", err)
	}
	for _, b := range records {
		if err := sink.Write(context.Background(), b); err != nil {
			t.Fatalf("sink.Write() error: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("sink.Close() error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != target+1 {
		t.Fatalf("csv rows = %d, want header plus %d records", len(rows), target)
	}
}
