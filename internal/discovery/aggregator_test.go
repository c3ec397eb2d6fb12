package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/FranksOps/ingot/internal/search"
)

// fakeBackend returns canned URL lists keyed by query string.
type fakeBackend struct {
	name    string
	results map[string][]string
	err     error

	mu      sync.Mutex
	queries []search.Query
	asked   int
}

var _ search.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Search(_ context.Context, q search.Query, maxResults int) ([]string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.asked = maxResults
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.results[q.String()], nil
}

func TestGatherDedupAndFilter(t *testing.T) {
	// Two terms over a single-region country: two buckets. The raw hits
	// total 50 URLs: 30 unique, 20 repeats of the first bucket's URLs.
	// 5 of the unique ones sit on blacklisted hosts.
	bucket1 := make([]string, 0, 25)
	for i := 0; i < 20; i++ {
		bucket1 = append(bucket1, fmt.Sprintf("https://scrapyard%d.example.com/", i))
	}
	for i := 0; i < 5; i++ {
		bucket1 = append(bucket1, fmt.Sprintf("https://www.youtube.com/watch?v=scrap%d", i))
	}

	bucket2 := make([]string, 0, 25)
	bucket2 = append(bucket2, bucket1[:20]...) // 20 duplicates
	for i := 0; i < 5; i++ {
		bucket2 = append(bucket2, fmt.Sprintf("https://metalbuyer%d.example.com/", i))
	}

	backend := &fakeBackend{
		name: "fake",
		results: map[string][]string{
			"scrap metal Canada":     bucket1,
			"metal recyclers Canada": bucket2,
		},
	}

	agg := New([]search.Backend{backend}, Config{
		Terms:     []string{"scrap metal", "metal recyclers"},
		Tokens:    []string{"scrap", "metal", "recycl"},
		Blacklist: []string{"youtube.com"},
	})

	urls := agg.Gather(context.Background(), "Canada", 100)
	if len(urls) != 25 {
		t.Fatalf("got %d candidates, want 25: %v", len(urls), urls)
	}
	if urls[0] != "https://scrapyard0.example.com/" {
		t.Errorf("first candidate = %q", urls[0])
	}
	if urls[24] != "https://metalbuyer4.example.com/" {
		t.Errorf("last candidate = %q", urls[24])
	}
}

func TestGatherTokenFilter(t *testing.T) {
	backend := &fakeBackend{
		name: "fake",
		results: map[string][]string{
			"scrap metal Canada": {
				"https://ohiorecycling.example.com/",
				"https://flowershop.example.com/",
			},
		},
	}
	agg := New([]search.Backend{backend}, Config{
		Terms:  []string{"scrap metal"},
		Tokens: []string{"scrap", "metal", "recycl"},
	})

	urls := agg.Gather(context.Background(), "Canada", 10)
	if len(urls) != 1 || urls[0] != "https://ohiorecycling.example.com/" {
		t.Fatalf("urls = %v", urls)
	}
}

func TestGatherDeterministicOrder(t *testing.T) {
	results := map[string][]string{
		"scrap metal Canada": {"https://a.scrap.example.com/"},
	}
	first := &fakeBackend{name: "first", results: results}
	second := &fakeBackend{name: "second", results: map[string][]string{
		"scrap metal Canada": {"https://b.scrap.example.com/"},
	}}

	for i := 0; i < 5; i++ {
		agg := New([]search.Backend{first, second}, Config{
			Terms:  []string{"scrap metal"},
			Tokens: []string{"scrap"},
		})
		urls := agg.Gather(context.Background(), "Canada", 10)
		if len(urls) != 2 || urls[0] != "https://a.scrap.example.com/" || urls[1] != "https://b.scrap.example.com/" {
			t.Fatalf("run %d: order not stable: %v", i, urls)
		}
	}
}

func TestGatherBackendFailureIsNotFatal(t *testing.T) {
	broken := &fakeBackend{name: "broken", err: errors.New("rate limited")}
	working := &fakeBackend{name: "working", results: map[string][]string{
		"scrap metal Canada": {"https://scrap.example.com/"},
	}}

	agg := New([]search.Backend{broken, working}, Config{
		Terms:  []string{"scrap metal"},
		Tokens: []string{"scrap"},
	})

	urls := agg.Gather(context.Background(), "Canada", 10)
	if len(urls) != 1 {
		t.Fatalf("expected the working backend's result, got %v", urls)
	}
}

func TestPerBucketFloor(t *testing.T) {
	backend := &fakeBackend{name: "fake", results: map[string][]string{}}
	agg := New([]search.Backend{backend}, Config{
		Terms:  []string{"scrap metal", "metal recyclers"},
		Tokens: []string{"scrap"},
	})

	// quota 4 over 2 buckets would be 2 per bucket; floor lifts it to 5.
	agg.Gather(context.Background(), "Canada", 4)
	if backend.asked != 5 {
		t.Errorf("per-bucket ask = %d, want floor of 5", backend.asked)
	}

	agg.Gather(context.Background(), "Canada", 40)
	if backend.asked != 20 {
		t.Errorf("per-bucket ask = %d, want 20", backend.asked)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://Example.COM/Contact/", "https://example.com/Contact"},
		{"https://example.com/page#frag", "https://example.com/page"},
		{"not a url", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.raw); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

type fakeExpander struct {
	pages map[string][]string
}

func (f *fakeExpander) Expand(_ context.Context, siteURL string) ([]string, error) {
	return f.pages[siteURL], nil
}

func TestGatherWithExpander(t *testing.T) {
	backend := &fakeBackend{name: "fake", results: map[string][]string{
		"scrap metal Canada": {"https://scrap.example.com/"},
	}}
	agg := New([]search.Backend{backend}, Config{
		Terms:  []string{"scrap metal"},
		Tokens: []string{"scrap"},
		Expander: &fakeExpander{pages: map[string][]string{
			"https://scrap.example.com/": {
				"https://scrap.example.com/contact",
				"https://scrap.example.com/", // already present, dropped
			},
		}},
	})

	urls := agg.Gather(context.Background(), "Canada", 10)
	want := []string{"https://scrap.example.com/", "https://scrap.example.com/contact"}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestBlacklistedSubdomain(t *testing.T) {
	agg := New(nil, Config{Blacklist: []string{"youtube.com"}})
	if !agg.blacklisted("https://m.youtube.com/watch") {
		t.Error("subdomain of a blacklisted host should be blacklisted")
	}
	if agg.blacklisted("https://notyoutube.com.example.org/") {
		t.Error("suffix match must respect label boundaries")
	}
}
