package search

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/ingot/internal/fetch"
)

const duckDuckGoBase = "https://html.duckduckgo.com/html/"

// DuckDuckGo queries the HTML (non-JS) DuckDuckGo endpoint. It is the
// primary backend: no API key, stable markup, lenient rate limits.
type DuckDuckGo struct {
	fetcher *fetch.Fetcher
	baseURL string
}

var _ Backend = (*DuckDuckGo)(nil)

// NewDuckDuckGo builds the backend. baseURL overrides the live endpoint
// and is meant for tests; pass "" for the real one.
func NewDuckDuckGo(fetcher *fetch.Fetcher, baseURL string) *DuckDuckGo {
	if baseURL == "" {
		baseURL = duckDuckGoBase
	}
	return &DuckDuckGo{fetcher: fetcher, baseURL: baseURL}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search fetches one SERP page and returns up to maxResults result URLs.
func (d *DuckDuckGo) Search(ctx context.Context, q Query, maxResults int) ([]string, error) {
	params := url.Values{}
	params.Set("q", q.String())

	result := d.fetcher.Get(ctx, d.baseURL+"?"+params.Encode())
	if !result.Usable() {
		return nil, fmt.Errorf("duckduckgo query %q: %s", q.String(), fetchFailure(result))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo results: %w", err)
	}

	var urls []string
	doc.Find("a.result__a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		if resolved := unwrapRedirect(href); resolved != "" {
			urls = append(urls, resolved)
		}
		return len(urls) < maxResults
	})
	return urls, nil
}

// unwrapRedirect resolves DuckDuckGo's /l/?uddg= redirect links to the
// destination URL. Non-redirect hrefs pass through unchanged.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "duckduckgo.com/l/") && !strings.HasPrefix(href, "/l/") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if dest := u.Query().Get("uddg"); dest != "" {
		return dest
	}
	return ""
}

func fetchFailure(r *fetch.Result) string {
	switch {
	case r.Error != "":
		return r.Error
	case r.Challenged:
		return "challenged by " + r.ChallengeSrc
	default:
		return fmt.Sprintf("status %d", r.StatusCode)
	}
}
