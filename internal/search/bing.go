package search

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/FranksOps/ingot/internal/fetch"
)

const bingBase = "https://www.bing.com/search"

// Bing queries bing.com's HTML results. Used as the secondary backend to
// widen coverage beyond what DuckDuckGo surfaces.
type Bing struct {
	fetcher *fetch.Fetcher
	baseURL string
}

var _ Backend = (*Bing)(nil)

// NewBing builds the backend. baseURL overrides the live endpoint and is
// meant for tests; pass "" for the real one.
func NewBing(fetcher *fetch.Fetcher, baseURL string) *Bing {
	if baseURL == "" {
		baseURL = bingBase
	}
	return &Bing{fetcher: fetcher, baseURL: baseURL}
}

func (b *Bing) Name() string { return "bing" }

// Search fetches one SERP page and returns up to maxResults result URLs.
func (b *Bing) Search(ctx context.Context, q Query, maxResults int) ([]string, error) {
	params := url.Values{}
	params.Set("q", q.String())
	params.Set("count", strconv.Itoa(maxResults))
	params.Set("first", "1")

	result := b.fetcher.Get(ctx, b.baseURL+"?"+params.Encode())
	if !result.Usable() {
		return nil, fmt.Errorf("bing query %q: %s", q.String(), fetchFailure(result))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return nil, fmt.Errorf("parse bing results: %w", err)
	}

	var urls []string
	doc.Find("li.b_algo h2 a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || !strings.HasPrefix(href, "http") {
			return true
		}
		urls = append(urls, href)
		return len(urls) < maxResults
	})
	return urls, nil
}
