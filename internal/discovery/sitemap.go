package discovery

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/oxffaa/gopher-parse-sitemap"

	"github.com/FranksOps/ingot/internal/fetch"
)

// contactPaths are path fragments that usually lead to pages worth
// extracting contact details from.
var contactPaths = []string{"contact", "about", "location", "hours"}

// SitemapExpander discovers extra candidate pages on an already-found
// site by reading its sitemap. Only contact-ish pages are kept; pulling
// in a whole sitemap would swamp the extractor with product pages.
type SitemapExpander struct {
	fetcher *fetch.Fetcher
	logger  *slog.Logger
	// MaxPerSite caps how many URLs one sitemap may contribute.
	MaxPerSite int
}

// NewSitemapExpander builds an expander with a default per-site cap of 5.
func NewSitemapExpander(fetcher *fetch.Fetcher, logger *slog.Logger) *SitemapExpander {
	if logger == nil {
		logger = slog.Default()
	}
	return &SitemapExpander{fetcher: fetcher, logger: logger, MaxPerSite: 5}
}

// Expand reads /sitemap.xml for the site hosting siteURL and returns up
// to MaxPerSite contact-ish URLs. Missing or unparseable sitemaps are not
// an error worth failing a run over, so the only error returned is for a
// malformed input URL.
func (s *SitemapExpander) Expand(ctx context.Context, siteURL string) ([]string, error) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("parse site url %q: %w", siteURL, err)
	}

	sitemapURL := u.Scheme + "://" + u.Host + "/sitemap.xml"
	all := s.fetchSitemap(ctx, sitemapURL, 0)

	var out []string
	for _, loc := range all {
		if len(out) >= s.MaxPerSite {
			break
		}
		if contactish(loc) {
			out = append(out, loc)
		}
	}
	return out, nil
}

// fetchSitemap parses a sitemap, recursing one level into sitemap
// indexes.
func (s *SitemapExpander) fetchSitemap(ctx context.Context, sitemapURL string, depth int) []string {
	if depth > 1 {
		return nil
	}

	result := s.fetcher.Get(ctx, sitemapURL)
	if !result.Usable() {
		s.logger.Debug("sitemap unavailable", "url", sitemapURL, "err", result.Error, "status", result.StatusCode)
		return nil
	}

	var urls []string
	err := sitemap.Parse(bytes.NewReader(result.Body), func(e sitemap.Entry) error {
		urls = append(urls, e.GetLocation())
		return nil
	})

	if err != nil || len(urls) == 0 {
		var nested []string
		indexErr := sitemap.ParseIndex(bytes.NewReader(result.Body), func(e sitemap.IndexEntry) error {
			nested = append(nested, e.GetLocation())
			return nil
		})
		if indexErr != nil {
			s.logger.Debug("sitemap parse failed", "url", sitemapURL, "err", err)
			return nil
		}
		for _, n := range nested {
			urls = append(urls, s.fetchSitemap(ctx, n, depth+1)...)
		}
	}
	return urls
}

func contactish(loc string) bool {
	lower := strings.ToLower(loc)
	for _, p := range contactPaths {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
