// Package discovery runs the search phase of a collection: it fans query
// buckets out across search backends and turns the raw hits into a clean,
// deduplicated candidate URL list.
package discovery

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/ingot/internal/metrics"
	"github.com/FranksOps/ingot/internal/region"
	"github.com/FranksOps/ingot/internal/search"
)

// Expander finds additional pages on an already-discovered site.
type Expander interface {
	Expand(ctx context.Context, siteURL string) ([]string, error)
}

// Config tunes candidate discovery.
type Config struct {
	// Terms are the search phrases combined with each subregion.
	Terms []string
	// Tokens are substrings a candidate URL must contain to stay relevant.
	Tokens []string
	// Blacklist lists domains whose results are always discarded.
	Blacklist []string
	// PerBucketFloor is the minimum results requested per term-region
	// bucket, regardless of how small the overall quota is.
	PerBucketFloor int
	// Expander, when set, augments each gather with contact-ish pages
	// from the candidates' sitemaps.
	Expander Expander
	Logger   *slog.Logger
}

// Aggregator coordinates one or more search backends.
type Aggregator struct {
	backends []search.Backend
	config   Config
	logger   *slog.Logger
}

// New creates an Aggregator. A zero PerBucketFloor defaults to 5.
func New(backends []search.Backend, cfg Config) *Aggregator {
	if cfg.PerBucketFloor <= 0 {
		cfg.PerBucketFloor = 5
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{backends: backends, config: cfg, logger: logger}
}

// Gather searches every term in every subregion of the country across all
// backends and returns filtered candidate URLs in a deterministic
// first-seen order. Backend failures are logged and contribute nothing;
// discovery succeeds with whatever the remaining buckets produced.
func (a *Aggregator) Gather(ctx context.Context, country string, quota int) []string {
	regions := region.Regions(country)
	perBucket := a.perBucket(quota, len(regions))

	var queries []search.Query
	for _, reg := range regions {
		for _, term := range a.config.Terms {
			queries = append(queries, search.Query{Term: term, Region: reg})
		}
	}

	// Each (query, backend) pair writes into its own slot so the merged
	// order never depends on goroutine scheduling.
	slots := make([][]string, len(queries)*len(a.backends))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for qi, q := range queries {
		for bi, backend := range a.backends {
			slot := qi*len(a.backends) + bi
			q, backend := q, backend
			g.Go(func() error {
				urls, err := backend.Search(gctx, q, perBucket)
				metrics.RecordSearch(backend.Name(), err)
				if err != nil {
					a.logger.Warn("search backend failed",
						"backend", backend.Name(), "query", q.String(), "err", err)
					return nil
				}
				slots[slot] = urls
				return nil
			})
		}
	}
	_ = g.Wait()

	candidates := a.filter(slots)
	if a.config.Expander != nil {
		candidates = a.expand(ctx, candidates)
	}
	return candidates
}

// expand appends sitemap-discovered pages after each site's own entry,
// keeping the dedup guarantee intact.
func (a *Aggregator) expand(ctx context.Context, candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		seen[Normalize(c)] = struct{}{}
	}

	var out []string
	for _, c := range candidates {
		out = append(out, c)
		extra, err := a.config.Expander.Expand(ctx, c)
		if err != nil {
			a.logger.Debug("sitemap expansion failed", "url", c, "err", err)
			continue
		}
		for _, e := range extra {
			key := Normalize(e)
			if _, dup := seen[key]; dup || key == "" {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// perBucket splits the quota across all buckets, never dropping below the
// configured floor so sparse regions still get a real query.
func (a *Aggregator) perBucket(quota, regionCount int) int {
	buckets := len(a.config.Terms) * regionCount
	if buckets == 0 {
		return a.config.PerBucketFloor
	}
	per := quota / buckets
	if per < a.config.PerBucketFloor {
		per = a.config.PerBucketFloor
	}
	return per
}

// filter merges slot results in order, dropping duplicates, blacklisted
// domains, and URLs with no relevance token.
func (a *Aggregator) filter(slots [][]string) []string {
	seen := make(map[string]struct{})
	var out []string

	for _, slot := range slots {
		for _, raw := range slot {
			key := Normalize(raw)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				metrics.CandidatesDroppedTotal.WithLabelValues("duplicate").Inc()
				continue
			}
			seen[key] = struct{}{}

			if a.blacklisted(key) {
				metrics.CandidatesDroppedTotal.WithLabelValues("blacklisted").Inc()
				continue
			}
			if !a.relevant(key) {
				metrics.CandidatesDroppedTotal.WithLabelValues("irrelevant").Inc()
				continue
			}
			out = append(out, raw)
		}
	}
	return out
}

// Normalize produces the canonical dedup key for a candidate URL: lowercased host, no fragment, no
// trailing slash. Unparseable URLs normalize to "".
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	s := u.String()
	return strings.TrimSuffix(s, "/")
}

func (a *Aggregator) blacklisted(normalized string) bool {
	u, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, b := range a.config.Blacklist {
		b = strings.ToLower(b)
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

func (a *Aggregator) relevant(normalized string) bool {
	if len(a.config.Tokens) == 0 {
		return true
	}
	lower := strings.ToLower(normalized)
	for _, tok := range a.config.Tokens {
		if strings.Contains(lower, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}
