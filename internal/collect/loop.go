// Package collect drives a full discovery run: it pulls candidate URLs
// from discovery, extracts them concurrently, and keeps refilling the
// candidate pool until the target count of contactable businesses is met
// or the search space is exhausted.
package collect

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/ingot/internal/discovery"
	"github.com/FranksOps/ingot/internal/metrics"
	"github.com/FranksOps/ingot/internal/record"
)

// ErrNoResults is returned when a run finishes without collecting a
// single contactable business.
var ErrNoResults = errors.New("no businesses collected")

// Discoverer produces candidate URLs for a country, aiming for quota.
type Discoverer interface {
	Gather(ctx context.Context, country string, quota int) []string
}

// Extractor turns a candidate page into a record, or nil when the page
// is unusable.
type Extractor interface {
	Extract(ctx context.Context, pageURL, country string) *record.Business
}

// Config tunes the collection loop.
type Config struct {
	// Workers is the number of pages extracted concurrently.
	Workers int
	// RefillMultiplier scales how many candidates a refill asks for,
	// relative to the records still missing.
	RefillMultiplier int
	Logger           *slog.Logger
}

// Stats counts what a run processed, for the end-of-run report.
type Stats struct {
	Candidates int
	Refills    int
	Unusable   int
	NoContact  int
}

// Loop is the collection controller. The seen set and record list are
// touched only between extraction batches, so no locking is needed.
type Loop struct {
	discoverer Discoverer
	extractor  Extractor
	config     Config
	logger     *slog.Logger

	stats Stats
}

// New creates a Loop. Zero Workers defaults to 8, zero RefillMultiplier
// to 2.
func New(d Discoverer, e Extractor, cfg Config) *Loop {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.RefillMultiplier <= 0 {
		cfg.RefillMultiplier = 2
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{discoverer: d, extractor: e, config: cfg, logger: logger}
}

// Stats reports counters from the most recent Collect call.
func (l *Loop) Stats() Stats { return l.stats }

// Collect runs until target businesses with contact details are
// collected, candidates run out, or the context is canceled. On
// cancellation the partial result is returned alongside the context
// error. A run that yields nothing returns ErrNoResults.
func (l *Loop) Collect(ctx context.Context, country string, target int) ([]*record.Business, error) {
	l.stats = Stats{}
	seen := make(map[string]struct{})
	var collected []*record.Business

	queue := l.enqueue(seen, l.discoverer.Gather(ctx, country, target))
	l.logger.Info("collection started", "country", country, "target", target, "candidates", len(queue))

	for len(collected) < target {
		if err := ctx.Err(); err != nil {
			return collected, err
		}

		if len(queue) == 0 {
			fresh := l.refill(ctx, country, target-len(collected))
			fresh = l.enqueue(seen, fresh)
			if len(fresh) == 0 {
				l.logger.Info("candidate pool exhausted", "collected", len(collected), "target", target)
				break
			}
			queue = fresh
			continue
		}

		batch := queue
		if len(batch) > l.config.Workers {
			batch = batch[:l.config.Workers]
		}
		queue = queue[len(batch):]

		for _, b := range l.extractBatch(ctx, batch, country) {
			if b == nil {
				l.stats.Unusable++
				metrics.RecordsTotal.WithLabelValues("unusable").Inc()
				continue
			}
			if !b.HasContact() {
				l.stats.NoContact++
				metrics.RecordsTotal.WithLabelValues("no_contact").Inc()
				continue
			}
			b.ID = uuid.NewString()
			b.CollectedAt = time.Now().UTC()
			metrics.RecordsTotal.WithLabelValues("accepted").Inc()
			collected = append(collected, b)
			if len(collected) == target {
				break
			}
		}
	}

	if len(collected) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoResults
	}
	return collected, nil
}

// extractBatch fans one batch out over the extractor and returns results
// in input order.
func (l *Loop) extractBatch(ctx context.Context, batch []string, country string) []*record.Business {
	results := make([]*record.Business, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.Workers)
	for i, pageURL := range batch {
		i, pageURL := i, pageURL
		g.Go(func() error {
			results[i] = l.extractor.Extract(gctx, pageURL, country)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// refill asks discovery for more candidates, scaled up because most
// candidates never turn into records.
func (l *Loop) refill(ctx context.Context, country string, remaining int) []string {
	ask := remaining * l.config.RefillMultiplier
	l.stats.Refills++
	metrics.RefillsTotal.Inc()
	l.logger.Info("refilling candidates", "remaining", remaining, "ask", ask)
	return l.discoverer.Gather(ctx, country, ask)
}

// enqueue filters out already-seen URLs and marks the rest seen. The set
// keys on the same canonical form discovery dedupes with, so a refill
// cannot smuggle in a respelling (trailing slash, host case) of a page
// already fetched. Only the controller touches the seen set.
func (l *Loop) enqueue(seen map[string]struct{}, urls []string) []string {
	var fresh []string
	for _, u := range urls {
		key := discovery.Normalize(u)
		if key == "" {
			key = u
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, u)
	}
	l.stats.Candidates += len(fresh)
	return fresh
}
