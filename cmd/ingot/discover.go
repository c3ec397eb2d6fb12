package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/ingot/internal/collect"
	"github.com/FranksOps/ingot/internal/config"
	"github.com/FranksOps/ingot/internal/discovery"
	"github.com/FranksOps/ingot/internal/extract"
	"github.com/FranksOps/ingot/internal/fetch"
	"github.com/FranksOps/ingot/internal/fingerprint"
	"github.com/FranksOps/ingot/internal/metrics"
	"github.com/FranksOps/ingot/internal/record"
	"github.com/FranksOps/ingot/internal/record/csvsink"
	"github.com/FranksOps/ingot/internal/record/jsonsink"
	"github.com/FranksOps/ingot/internal/record/pgsink"
	"github.com/FranksOps/ingot/internal/record/sqlitesink"
	"github.com/FranksOps/ingot/internal/record/xlsxsink"
	"github.com/FranksOps/ingot/internal/report"
	"github.com/FranksOps/ingot/internal/search"
	"github.com/FranksOps/ingot/pkg/proxy"
	"github.com/FranksOps/ingot/pkg/ratelimit"
)

func newDiscoverCmd() *cobra.Command {
	var (
		country  string
		countArg string
		format   string
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Collect business contact records for a country",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if format != "" {
				cfg.Output.Format = format
			}
			if outPath != "" {
				cfg.Output.Path = outPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			target := cfg.Collect.DefaultCount
			if countArg != "" {
				n, err := strconv.Atoi(countArg)
				if err != nil || n <= 0 {
					slog.Warn("count is not a positive number, using default",
						"count", countArg, "default", target)
				} else {
					target = n
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runDiscover(ctx, cfg, country, target)
		},
	}

	cmd.Flags().StringVar(&country, "country", "United States", "country to search")
	cmd.Flags().StringVar(&countArg, "count", "", "target number of businesses")
	cmd.Flags().StringVar(&format, "format", "", "output format: csv, json, xlsx, sqlite, postgres")
	cmd.Flags().StringVar(&outPath, "out", "", "output file path")
	return cmd
}

func runDiscover(ctx context.Context, cfg config.Config, country string, target int) error {
	logger := slog.Default()
	start := time.Now()

	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.Start(cfg.Metrics.Port)
		defer metricsSrv.Stop(context.Background())
	}

	fetcher, err := buildFetcher(cfg)
	if err != nil {
		return err
	}

	backends, err := buildBackends(cfg, fetcher)
	if err != nil {
		return err
	}

	var expander discovery.Expander
	if cfg.Search.ExpandSitemaps {
		expander = discovery.NewSitemapExpander(fetcher, logger)
	}

	aggregator := discovery.New(backends, discovery.Config{
		Terms:          cfg.Search.Terms,
		Tokens:         cfg.Search.Tokens,
		Blacklist:      cfg.Search.Blacklist,
		PerBucketFloor: cfg.Search.PerBucketFloor,
		Expander:       expander,
		Logger:         logger,
	})

	extractor := extract.New(fetcher, extract.Config{
		Tokens:    cfg.Search.Tokens,
		Materials: cfg.Extract.Materials,
		Services:  cfg.Extract.Services,
		Logger:    logger,
	})

	loop := collect.New(aggregator, extractor, collect.Config{
		Workers:          cfg.Collect.Workers,
		RefillMultiplier: cfg.Collect.RefillMultiplier,
		Logger:           logger,
	})

	records, runErr := loop.Collect(ctx, country, target)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if errors.Is(runErr, context.Canceled) {
		logger.Warn("run interrupted, writing partial results", "collected", len(records))
	}

	if len(records) > 0 {
		if err := writeRecords(ctx, cfg, records); err != nil {
			return err
		}
		logger.Info("records written", "count", len(records),
			"format", cfg.Output.Format, "path", cfg.Output.Path)
	}

	summary := report.GenerateSummary(country, target, records, loop.Stats(), start, time.Now())
	if err := report.WriteText(os.Stdout, summary); err != nil {
		return err
	}
	return nil
}

func buildFetcher(cfg config.Config) (*fetch.Fetcher, error) {
	var pool *proxy.Pool
	if cfg.HTTP.ProxyFile != "" {
		pool = proxy.NewPool(proxy.Config{})
		if err := pool.LoadFile(cfg.HTTP.ProxyFile); err != nil {
			return nil, err
		}
	}

	var limiter *ratelimit.Limiter
	if cfg.HTTP.RatePerSecond > 0 {
		limiter = ratelimit.NewLimiter(cfg.HTTP.RatePerSecond, cfg.HTTP.RateJitter)
	}

	return fetch.New(fetch.Config{
		Timeout:      cfg.FetchTimeout(),
		MaxRedirects: cfg.HTTP.MaxRedirects,
		UseCookieJar: cfg.HTTP.UseCookieJar,
		ProxyPool:    pool,
		Fingerprint:  fingerprint.Profile(cfg.HTTP.Fingerprint),
		Limiter:      limiter,
	})
}

func buildBackends(cfg config.Config, fetcher *fetch.Fetcher) ([]search.Backend, error) {
	var backends []search.Backend
	for _, name := range cfg.Search.Backends {
		switch name {
		case "duckduckgo":
			backends = append(backends, search.NewDuckDuckGo(fetcher, ""))
		case "bing":
			backends = append(backends, search.NewBing(fetcher, ""))
		default:
			return nil, fmt.Errorf("unknown search backend %q", name)
		}
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no search backends configured")
	}
	return backends, nil
}

func writeRecords(ctx context.Context, cfg config.Config, records []*record.Business) error {
	// An interrupted run still flushes its partial results; the canceled
	// run context would make the database sinks refuse every write.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}

	sink, err := openSink(ctx, cfg)
	if err != nil {
		return err
	}

	for _, b := range records {
		if err := sink.Write(ctx, b); err != nil {
			_ = sink.Close()
			return fmt.Errorf("write record %s: %w", b.ID, err)
		}
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("close sink: %w", err)
	}
	return nil
}

func openSink(ctx context.Context, cfg config.Config) (record.Sink, error) {
	switch cfg.Output.Format {
	case "csv":
		return csvsink.New(cfg.Output.Path)
	case "json":
		return jsonsink.New(cfg.Output.Path)
	case "xlsx":
		return xlsxsink.New(cfg.Output.Path)
	case "sqlite":
		return sqlitesink.New(cfg.Output.Path)
	case "postgres":
		return pgsink.New(ctx, cfg.Output.PgDSN)
	default:
		return nil, fmt.Errorf("output format %q not supported", cfg.Output.Format)
	}
}
