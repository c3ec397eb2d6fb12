package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/ingot/internal/bypass"
	"github.com/FranksOps/ingot/internal/fingerprint"
	"github.com/FranksOps/ingot/internal/metrics"
	"github.com/FranksOps/ingot/pkg/httpclient"
	"github.com/FranksOps/ingot/pkg/proxy"
	"github.com/FranksOps/ingot/pkg/ratelimit"
	"github.com/FranksOps/ingot/pkg/useragent"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// Config configures a Fetcher.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	Limiter      *ratelimit.Limiter
}

// Result is the outcome of fetching one URL. Transport failures are carried
// in Error rather than returned as Go errors: a failed fetch is an expected,
// non-fatal event that only lowers the batch's yield.
type Result struct {
	URL          string
	StatusCode   int
	Headers      map[string][]string
	Body         []byte
	Duration     time.Duration
	Challenged   bool
	ChallengeSrc string
	Error        string
}

// Usable reports whether the body can be handed to an extractor.
func (r *Result) Usable() bool {
	return r.Error == "" && r.StatusCode == http.StatusOK && !r.Challenged
}

// Fetcher performs single-page GETs with UA rotation, an optional proxy
// pool, a TLS fingerprint profile, and challenge detection. One Fetcher is
// shared by a whole collection run so cookies and connections persist.
type Fetcher struct {
	config Config
	client *httpclient.Client
}

// New initializes a Fetcher. A zero Timeout defaults to 10 seconds.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if string(cfg.Fingerprint) == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}

	// A single transport for the fetcher's lifetime keeps connection pooling
	// effective. Per-request proxy rotation goes through the request context
	// because mutating Transport.Proxy concurrently is not safe.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if val := req.Context().Value(proxyKey); val != nil {
			if u, ok := val.(*url.URL); ok {
				return u, nil
			}
		}
		if req.URL.Hostname() == "127.0.0.1" || req.URL.Hostname() == "localhost" {
			// Never route local test servers through an environment proxy.
			return nil, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client}, nil
}

// Get fetches the target URL. The returned Result is never nil; inspect
// Result.Error and Result.Usable for the outcome.
func (f *Fetcher) Get(ctx context.Context, targetURL string) *Result {
	result := &Result{URL: targetURL}

	if f.config.Limiter != nil {
		if err := f.config.Limiter.Wait(ctx); err != nil {
			result.Error = fmt.Sprintf("rate limiter: %v", err)
			return result
		}
	}

	start := time.Now()

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		activeProxy = f.config.ProxyPool.Next()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.Duration = time.Since(start)
		return result
	}

	if activeProxy != nil {
		req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
	}

	req.Header.Set("User-Agent", f.config.UAPool.Random())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
		}
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Duration = time.Since(start)
		metrics.RecordFetch(0, result.Error, "", result.Duration)
		return result
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.config.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = fmt.Sprintf("read body: %v", err)
	}

	result.StatusCode = resp.StatusCode
	result.Headers = resp.Header
	result.Body = body
	result.Duration = time.Since(start)

	result.Challenged, result.ChallengeSrc = bypass.Analyze(
		result.StatusCode, result.Headers, result.Body, bypass.DefaultDetectors())

	metrics.RecordFetch(result.StatusCode, result.Error, result.ChallengeSrc, result.Duration)
	return result
}
