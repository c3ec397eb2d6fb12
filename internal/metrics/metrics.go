package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingot_search_requests_total",
			Help: "Search backend queries issued, by backend and outcome",
		},
		[]string{"backend", "status"},
	)

	CandidatesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingot_candidates_dropped_total",
			Help: "Candidate URLs dropped during aggregation, by reason",
		},
		[]string{"reason"}, // duplicate, blacklisted, irrelevant
	)

	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingot_fetches_total",
			Help: "Candidate page fetches, by status and challenge source",
		},
		[]string{"status", "challenge"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingot_fetch_duration_seconds",
			Help:    "Duration of candidate page fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
	)

	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingot_records_total",
			Help: "Extraction outcomes, by result",
		},
		[]string{"result"}, // accepted, no_contact, unusable
	)

	RefillsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingot_refills_total",
			Help: "Times the collection loop re-ran candidate discovery",
		},
	)
)

// RecordSearch counts one backend query.
func RecordSearch(backend string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	SearchRequestsTotal.WithLabelValues(backend, status).Inc()
}

// RecordFetch counts one page fetch and observes its duration.
func RecordFetch(statusCode int, fetchErr string, challenge string, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	if fetchErr != "" {
		status = "error"
	}
	FetchesTotal.WithLabelValues(status, challenge).Inc()
	FetchDuration.Observe(duration.Seconds())
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv *http.Server
}

// Start begins serving prometheus metrics on the given port.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
