// Package metrics exposes Prometheus instrumentation for trophyroom.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cache state
	CachedGames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trophyroom_cached_games",
		Help: "Number of games with a cached achievement record.",
	})
	CacheWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trophyroom_cache_write_failures_total",
		Help: "Total number of failed cache writes.",
	})
	MemoryCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trophyroom_memory_cache_evictions_total",
		Help: "Total number of LRU evictions from the in-process cache.",
	})

	// Refresh runs
	RefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trophyroom_refresh_duration_seconds",
		Help:    "Duration of refresh runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	GamesScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trophyroom_games_scanned_total",
		Help: "Total number of games scanned, by provider and outcome.",
	}, []string{"provider", "outcome"}) // outcome: scanned, no_data, failed
)

// RecordRefreshDuration records the time taken for a refresh run.
func RecordRefreshDuration(mode string, start time.Time) {
	RefreshDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

// Serve exposes /metrics on the given port in a background goroutine.
func Serve(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		addr := fmt.Sprintf(":%d", port)
		_ = http.ListenAndServe(addr, mux)
	}()
}
