// Package metrics exposes Prometheus counters for scans, collectors and
// bot commands. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "pointsmaxxer"

type Metrics struct {
	registry *prometheus.Registry

	scans             *prometheus.CounterVec
	scanDuration      prometheus.Histogram
	awards            prometheus.Counter
	deals             prometheus.Counter
	unicorns          prometheus.Counter
	priceDrops        prometheus.Counter
	collectorRequests *prometheus.CounterVec
	collectorDuration *prometheus.HistogramVec
	commands          *prometheus.CounterVec
	portfolioPoints   prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scans_total",
			Help: "Completed scans by outcome.",
		}, []string{"outcome"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "scan_duration_seconds",
			Help:    "Wall time of a full scan.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		awards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "awards_found_total",
			Help: "Awards returned by collectors.",
		}),
		deals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "deals_found_total",
			Help: "Deals produced by the analyzer.",
		}),
		unicorns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "unicorns_found_total",
			Help: "Deals at or above the unicorn threshold.",
		}),
		priceDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "price_drops_total",
			Help: "Price drops detected during scans.",
		}),
		collectorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "collector_requests_total",
			Help: "Collector searches by collector and outcome.",
		}, []string{"collector", "outcome"}),
		collectorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "collector_duration_seconds",
			Help:    "Collector search latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"collector"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bot_commands_total",
			Help: "Bot commands routed.",
		}, []string{"command"}),
		portfolioPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "portfolio_points",
			Help: "Total points across the portfolio.",
		}),
	}

	m.registry.MustRegister(
		m.scans, m.scanDuration, m.awards, m.deals, m.unicorns, m.priceDrops,
		m.collectorRequests, m.collectorDuration, m.commands, m.portfolioPoints,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCollector records one collector search.
func (m *Metrics) ObserveCollector(code string, took time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.collectorRequests.WithLabelValues(code, outcome).Inc()
	m.collectorDuration.WithLabelValues(code).Observe(took.Seconds())
}

// ScanStats is what a finished scan reports.
type ScanStats struct {
	Duration   time.Duration
	Awards     int
	Deals      int
	Unicorns   int
	PriceDrops int
	Errors     int
}

// ObserveScan records a finished scan.
func (m *Metrics) ObserveScan(s ScanStats) {
	if m == nil {
		return
	}
	outcome := "ok"
	if s.Errors > 0 {
		outcome = "partial"
	}
	m.scans.WithLabelValues(outcome).Inc()
	m.scanDuration.Observe(s.Duration.Seconds())
	m.awards.Add(float64(s.Awards))
	m.deals.Add(float64(s.Deals))
	m.unicorns.Add(float64(s.Unicorns))
	m.priceDrops.Add(float64(s.PriceDrops))
}

// CommandRouted counts a bot command.
func (m *Metrics) CommandRouted(cmd string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(cmd).Inc()
}

// SetPortfolioPoints updates the portfolio gauge.
func (m *Metrics) SetPortfolioPoints(total int64) {
	if m == nil {
		return
	}
	m.portfolioPoints.Set(float64(total))
}

// Handler serves /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve runs the metrics server until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("Metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
