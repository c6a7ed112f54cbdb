package observability

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

// Metrics is nil when METRICS_ENABLED is off; every method is a no-op on nil.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	batchesStaged *prometheus.CounterVec
	rowsSkipped   prometheus.Counter
	rowWarnings   prometheus.Counter
	applyTotal    *prometheus.CounterVec
	applyDuration *prometheus.HistogramVec
	diffTotal     *prometheus.CounterVec
	rosterMutated *prometheus.CounterVec
	dataQuality   *prometheus.CounterVec

	dbStats *prometheus.GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New builds a Metrics bound to its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "api_requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roster",
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds by method/route/status.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roster",
			Name:      "api_inflight_requests",
			Help:      "In-flight API requests.",
		}),
		batchesStaged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "batches_staged_total",
			Help:      "Upload batches staged, by result.",
		}, []string{"result"}),
		rowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "rows_skipped_total",
			Help:      "Upload rows skipped by validation.",
		}),
		rowWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "row_warnings_total",
			Help:      "Upload rows kept with a validation warning.",
		}),
		applyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "apply_total",
			Help:      "Batch apply/reject calls by mode and result.",
		}, []string{"mode", "result"}),
		applyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roster",
			Name:      "apply_duration_seconds",
			Help:      "Batch apply latency in seconds by mode.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"mode"}),
		diffTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "diff_computed_total",
			Help:      "Diffs computed, by source (fresh or cached).",
		}, []string{"source"}),
		rosterMutated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "entries_mutated_total",
			Help:      "Roster entries written by apply, by category.",
		}, []string{"category"}),
		dataQuality: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "data_quality_issues_total",
			Help:      "Upload row issues by stage, kind and field.",
		}, []string{"stage", "issue", "field"}),
		dbStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "roster",
			Name:      "db_pool",
			Help:      "database/sql pool statistics.",
		}, []string{"stat"}),
	}
	reg.MustRegister(
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.batchesStaged,
		m.rowsSkipped,
		m.rowWarnings,
		m.applyTotal,
		m.applyDuration,
		m.diffTotal,
		m.rosterMutated,
		m.dataQuality,
		m.dbStats,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveStaging(result string, skipped, warnings int) {
	if m == nil {
		return
	}
	m.batchesStaged.WithLabelValues(result).Inc()
	m.rowsSkipped.Add(float64(skipped))
	m.rowWarnings.Add(float64(warnings))
}

func (m *Metrics) IncDataQuality(stage, issue, field string) {
	if m == nil {
		return
	}
	m.dataQuality.WithLabelValues(stage, issue, field).Inc()
}

func (m *Metrics) ObserveApply(mode, result string, dur time.Duration) {
	if m == nil {
		return
	}
	m.applyTotal.WithLabelValues(mode, result).Inc()
	m.applyDuration.WithLabelValues(mode).Observe(dur.Seconds())
}

func (m *Metrics) IncDiff(source string) {
	if m == nil {
		return
	}
	m.diffTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) AddMutations(added, removed, changed int) {
	if m == nil {
		return
	}
	m.rosterMutated.WithLabelValues("added").Add(float64(added))
	m.rosterMutated.WithLabelValues("removed").Add(float64(removed))
	m.rosterMutated.WithLabelValues("changed").Add(float64(changed))
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}
