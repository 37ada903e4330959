// Package prometheus instruments docsearch services with Prometheus metrics.
package prometheus

import (
	"github.com/fwojciec/docsearch/crawl"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docsearch"

var _ crawl.Observer = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	FetchDuration  *prometheus.HistogramVec
	IndexDuration  *prometheus.HistogramVec
	SearchDuration *prometheus.HistogramVec

	PagesTotal    *prometheus.CounterVec
	SessionsTotal *prometheus.CounterVec
	SessionPages  prometheus.Histogram
	ActiveCrawls  prometheus.Gauge
	InFlight      prometheus.Gauge
	Pending       prometheus.Gauge

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of page fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		IndexDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_duration_seconds",
			Help:      "Duration of page reindex transactions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		SearchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of keyword searches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		PagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawl_pages_total",
			Help:      "Pages processed by crawl sessions, by outcome.",
		}, []string{"outcome"}),
		SessionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawl_sessions_total",
			Help:      "Finished crawl sessions, by result.",
		}, []string{"result"}),
		SessionPages: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crawl_session_pages",
			Help:      "Pages visited per crawl session.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		ActiveCrawls: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "crawl_sessions_active",
			Help:      "Crawl sessions currently running.",
		}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "crawl_in_flight",
			Help:      "Units of work in flight in the latest reporting session.",
		}),
		Pending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "crawl_frontier_pending",
			Help:      "URLs pending in the latest reporting session's frontier.",
		}),
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// SessionStarted implements crawl.Observer.
func (m *Metrics) SessionStarted(string) {
	m.ActiveCrawls.Inc()
}

// SessionFinished implements crawl.Observer.
func (m *Metrics) SessionFinished(_ string, result *crawl.Result, err error) {
	m.ActiveCrawls.Dec()
	m.SessionsTotal.WithLabelValues(resultLabel(err)).Inc()
	if result != nil {
		m.SessionPages.Observe(float64(result.Visited))
	}
}

// PageProcessed implements crawl.Observer.
func (m *Metrics) PageProcessed(outcome string) {
	m.PagesTotal.WithLabelValues(outcome).Inc()
}

// Progress implements crawl.Observer.
func (m *Metrics) Progress(inFlight, pending int) {
	m.InFlight.Set(float64(inFlight))
	m.Pending.Set(float64(pending))
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
