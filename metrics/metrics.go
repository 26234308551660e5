// Package metrics bundles Prometheus collectors for the extraction service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors on a dedicated registry. All
// methods are nil-safe so wiring metrics stays optional in tests.
type Metrics struct {
	Registry               *prometheus.Registry
	TasksSubmittedTotal    prometheus.Counter
	TasksFinishedTotal     *prometheus.CounterVec
	PagesFetchedTotal      *prometheus.CounterVec
	FetchDuration          prometheus.Histogram
	EscalationsTotal       *prometheus.CounterVec
	ProductsExtractedTotal prometheus.Counter
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	tasksSubmitted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aurora_tasks_submitted_total",
			Help: "Total extraction tasks accepted.",
		},
	)
	tasksFinished := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_tasks_finished_total",
			Help: "Total extraction tasks reaching a terminal state.",
		},
		[]string{"status"},
	)
	pagesFetched := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_pages_fetched_total",
			Help: "Total listing pages fetched by strategy.",
		},
		[]string{"strategy"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aurora_page_fetch_duration_seconds",
			Help:    "Per-page fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	escalations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurora_ocr_escalations_total",
			Help: "Total OCR escalations by trigger reason.",
		},
		[]string{"reason"},
	)
	productsExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aurora_products_extracted_total",
			Help: "Total product records extracted.",
		},
	)

	registry.MustRegister(tasksSubmitted, tasksFinished, pagesFetched,
		fetchDuration, escalations, productsExtracted)

	return &Metrics{
		Registry:               registry,
		TasksSubmittedTotal:    tasksSubmitted,
		TasksFinishedTotal:     tasksFinished,
		PagesFetchedTotal:      pagesFetched,
		FetchDuration:          fetchDuration,
		EscalationsTotal:       escalations,
		ProductsExtractedTotal: productsExtracted,
	}
}

// IncSubmitted increments the submitted tasks counter.
func (m *Metrics) IncSubmitted() {
	if m == nil {
		return
	}
	m.TasksSubmittedTotal.Inc()
}

// IncFinished increments the finished tasks counter for a terminal status.
func (m *Metrics) IncFinished(status string) {
	if m == nil {
		return
	}
	m.TasksFinishedTotal.WithLabelValues(status).Inc()
}

// IncPage increments the fetched pages counter for a strategy label.
func (m *Metrics) IncPage(strategy string) {
	if m == nil {
		return
	}
	m.PagesFetchedTotal.WithLabelValues(strategy).Inc()
}

// ObserveFetch records a page fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncEscalation increments the OCR escalations counter for a reason label.
func (m *Metrics) IncEscalation(reason string) {
	if m == nil {
		return
	}
	m.EscalationsTotal.WithLabelValues(reason).Inc()
}

// AddProducts adds to the extracted products counter.
func (m *Metrics) AddProducts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ProductsExtractedTotal.Add(float64(n))
}
