// Package metrics exposes Prometheus collectors for pricing submissions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// SubmissionMetrics records how pricing submissions are processed.
// A nil *SubmissionMetrics is valid and records nothing.
type SubmissionMetrics struct {
	duration     *prometheus.HistogramVec
	submissions  *prometheus.CounterVec
	rejectedRows *prometheus.CounterVec
	itemsCreated *prometheus.CounterVec
	inFlight     prometheus.Gauge
}

// NewSubmissionMetrics registers the submission metrics on the provided registerer.
func NewSubmissionMetrics(reg prometheus.Registerer) *SubmissionMetrics {
	if reg == nil {
		return &SubmissionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_submission_duration_seconds",
		Help:    "Time spent decoding, validating, and storing a pricing submission.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_submissions_total",
		Help: "Pricing submissions by kind and outcome.",
	}, []string{"kind", "outcome"})
	rejectedRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_rejected_rows_total",
		Help: "Rows that failed validation.",
	}, []string{"kind"})
	itemsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_items_created_total",
		Help: "Pricing items stored.",
	}, []string{"kind"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pricing_submissions_in_flight",
		Help: "Submissions currently holding a processing slot.",
	})
	reg.MustRegister(duration, submissions, rejectedRows, itemsCreated, inFlight)
	return &SubmissionMetrics{
		duration:     duration,
		submissions:  submissions,
		rejectedRows: rejectedRows,
		itemsCreated: itemsCreated,
		inFlight:     inFlight,
	}
}

// ObserveDuration records how long a submission of the given kind took.
func (m *SubmissionMetrics) ObserveDuration(kind string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(kind)).Observe(d.Seconds())
}

// IncSubmission counts one finished submission.
func (m *SubmissionMetrics) IncSubmission(kind, outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// AddRejectedRows counts rows that failed validation.
func (m *SubmissionMetrics) AddRejectedRows(kind string, n int) {
	if m == nil || m.rejectedRows == nil || n <= 0 {
		return
	}
	m.rejectedRows.WithLabelValues(normalizeLabel(kind)).Add(float64(n))
}

// AddItemsCreated counts stored items.
func (m *SubmissionMetrics) AddItemsCreated(kind string, n int) {
	if m == nil || m.itemsCreated == nil || n <= 0 {
		return
	}
	m.itemsCreated.WithLabelValues(normalizeLabel(kind)).Add(float64(n))
}

// SetInFlight reports the number of submissions holding a slot.
func (m *SubmissionMetrics) SetInFlight(n int) {
	if m == nil || m.inFlight == nil {
		return
	}
	m.inFlight.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
