package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fix outcomes recorded by FixesTotal.
const (
	FixAccepted   = "accepted"
	FixNoise      = "noise"
	FixInvalid    = "invalid"
	FixFatalSpeed = "fatal_speed"
)

// Metrics holds the capture engine's collectors. A nil *Metrics is valid and
// records nothing, so the engine can run without a registry.
type Metrics struct {
	FixesTotal         *prometheus.CounterVec
	SessionsTotal      *prometheus.CounterVec
	SpeedWarningsTotal *prometheus.CounterVec
	UploadErrorsTotal  prometheus.Counter
	ClaimArea          prometheus.Histogram

	gatherer   prometheus.Gatherer
	registerer prometheus.Registerer
}

// NewMetrics registers the collectors with reg. Passing nil creates a fresh
// private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		FixesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geoclaim_fixes_total",
			Help: "Position fixes sampled, by outcome",
		}, []string{"outcome"}),
		SessionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geoclaim_sessions_total",
			Help: "Capture sessions finished, by outcome",
		}, []string{"outcome"}),
		SpeedWarningsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geoclaim_speed_warnings_total",
			Help: "Speed warnings raised, by level",
		}, []string{"level"}),
		UploadErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "geoclaim_upload_errors_total",
			Help: "Passed claims that could not be handed to the uploader",
		}),
		ClaimArea: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "geoclaim_claim_area_square_meters",
			Help:    "Area of passed claims",
			Buckets: prometheus.ExponentialBuckets(100, 2, 12),
		}),
		gatherer:   reg,
		registerer: reg,
	}
}

// WatchMailbox exports the fix mailbox counters, read through stats at
// scrape time. Call it once per registry.
func (m *Metrics) WatchMailbox(stats func() (received, overwritten int)) {
	if m == nil {
		return
	}
	f := promauto.With(m.registerer)
	f.NewCounterFunc(prometheus.CounterOpts{
		Name: "geoclaim_mailbox_fixes_received_total",
		Help: "Fixes written to the source mailbox",
	}, func() float64 {
		received, _ := stats()
		return float64(received)
	})
	f.NewCounterFunc(prometheus.CounterOpts{
		Name: "geoclaim_mailbox_fixes_overwritten_total",
		Help: "Fixes replaced in the source mailbox before the session sampled them",
	}, func() float64 {
		_, overwritten := stats()
		return float64(overwritten)
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Fix counts one sampled fix.
func (m *Metrics) Fix(outcome string) {
	if m == nil {
		return
	}
	m.FixesTotal.WithLabelValues(outcome).Inc()
}

// Session counts one finished session.
func (m *Metrics) Session(outcome string) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(outcome).Inc()
}

// SpeedWarning counts one advisory or fatal warning.
func (m *Metrics) SpeedWarning(level string) {
	if m == nil {
		return
	}
	m.SpeedWarningsTotal.WithLabelValues(level).Inc()
}

// UploadError counts one failed upload.
func (m *Metrics) UploadError() {
	if m == nil {
		return
	}
	m.UploadErrorsTotal.Inc()
}

// ObserveClaimArea records the area of a passed claim.
func (m *Metrics) ObserveClaimArea(squareMeters float64) {
	if m == nil {
		return
	}
	m.ClaimArea.Observe(squareMeters)
}
