// Package metrics exposes prometheus collectors for the resolution pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"snag/internal/media"
)

// Recorder implements resolve.Observer on top of a prometheus registry.
type Recorder struct {
	attempts    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	resolutions *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "snag_extractor_attempts_total",
			Help: "Extractor invocations by outcome (success or failure kind).",
		}, []string{"extractor", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "snag_extractor_duration_seconds",
			Help:    "Wall time of extractor invocations.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"extractor"}),
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "snag_resolutions_total",
			Help: "Handled requests by classified platform and response code.",
		}, []string{"platform", "code"}),
	}
}

func (r *Recorder) ObserveAttempt(extractor, outcome string, elapsed time.Duration) {
	r.attempts.WithLabelValues(extractor, outcome).Inc()
	if elapsed > 0 {
		r.duration.WithLabelValues(extractor).Observe(elapsed.Seconds())
	}
}

func (r *Recorder) ObserveResolution(platform media.Platform, code string) {
	r.resolutions.WithLabelValues(string(platform), code).Inc()
}
