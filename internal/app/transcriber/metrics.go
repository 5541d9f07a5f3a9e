package transcriber

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of o2t_transcriptions_total.
const (
	OutcomeSuccess          = "success"
	OutcomeRetrievalFailure = "retrieval_failure"
	OutcomeStagingFailure   = "staging_failure"
	OutcomeInferenceFailure = "inference_failure"
	OutcomePanic            = "panic"
)

// Metrics holds the workflow's prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	transcriptions *prometheus.CounterVec
	duration       prometheus.Histogram
	staged         prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transcriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "o2t_transcriptions_total",
			Help: "Transcription calls by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "o2t_transcription_duration_seconds",
			Help:    "Wall time of a transcription call, fetch to cleanup.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
		}),
		staged: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "o2t_staged_files",
			Help: "Temporary audio files currently on disk.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.transcriptions, m.duration, m.staged} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.transcriptions.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) setStaged(n int64) {
	if m == nil {
		return
	}
	m.staged.Set(float64(n))
}
