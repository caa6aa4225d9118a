package container

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts resolutions. A nil *Metrics records nothing.
type Metrics struct {
	resolutions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	builds      *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "di",
			Name:      "resolutions_total",
			Help:      "Successful Get calls by binding kind.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "di",
			Name:      "resolution_errors_total",
			Help:      "Failed Get calls by reason.",
		}, []string{"reason"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "di",
			Name:      "instances_built_total",
			Help:      "Values built by lazy, autowire and config bindings.",
		}, []string{"kind"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.resolutions, m.failures, m.builds} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Resolutions exposes the resolution counter, labelled by kind.
func (m *Metrics) Resolutions() *prometheus.CounterVec { return m.resolutions }

// Failures exposes the failure counter, labelled by reason.
func (m *Metrics) Failures() *prometheus.CounterVec { return m.failures }

// Builds exposes the build counter, labelled by kind.
func (m *Metrics) Builds() *prometheus.CounterVec { return m.builds }

func (m *Metrics) resolved(kind Kind) {
	if m != nil {
		m.resolutions.WithLabelValues(kind.String()).Inc()
	}
}

func (m *Metrics) failed(reason string) {
	if m != nil {
		m.failures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) built(kind Kind) {
	if m != nil {
		m.builds.WithLabelValues(kind.String()).Inc()
	}
}
