package ec

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics counts the work done by the backends. A nil *Metrics records
// nothing.
type Metrics struct {
	Inversions *prometheus.CounterVec
	Operations *prometheus.CounterVec
	CacheHits  *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg. A nil reg
// leaves them unregistered, which is what tests usually want.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Inversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecdh",
			Name:      "field_inversions_total",
			Help:      "Modular inversions performed by point arithmetic.",
		}, []string{"backend"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecdh",
			Name:      "point_operations_total",
			Help:      "Point additions, doublings and scalar multiplications.",
		}, []string{"backend", "op"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecdh",
			Name:      "cache_hits_total",
			Help:      "Arithmetic results served from the memo cache.",
		}, []string{"backend"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Inversions, m.Operations, m.CacheHits} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "ec: registering metrics")
		}
	}
	return m, nil
}

func (m *Metrics) inversion(backend string) {
	if m == nil {
		return
	}
	m.Inversions.WithLabelValues(backend).Inc()
}

func (m *Metrics) operation(backend, op string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(backend, op).Inc()
}

func (m *Metrics) cacheHit(backend string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(backend).Inc()
}

// InversionCount returns the inversions recorded for backend so far.
func (m *Metrics) InversionCount(backend string) uint64 {
	if m == nil {
		return 0
	}
	var out dto.Metric
	if err := m.Inversions.WithLabelValues(backend).Write(&out); err != nil {
		return 0
	}
	return uint64(out.GetCounter().GetValue())
}
