package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the food module: use-case outcomes and
// latencies, created records, and cache effectiveness.
//
// All methods are safe on a nil *Metrics so callers can leave metrics unwired.
type Metrics struct {
	UseCaseTotal    *prometheus.CounterVec
	UseCaseDuration *prometheus.HistogramVec
	FoodsCreated    prometheus.Counter
	CacheLookups    *prometheus.CounterVec
}

// New registers the food metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UseCaseTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nutri_food_use_case_total",
			Help: "Food use-case invocations by operation and outcome code",
		}, []string{"operation", "outcome"}),
		UseCaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nutri_food_use_case_duration_seconds",
			Help:    "Duration of food use cases, including repository I/O",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		FoodsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "nutri_foods_created_total",
			Help: "Total number of foods created",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nutri_food_cache_lookups_total",
			Help: "Food cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

// ObserveUseCase records one use-case invocation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveUseCase(operation, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.UseCaseTotal.WithLabelValues(operation, outcome).Inc()
	m.UseCaseDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementFoodsCreated() {
	if m == nil {
		return
	}
	m.FoodsCreated.Inc()
}

func (m *Metrics) RecordCacheHit()   { m.recordCache("hit") }
func (m *Metrics) RecordCacheMiss()  { m.recordCache("miss") }
func (m *Metrics) RecordCacheError() { m.recordCache("error") }

func (m *Metrics) recordCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
