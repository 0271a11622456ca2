package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/role-router/router"
)

// Stage label values for LatencyHistogram.
const (
	StageMaster = "master"
	StageDomain = "domain"
	StageRoute  = "route"
)

// DefaultRouteLatencyBuckets cover sub-millisecond cache hits up to multi-second
// master timeouts.
var DefaultRouteLatencyBuckets = []float64{
	0.0001, // 0.1ms
	0.0005, // 0.5ms
	0.001,  // 1ms
	0.0025, // 2.5ms
	0.005,  // 5ms
	0.01,   // 10ms
	0.025,  // 25ms
	0.05,   // 50ms
	0.1,    // 100ms
	0.25,   // 250ms
	0.5,    // 500ms
	1.0,    // 1s
	2.5,    // 2.5s
	5.0,    // 5s
}

// RouteMetrics is a router.MetricsSink backed by Prometheus collectors.
// Prometheus updates never block, so Report is safe on the routing path.
type RouteMetrics struct {
	MasterRoutes      prometheus.Counter
	MasterRouteErrors *prometheus.CounterVec // labels: error_code
	DomainRoutes      prometheus.Counter
	LatencyHistogram  *prometheus.HistogramVec // labels: stage
}

var _ router.MetricsSink = (*RouteMetrics)(nil)

// NewRouteMetrics creates and registers route metrics with the default registry.
func NewRouteMetrics() *RouteMetrics {
	return newRouteMetrics(promauto.With(prometheus.DefaultRegisterer))
}

// NewRouteMetricsWithRegistry creates route metrics registered with reg.
// Useful for testing to avoid conflicts with the default registry.
func NewRouteMetricsWithRegistry(reg prometheus.Registerer) *RouteMetrics {
	return newRouteMetrics(promauto.With(reg))
}

func newRouteMetrics(factory promauto.Factory) *RouteMetrics {
	return &RouteMetrics{
		MasterRoutes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "role_router",
			Subsystem: "route",
			Name:      "master_routes_total",
			Help:      "Total number of requests placed by the master scheduler.",
		}),
		MasterRouteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "role_router",
			Subsystem: "route",
			Name:      "master_route_errors_total",
			Help:      "Total number of failed master scheduler calls, broken down by error code.",
		}, []string{router.TagErrorCode}),
		DomainRoutes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "role_router",
			Subsystem: "route",
			Name:      "domain_routes_total",
			Help:      "Total number of requests that received addresses from service discovery.",
		}),
		LatencyHistogram: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "role_router",
			Subsystem: "route",
			Name:      "latency_seconds",
			Help:      "Routing latency in seconds, broken down by stage.",
			Buckets:   DefaultRouteLatencyBuckets,
		}, []string{"stage"}),
	}
}

// Report implements router.MetricsSink. Latency values arrive in milliseconds.
// Unknown metric names are dropped.
func (m *RouteMetrics) Report(name string, value float64, tags map[string]string) {
	switch name {
	case router.MetricMasterRouteQPS:
		m.MasterRoutes.Add(value)
	case router.MetricMasterRouteErrorQPS:
		code := tags[router.TagErrorCode]
		if code == "" {
			code = router.KindUnknown.Code()
		}
		m.MasterRouteErrors.WithLabelValues(code).Add(value)
	case router.MetricDomainRouteQPS:
		m.DomainRoutes.Add(value)
	case router.MetricMasterRouteRT:
		m.LatencyHistogram.WithLabelValues(StageMaster).Observe(value / 1000)
	case router.MetricDomainRouteRT:
		m.LatencyHistogram.WithLabelValues(StageDomain).Observe(value / 1000)
	case router.MetricRouteRT:
		m.LatencyHistogram.WithLabelValues(StageRoute).Observe(value / 1000)
	default:
		logrus.Debugf("dropping unknown metric %q", name)
	}
}
