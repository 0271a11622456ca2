package router

import "time"

// Metric names reported to the MetricsSink.
const (
	MetricMasterRouteQPS      = "master_route_qps"
	MetricMasterRouteErrorQPS = "master_route_error_qps" // tagged with TagErrorCode
	MetricDomainRouteQPS      = "domain_route_qps"
	MetricMasterRouteRT       = "master_route_rt" // milliseconds
	MetricDomainRouteRT       = "domain_route_rt" // milliseconds
	MetricRouteRT             = "route_rt"        // milliseconds

	TagErrorCode = "error_code"
)

// MetricsSink receives routing metrics. Report must not block and must not fail
// the caller; implementations drop what they cannot record.
type MetricsSink interface {
	Report(name string, value float64, tags map[string]string)
}

// NopSink discards every report.
type NopSink struct{}

func (NopSink) Report(string, float64, map[string]string) {}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
