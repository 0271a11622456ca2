package trace

import "time"

// TraceSummary aggregates statistics from a DecisionTrace.
type TraceSummary struct {
	TotalDecisions     int
	AdmittedCount      int
	RejectedCount      int
	RoutedCount        int
	FailedCount        int
	DomainFallbacks    int
	OutcomeCounts      map[string]int // master outcome → count
	MeanLatency        time.Duration
	MaxLatency         time.Duration
	UniqueTargets      int
	TargetDistribution map[string]int // "ROLE@host:port" → count of requests routed there
}

// Summarize computes aggregate statistics from a DecisionTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(dt *DecisionTrace) *TraceSummary {
	summary := &TraceSummary{
		OutcomeCounts:      make(map[string]int),
		TargetDistribution: make(map[string]int),
	}
	if dt == nil {
		return summary
	}

	admissions := dt.Admissions()
	summary.TotalDecisions = len(admissions)
	for _, a := range admissions {
		if a.Admitted {
			summary.AdmittedCount++
		} else {
			summary.RejectedCount++
		}
	}

	routings := dt.Routings()
	if len(routings) > 0 {
		var total time.Duration
		for _, r := range routings {
			summary.OutcomeCounts[r.MasterOutcome]++
			total += r.TotalLatency
			if r.TotalLatency > summary.MaxLatency {
				summary.MaxLatency = r.TotalLatency
			}
			if r.Failed() {
				summary.FailedCount++
				continue
			}
			summary.RoutedCount++
			if r.DomainRouted {
				summary.DomainFallbacks++
			}
			for _, addr := range r.RoleAddrs {
				summary.TargetDistribution[addr]++
			}
		}
		summary.MeanLatency = total / time.Duration(len(routings))
	}

	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
