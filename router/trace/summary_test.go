package trace

import (
	"testing"
	"time"
)

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalDecisions != 0 || summary.RoutedCount != 0 {
		t.Error("expected zero counts for nil trace")
	}
	if summary.TargetDistribution == nil || summary.OutcomeCounts == nil {
		t.Error("expected non-nil maps")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	dt := NewDecisionTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN summarized
	summary := Summarize(dt)

	// THEN all counts are zero
	if summary.TotalDecisions != 0 {
		t.Errorf("expected 0 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.UniqueTargets != 0 {
		t.Errorf("expected 0 unique targets, got %d", summary.UniqueTargets)
	}
	if summary.MeanLatency != 0 || summary.MaxLatency != 0 {
		t.Error("expected 0 latency values")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with mixed admission and routing records
	dt := NewDecisionTrace(TraceConfig{Level: TraceLevelDecisions})
	dt.RecordAdmission(AdmissionRecord{RequestID: 1, Admitted: true})
	dt.RecordAdmission(AdmissionRecord{RequestID: 2, Admitted: false, ErrorCode: "8_LONG_PROMPT_ERROR"})
	dt.RecordAdmission(AdmissionRecord{RequestID: 3, Admitted: true})
	dt.RecordAdmission(AdmissionRecord{RequestID: 4, Admitted: true})
	dt.RecordRouting(RoutingRecord{
		RequestID: 1, MasterOutcome: "routed",
		RoleAddrs: []string{"PREFILL@p:1", "DECODE@d:1"}, TotalLatency: 2 * time.Millisecond,
	})
	dt.RecordRouting(RoutingRecord{
		RequestID: 3, MasterOutcome: "skipped-no-master", DomainRouted: true,
		RoleAddrs: []string{"PREFILL@p:2", "DECODE@d:1"}, TotalLatency: 4 * time.Millisecond,
	})
	dt.RecordRouting(RoutingRecord{
		RequestID: 4, MasterOutcome: "failed", ErrorCode: "13_CONNECTION_ERROR", TotalLatency: 6 * time.Millisecond,
	})

	// WHEN summarized
	summary := Summarize(dt)

	// THEN counts match
	if summary.TotalDecisions != 4 {
		t.Errorf("expected 4 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.AdmittedCount != 3 || summary.RejectedCount != 1 {
		t.Errorf("expected 3 admitted and 1 rejected, got %d and %d", summary.AdmittedCount, summary.RejectedCount)
	}
	if summary.RoutedCount != 2 || summary.FailedCount != 1 {
		t.Errorf("expected 2 routed and 1 failed, got %d and %d", summary.RoutedCount, summary.FailedCount)
	}
	if summary.DomainFallbacks != 1 {
		t.Errorf("expected 1 domain fallback, got %d", summary.DomainFallbacks)
	}
	if summary.UniqueTargets != 3 {
		t.Errorf("expected 3 unique targets, got %d", summary.UniqueTargets)
	}
	if summary.TargetDistribution["DECODE@d:1"] != 2 {
		t.Errorf("expected DECODE@d:1 twice, got %d", summary.TargetDistribution["DECODE@d:1"])
	}
	if summary.OutcomeCounts["failed"] != 1 || summary.OutcomeCounts["routed"] != 1 {
		t.Errorf("unexpected outcome counts %v", summary.OutcomeCounts)
	}
	if summary.MeanLatency != 4*time.Millisecond {
		t.Errorf("expected mean 4ms, got %v", summary.MeanLatency)
	}
	if summary.MaxLatency != 6*time.Millisecond {
		t.Errorf("expected max 6ms, got %v", summary.MaxLatency)
	}
}
