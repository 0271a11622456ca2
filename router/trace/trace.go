package trace

import "sync"

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures all admission and routing decisions.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// DecisionTrace collects decision records from concurrently routed requests.
type DecisionTrace struct {
	Config TraceConfig

	mu         sync.Mutex
	admissions []AdmissionRecord
	routings   []RoutingRecord
}

// NewDecisionTrace creates a DecisionTrace ready for recording.
func NewDecisionTrace(config TraceConfig) *DecisionTrace {
	return &DecisionTrace{
		Config:     config,
		admissions: make([]AdmissionRecord, 0),
		routings:   make([]RoutingRecord, 0),
	}
}

// Enabled reports whether decisions should be recorded. Safe on a nil trace.
func (dt *DecisionTrace) Enabled() bool {
	return dt != nil && dt.Config.Level == TraceLevelDecisions
}

// RecordAdmission appends an admission decision record.
func (dt *DecisionTrace) RecordAdmission(record AdmissionRecord) {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.admissions = append(dt.admissions, record)
}

// RecordRouting appends a routing decision record.
func (dt *DecisionTrace) RecordRouting(record RoutingRecord) {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.routings = append(dt.routings, record)
}

// Admissions returns a copy of the recorded admission decisions.
func (dt *DecisionTrace) Admissions() []AdmissionRecord {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	out := make([]AdmissionRecord, len(dt.admissions))
	copy(out, dt.admissions)
	return out
}

// Routings returns a copy of the recorded routing decisions.
func (dt *DecisionTrace) Routings() []RoutingRecord {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	out := make([]RoutingRecord, len(dt.routings))
	copy(out, dt.routings)
	return out
}
