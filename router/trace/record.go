// Package trace provides decision-trace recording for routing analysis.
// It does not import router; records hold plain data only.
package trace

import "time"

// AdmissionRecord captures a single admission decision.
type AdmissionRecord struct {
	RequestID int64
	Admitted  bool
	ErrorCode string // "<code>_<NAME>" on rejection, empty when admitted
	Reason    string
}

// RoutingRecord captures a single routing decision, successful or not.
type RoutingRecord struct {
	OriginalRequestID int64
	RequestID         int64 // after an inter-request-id rewrite
	MasterOutcome     string
	DomainRouted      bool     // the domain stage contributed at least one address
	RoleAddrs         []string // "ROLE@host:port", empty on failure
	MasterLatency     time.Duration
	DomainLatency     time.Duration
	TotalLatency      time.Duration
	ErrorCode         string // empty on success
}

// Failed reports whether routing ended in an error.
func (r RoutingRecord) Failed() bool {
	return r.ErrorCode != ""
}
