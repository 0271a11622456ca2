package router

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/role-router/router/trace"
)

// Dependencies are the external collaborators of an Orchestrator.
// Hasher defaults to XXHasher and Metrics to NopSink; Trace may be nil.
type Dependencies struct {
	Discovery Discovery
	Master    MasterClient
	Hasher    ContentHasher
	Metrics   MetricsSink
	Trace     *trace.DecisionTrace
}

// Decision describes how one request was routed. The request itself carries
// the committed addresses; Decision adds what routing observed on the way.
type Decision struct {
	OriginalRequestID int64
	RequestID         int64
	MaxNewTokens      int
	MasterOutcome     MasterOutcome
	DomainRouted      bool
	RoleAddrs         []RoleAddr
	MasterLatency     time.Duration
	DomainLatency     time.Duration
	TotalLatency      time.Duration
}

// Orchestrator turns each admitted request into a complete set of backend role
// addresses. Route is safe for concurrent use: the only state shared between
// requests is immutable configuration and the goroutine-safe collaborators.
type Orchestrator struct {
	required             RequiredRoles
	guard                *AdmissionGuard
	master               *MasterRouter
	domain               *DomainRouter
	discovery            Discovery
	metrics              MetricsSink
	trace                *trace.DecisionTrace
	fallbackOnMasterFail bool
}

// NewOrchestrator wires the routing stages for a node. required is normally the
// result of ResolveRequiredRoles(cfg), computed once at startup.
func NewOrchestrator(cfg NodeConfig, required RequiredRoles, deps Dependencies) *Orchestrator {
	if deps.Discovery == nil {
		panic("NewOrchestrator: Discovery is required")
	}
	if deps.Hasher == nil {
		deps.Hasher = XXHasher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = NopSink{}
	}
	return &Orchestrator{
		required:             required,
		guard:                NewAdmissionGuard(cfg.MaxSeqLen, cfg.SpeculativeEnabled()),
		master:               NewMasterRouter(deps.Master, deps.Hasher, cfg.SeqSizePerBlock, cfg.Model, cfg.Routing.Debug, deps.Metrics),
		domain:               NewDomainRouter(deps.Discovery, deps.Metrics),
		discovery:            deps.Discovery,
		metrics:              deps.Metrics,
		trace:                deps.Trace,
		fallbackOnMasterFail: cfg.Routing.DomainFallbackOnMasterError,
	}
}

// RequiredRoles returns the roles every routed request must cover.
func (o *Orchestrator) RequiredRoles() RequiredRoles {
	return o.required
}

// Route admits req and resolves its backend role addresses. On success the
// request's role addresses, inter-request id and (possibly rewritten) request id
// are committed together; on any error the request is left exactly as it was.
func (o *Orchestrator) Route(ctx context.Context, req *GenerateRequest) (*Decision, error) {
	admission, err := o.guard.Validate(req)
	o.recordAdmission(req, err)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	dec := &Decision{
		OriginalRequestID: req.RequestID,
		RequestID:         req.RequestID,
		MaxNewTokens:      admission.MaxNewTokens,
	}
	err = o.route(ctx, req, dec)
	dec.TotalLatency = time.Since(start)
	o.metrics.Report(MetricRouteRT, millis(dec.TotalLatency), nil)
	o.recordRouting(dec, err)
	if err != nil {
		return nil, err
	}
	return dec, nil
}

func (o *Orchestrator) route(ctx context.Context, req *GenerateRequest, dec *Decision) error {
	requestID := req.RequestID
	interRequestID := req.GenerateConfig.InterRequestID
	addrs := append([]RoleAddr(nil), req.GenerateConfig.RoleAddrs...)
	log := logrus.WithField("request_id", requestID)

	preRouted := len(addrs) > 0
	batched := req.TokenIDs.Batched()

	var masterAddr string
	var haveMaster bool
	if !preRouted {
		masterAddr, haveMaster = o.discovery.MasterAddress(ctx)
		log.Debugf("routing to master: %q", masterAddr)
	}

	mres := o.master.Route(ctx, req, masterAddr, haveMaster, log)
	dec.MasterOutcome = mres.Outcome
	if mres.Outcome.Attempted() {
		dec.MasterLatency = mres.Latency
		o.metrics.Report(MetricMasterRouteRT, millis(mres.Latency), nil)
	}
	switch mres.Outcome {
	case MasterRouted:
		addrs = mres.RoleAddrs
		interRequestID = mres.InterRequestID
		if mres.InterRequestID != NoInterRequestID {
			requestID = mres.InterRequestID
			dec.RequestID = requestID
			log = logrus.WithField("request_id", requestID)
		}
	case MasterFailed:
		if !o.fallbackOnMasterFail || ctx.Err() != nil {
			return mres.Err
		}
		log.Warnf("master route failed, fallback to domain routing: %v", mres.Err)
	case MasterSkippedNoMaster, MasterSkippedBatched:
		log.Infof("master address: %q or input token batched: %v is not valid, fallback to domain routing", masterAddr, batched)
	case MasterEmpty, MasterSkippedPreRouted:
	}

	missing := o.required.Missing(rolesOf(addrs))
	if len(addrs) == 0 || len(missing) > 0 {
		dres := o.domain.Route(ctx, requestID, missing, log)
		dec.DomainLatency = dres.Latency
		o.metrics.Report(MetricDomainRouteRT, millis(dres.Latency), nil)
		if dres.Err != nil {
			return dres.Err
		}
		addrs = append(addrs, dres.Added...)
		dec.DomainRouted = len(dres.Added) > 0
	}
	log.Debug("routing to master done")

	if err := contextError(ctx, requestID, "route"); err != nil {
		return err
	}
	if len(addrs) == 0 {
		return &RouteError{
			Kind:      KindRouteError,
			RequestID: requestID,
			Stage:     "route",
			Message:   "no backend role addresses found after routing",
		}
	}
	if missing := o.required.Missing(rolesOf(addrs)); len(missing) > 0 {
		return &RouteError{
			Kind:      KindRouteError,
			RequestID: requestID,
			Stage:     "route",
			Message:   fmt.Sprintf("no backend address for roles %v after routing", missing),
		}
	}
	if deduped := dedupeByRole(addrs); len(deduped) != len(addrs) {
		log.Warnf("dropping duplicate role addresses: %v", addrs)
		addrs = deduped
	}

	req.GenerateConfig.RoleAddrs = addrs
	req.GenerateConfig.InterRequestID = interRequestID
	req.RequestID = requestID
	dec.RequestID = requestID
	dec.RoleAddrs = append([]RoleAddr(nil), addrs...)
	return nil
}

// Ready reports whether discovery currently knows at least one address for
// every required role. refresh forces discovery to bypass its caches.
func (o *Orchestrator) Ready(ctx context.Context, refresh bool) bool {
	if o.required.Len() == 0 {
		return true
	}
	addrs, err := o.discovery.BackendRoleAddrs(ctx, o.required.Roles(), refresh)
	if err != nil {
		logrus.Warnf("backend readiness check failed: %v", err)
		return false
	}
	if !o.required.SatisfiedBy(addrs) {
		logrus.Warnf("roles %v not in available roles %v", o.required.Missing(rolesOf(addrs)), addrs)
		return false
	}
	return true
}

func (o *Orchestrator) recordAdmission(req *GenerateRequest, err error) {
	if !o.trace.Enabled() {
		return
	}
	rec := trace.AdmissionRecord{RequestID: req.RequestID, Admitted: err == nil}
	if err != nil {
		rec.ErrorCode = KindOf(err).Code()
		rec.Reason = err.Error()
	}
	o.trace.RecordAdmission(rec)
}

func (o *Orchestrator) recordRouting(dec *Decision, err error) {
	if !o.trace.Enabled() {
		return
	}
	rec := trace.RoutingRecord{
		OriginalRequestID: dec.OriginalRequestID,
		RequestID:         dec.RequestID,
		MasterOutcome:     dec.MasterOutcome.String(),
		DomainRouted:      dec.DomainRouted,
		MasterLatency:     dec.MasterLatency,
		DomainLatency:     dec.DomainLatency,
		TotalLatency:      dec.TotalLatency,
	}
	if err != nil {
		rec.ErrorCode = KindOf(err).Code()
	}
	for _, a := range dec.RoleAddrs {
		rec.RoleAddrs = append(rec.RoleAddrs, a.String())
	}
	o.trace.RecordRouting(rec)
}
