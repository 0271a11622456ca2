package router

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// MasterQuery is one placement request to the cluster master scheduler.
type MasterQuery struct {
	MasterAddr     string
	Model          string
	BlockCacheKeys []int64
	SeqLen         int
	TimeoutMs      int // per-call deadline; 0 means none
	Priority       int
	Debug          bool
}

// MasterResult is the master's placement decision.
type MasterResult struct {
	RoleAddrs      []RoleAddr
	InterRequestID int64 // NoInterRequestID means keep the current request id
}

// MasterClient calls the master scheduler. Errors should be *TransportError so
// their kind survives into the RouteError.
type MasterClient interface {
	Resolve(ctx context.Context, q MasterQuery) (MasterResult, error)
}

// MasterOutcome enumerates every way the master stage can end.
type MasterOutcome int

const (
	MasterSkippedPreRouted MasterOutcome = iota + 1
	MasterSkippedNoMaster
	MasterSkippedBatched
	MasterRouted
	MasterEmpty // call succeeded but returned no addresses
	MasterFailed
)

func (o MasterOutcome) String() string {
	switch o {
	case MasterSkippedPreRouted:
		return "skipped-pre-routed"
	case MasterSkippedNoMaster:
		return "skipped-no-master"
	case MasterSkippedBatched:
		return "skipped-batched"
	case MasterRouted:
		return "routed"
	case MasterEmpty:
		return "empty"
	case MasterFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Attempted reports whether the outcome involved a network call.
func (o MasterOutcome) Attempted() bool {
	switch o {
	case MasterRouted, MasterEmpty, MasterFailed:
		return true
	case MasterSkippedPreRouted, MasterSkippedNoMaster, MasterSkippedBatched:
		return false
	default:
		return false
	}
}

// MasterStageResult carries the outcome of one master stage. RoleAddrs and
// InterRequestID are set only for MasterRouted; Err only for MasterFailed.
type MasterStageResult struct {
	Outcome        MasterOutcome
	RoleAddrs      []RoleAddr
	InterRequestID int64
	Latency        time.Duration
	Err            error
}

// MasterRouter asks the master scheduler for a cache-affinity-aware placement.
type MasterRouter struct {
	client    MasterClient
	hasher    ContentHasher
	blockSize int
	model     string
	debug     bool
	metrics   MetricsSink
}

// NewMasterRouter creates a master stage. blockSize is the KV cache block size
// used for affinity keys.
func NewMasterRouter(client MasterClient, hasher ContentHasher, blockSize int, model string, debug bool, metrics MetricsSink) *MasterRouter {
	if metrics == nil {
		metrics = NopSink{}
	}
	return &MasterRouter{
		client:    client,
		hasher:    hasher,
		blockSize: blockSize,
		model:     model,
		debug:     debug,
		metrics:   metrics,
	}
}

// Route runs the master stage for req. The preconditions are checked first and
// map to the skip outcomes; the request itself is never mutated here.
func (m *MasterRouter) Route(ctx context.Context, req *GenerateRequest, masterAddr string, haveMaster bool, log *logrus.Entry) MasterStageResult {
	switch {
	case len(req.GenerateConfig.RoleAddrs) > 0:
		return MasterStageResult{Outcome: MasterSkippedPreRouted}
	case !haveMaster || masterAddr == "" || m.client == nil:
		return MasterStageResult{Outcome: MasterSkippedNoMaster}
	case req.TokenIDs.Batched():
		return MasterStageResult{Outcome: MasterSkippedBatched}
	}

	start := time.Now()
	keys := ComputeBlockCacheKeys(req.TokenIDs.First(), m.blockSize, m.hasher)
	result, err := m.client.Resolve(ctx, MasterQuery{
		MasterAddr:     masterAddr,
		Model:          m.model,
		BlockCacheKeys: keys,
		SeqLen:         req.PromptLength,
		TimeoutMs:      req.GenerateConfig.TTFTTimeoutMs,
		Priority:       req.GenerateConfig.TrafficRejectPriority,
		Debug:          m.debug,
	})
	latency := time.Since(start)
	if err == nil {
		// a late reply to a cancelled request is discarded
		err = ctx.Err()
	}
	if err != nil {
		kind := KindOf(err)
		m.metrics.Report(MetricMasterRouteErrorQPS, 1, map[string]string{TagErrorCode: kind.Code()})
		return MasterStageResult{
			Outcome: MasterFailed,
			Latency: latency,
			Err: &RouteError{
				Kind:      kind,
				RequestID: req.RequestID,
				Stage:     "master",
				Message:   "master route failed",
				Err:       err,
			},
		}
	}

	if len(result.RoleAddrs) == 0 {
		log.Errorf("master route failed, request <%d> no role addresses returned", req.RequestID)
		return MasterStageResult{Outcome: MasterEmpty, Latency: latency}
	}
	log.Debugf("master route success, route to address: %v, inter_request_id: %d", result.RoleAddrs, result.InterRequestID)
	m.metrics.Report(MetricMasterRouteQPS, 1, nil)
	return MasterStageResult{
		Outcome:        MasterRouted,
		RoleAddrs:      result.RoleAddrs,
		InterRequestID: result.InterRequestID,
		Latency:        latency,
	}
}
