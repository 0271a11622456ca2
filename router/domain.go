package router

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Discovery resolves master and backend addresses from static configuration or
// service discovery. Results are eventually consistent; refresh bypasses caches.
type Discovery interface {
	MasterAddress(ctx context.Context) (string, bool)
	BackendRoleAddrs(ctx context.Context, roles []RoleType, refresh bool) ([]RoleAddr, error)
}

// DomainStageResult carries the outcome of one domain stage.
type DomainStageResult struct {
	Requested  []RoleType
	Added      []RoleAddr // at most one address per requested role
	Unresolved []RoleType
	Latency    time.Duration
	Err        error // set only when the context ended during the lookup
}

// DomainRouter fills the roles the master stage left uncovered.
type DomainRouter struct {
	discovery Discovery
	metrics   MetricsSink
}

// NewDomainRouter creates a domain stage over discovery.
func NewDomainRouter(discovery Discovery, metrics MetricsSink) *DomainRouter {
	if metrics == nil {
		metrics = NopSink{}
	}
	return &DomainRouter{discovery: discovery, metrics: metrics}
}

// Route looks up exactly the missing roles. The caller appends Added to the
// addresses it already has; nothing present is ever replaced.
func (d *DomainRouter) Route(ctx context.Context, requestID int64, missing []RoleType, log *logrus.Entry) DomainStageResult {
	res := DomainStageResult{Requested: missing}
	if len(missing) == 0 {
		return res
	}

	start := time.Now()
	found, err := d.discovery.BackendRoleAddrs(ctx, missing, false)
	res.Latency = time.Since(start)
	if ctxErr := contextError(ctx, requestID, "domain"); ctxErr != nil {
		res.Err = ctxErr
		return res
	}
	if err != nil {
		log.Errorf("host service failed: %v", err)
		found = nil
	}

	wanted := sets.New(missing...)
	for _, addr := range found {
		if !wanted.Has(addr.Role) {
			continue
		}
		wanted.Delete(addr.Role)
		res.Added = append(res.Added, addr)
	}
	for _, r := range missing {
		if wanted.Has(r) {
			res.Unresolved = append(res.Unresolved, r)
		}
	}

	if len(res.Added) > 0 {
		log.Warnf("fallback to host service, route to address: %v", res.Added)
		d.metrics.Report(MetricDomainRouteQPS, 1, nil)
	}
	if len(res.Unresolved) > 0 {
		log.Errorf("host service failed, no address for roles %v", res.Unresolved)
	}
	return res
}
