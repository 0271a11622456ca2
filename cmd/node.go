package cmd

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/role-router/router"
	"github.com/inference-sim/role-router/router/discovery"
	"github.com/inference-sim/role-router/router/master"
	"github.com/inference-sim/role-router/router/trace"
)

// node bundles the long-lived routing components built from one config file.
type node struct {
	config       *router.NodeConfig
	discovery    *discovery.Service
	trace        *trace.DecisionTrace
	orchestrator *router.Orchestrator
}

// buildNode loads the node configuration and wires the orchestrator. A nil
// sink disables metrics.
func buildNode(path string, sink router.MetricsSink) (*node, error) {
	cfg, err := router.LoadNodeConfig(path)
	if err != nil {
		return nil, err
	}
	return newNode(cfg, discovery.NewService(cfg.Discovery), master.NewClient(), sink), nil
}

func newNode(cfg *router.NodeConfig, disc *discovery.Service, mc router.MasterClient, sink router.MetricsSink) *node {
	var dt *trace.DecisionTrace
	if cfg.Trace.Level == trace.TraceLevelDecisions {
		dt = trace.NewDecisionTrace(trace.TraceConfig{Level: cfg.Trace.Level})
	}
	required := router.ResolveRequiredRoles(*cfg)
	for _, role := range required.Roles() {
		if !cfg.Discovery.HasSource(role) {
			logrus.Warnf("required role %v has no static address or domain; routing depends on the master", role)
		}
	}
	return &node{
		config:    cfg,
		discovery: disc,
		trace:     dt,
		orchestrator: router.NewOrchestrator(*cfg, required, router.Dependencies{
			Discovery: disc,
			Master:    mc,
			Metrics:   sink,
			Trace:     dt,
		}),
	}
}
