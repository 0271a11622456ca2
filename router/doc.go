// Package router decides, for each inbound generation request, which backend
// role instances (prefill, decode, vision encoder, PD fusion) must serve it and
// at which addresses.
//
// # Reading Guide
//
// Start with these files:
//   - request.go: GenerateRequest and the routing fields it carries
//   - roles.go: RequiredRoles, computed once per process from NodeConfig
//   - orchestrator.go: the per-request pipeline (admission → master → domain → commit)
//
// # Architecture
//
// The router package defines the pipeline and the interfaces of its external
// collaborators; implementations live in sub-packages:
//   - router/master/: HTTP/JSON client for the cache-affinity master scheduler
//   - router/discovery/: static and DNS discovery with a TTL cache
//   - router/metrics/: Prometheus metrics sink and /metrics server
//   - router/trace/: decision trace recording
//
// # Key Interfaces
//
//   - Discovery: master address and per-role backend addresses
//   - MasterClient: cache-affinity placement from the master scheduler
//   - ContentHasher: block content → affinity key
//   - MetricsSink: fire-and-forget metric reports
//
// Every failure is an *AdmissionError or a *RouteError carrying an ErrorKind and
// the request id; KindOf classifies any error.
package router
