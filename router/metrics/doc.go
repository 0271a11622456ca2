// Package metrics provides the Prometheus-backed routing metrics sink and the
// HTTP server that exposes it.
//
// Metrics:
//   - role_router_route_master_routes_total: successful master placements
//   - role_router_route_master_route_errors_total{error_code}: failed master calls
//   - role_router_route_domain_routes_total: requests completed by discovery fallback
//   - role_router_route_latency_seconds{stage}: master, domain and whole-route latency
//
// Usage:
//
//	sink := metrics.NewRouteMetrics()
//	orch := router.NewOrchestrator(cfg, required, router.Dependencies{Metrics: sink, ...})
//
//	srv := metrics.NewServer(":9090")
//	srv.Handle("/readyz", readyHandler)
//	srv.Start()
package metrics
