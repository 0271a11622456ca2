package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/role-router/router"
	"github.com/inference-sim/role-router/router/metrics"
	"github.com/inference-sim/role-router/router/trace"
)

var (
	configPath   string // Node configuration YAML
	logLevel     string // Log verbosity level
	requestsPath string // Requests YAML for the route command
	concurrency  int    // Max requests routed at once
	refresh      bool   // Force a discovery refresh before the readiness check
	metricsAddr  string // Listen address of the metrics/readiness server
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "role-router",
	Short: "Backend role router for disaggregated LLM serving",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
}

// routeCmd routes every request in a requests file and prints the placements.
var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Route the requests in a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if concurrency < 1 {
			return fmt.Errorf("--concurrency must be >= 1, got %d", concurrency)
		}
		node, err := buildNode(configPath, nil)
		if err != nil {
			return err
		}
		reqs, err := LoadRequests(requestsPath)
		if err != nil {
			return err
		}

		results := make([]string, len(reqs))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(concurrency)
		for i, req := range reqs {
			i, req := i, req
			g.Go(func() error {
				results[i] = routeOne(ctx, node.orchestrator, req)
				return nil
			})
		}
		_ = g.Wait()

		for _, line := range results {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		if node.trace.Enabled() {
			out, err := yaml.Marshal(trace.Summarize(node.trace))
			if err != nil {
				return fmt.Errorf("encoding trace summary: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "=== Trace Summary ===\n%s", out)
		}
		return nil
	},
}

// readyCmd probes whether every required role has a known address.
var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Check that every required backend role is resolvable",
	RunE: func(cmd *cobra.Command, args []string) error {
		node, err := buildNode(configPath, nil)
		if err != nil {
			return err
		}
		if !node.orchestrator.Ready(cmd.Context(), refresh) {
			return fmt.Errorf("backend roles %v not ready", node.orchestrator.RequiredRoles().Roles())
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ready")
		return nil
	},
}

// serveCmd exposes /metrics and /readyz until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve Prometheus metrics and the readiness probe",
	RunE: func(cmd *cobra.Command, args []string) error {
		sink := metrics.NewRouteMetrics()
		node, err := buildNode(configPath, sink)
		if err != nil {
			return err
		}

		srv := metrics.NewServer(metricsAddr)
		srv.Handle("/readyz", readyHandler(node.orchestrator))
		if err := srv.Start(); err != nil {
			return fmt.Errorf("starting metrics server: %w", err)
		}
		defer func() { _ = srv.Close() }()
		logrus.Infof("serving metrics and readiness on %s (discovery ttl %v)", srv.Addr(), node.discovery.CacheTTL())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		logrus.Info("shutting down")
		return nil
	},
}

// readyHandler answers 200 when the orchestrator is ready and 503 otherwise.
// The query parameter refresh=true forces a discovery refresh.
func readyHandler(o *router.Orchestrator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if o.Ready(r.Context(), r.URL.Query().Get("refresh") == "true") {
			w.WriteHeader(http.StatusOK)
			_, _ = fmt.Fprint(w, "ready")
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprint(w, "not ready")
	})
}

func routeOne(ctx context.Context, o *router.Orchestrator, req *router.GenerateRequest) string {
	id := req.RequestID
	dec, err := o.Route(ctx, req)
	if err != nil {
		return fmt.Sprintf("request <%d> failed: %s: %v", id, router.KindOf(err).Code(), err)
	}
	return fmt.Sprintf("request <%d> -> <%d> master=%s max_new_tokens=%d addrs=%v",
		id, dec.RequestID, dec.MasterOutcome, dec.MaxNewTokens, dec.RoleAddrs)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "node.yaml", "Path to the node configuration YAML")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	routeCmd.Flags().StringVar(&requestsPath, "requests", "requests.yaml", "Path to the requests YAML")
	routeCmd.Flags().IntVar(&concurrency, "concurrency", 16, "Maximum number of requests routed concurrently")

	readyCmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh discovery before checking")

	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Listen address for /metrics and /readyz")

	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(readyCmd)
	rootCmd.AddCommand(serveCmd)
}
