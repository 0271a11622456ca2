package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// Server exposes /metrics plus any probes registered with Handle.
type Server struct {
	addr string
	mux  *http.ServeMux

	mu       sync.Mutex
	listener net.Listener
	http     *http.Server
}

// NewServer serves the default Prometheus registry on addr.
func NewServer(addr string) *Server {
	return newServer(addr, promhttp.Handler())
}

// NewServerWithRegistry serves gatherer instead of the default registry.
func NewServerWithRegistry(addr string, gatherer prometheus.Gatherer) *Server {
	return newServer(addr, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

func newServer(addr string, metricsHandler http.Handler) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	return &Server{addr: addr, mux: mux}
}

// Handle mounts h at pattern, e.g. the /readyz probe.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.listener, s.http = ln, srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("metrics server on %s: %v", ln.Addr(), err)
		}
	}()
	return nil
}

// Addr is the bound address once started (useful with ":0"), else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Close gracefully stops a started server.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
