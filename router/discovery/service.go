// Package discovery resolves master and backend role addresses from static
// configuration and DNS, caching results for a bounded time.
package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/inference-sim/role-router/router"
)

// masterKey is the cache key for the master address; role keys use role names.
const masterKey = "master"

// Resolver is the subset of *net.Resolver used for domain lookups.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Service implements router.Discovery. Static addresses win over domains.
// Resolved address lists are cached for cfg.TTL and refreshed on demand;
// concurrent lookups of the same key share one DNS query.
type Service struct {
	cfg      router.DomainConfig
	resolver Resolver
	cache    *ttlcache.Cache[string, []string]
	group    singleflight.Group

	mu   sync.Mutex
	next map[string]int // round-robin cursor per cache key
}

var _ router.Discovery = (*Service)(nil)

// NewService creates a discovery service using the system resolver.
func NewService(cfg router.DomainConfig) *Service {
	return NewServiceWithResolver(cfg, net.DefaultResolver)
}

// NewServiceWithResolver creates a discovery service over resolver.
func NewServiceWithResolver(cfg router.DomainConfig, resolver Resolver) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = router.DefaultDiscoveryTTL
	}
	return &Service{
		cfg:      cfg,
		resolver: resolver,
		cache: ttlcache.New[string, []string](
			ttlcache.WithTTL[string, []string](ttl),
			ttlcache.WithDisableTouchOnHit[string, []string](),
		),
		next: make(map[string]int),
	}
}

// MasterAddress returns the master scheduler address, or false when no master
// domain is configured or it cannot currently be resolved.
func (s *Service) MasterAddress(ctx context.Context) (string, bool) {
	if s.cfg.MasterDomain == "" {
		return "", false
	}
	addrs, err := s.lookup(ctx, masterKey, s.cfg.MasterDomain, false)
	if err != nil {
		logrus.Warnf("resolve master domain %q: %v", s.cfg.MasterDomain, err)
		return "", false
	}
	return s.pick(masterKey, addrs), true
}

// BackendRoleAddrs returns one address per role it can resolve. Roles with no
// source or a failed lookup are logged and omitted. The only error is the
// context ending while lookups were in flight.
func (s *Service) BackendRoleAddrs(ctx context.Context, roles []router.RoleType, refresh bool) ([]router.RoleAddr, error) {
	found := make([]*router.RoleAddr, len(roles))
	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		i, role := i, role
		g.Go(func() error {
			addr, ok := s.roleAddr(gctx, role, refresh)
			if ok {
				found[i] = &router.RoleAddr{Role: role, Addr: addr}
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]router.RoleAddr, 0, len(roles))
	for _, ra := range found {
		if ra != nil {
			out = append(out, *ra)
		}
	}
	return out, nil
}

func (s *Service) roleAddr(ctx context.Context, role router.RoleType, refresh bool) (string, bool) {
	key := role.String()
	if static := s.cfg.Static[role]; len(static) > 0 {
		return s.pick(key, static), true
	}
	domain := s.cfg.DomainFor(role)
	if domain == "" {
		logrus.Warnf("no domain configured for role %v", role)
		return "", false
	}
	addrs, err := s.lookup(ctx, key, domain, refresh)
	if err != nil {
		logrus.Warnf("resolve %v domain %q: %v", role, domain, err)
		return "", false
	}
	return s.pick(key, addrs), true
}

// lookup returns the cached addresses for key or resolves domain. Concurrent
// callers share one resolution that runs detached from any single caller's
// context; each caller stops waiting when its own context ends.
func (s *Service) lookup(ctx context.Context, key, domain string, refresh bool) ([]string, error) {
	if !refresh {
		if item := s.cache.Get(key); item != nil {
			return item.Value(), nil
		}
	}
	ch := s.group.DoChan(key, func() (interface{}, error) {
		addrs, err := s.resolve(context.WithoutCancel(ctx), domain)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, addrs, ttlcache.DefaultTTL)
		return addrs, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve turns "host:port" into one "ip:port" per address of host.
func (s *Service) resolve(ctx context.Context, domain string) ([]string, error) {
	host, port, err := net.SplitHostPort(domain)
	if err != nil {
		return nil, fmt.Errorf("invalid domain %q: %w", domain, err)
	}
	if net.ParseIP(host) != nil {
		return []string{domain}, nil
	}
	timeout := s.cfg.ResolveTimeout
	if timeout <= 0 {
		timeout = router.DefaultResolveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ips, err := s.resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no addresses for %q", host)
	}
	addrs := make([]string, len(ips))
	for i, ip := range ips {
		addrs[i] = net.JoinHostPort(ip, port)
	}
	return addrs, nil
}

// pick returns addrs round-robin per key.
func (s *Service) pick(key string, addrs []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.next[key] % len(addrs)
	s.next[key] = i + 1
	return addrs[i]
}

// CacheTTL reports the effective cache lifetime.
func (s *Service) CacheTTL() time.Duration {
	if s.cfg.TTL <= 0 {
		return router.DefaultDiscoveryTTL
	}
	return s.cfg.TTL
}
