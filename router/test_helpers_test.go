package router

import (
	"context"
	"sync"
)

// fakeDiscovery serves fixed addresses and counts calls.
type fakeDiscovery struct {
	mu          sync.Mutex
	masterAddr  string
	addrs       map[RoleType]string
	err         error
	block       bool // wait for ctx cancellation in BackendRoleAddrs
	masterCalls int
	roleCalls   int
	requested   [][]RoleType
	refreshes   int
}

func (f *fakeDiscovery) MasterAddress(ctx context.Context) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.masterCalls++
	return f.masterAddr, f.masterAddr != ""
}

func (f *fakeDiscovery) BackendRoleAddrs(ctx context.Context, roles []RoleType, refresh bool) ([]RoleAddr, error) {
	f.mu.Lock()
	f.roleCalls++
	f.requested = append(f.requested, append([]RoleType(nil), roles...))
	if refresh {
		f.refreshes++
	}
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return []RoleAddr{{Role: RolePrefill, Addr: "late:1"}}, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	var out []RoleAddr
	for _, r := range roles {
		if addr, ok := f.addrs[r]; ok {
			out = append(out, RoleAddr{Role: r, Addr: addr})
		}
	}
	return out, nil
}

func (f *fakeDiscovery) calls() (master, roles int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.masterCalls, f.roleCalls
}

// fakeMaster returns a fixed result or error and records queries.
type fakeMaster struct {
	mu      sync.Mutex
	result  MasterResult
	err     error
	block   bool // wait for ctx cancellation, then return result anyway
	calls   int
	queries []MasterQuery
}

func (f *fakeMaster) Resolve(ctx context.Context, q MasterQuery) (MasterResult, error) {
	f.mu.Lock()
	f.calls++
	f.queries = append(f.queries, q)
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return f.result, nil
	}
	return f.result, f.err
}

func (f *fakeMaster) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type report struct {
	name  string
	value float64
	tags  map[string]string
}

// recordingSink keeps every report.
type recordingSink struct {
	mu      sync.Mutex
	reports []report
}

func (s *recordingSink) Report(name string, value float64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report{name: name, value: value, tags: tags})
}

func (s *recordingSink) named(name string) []report {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []report
	for _, r := range s.reports {
		if r.name == name {
			out = append(out, r)
		}
	}
	return out
}

// seqTokens returns n distinct tokens starting at base.
func seqTokens(base, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = base + i
	}
	return out
}

// newTestRequest returns an admissible single-sequence request.
func newTestRequest(id int64, promptLen int) *GenerateRequest {
	return &GenerateRequest{
		RequestID:    id,
		TokenIDs:     NewTokenIDs(seqTokens(100, promptLen)),
		PromptLength: promptLen,
		GenerateConfig: GenerationConfig{
			InterRequestID: NoInterRequestID,
			MaxNewTokens:   128,
			TTFTTimeoutMs:  500,
		},
	}
}

// testNodeConfig is a FRONTEND node routing to prefill and decode.
func testNodeConfig() NodeConfig {
	cfg := NodeConfig{
		Role:            RoleFrontend,
		Model:           "test-model",
		MaxSeqLen:       2048,
		SeqSizePerBlock: 4,
		Discovery: DomainConfig{
			MasterDomain:  "master.svc:8080",
			PrefillDomain: "prefill.svc:9000",
			DecodeDomain:  "decode.svc:9000",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}
