package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainRouter_NothingMissingMakesNoCall(t *testing.T) {
	disc := &fakeDiscovery{}
	d := NewDomainRouter(disc, nil)

	res := d.Route(context.Background(), 1, nil, testLog())

	_, roleCalls := disc.calls()
	assert.Zero(t, roleCalls)
	assert.Empty(t, res.Added)
}

func TestDomainRouter_AddsOnlyMissingRoles(t *testing.T) {
	// GIVEN discovery knows every role
	disc := &fakeDiscovery{addrs: map[RoleType]string{
		RolePrefill: "p:1", RoleDecode: "d:1", RoleVIT: "v:1",
	}}
	sink := &recordingSink{}
	d := NewDomainRouter(disc, sink)

	// WHEN only PREFILL is missing
	res := d.Route(context.Background(), 1, []RoleType{RolePrefill}, testLog())

	// THEN discovery is asked for PREFILL alone and one address is added
	require.Len(t, disc.requested, 1)
	assert.Equal(t, []RoleType{RolePrefill}, disc.requested[0])
	assert.Equal(t, []RoleAddr{{Role: RolePrefill, Addr: "p:1"}}, res.Added)
	assert.Empty(t, res.Unresolved)
	assert.Len(t, sink.named(MetricDomainRouteQPS), 1)
}

func TestDomainRouter_PartialResolution(t *testing.T) {
	disc := &fakeDiscovery{addrs: map[RoleType]string{RoleDecode: "d:1"}}
	d := NewDomainRouter(disc, nil)

	res := d.Route(context.Background(), 1, []RoleType{RoleVIT, RoleDecode}, testLog())

	assert.Equal(t, []RoleAddr{{Role: RoleDecode, Addr: "d:1"}}, res.Added)
	assert.Equal(t, []RoleType{RoleVIT}, res.Unresolved)
	assert.NoError(t, res.Err)
}

// extraDiscovery returns roles it was not asked for and duplicates.
type extraDiscovery struct{ fakeDiscovery }

func (e *extraDiscovery) BackendRoleAddrs(ctx context.Context, roles []RoleType, refresh bool) ([]RoleAddr, error) {
	return []RoleAddr{
		{Role: RoleDecode, Addr: "d:9"},
		{Role: RolePrefill, Addr: "p:1"},
		{Role: RolePrefill, Addr: "p:2"},
	}, nil
}

func TestDomainRouter_IgnoresUnrequestedAndDuplicateRoles(t *testing.T) {
	d := NewDomainRouter(&extraDiscovery{}, nil)

	res := d.Route(context.Background(), 1, []RoleType{RolePrefill}, testLog())

	assert.Equal(t, []RoleAddr{{Role: RolePrefill, Addr: "p:1"}}, res.Added)
}

func TestDomainRouter_DiscoveryErrorIsTreatedAsEmpty(t *testing.T) {
	disc := &fakeDiscovery{err: errors.New("registry down")}
	d := NewDomainRouter(disc, nil)

	res := d.Route(context.Background(), 1, []RoleType{RolePrefill}, testLog())

	assert.NoError(t, res.Err)
	assert.Empty(t, res.Added)
	assert.Equal(t, []RoleType{RolePrefill}, res.Unresolved)
}

func TestDomainRouter_CancelledContext(t *testing.T) {
	disc := &fakeDiscovery{block: true}
	d := NewDomainRouter(disc, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := d.Route(ctx, 1, []RoleType{RolePrefill}, testLog())

	assert.Equal(t, KindCancelled, KindOf(res.Err))
	assert.Empty(t, res.Added)
}
