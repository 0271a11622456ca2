package router

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// RoleType identifies a backend instance type in a disaggregated serving topology.
// The set is closed: ParseRole rejects any name not listed here.
type RoleType int

const (
	RoleUnknown RoleType = iota
	RolePrefill
	RoleDecode
	RoleVIT
	RolePDFusion
	RoleFrontend
)

// AllRoles lists every valid role in declaration order.
var AllRoles = []RoleType{RolePrefill, RoleDecode, RoleVIT, RolePDFusion, RoleFrontend}

func (r RoleType) String() string {
	switch r {
	case RolePrefill:
		return "PREFILL"
	case RoleDecode:
		return "DECODE"
	case RoleVIT:
		return "VIT"
	case RolePDFusion:
		return "PDFUSION"
	case RoleFrontend:
		return "FRONTEND"
	case RoleUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("RoleType(%d)", int(r))
	}
}

// Valid reports whether r is one of AllRoles.
func (r RoleType) Valid() bool {
	switch r {
	case RolePrefill, RoleDecode, RoleVIT, RolePDFusion, RoleFrontend:
		return true
	case RoleUnknown:
		return false
	default:
		return false
	}
}

// ParseRole converts a role name (case-insensitive) to a RoleType.
func ParseRole(name string) (RoleType, error) {
	for _, r := range AllRoles {
		if strings.EqualFold(name, r.String()) {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", name)
}

// MarshalText implements encoding.TextMarshaler so roles appear by name in YAML and JSON.
func (r RoleType) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RoleType) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleAddr pairs a backend role with the host:port that serves it.
type RoleAddr struct {
	Role RoleType `json:"role" yaml:"role"`
	Addr string   `json:"addr" yaml:"addr"`
}

func (ra RoleAddr) String() string {
	return ra.Role.String() + "@" + ra.Addr
}

// rolesOf returns the set of roles present in addrs.
func rolesOf(addrs []RoleAddr) sets.Set[RoleType] {
	covered := sets.New[RoleType]()
	for _, a := range addrs {
		covered.Insert(a.Role)
	}
	return covered
}

// dedupeByRole keeps the first address of each role, preserving order.
func dedupeByRole(addrs []RoleAddr) []RoleAddr {
	seen := sets.New[RoleType]()
	out := make([]RoleAddr, 0, len(addrs))
	for _, a := range addrs {
		if seen.Has(a.Role) {
			continue
		}
		seen.Insert(a.Role)
		out = append(out, a)
	}
	return out
}
