package router

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/sirupsen/logrus"
)

// RequiredRoles is the fixed set of backend roles every request routed by this
// node must reach. It is computed once at startup and never mutated.
type RequiredRoles struct {
	roles []RoleType
	set   sets.Set[RoleType]
}

// NewRequiredRoles builds a RequiredRoles value from an explicit list.
// Duplicates are dropped; order is preserved.
func NewRequiredRoles(roles ...RoleType) RequiredRoles {
	rr := RequiredRoles{set: sets.New[RoleType]()}
	for _, r := range roles {
		if rr.set.Has(r) {
			continue
		}
		rr.set.Insert(r)
		rr.roles = append(rr.roles, r)
	}
	return rr
}

// ResolveRequiredRoles derives the roles this node routes to from its role,
// the decode-entrance and vit-separation flags, and the configured domains.
func ResolveRequiredRoles(cfg NodeConfig) RequiredRoles {
	var roles []RoleType

	if cfg.VitSeparation && cfg.Discovery.VitDomain != "" {
		roles = append(roles, RoleVIT)
		logrus.Info("Added VIT role")
	}

	switch cfg.Role {
	case RolePrefill:
		if !cfg.DecodeEntrance {
			roles = append(roles, RoleDecode)
			logrus.Info("Added DECODE role for PREFILL type")
		}
	case RoleDecode:
		if cfg.DecodeEntrance {
			roles = append(roles, RolePrefill)
			logrus.Info("Added PREFILL role for DECODE type")
		}
	case RoleFrontend:
		logrus.Infof("Checking FRONTEND roles: decode_domain=%q, prefill_domain=%q, pdfusion_domain=%q",
			cfg.Discovery.DecodeDomain, cfg.Discovery.PrefillDomain, cfg.Discovery.PDFusionDomain)
		if cfg.Discovery.DecodeDomain != "" {
			roles = append(roles, RoleDecode)
			logrus.Info("Added DECODE role for FRONTEND type")
		}
		if cfg.Discovery.PrefillDomain != "" {
			roles = append(roles, RolePrefill)
			logrus.Info("Added PREFILL role for FRONTEND type")
		}
		if cfg.Discovery.PDFusionDomain != "" {
			roles = append(roles, RolePDFusion)
			logrus.Info("Added PDFUSION role for FRONTEND type")
		}
	case RoleVIT, RolePDFusion, RoleUnknown:
	}

	rr := NewRequiredRoles(roles...)
	logrus.Infof("configured backend role list: %v", rr.roles)
	return rr
}

// Roles returns a copy of the required roles in resolution order.
func (rr RequiredRoles) Roles() []RoleType {
	out := make([]RoleType, len(rr.roles))
	copy(out, rr.roles)
	return out
}

// Len returns the number of required roles.
func (rr RequiredRoles) Len() int { return len(rr.roles) }

// Missing returns the required roles absent from covered, in resolution order.
func (rr RequiredRoles) Missing(covered sets.Set[RoleType]) []RoleType {
	var missing []RoleType
	for _, r := range rr.roles {
		if !covered.Has(r) {
			missing = append(missing, r)
		}
	}
	return missing
}

// SatisfiedBy reports whether addrs cover every required role.
func (rr RequiredRoles) SatisfiedBy(addrs []RoleAddr) bool {
	return rolesOf(addrs).IsSuperset(rr.set)
}
