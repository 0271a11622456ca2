package router

import (
	"time"

	"github.com/inference-sim/role-router/router/trace"
)

// Defaults applied by NodeConfig.ApplyDefaults for unset fields.
const (
	DefaultSeqSizePerBlock = 64
	DefaultDiscoveryTTL    = 30 * time.Second
	DefaultResolveTimeout  = 2 * time.Second
)

// DomainConfig groups the service-discovery sources for each backend role.
// Domains are "host:port"; Static addresses take precedence over a domain.
type DomainConfig struct {
	MasterDomain   string                `yaml:"master_domain"`
	PrefillDomain  string                `yaml:"prefill_domain"`
	DecodeDomain   string                `yaml:"decode_domain"`
	VitDomain      string                `yaml:"vit_domain"`
	PDFusionDomain string                `yaml:"pdfusion_domain"`
	Static         map[RoleType][]string `yaml:"static"`
	TTL            time.Duration         `yaml:"ttl"`             // cache lifetime of resolved addresses
	ResolveTimeout time.Duration         `yaml:"resolve_timeout"` // per-lookup DNS deadline
}

// DomainFor returns the configured domain for role, or "" when none.
func (dc DomainConfig) DomainFor(role RoleType) string {
	switch role {
	case RolePrefill:
		return dc.PrefillDomain
	case RoleDecode:
		return dc.DecodeDomain
	case RoleVIT:
		return dc.VitDomain
	case RolePDFusion:
		return dc.PDFusionDomain
	case RoleFrontend, RoleUnknown:
		return ""
	default:
		return ""
	}
}

// HasSource reports whether discovery can produce an address for role,
// either from a domain or from static addresses.
func (dc DomainConfig) HasSource(role RoleType) bool {
	return dc.DomainFor(role) != "" || len(dc.Static[role]) > 0
}

// RoutingConfig groups per-request routing behaviour.
type RoutingConfig struct {
	// DomainFallbackOnMasterError continues with discovery when the master call
	// fails instead of failing the request. Off by default.
	DomainFallbackOnMasterError bool `yaml:"domain_fallback_on_master_error"`
	Debug                       bool `yaml:"debug"` // forwarded to the master
}

// TraceSettings selects decision-trace verbosity.
type TraceSettings struct {
	Level trace.TraceLevel `yaml:"level"`
}

// NodeConfig is the static configuration of one serving node.
type NodeConfig struct {
	Role                 RoleType      `yaml:"role"`
	DecodeEntrance       bool          `yaml:"decode_entrance"`
	VitSeparation        bool          `yaml:"vit_separation"`
	Model                string        `yaml:"model"`
	MaxSeqLen            int           `yaml:"max_seq_len"`
	SeqSizePerBlock      int           `yaml:"seq_size_per_block"`
	SpeculativeModelType string        `yaml:"speculative_model_type"` // non-empty enables speculative decoding
	Routing              RoutingConfig `yaml:"routing"`
	Discovery            DomainConfig  `yaml:"discovery"`
	Trace                TraceSettings `yaml:"trace"`
}

// ApplyDefaults fills zero-valued optional fields.
func (c *NodeConfig) ApplyDefaults() {
	if c.SeqSizePerBlock == 0 {
		c.SeqSizePerBlock = DefaultSeqSizePerBlock
	}
	if c.Discovery.TTL == 0 {
		c.Discovery.TTL = DefaultDiscoveryTTL
	}
	if c.Discovery.ResolveTimeout == 0 {
		c.Discovery.ResolveTimeout = DefaultResolveTimeout
	}
	if c.Trace.Level == "" {
		c.Trace.Level = trace.TraceLevelNone
	}
}

// SpeculativeEnabled reports whether speculative decoding is globally on.
func (c *NodeConfig) SpeculativeEnabled() bool {
	return c.SpeculativeModelType != ""
}
