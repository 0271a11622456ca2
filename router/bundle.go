package router

import (
	"bytes"
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/role-router/router/trace"
)

// LoadNodeConfig reads, strictly parses, defaults and validates a YAML node
// configuration file. Unknown fields are errors so typos do not pass silently.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading node config: %w", err)
	}
	return ParseNodeConfig(data)
}

// ParseNodeConfig is LoadNodeConfig for in-memory YAML.
func ParseNodeConfig(data []byte) (*NodeConfig, error) {
	var cfg NodeConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing node config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks role names, ranges and address formats.
func (c *NodeConfig) Validate() error {
	if !c.Role.Valid() {
		return fmt.Errorf("unknown node role %v", c.Role)
	}
	if c.MaxSeqLen <= 0 {
		return fmt.Errorf("max_seq_len must be > 0, got %d", c.MaxSeqLen)
	}
	if c.SeqSizePerBlock <= 0 {
		return fmt.Errorf("seq_size_per_block must be > 0, got %d", c.SeqSizePerBlock)
	}
	if !trace.IsValidTraceLevel(string(c.Trace.Level)) {
		return fmt.Errorf("unknown trace level %q", c.Trace.Level)
	}
	if c.Discovery.TTL < 0 {
		return fmt.Errorf("discovery ttl must be >= 0, got %v", c.Discovery.TTL)
	}
	if c.Discovery.ResolveTimeout < 0 {
		return fmt.Errorf("discovery resolve_timeout must be >= 0, got %v", c.Discovery.ResolveTimeout)
	}
	domains := map[string]string{
		"master_domain":   c.Discovery.MasterDomain,
		"prefill_domain":  c.Discovery.PrefillDomain,
		"decode_domain":   c.Discovery.DecodeDomain,
		"vit_domain":      c.Discovery.VitDomain,
		"pdfusion_domain": c.Discovery.PDFusionDomain,
	}
	for field, domain := range domains {
		if domain == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(domain); err != nil {
			return fmt.Errorf("%s %q is not host:port: %w", field, domain, err)
		}
	}
	for role, addrs := range c.Discovery.Static {
		if !role.Valid() {
			return fmt.Errorf("static addresses for unknown role %v", role)
		}
		for _, addr := range addrs {
			if _, _, err := net.SplitHostPort(addr); err != nil {
				return fmt.Errorf("static %s address %q is not host:port: %w", role, addr, err)
			}
		}
	}
	return nil
}
