// Defines the GenerateRequest that flows once through the orchestrator.
// Routing mutates only the role addresses, the inter-request id and the request id.

package router

import (
	"fmt"
)

// NoInterRequestID is the inter-request id sentinel meaning "do not rewrite".
const NoInterRequestID int64 = -1

// TokenIDs holds the prompt tokens as either a single 1-D sequence or a 2-D
// batch of sequences. A 2-D tensor with exactly one row is not batched.
type TokenIDs struct {
	Rows [][]int `json:"rows" yaml:"rows"`
	TwoD bool    `json:"two_d" yaml:"two_d"`
}

// NewTokenIDs wraps a single 1-D token sequence.
func NewTokenIDs(ids []int) TokenIDs {
	return TokenIDs{Rows: [][]int{ids}}
}

// NewBatchedTokenIDs wraps a 2-D token tensor.
func NewBatchedTokenIDs(rows [][]int) TokenIDs {
	return TokenIDs{Rows: rows, TwoD: true}
}

// Batched reports whether the tensor is 2-D with a first dimension other than 1.
func (t TokenIDs) Batched() bool {
	return t.TwoD && len(t.Rows) != 1
}

// First returns the first sequence, or nil for an empty tensor.
func (t TokenIDs) First() []int {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// GenerationConfig is the subset of generation parameters routing reads or writes.
type GenerationConfig struct {
	RoleAddrs      []RoleAddr `json:"role_addrs" yaml:"role_addrs"`
	InterRequestID int64      `json:"inter_request_id" yaml:"inter_request_id"`

	MaxNewTokens          int  `json:"max_new_tokens" yaml:"max_new_tokens"`
	TrafficRejectPriority int  `json:"traffic_reject_priority" yaml:"traffic_reject_priority"` // forwarded to the master as request priority
	TTFTTimeoutMs         int  `json:"ttft_timeout_ms" yaml:"ttft_timeout_ms"`                 // per-call timeout forwarded to the master (0 = none)
	ForceDisableSPRun     bool `json:"force_disable_sp_run" yaml:"force_disable_sp_run"`
	NumBeams              int  `json:"num_beams" yaml:"num_beams"`
	NumReturnSequences    int  `json:"num_return_sequences" yaml:"num_return_sequences"`
	ReturnAllProbs        bool `json:"return_all_probs" yaml:"return_all_probs"`
}

// GenerateRequest is one inbound generation request.
type GenerateRequest struct {
	RequestID      int64            `json:"request_id" yaml:"request_id"`
	TokenIDs       TokenIDs         `json:"token_ids" yaml:"token_ids"`
	PromptLength   int              `json:"prompt_length" yaml:"prompt_length"`
	GenerateConfig GenerationConfig `json:"generate_config" yaml:"generate_config"`
}

func (req GenerateRequest) String() string {
	return fmt.Sprintf("Request: (ID: %d, PromptLength: %d, Batched: %v, RoleAddrs: %v)",
		req.RequestID, req.PromptLength, req.TokenIDs.Batched(), req.GenerateConfig.RoleAddrs)
}
