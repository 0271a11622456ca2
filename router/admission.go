package router

import "fmt"

// Admission is the outcome of a successful admission check.
type Admission struct {
	// MaxNewTokens is the requested max-new-tokens clamped to the room left in
	// the model's sequence length. Always > 0.
	MaxNewTokens int
}

// AdmissionGuard validates a request before any routing call is made.
// Validate is a pure predicate over the request and never mutates it.
type AdmissionGuard struct {
	maxSeqLen          int
	speculativeEnabled bool
}

// NewAdmissionGuard creates a guard for a model with the given max sequence length.
// speculativeEnabled reports whether speculative decoding is on for this node.
func NewAdmissionGuard(maxSeqLen int, speculativeEnabled bool) *AdmissionGuard {
	if maxSeqLen <= 0 {
		panic(fmt.Sprintf("NewAdmissionGuard: maxSeqLen must be > 0, got %d", maxSeqLen))
	}
	return &AdmissionGuard{maxSeqLen: maxSeqLen, speculativeEnabled: speculativeEnabled}
}

// Validate runs, in order: the empty-prompt check, the max-new-tokens clamp,
// and the speculative-decoding compatibility checks.
func (g *AdmissionGuard) Validate(req *GenerateRequest) (Admission, error) {
	if req.PromptLength <= 0 {
		return Admission{}, g.reject(req, KindLongPrompt,
			fmt.Sprintf("model tokens can not be empty, request length is %d", req.PromptLength))
	}

	maxNewTokens := min(g.maxSeqLen-req.PromptLength, req.GenerateConfig.MaxNewTokens)
	if maxNewTokens <= 0 {
		return Admission{}, g.reject(req, KindLongPrompt,
			fmt.Sprintf("model max tokens is %d, request length is %d, max_new_tokens is %d",
				g.maxSeqLen, req.PromptLength, maxNewTokens))
	}

	if err := g.checkSpeculative(req); err != nil {
		return Admission{}, err
	}
	return Admission{MaxNewTokens: maxNewTokens}, nil
}

func (g *AdmissionGuard) checkSpeculative(req *GenerateRequest) error {
	if !g.speculativeEnabled || req.GenerateConfig.ForceDisableSPRun {
		return nil
	}
	gc := req.GenerateConfig
	if req.TokenIDs.Batched() {
		return g.reject(req, KindUnsupportedOperation, "speculative decoding does not support batched input")
	}
	if gc.NumReturnSequences > 1 || gc.NumBeams > 1 {
		return g.reject(req, KindUnsupportedOperation,
			"speculative decoding does not support num_return_sequences > 1 or num_beams > 1")
	}
	if gc.ReturnAllProbs {
		return g.reject(req, KindUnsupportedOperation, "speculative decoding does not support return_all_probs")
	}
	return nil
}

func (g *AdmissionGuard) reject(req *GenerateRequest, kind ErrorKind, msg string) error {
	return &AdmissionError{Kind: kind, RequestID: req.RequestID, Message: msg}
}
