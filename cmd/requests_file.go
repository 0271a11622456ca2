package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/role-router/router"
)

// RequestsFile is the YAML layout read by the route command.
type RequestsFile struct {
	Requests []*router.GenerateRequest `yaml:"requests"`
}

// requestKeys records which keys each entry sets, so defaults apply only to
// absent fields and an explicit zero survives.
type requestKeys struct {
	Requests []map[string]any `yaml:"requests"`
}

// LoadRequests reads a requests file with strict field checking. An absent
// prompt_length is taken from the first token row, and an absent
// inter_request_id starts at the "no rewrite" sentinel.
func LoadRequests(path string) ([]*router.GenerateRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading requests: %w", err)
	}
	var file RequestsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing requests: %w", err)
	}
	var keys requestKeys
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parsing requests: %w", err)
	}

	for i, req := range file.Requests {
		if req == nil {
			return nil, fmt.Errorf("requests[%d] is empty", i)
		}
		var entry map[string]any
		if i < len(keys.Requests) {
			entry = keys.Requests[i]
		}
		if !hasKey(entry, "prompt_length") {
			req.PromptLength = len(req.TokenIDs.First())
		}
		if !hasKey(entry, "generate_config", "inter_request_id") {
			req.GenerateConfig.InterRequestID = router.NoInterRequestID
		}
	}
	return file.Requests, nil
}

// hasKey reports whether the nested key path is present in entry.
func hasKey(entry map[string]any, path ...string) bool {
	for i, key := range path {
		v, ok := entry[key]
		if !ok {
			return false
		}
		if i == len(path)-1 {
			return true
		}
		entry, ok = v.(map[string]any)
		if !ok {
			return false
		}
	}
	return false
}
