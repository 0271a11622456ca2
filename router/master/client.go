// Package master implements the HTTP/JSON client for the cluster master
// scheduler, which places requests by KV cache affinity.
package master

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inference-sim/role-router/router"
)

// SchedulePath is the master endpoint that returns a role placement.
const SchedulePath = "/rtp_llm/schedule"

// scheduleRequest is the JSON body posted to SchedulePath.
type scheduleRequest struct {
	Model           string  `json:"model"`
	BlockCacheKeys  []int64 `json:"block_cache_keys"`
	SeqLen          int     `json:"seq_len"`
	Debug           bool    `json:"debug"`
	GenerateTimeout int     `json:"generate_timeout"`
	RequestPriority int     `json:"request_priority"`
}

// scheduleResponse is the master's reply. A non-zero ErrorCode is a rejection.
type scheduleResponse struct {
	RoleAddrs      []router.RoleAddr `json:"role_addrs"`
	InterRequestID *int64            `json:"inter_request_id"`
	ErrorCode      int               `json:"error_code"`
	ErrorMessage   string            `json:"error_message"`
}

// Client sends placement queries to the master scheduler.
type Client struct {
	scheme     string
	httpClient *http.Client
}

// NewClient creates a master client. The per-call deadline comes from each
// query's TimeoutMs, so the underlying http.Client has no timeout of its own.
func NewClient() *Client {
	return &Client{
		scheme:     "http",
		httpClient: &http.Client{},
	}
}

var _ router.MasterClient = (*Client)(nil)

// Resolve implements router.MasterClient. Every error it returns is a
// *router.TransportError whose kind separates connectivity problems
// (KindConnection, KindTimeout, KindCancelled) from logical rejection
// (KindMasterRejected).
func (c *Client) Resolve(ctx context.Context, q router.MasterQuery) (router.MasterResult, error) {
	if q.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(q.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	keys := q.BlockCacheKeys
	if keys == nil {
		keys = []int64{}
	}
	bodyBytes, err := json.Marshal(scheduleRequest{
		Model:           q.Model,
		BlockCacheKeys:  keys,
		SeqLen:          q.SeqLen,
		Debug:           q.Debug,
		GenerateTimeout: q.TimeoutMs,
		RequestPriority: q.Priority,
	})
	if err != nil {
		return router.MasterResult{}, transportErr(router.KindUnknown, "marshal", err)
	}

	url := c.scheme + "://" + strings.TrimRight(q.MasterAddr, "/") + SchedulePath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return router.MasterResult{}, transportErr(router.KindConnection, "request creation", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return router.MasterResult{}, transportErr(classify(ctx, err), "post "+SchedulePath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	bodyData, err := io.ReadAll(resp.Body)
	if err != nil {
		return router.MasterResult{}, transportErr(classify(ctx, err), "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return router.MasterResult{}, transportErr(router.KindMasterRejected, "schedule",
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyData))))
	}

	var result scheduleResponse
	if err := json.Unmarshal(bodyData, &result); err != nil {
		return router.MasterResult{}, transportErr(router.KindMasterRejected, "decode response", err)
	}
	if result.ErrorCode != 0 {
		return router.MasterResult{}, transportErr(router.KindMasterRejected, "schedule",
			fmt.Errorf("master error %d: %s", result.ErrorCode, result.ErrorMessage))
	}

	interRequestID := router.NoInterRequestID
	if result.InterRequestID != nil {
		interRequestID = *result.InterRequestID
	}
	return router.MasterResult{RoleAddrs: result.RoleAddrs, InterRequestID: interRequestID}, nil
}

// classify maps a failed round trip to a kind, preferring the context's verdict.
func classify(ctx context.Context, err error) router.ErrorKind {
	switch {
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return router.KindCancelled
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return router.KindTimeout
	default:
		return router.KindConnection
	}
}

func transportErr(kind router.ErrorKind, op string, err error) *router.TransportError {
	return &router.TransportError{Kind: kind, Op: "master " + op, Err: err}
}
