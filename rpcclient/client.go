// Package rpcclient is the one thin transport used by every agent to
// talk to its daemon and, where it owns one, its wallet. Both endpoint
// kinds share the same Client; callers select behavior through the
// typed methods in daemon.go and wallet.go.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/monerosim/monerosim/btcjson"
	"github.com/pkg/errors"
)

// ConnConfig describes how to reach one RPC endpoint.
type ConnConfig struct {
	// Host is the "host:port" the endpoint listens on.
	Host string

	// DisableTLS selects plain HTTP instead of HTTPS. Simulated
	// daemons and wallets run in regtest mode on a loopback-like
	// simulated network, so TLS is normally disabled.
	DisableTLS bool

	// Timeout bounds a single RPC call. Zero selects DefaultCallTimeout.
	Timeout time.Duration
}

// DefaultCallTimeout is applied when a ConnConfig doesn't specify one,
// matching "10-30s of simulated time" per-call budget.
const DefaultCallTimeout = 20 * time.Second

// Client is a JSON-RPC 2.0 client bound to a single daemon or wallet
// endpoint.
type Client struct {
	cfg        ConnConfig
	httpClient *http.Client
	nextID     uint64
}

// New constructs a Client for the given endpoint. It performs no I/O;
// connection is implicit in the first call.
func New(cfg *ConnConfig) (*Client, error) {
	if cfg == nil || cfg.Host == "" {
		return nil, errors.New("rpcclient: Host is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Client{
		cfg: *cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) url() string {
	scheme := "https"
	if c.cfg.DisableTLS {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/json_rpc", scheme, c.cfg.Host)
}

// namedCmd is the subset of a btcjson Cmd type Call needs.
type namedCmd interface {
	Method() string
}

// Call issues cmd and unmarshals the result into out (a pointer to one
// of the btcjson Result types), or returns a classified *Error.
func (c *Client) Call(ctx context.Context, cmd namedCmd, out interface{}) error {
	id := atomic.AddUint64(&c.nextID, 1)
	req := btcjson.NewRequest(id, cmd)

	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "rpcclient: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(), bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error(), cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error(), cause: err}
	}

	var rpcResp btcjson.Response
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return &Error{Kind: KindMalformed, Message: "invalid JSON-RPC envelope", cause: err}
	}

	if rpcResp.Error != nil {
		return classifyProtocolError(cmd.Method(), rpcResp.Error)
	}

	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}

	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return &Error{Kind: KindMalformed, Message: "invalid result payload", cause: err}
	}
	return nil
}

// idempotentMethods are safe to retry automatically: pure reads with
// no side effect on double-execution.1.
var idempotentMethods = map[string]bool{
	"get_info":    true,
	"get_address": true,
	"get_height":  true,
	"get_balance": true,
	"get_transfers": true,
}

// IsIdempotent reports whether method is safe to retry blindly.
func IsIdempotent(method string) bool {
	return idempotentMethods[method]
}
