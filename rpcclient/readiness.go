package rpcclient

import (
	"context"
	"time"

	"github.com/monerosim/monerosim/btcjson"
)

// ReadinessPollInterval is the delay between successive probes in
// WaitUntilReady.
const ReadinessPollInterval = 2 * time.Second

// WaitUntilReady polls get_info (falling back to get_version whenever
// get_info is answered with a JSON-RPC error envelope, which suggests
// the method isn't wired up yet) until a structurally valid response
// arrives or maxWait elapses.
func (c *Client) WaitUntilReady(ctx context.Context, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)

	for {
		var result struct {
			Status string `json:"status"`
		}
		err := c.Call(ctx, &probeCmd{}, &result)
		if rpcErr, ok := err.(*Error); ok && rpcErr.Kind == KindProtocol {
			err = c.Call(ctx, btcjson.NewGetVersionCmd(), &result)
		}
		if err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			return &Error{Kind: KindTransport, Message: "readiness wait exceeded budget", cause: err}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ReadinessPollInterval):
		}
	}
}

// probeCmd issues get_info, the cheapest call every daemon and wallet
// answers once up.
type probeCmd struct{}

func (probeCmd) Method() string { return "get_info" }
