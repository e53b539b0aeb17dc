package rpcclient

import (
	"context"

	"github.com/monerosim/monerosim/btcjson"
)

// GetInfo returns the daemon's current chain state, most importantly
// Height and Difficulty, which the autonomous miner reads every
// iteration (step 1).
func (c *Client) GetInfo(ctx context.Context) (*btcjson.GetInfoResult, error) {
	result := &btcjson.GetInfoResult{}
	if err := c.Call(ctx, btcjson.NewGetInfoCmd(), result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetVersion returns the daemon's RPC version, used as a readiness
// fallback.
func (c *Client) GetVersion(ctx context.Context) (*btcjson.GetVersionResult, error) {
	result := &btcjson.GetVersionResult{}
	if err := c.Call(ctx, btcjson.NewGetVersionCmd(), result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetHeight returns the daemon's current chain height.
func (c *Client) GetHeight(ctx context.Context) (*btcjson.GetHeightResult, error) {
	result := &btcjson.GetHeightResult{}
	if err := c.Call(ctx, btcjson.NewGetHeightCmd(), result); err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateBlocks mints exactly one block to walletAddress via the
// daemon's regression-mode block generation RPC.
func (c *Client) GenerateBlocks(ctx context.Context, walletAddress string) (*btcjson.GenerateBlocksResult, error) {
	result := &btcjson.GenerateBlocksResult{}
	cmd := btcjson.NewGenerateBlocksCmd(1, walletAddress)
	if err := c.Call(ctx, cmd, result); err != nil {
		return nil, err
	}
	return result, nil
}
