package rpcclient

import (
	"context"

	"github.com/monerosim/monerosim/btcjson"
)

// OpenWallet attempts to open an existing wallet file. Callers
// implementing an open-or-create sequence should fall back to
// CreateWallet only when this returns a
// KindSemantic/SemWalletNotFound error.
func (c *Client) OpenWallet(ctx context.Context, filename, password string) error {
	return c.Call(ctx, btcjson.NewOpenWalletCmd(filename, password), &btcjson.OpenWalletResult{})
}

// CreateWallet creates a new wallet file.
func (c *Client) CreateWallet(ctx context.Context, filename, password, language string) error {
	return c.Call(ctx, btcjson.NewCreateWalletCmd(filename, password, language), &btcjson.CreateWalletResult{})
}

// GetAddress returns the wallet's primary address. Every address ever
// written to a registry or transaction record must come from here or
// from the counterpart call on the owning agent's own wallet, never
// fabricated by the caller.
func (c *Client) GetAddress(ctx context.Context) (*btcjson.GetAddressResult, error) {
	result := &btcjson.GetAddressResult{}
	if err := c.Call(ctx, btcjson.NewGetAddressCmd(), result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetBalance returns the wallet's total and unlocked (spendable)
// balance in atomic units.
func (c *Client) GetBalance(ctx context.Context) (*btcjson.GetBalanceResult, error) {
	result := &btcjson.GetBalanceResult{}
	if err := c.Call(ctx, btcjson.NewGetBalanceCmd(), result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetTransfers returns the wallet's incoming and outgoing transfer
// history.
func (c *Client) GetTransfers(ctx context.Context) (*btcjson.GetTransfersResult, error) {
	result := &btcjson.GetTransfersResult{}
	if err := c.Call(ctx, btcjson.NewGetTransfersCmd(true, true), result); err != nil {
		return nil, err
	}
	return result, nil
}

// Transfer submits a transaction with the given destinations at
// priority 1, requesting the tx key, and always relays it.
func (c *Client) Transfer(ctx context.Context, destinations []btcjson.Destination) (*btcjson.TransferResult, error) {
	result := &btcjson.TransferResult{}
	if err := c.Call(ctx, btcjson.NewTransferCmd(destinations), result); err != nil {
		return nil, err
	}
	return result, nil
}
