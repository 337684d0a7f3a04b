// Package chain reads account state directly from an Ethereum JSON-RPC node.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"

	"riskScope/internal/apperr"
)

// NativeDecimals is the exponent between wei and ether.
const NativeDecimals = 18

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, apperr.Transient("dial rpc", err)
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return nil, apperr.Transient("chain id", err)
	}
	return id, nil
}

// BalanceAt returns the latest balance of address in ether.
func (c *Client) BalanceAt(ctx context.Context, address string) (decimal.Decimal, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return decimal.Zero, err
	}
	wei, err := c.ethClient.BalanceAt(ctx, addr, nil)
	if err != nil {
		return decimal.Zero, apperr.Transient("balance at", err)
	}
	return FromWei(wei), nil
}

// IsAddress reports whether s is a hex-encoded 20-byte address.
func IsAddress(s string) bool {
	return common.IsHexAddress(strings.TrimSpace(s))
}

// ParseAddress validates s and returns it as an address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, apperr.Validation(fmt.Sprintf("invalid address %q", s))
	}
	return common.HexToAddress(s), nil
}

// FromWei converts an amount in wei to ether. A nil amount is zero.
func FromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -NativeDecimals)
}
