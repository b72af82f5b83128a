package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/config"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/errors"
)

// AddressFromCanonical converts a canonical lower-case address string back
// to its binary form.
func AddressFromCanonical(s string) common.Address {
	return common.HexToAddress(s)
}

// Caller is the read-only surface this package needs from an RPC client.
// *ethclient.Client satisfies it; tests substitute a fake.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Client struct {
	chainCfg *config.ChainConfig
	client   *ethclient.Client
}

// NewClient connects to the configured RPC endpoint.
func NewClient(chainCfg *config.ChainConfig) (*Client, error) {
	client, err := ethclient.Dial(chainCfg.RPCURL)
	if err != nil {
		return nil, errors.New(errors.ErrRPConnect,
			fmt.Sprintf("failed to connect to RPC: %s", chainCfg.RPCURL), err)
	}

	return &Client{
		chainCfg: chainCfg,
		client:   client,
	}, nil
}

func (c *Client) Close() {
	c.client.Close()
}

// CallContract issues a read-only eth_call against the latest block. Every
// call carries the configured timeout so a stalled node cannot hold a
// request open indefinitely.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if c.chainCfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.chainCfg.CallTimeout)*time.Second)
		defer cancel()
	}
	return c.client.CallContract(ctx, msg, blockNumber)
}
