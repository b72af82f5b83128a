package chain

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/logger"
)

const balanceOfABIJSON = `[
	{"type":"function","stateMutability":"view","name":"balanceOf","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var balanceOfABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(balanceOfABIJSON))
	if err != nil {
		panic(err)
	}
	balanceOfABI = parsed
}

// BalanceOfCall builds a balanceOf(owner) call against the given token or
// NFT contract.
func BalanceOfCall(contract, owner common.Address) (Call, error) {
	data, err := balanceOfABI.Pack("balanceOf", owner)
	if err != nil {
		return Call{}, err
	}
	return Call{Target: contract, CallData: data}, nil
}

// OgNftChecker determines OG bonus eligibility: whether any owner of a Safe
// holds the Gnosis Pay OG NFT.
type OgNftChecker struct {
	batcher *Batcher
	nft     common.Address
}

func NewOgNftChecker(batcher *Batcher, nftAddress string) *OgNftChecker {
	return &OgNftChecker{
		batcher: batcher,
		nft:     common.HexToAddress(nftAddress),
	}
}

// Check queries the NFT balance of every owner in one batched read and
// reports whether at least one balance is positive. A single owner's query
// failing does not invalidate the check; if every query fails the flag
// degrades to false rather than failing the caller.
func (c *OgNftChecker) Check(ctx context.Context, owners []common.Address) (bool, error) {
	calls := make([]Call, 0, len(owners))
	for _, owner := range owners {
		call, err := BalanceOfCall(c.nft, owner)
		if err != nil {
			return false, err
		}
		calls = append(calls, call)
	}

	results, err := c.batcher.TryAggregate(ctx, false, calls)
	if err != nil {
		return false, err
	}

	for i, result := range results {
		if !result.Success {
			logger.WithFields(map[string]interface{}{
				"owner": owners[i].Hex(),
			}).Debug("OG NFT balance query failed for owner")
			continue
		}
		balance, err := DecodeUint256(result.ReturnData)
		if err != nil {
			continue
		}
		if balance.Sign() > 0 {
			return true, nil
		}
	}
	return false, nil
}
