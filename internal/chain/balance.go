package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/errors"
)

// BalanceReading is a point-in-time GNO balance of a Safe, pinned to the
// block the multicall batch executed at.
type BalanceReading struct {
	BlockNumber    int64
	BlockTimestamp time.Time
	Balance        *big.Int
}

// GnoBalanceReader captures GNO balances. Block number, block timestamp and
// balance come out of a single aggregate call so all three describe the same
// chain state.
type GnoBalanceReader struct {
	batcher *Batcher
	token   common.Address
}

func NewGnoBalanceReader(batcher *Batcher, tokenAddress string) *GnoBalanceReader {
	return &GnoBalanceReader{
		batcher: batcher,
		token:   common.HexToAddress(tokenAddress),
	}
}

func (r *GnoBalanceReader) Read(ctx context.Context, safeAddress common.Address) (*BalanceReading, error) {
	timestampCall, err := r.batcher.CurrentBlockTimestampCall()
	if err != nil {
		return nil, err
	}
	balanceCall, err := BalanceOfCall(r.token, safeAddress)
	if err != nil {
		return nil, errors.New(errors.ErrChainCall, "failed to encode balanceOf", err)
	}

	blockNumber, returnData, err := r.batcher.Aggregate(ctx, []Call{timestampCall, balanceCall})
	if err != nil {
		return nil, err
	}

	timestamp, err := DecodeUint256(returnData[0])
	if err != nil {
		return nil, err
	}
	balance, err := DecodeUint256(returnData[1])
	if err != nil {
		return nil, err
	}

	return &BalanceReading{
		BlockNumber:    blockNumber.Int64(),
		BlockTimestamp: time.Unix(timestamp.Int64(), 0).UTC(),
		Balance:        balance,
	}, nil
}
