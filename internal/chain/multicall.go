package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/errors"
)

// Subset of the Multicall2 ABI used by this indexer. The contract lives at
// the same address on every chain it is deployed to.
const multicallABIJSON = `[
	{"type":"function","stateMutability":"view","name":"aggregate","inputs":[{"name":"calls","type":"tuple[]","components":[{"name":"target","type":"address"},{"name":"callData","type":"bytes"}]}],"outputs":[{"name":"blockNumber","type":"uint256"},{"name":"returnData","type":"bytes[]"}]},
	{"type":"function","stateMutability":"view","name":"tryAggregate","inputs":[{"name":"requireSuccess","type":"bool"},{"name":"calls","type":"tuple[]","components":[{"name":"target","type":"address"},{"name":"callData","type":"bytes"}]}],"outputs":[{"name":"returnData","type":"tuple[]","components":[{"name":"success","type":"bool"},{"name":"returnData","type":"bytes"}]}]},
	{"type":"function","stateMutability":"view","name":"getCurrentBlockTimestamp","inputs":[],"outputs":[{"name":"timestamp","type":"uint256"}]}
]`

var multicallABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(multicallABIJSON))
	if err != nil {
		panic(err)
	}
	multicallABI = parsed
}

// Call is a single read to batch: a target contract and the ABI-encoded
// calldata to send to it.
type Call struct {
	Target   common.Address
	CallData []byte
}

// Result is the per-call outcome of a tryAggregate batch. Result[i] always
// corresponds to calls[i]; callers decode by position.
type Result struct {
	Success    bool
	ReturnData []byte
}

// Batcher collapses many independent reads into one eth_call against the
// Multicall2 contract.
type Batcher struct {
	caller   Caller
	contract common.Address
}

func NewBatcher(caller Caller, contractAddress string) *Batcher {
	return &Batcher{
		caller:   caller,
		contract: common.HexToAddress(contractAddress),
	}
}

// ContractAddress returns the multicall contract address the batcher targets.
func (b *Batcher) ContractAddress() common.Address {
	return b.contract
}

// TryAggregate submits all calls in one round trip. With requireSuccess
// false, individual call failures come back as Result.Success=false and the
// batch itself still succeeds; with requireSuccess true the whole batch
// reverts on the first failing call.
func (b *Batcher) TryAggregate(ctx context.Context, requireSuccess bool, calls []Call) ([]Result, error) {
	if len(calls) == 0 {
		return []Result{}, nil
	}

	input, err := multicallABI.Pack("tryAggregate", requireSuccess, calls)
	if err != nil {
		return nil, errors.New(errors.ErrChainCall, "failed to encode tryAggregate", err)
	}

	raw, err := b.caller.CallContract(ctx, ethereum.CallMsg{To: &b.contract, Data: input}, nil)
	if err != nil {
		return nil, errors.New(errors.ErrChainCall, "tryAggregate call failed", err)
	}

	out, err := multicallABI.Unpack("tryAggregate", raw)
	if err != nil {
		return nil, errors.New(errors.ErrChainCall, "failed to decode tryAggregate result", err)
	}

	results := *abi.ConvertType(out[0], new([]Result)).(*[]Result)
	if len(results) != len(calls) {
		return nil, errors.New(errors.ErrChainCall, "tryAggregate returned wrong result count", nil)
	}
	return results, nil
}

// Aggregate submits all calls in one round trip and additionally returns the
// block number the batch executed at. Any failing call reverts the batch.
func (b *Batcher) Aggregate(ctx context.Context, calls []Call) (*big.Int, [][]byte, error) {
	if len(calls) == 0 {
		return nil, [][]byte{}, nil
	}

	input, err := multicallABI.Pack("aggregate", calls)
	if err != nil {
		return nil, nil, errors.New(errors.ErrChainCall, "failed to encode aggregate", err)
	}

	raw, err := b.caller.CallContract(ctx, ethereum.CallMsg{To: &b.contract, Data: input}, nil)
	if err != nil {
		return nil, nil, errors.New(errors.ErrChainCall, "aggregate call failed", err)
	}

	out, err := multicallABI.Unpack("aggregate", raw)
	if err != nil {
		return nil, nil, errors.New(errors.ErrChainCall, "failed to decode aggregate result", err)
	}

	blockNumber := out[0].(*big.Int)
	returnData := out[1].([][]byte)
	if len(returnData) != len(calls) {
		return nil, nil, errors.New(errors.ErrChainCall, "aggregate returned wrong result count", nil)
	}
	return blockNumber, returnData, nil
}

// CurrentBlockTimestampCall builds a getCurrentBlockTimestamp call against
// the multicall contract itself, for inclusion in an aggregate batch.
func (b *Batcher) CurrentBlockTimestampCall() (Call, error) {
	data, err := multicallABI.Pack("getCurrentBlockTimestamp")
	if err != nil {
		return Call{}, errors.New(errors.ErrChainCall, "failed to encode getCurrentBlockTimestamp", err)
	}
	return Call{Target: b.contract, CallData: data}, nil
}

// DecodeUint256 decodes a single uint256 return value, as produced by
// balanceOf and getCurrentBlockTimestamp.
func DecodeUint256(data []byte) (*big.Int, error) {
	if len(data) != 32 {
		return nil, errors.New(errors.ErrChainCall, "unexpected uint256 payload length", nil)
	}
	return new(big.Int).SetBytes(data), nil
}
