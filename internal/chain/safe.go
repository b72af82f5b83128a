package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/errors"
)

const safeABIJSON = `[
	{"type":"function","stateMutability":"view","name":"getOwners","inputs":[],"outputs":[{"name":"","type":"address[]"}]}
]`

var safeABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(safeABIJSON))
	if err != nil {
		panic(err)
	}
	safeABI = parsed
}

// SafeVerifier decides whether an address is a deployed Gnosis Safe by
// enumerating its owners.
type SafeVerifier struct {
	caller Caller
}

func NewSafeVerifier(caller Caller) *SafeVerifier {
	return &SafeVerifier{caller: caller}
}

// Verify issues one getOwners read against the candidate address. A revert
// or an empty owner set means the address is not a Safe enrolled in the
// program; transport failures stay retryable.
func (v *SafeVerifier) Verify(ctx context.Context, address common.Address) ([]common.Address, error) {
	input, err := safeABI.Pack("getOwners")
	if err != nil {
		return nil, errors.New(errors.ErrChainCall, "failed to encode getOwners", err)
	}

	raw, err := v.caller.CallContract(ctx, ethereum.CallMsg{To: &address, Data: input}, nil)
	if err != nil {
		if isRevert(err) {
			return nil, errors.New(errors.ErrNotASafe,
				fmt.Sprintf("getOwners reverted for %s", address.Hex()), err)
		}
		return nil, errors.New(errors.ErrChainCall,
			fmt.Sprintf("getOwners call failed for %s", address.Hex()), err)
	}

	out, err := safeABI.Unpack("getOwners", raw)
	if err != nil {
		// An EOA or a non-Safe contract returns nothing decodable here.
		return nil, errors.New(errors.ErrNotASafe,
			fmt.Sprintf("could not decode owners for %s", address.Hex()), err)
	}

	owners := out[0].([]common.Address)
	if len(owners) == 0 {
		return nil, errors.New(errors.ErrNoOwnersFound,
			fmt.Sprintf("no owners found for %s", address.Hex()), nil)
	}
	return owners, nil
}

func isRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "execution reverted")
}
