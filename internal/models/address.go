package models

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/errors"
)

// CanonicalAddress validates s as an EVM address and returns its canonical
// form: lower-case hex with the 0x prefix. Equality throughout the system is
// defined on this form, never on raw input casing.
func CanonicalAddress(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", errors.New(errors.ErrValidation,
			fmt.Sprintf("invalid EVM address: %s", s), nil)
	}
	return strings.ToLower(common.HexToAddress(s).Hex()), nil
}

// WeekRewardID builds the composite document id for a (week, address) pair,
// e.g. "2024-03-03/0x1234...". The address must already be canonical.
func WeekRewardID(weekID, address string) string {
	return weekID + "/" + address
}
