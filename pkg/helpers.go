package chainpay

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/errs"
)

// HashFromString parses a 0x-prefixed transaction hash, rejecting values
// that do not round-trip through the canonical encoding.
func HashFromString(s string) (common.Hash, error) {
	h := common.HexToHash(s)
	if !strings.EqualFold(h.Hex(), s) {
		return common.Hash{}, errs.New("%q is not valid hash", s)
	}
	return h, nil
}

func AddressFromString(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errs.New("%q is not a hex address", s)
	}
	return common.HexToAddress(s), nil
}
