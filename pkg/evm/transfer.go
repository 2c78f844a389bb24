package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// TransferEventSignature is the keccak hash of the canonical ERC-20
// Transfer event, the first topic of every transfer log.
var TransferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// transferLog is one decoded ERC-20 Transfer event.
type transferLog struct {
	from  common.Address
	to    common.Address
	value *big.Int
}

// decodeTransferLog decodes lg as an ERC-20 Transfer event. The from and
// to addresses are indexed topics; the raw value is the log data.
func decodeTransferLog(lg *types.Log) (transferLog, bool) {
	if len(lg.Topics) != 3 || lg.Topics[0] != TransferEventSignature {
		return transferLog{}, false
	}
	return transferLog{
		from:  common.BytesToAddress(lg.Topics[1].Bytes()),
		to:    common.BytesToAddress(lg.Topics[2].Bytes()),
		value: new(big.Int).SetBytes(lg.Data),
	}, true
}

// displayAmount converts a raw on-chain integer into display units for
// the given number of contract decimals.
func displayAmount(raw *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -decimals)
}
