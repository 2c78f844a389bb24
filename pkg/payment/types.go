// Package payment defines the shared types exchanged between the chain
// verifiers, the transfer scanner, the payment matcher, and the booking
// logic that drives them.
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/zeebo/errs"
)

// Network identifies an EVM network reachable over public JSON-RPC.
type Network string

const (
	Ethereum Network = "eth"
	BSC      Network = "bsc"
)

// Kind represents the asset a booking is paid with.
type Kind string

const (
	BTC     Kind = "btc"
	ETH     Kind = "eth"
	USDTEth Kind = "usdt-eth"
	USDTBSC Kind = "usdt-bsc"
)

// KindFromString parses string to a Kind const.
func KindFromString(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "btc":
		return BTC, nil
	case "eth":
		return ETH, nil
	case "usdt-eth", "usdt-erc20":
		return USDTEth, nil
	case "usdt-bsc", "usdt-bep20":
		return USDTBSC, nil
	default:
		return "", errs.New("invalid asset kind %q", s)
	}
}

// Decimals returns the number of base-unit digits used to convert raw
// on-chain integer values into display units. The two USDT deployments
// genuinely differ: the Ethereum contract uses 6, the BSC contract 18.
func (k Kind) Decimals() int32 {
	switch k {
	case BTC:
		return 8
	case ETH:
		return 18
	case USDTEth:
		return 6
	case USDTBSC:
		return 18
	}
	return 0
}

// Network returns the EVM network the kind settles on, or "" for BTC.
func (k Kind) Network() Network {
	switch k {
	case ETH, USDTEth:
		return Ethereum
	case USDTBSC:
		return BSC
	}
	return ""
}

var (
	// USDT contract addresses per network. These are facts about the
	// deployed infrastructure, not configuration.
	USDTEthContract = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	USDTBSCContract = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
)

// TokenContract returns the token contract the kind is observed through.
// The zero address means the kind is not a token asset.
func (k Kind) TokenContract() common.Address {
	switch k {
	case USDTEth:
		return USDTEthContract
	case USDTBSC:
		return USDTBSCContract
	}
	return common.Address{}
}

// Scannable reports whether inbound payments of this kind can be
// discovered by scanning event logs.
func (k Kind) Scannable() bool {
	return k.TokenContract() != (common.Address{})
}

// Expectation describes the payment one order is waiting for. It is
// constructed once at booking time, after the unique-amount perturbation
// has been applied, and never mutated afterwards.
type Expectation struct {
	Address string
	Amount  decimal.Decimal
	Kind    Kind
}

// Result is the outcome of checking one transaction hash against an
// expectation. It is computed fresh on every call; confirmation counts
// move with the chain, so results must not be cached.
type Result struct {
	Valid            bool
	Confirmed        bool
	Confirmations    int64
	AmountReceived   decimal.Decimal
	RecipientMatched bool
	Error            string
}

// Invalid returns a Result carrying only a failure reason.
func Invalid(reason string) Result {
	return Result{Error: reason}
}

// IncomingTransfer is one token transfer observed on chain. Transfers
// are ephemeral scan output; the caller persists at most the hash of the
// one it attributes to an order.
type IncomingTransfer struct {
	Hash        string
	From        string
	Amount      decimal.Decimal
	BlockNumber uint64
	BlockTime   time.Time
}

// Verifier checks a single claimed transaction against an expectation.
// Implementations never return an error: every failure mode, transport
// failures and cancellation included, terminates in Result.Error so
// callers can treat verification as a total function.
type Verifier interface {
	Verify(ctx context.Context, txHash string, x Expectation) Result
}
