package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	chainpay "github.com/lodgepay/chainpay/pkg"
	"github.com/lodgepay/chainpay/pkg/payment"
)

var (
	_ payment.Verifier = (*NativeVerifier)(nil)
	_ payment.Verifier = (*TokenVerifier)(nil)
)

// NativeVerifier checks native coin transfers carried in the
// transaction's value field.
type NativeVerifier struct {
	log     *zap.Logger
	resolve Resolver
	kind    payment.Kind
}

func NewNativeVerifier(log *zap.Logger, resolve Resolver) *NativeVerifier {
	return &NativeVerifier{
		log:     log,
		resolve: resolve,
		kind:    payment.ETH,
	}
}

func (v *NativeVerifier) Verify(ctx context.Context, txHash string, x payment.Expectation) payment.Result {
	hash, err := chainpay.HashFromString(txHash)
	if err != nil {
		return payment.Invalid("Invalid transaction hash")
	}

	client, err := v.resolve(ctx, v.kind.Network())
	if err != nil {
		v.log.Warn("RPC resolution failed",
			zap.String("network", string(v.kind.Network())),
			zap.Error(err),
		)
		return payment.Invalid("Network unreachable: " + err.Error())
	}
	defer client.Close()

	tx, pending, err := client.TransactionByHash(ctx, hash)
	switch {
	case errors.Is(err, ethereum.NotFound):
		return payment.Invalid("Transaction not found")
	case err != nil:
		return payment.Invalid("Network unreachable: " + err.Error())
	}

	// EVM addresses carry no case significance; checksum casing must not
	// affect equality.
	to := tx.To()
	matched := to != nil && strings.EqualFold(to.Hex(), x.Address)

	result := payment.Result{
		AmountReceived:   displayAmount(tx.Value(), v.kind.Decimals()),
		RecipientMatched: matched,
	}

	if pending {
		result.Error = "Transaction not yet mined"
		return result
	}

	receipt, err := client.TransactionReceipt(ctx, hash)
	switch {
	case errors.Is(err, ethereum.NotFound):
		result.Error = "Transaction not yet mined"
		return result
	case err != nil:
		return payment.Invalid("Network unreachable: " + err.Error())
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		return payment.Invalid("Network unreachable: " + err.Error())
	}
	result.Confirmed = true
	result.Confirmations = confirmations(head, receipt.BlockNumber)

	switch {
	case receipt.Status != types.ReceiptStatusSuccessful:
		// A reverted transaction moved nothing, whatever its value field
		// says.
		result.Error = "Transaction failed"
	case !matched:
		result.Error = "Recipient mismatch"
	case !payment.Sufficient(result.AmountReceived, x.Amount):
		result.Error = fmt.Sprintf("Amount insufficient: received %s, expected %s", result.AmountReceived, x.Amount)
	default:
		result.Valid = true
	}
	return result
}

// TokenVerifier checks ERC-20 token transfers by decoding Transfer
// events out of the transaction receipt. Token movements never touch the
// native value field.
type TokenVerifier struct {
	log     *zap.Logger
	resolve Resolver
	kind    payment.Kind
}

func NewTokenVerifier(log *zap.Logger, resolve Resolver, kind payment.Kind) *TokenVerifier {
	return &TokenVerifier{
		log:     log,
		resolve: resolve,
		kind:    kind,
	}
}

func (v *TokenVerifier) Verify(ctx context.Context, txHash string, x payment.Expectation) payment.Result {
	hash, err := chainpay.HashFromString(txHash)
	if err != nil {
		return payment.Invalid("Invalid transaction hash")
	}
	expected, err := chainpay.AddressFromString(x.Address)
	if err != nil {
		return payment.Invalid("Invalid recipient address")
	}

	client, err := v.resolve(ctx, v.kind.Network())
	if err != nil {
		v.log.Warn("RPC resolution failed",
			zap.String("network", string(v.kind.Network())),
			zap.Error(err),
		)
		return payment.Invalid("Network unreachable: " + err.Error())
	}
	defer client.Close()

	receipt, err := client.TransactionReceipt(ctx, hash)
	switch {
	case errors.Is(err, ethereum.NotFound):
		return payment.Invalid("Transaction not found")
	case err != nil:
		return payment.Invalid("Network unreachable: " + err.Error())
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		return payment.Invalid("Network unreachable: " + err.Error())
	}

	result := payment.Result{
		Confirmed:     true,
		Confirmations: confirmations(head, receipt.BlockNumber),
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		result.Error = "Transaction failed"
		return result
	}

	contract := v.kind.TokenContract()
	received := decimal.Zero
	matched := false
	for _, lg := range receipt.Logs {
		if lg == nil || lg.Address != contract {
			continue
		}
		ev, ok := decodeTransferLog(lg)
		if !ok || ev.to != expected {
			continue
		}
		matched = true
		// A single transaction may carry several transfers to the same
		// recipient (aggregators do this); they all count.
		received = received.Add(displayAmount(ev.value, v.kind.Decimals()))
	}
	result.AmountReceived = received
	result.RecipientMatched = matched

	switch {
	case !matched:
		result.Error = "No transfer to the expected address"
	case !payment.Sufficient(received, x.Amount):
		result.Error = fmt.Sprintf("Amount insufficient: received %s, expected %s", received, x.Amount)
	default:
		result.Valid = true
	}
	return result
}

func confirmations(head uint64, blockNumber *big.Int) int64 {
	if blockNumber == nil {
		return 0
	}
	c := int64(head) - blockNumber.Int64() + 1
	if c < 0 {
		return 0
	}
	return c
}
