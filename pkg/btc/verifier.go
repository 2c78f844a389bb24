package btc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lodgepay/chainpay/pkg/payment"
)

// Verifier checks bitcoin transactions against an expected payment using
// public explorer data.
type Verifier struct {
	log    *zap.Logger
	client *Client
}

var _ payment.Verifier = (*Verifier)(nil)

func NewVerifier(log *zap.Logger, client *Client) *Verifier {
	return &Verifier{
		log:    log,
		client: client,
	}
}

func (v *Verifier) Verify(ctx context.Context, txHash string, x payment.Expectation) payment.Result {
	tx, err := v.client.GetTx(ctx, txHash)
	switch {
	case errors.Is(err, ErrTxNotFound):
		return payment.Invalid("Transaction not found")
	case err != nil:
		v.log.Warn("Explorer lookup failed",
			zap.String("hash", txHash),
			zap.Error(err),
		)
		return payment.Invalid("Explorer unreachable: " + err.Error())
	}

	var (
		matched  bool
		received decimal.Decimal
	)
	for _, out := range tx.Vout {
		if strings.EqualFold(out.Address, x.Address) {
			matched = true
			received = decimal.New(out.Value, -payment.BTC.Decimals())
			break
		}
	}

	var confirmations int64
	if tx.Status.Confirmed {
		tip, err := v.client.TipHeight(ctx)
		if err != nil {
			v.log.Warn("Tip height lookup failed", zap.Error(err))
			return payment.Invalid("Explorer unreachable: " + err.Error())
		}
		confirmations = tip - tx.Status.BlockHeight + 1
		if confirmations < 0 {
			confirmations = 0
		}
	}

	result := payment.Result{
		Confirmed:        tx.Status.Confirmed,
		Confirmations:    confirmations,
		AmountReceived:   received,
		RecipientMatched: matched,
	}

	// Confirmation status is informational only; validity hinges on the
	// recipient and the amount.
	switch {
	case !matched:
		result.Error = "Recipient mismatch"
	case !payment.Sufficient(received, x.Amount):
		result.Error = fmt.Sprintf("Amount insufficient: received %s, expected %s", received, x.Amount)
	default:
		result.Valid = true
	}
	return result
}
