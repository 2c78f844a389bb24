package verify_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgepay/chainpay/pkg/payment"
	"github.com/lodgepay/chainpay/pkg/verify"
)

type stubVerifier struct {
	calls  int
	result payment.Result
}

func (s *stubVerifier) Verify(ctx context.Context, txHash string, x payment.Expectation) payment.Result {
	s.calls++
	return s.result
}

func TestDispatcherRouting(t *testing.T) {
	eth := &stubVerifier{result: payment.Result{Valid: true}}
	btc := &stubVerifier{result: payment.Invalid("Transaction not found")}
	dispatcher := verify.NewWithVerifiers(map[payment.Kind]payment.Verifier{
		payment.ETH: eth,
		payment.BTC: btc,
	})

	result := dispatcher.Verify(context.Background(), "0xC", payment.Expectation{
		Address: "0xWALLET",
		Amount:  decimal.RequireFromString("1"),
		Kind:    payment.ETH,
	})
	assert.True(t, result.Valid)
	assert.Equal(t, 1, eth.calls)
	assert.Equal(t, 0, btc.calls)
}

func TestDispatcherUnsupportedKind(t *testing.T) {
	dispatcher := verify.NewWithVerifiers(map[payment.Kind]payment.Verifier{})

	result := dispatcher.Verify(context.Background(), "0xC", payment.Expectation{
		Kind: payment.Kind("doge"),
	})
	require.False(t, result.Valid)
	assert.Equal(t, "Unsupported cryptocurrency", result.Error)
}

func TestDispatcherKinds(t *testing.T) {
	dispatcher := verify.NewWithVerifiers(map[payment.Kind]payment.Verifier{
		payment.USDTEth: &stubVerifier{},
		payment.BTC:     &stubVerifier{},
		payment.ETH:     &stubVerifier{},
	})

	assert.Equal(t, []payment.Kind{payment.BTC, payment.ETH, payment.USDTEth}, dispatcher.Kinds())
}
