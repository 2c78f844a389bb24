// Package verify routes verification requests to the verifier that
// understands the asset.
package verify

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"

	"github.com/lodgepay/chainpay/pkg/btc"
	"github.com/lodgepay/chainpay/pkg/evm"
	"github.com/lodgepay/chainpay/pkg/payment"
)

// Dispatcher holds one verifier per supported asset kind and delegates
// to it. It adds no verification logic of its own.
type Dispatcher struct {
	verifiers map[payment.Kind]payment.Verifier
}

// New wires the full production verifier set: BTC against the explorer
// client, ETH and both USDT deployments against the RPC resolver.
func New(log *zap.Logger, explorer *btc.Client, resolve evm.Resolver) *Dispatcher {
	return NewWithVerifiers(map[payment.Kind]payment.Verifier{
		payment.BTC:     btc.NewVerifier(log.Named("btc"), explorer),
		payment.ETH:     evm.NewNativeVerifier(log.Named("eth"), resolve),
		payment.USDTEth: evm.NewTokenVerifier(log.Named("usdt-eth"), resolve, payment.USDTEth),
		payment.USDTBSC: evm.NewTokenVerifier(log.Named("usdt-bsc"), resolve, payment.USDTBSC),
	})
}

// NewWithVerifiers constructs a dispatcher over an explicit verifier
// set.
func NewWithVerifiers(verifiers map[payment.Kind]payment.Verifier) *Dispatcher {
	return &Dispatcher{verifiers: verifiers}
}

// Verify delegates to the verifier registered for the expectation's
// kind.
func (d *Dispatcher) Verify(ctx context.Context, txHash string, x payment.Expectation) payment.Result {
	verifier, ok := d.verifiers[x.Kind]
	if !ok {
		return payment.Invalid("Unsupported cryptocurrency")
	}
	return verifier.Verify(ctx, txHash, x)
}

// Kinds returns the supported asset kinds in stable order.
func (d *Dispatcher) Kinds() []payment.Kind {
	kinds := maps.Keys(d.verifiers)
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
