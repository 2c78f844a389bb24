package payment

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

var (
	// verifierTolerance is the downward slack applied when comparing a
	// received amount against an expected amount. It absorbs rounding
	// from fee deduction upstream of the transfer.
	verifierTolerance = decimal.New(999, -3)

	// matchTolerance is the ±1% window used during scan matching. It is
	// deliberately coarser than the verifier slack: matching is discovery,
	// the verifier re-checks precisely afterward.
	matchTolerance = decimal.New(1, -2)
)

// Sufficient reports whether received covers expected under the 0.1%
// downward tolerance: received >= expected * 0.999.
func Sufficient(received, expected decimal.Decimal) bool {
	return received.GreaterThanOrEqual(expected.Mul(verifierTolerance))
}

// WithinTolerance reports whether amount deviates from expected by at
// most 1%, boundary inclusive.
func WithinTolerance(amount, expected decimal.Decimal) bool {
	return amount.Sub(expected).Abs().LessThanOrEqual(expected.Mul(matchTolerance))
}

// UniqueAmount perturbs amount by a pseudo-random increment between 0.01
// and 0.99 so concurrent orders paying to a shared address stay
// distinguishable by amount alone. Uniqueness is probabilistic; a
// collision within the matcher tolerance remains possible.
func UniqueAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Add(decimal.New(int64(1+rand.Intn(99)), -2))
}
