// Package match attributes observed inbound transfers to the payment an
// order is waiting for.
package match

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lodgepay/chainpay/pkg/payment"
)

// ClaimedSet holds transaction hashes already attributed to other
// pending orders. Lookups are case insensitive. The caller rebuilds the
// set from its own records for every scan; it is the only guard against
// one payment being attributed to two orders.
type ClaimedSet map[string]struct{}

func NewClaimedSet(hashes ...string) ClaimedSet {
	set := make(ClaimedSet, len(hashes))
	for _, hash := range hashes {
		set.Add(hash)
	}
	return set
}

func (s ClaimedSet) Add(hash string) {
	s[strings.ToLower(hash)] = struct{}{}
}

func (s ClaimedSet) Contains(hash string) bool {
	_, ok := s[strings.ToLower(hash)]
	return ok
}

// FindMatch returns the first transfer, in the order supplied, whose
// amount is within ±1% of expected and whose hash is not already
// claimed. There is no best-match tie break among candidates: the
// unique-amount perturbation keeps concurrent orders apart, and the
// verifier re-checks the winner precisely afterward.
func FindMatch(transfers []payment.IncomingTransfer, expected decimal.Decimal, claimed ClaimedSet) (payment.IncomingTransfer, bool) {
	for _, transfer := range transfers {
		if claimed.Contains(transfer.Hash) {
			continue
		}
		if payment.WithinTolerance(transfer.Amount, expected) {
			return transfer, true
		}
	}
	return payment.IncomingTransfer{}, false
}
