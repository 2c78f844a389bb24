package evm

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	chainpay "github.com/lodgepay/chainpay/pkg"
	"github.com/lodgepay/chainpay/pkg/payment"
)

// Default scan windows, sized to roughly one hour of blocks on each
// network. Tuning constants, not protocol requirements.
const (
	DefaultEthereumWindow uint64 = 300
	DefaultBSCWindow      uint64 = 1200
)

// DefaultWindow returns the default block window for a network.
func DefaultWindow(network payment.Network) uint64 {
	if network == payment.BSC {
		return DefaultBSCWindow
	}
	return DefaultEthereumWindow
}

// Scanner discovers inbound ERC-20 transfers to a wallet without the
// payer submitting anything.
type Scanner struct {
	log     *zap.Logger
	resolve Resolver
}

func NewScanner(log *zap.Logger, resolve Resolver) *Scanner {
	return &Scanner{
		log:     log,
		resolve: resolve,
	}
}

// ScanInbound returns the token transfers received by address on the
// kind's network within the last window blocks, most recent first. Any
// RPC failure yields an empty result: scans run on a poll schedule, so a
// transient failure is simply picked up by the next cycle rather than
// surfaced to the caller.
func (s *Scanner) ScanInbound(ctx context.Context, address string, kind payment.Kind, window uint64) []payment.IncomingTransfer {
	wallet, err := chainpay.AddressFromString(address)
	if err != nil {
		s.log.Warn("Invalid wallet address",
			zap.String("address", address),
			zap.Error(err),
		)
		return nil
	}
	if !kind.Scannable() {
		s.log.Warn("Asset kind has no token contract to scan",
			zap.String("kind", string(kind)),
		)
		return nil
	}

	client, err := s.resolve(ctx, kind.Network())
	if err != nil {
		s.log.Warn("RPC resolution failed",
			zap.String("network", string(kind.Network())),
			zap.Error(err),
		)
		return nil
	}
	defer client.Close()

	head, err := client.BlockNumber(ctx)
	if err != nil {
		s.log.Warn("Head lookup failed", zap.Error(err))
		return nil
	}
	var fromBlock uint64
	if head > window {
		fromBlock = head - window
	}

	// Filtering on the padded recipient topic keeps irrelevant transfer
	// logs off the wire entirely.
	logs, err := client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{kind.TokenContract()},
		Topics: [][]common.Hash{
			{TransferEventSignature},
			nil,
			{common.BytesToHash(wallet.Bytes())},
		},
	})
	if err != nil {
		s.log.Warn("Log filter failed",
			zap.String("network", string(kind.Network())),
			zap.Uint64("from-block", fromBlock),
			zap.Error(err),
		)
		return nil
	}

	blockTimes := make(map[uint64]time.Time)
	var transfers []payment.IncomingTransfer
	for i := range logs {
		lg := logs[i]
		ev, ok := decodeTransferLog(&lg)
		if !ok || ev.to != wallet {
			continue
		}
		blockTime, ok := blockTimes[lg.BlockNumber]
		if !ok {
			header, err := client.HeaderByNumber(ctx, new(big.Int).SetUint64(lg.BlockNumber))
			if err != nil {
				s.log.Warn("Header lookup failed",
					zap.Uint64("block", lg.BlockNumber),
					zap.Error(err),
				)
				return nil
			}
			blockTime = time.Unix(int64(header.Time), 0).UTC()
			blockTimes[lg.BlockNumber] = blockTime
		}
		transfers = append(transfers, payment.IncomingTransfer{
			Hash:        lg.TxHash.Hex(),
			From:        ev.from.Hex(),
			Amount:      displayAmount(ev.value, kind.Decimals()),
			BlockNumber: lg.BlockNumber,
			BlockTime:   blockTime,
		})
	}

	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].BlockNumber > transfers[j].BlockNumber
	})

	s.log.Debug("Scan complete",
		zap.String("address", wallet.Hex()),
		zap.String("kind", string(kind)),
		zap.Uint64("from-block", fromBlock),
		zap.Uint64("head", head),
		zap.Int("transfers", len(transfers)),
	)
	return transfers
}
