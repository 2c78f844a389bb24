package main

import (
	"path/filepath"
	"time"

	"github.com/kyokomi/emoji/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lodgepay/chainpay/pkg/claimdb"
	"github.com/lodgepay/chainpay/pkg/evm"
	"github.com/lodgepay/chainpay/pkg/match"
	"github.com/lodgepay/chainpay/pkg/payment"
)

type watchConfig struct {
	*rootConfig

	OrderRef string
	Address  string
	Amount   string
	Asset    string
	Interval time.Duration
}

func newWatchCommand(rootConfig *rootConfig) *cobra.Command {
	config := &watchConfig{
		rootConfig: rootConfig,
	}
	cmd := &cobra.Command{
		Use:   "watch ORDERREF",
		Short: "Watch a wallet for an expected payment until it arrives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.OrderRef = args[0]
			return checkCmd(doWatch(config))
		},
	}
	cmd.Flags().StringVarP(
		&config.Address,
		"address", "a",
		"",
		"Wallet address to watch (defaults to the configured wallet)")
	cmd.Flags().StringVarP(
		&config.Amount,
		"amount", "m",
		"",
		"Expected amount in display units")
	cmd.Flags().StringVarP(
		&config.Asset,
		"asset", "",
		string(payment.USDTEth),
		"Token asset kind (usdt-eth,usdt-bsc)")
	cmd.Flags().DurationVarP(
		&config.Interval,
		"interval", "i",
		30*time.Second,
		"Poll interval")
	return cmd
}

func doWatch(config *watchConfig) error {
	kind, err := payment.KindFromString(config.Asset)
	if err != nil {
		return usageErr.Wrap(err)
	}
	if !kind.Scannable() {
		return usageErr.New("asset %q has no token contract to watch", kind)
	}
	expected, err := decimal.NewFromString(config.Amount)
	if err != nil {
		return usageErr.New("invalid amount: %v", err)
	}

	cfg, err := loadConfig(config.rootConfig)
	if err != nil {
		return err
	}
	address := config.Address
	if address == "" {
		address = cfg.WalletAddress(kind)
	}
	if address == "" {
		return usageErr.New("no wallet address given or configured")
	}

	log, err := openLog(string(cfg.DataDir), config.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := claimdb.Open(filepath.Join(string(cfg.DataDir), "claims.db"))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// If this order already claimed a transaction, there is nothing to
	// wait for.
	if hash, ok, err := db.HashForOrder(config.Ctx, config.OrderRef); err != nil {
		return err
	} else if ok {
		emoji.Printf(":information_source:Order %s already claimed %s\n", config.OrderRef, hash)
		return nil
	}

	dispatcher, err := newDispatcher(log.Named("verifier"), cfg)
	if err != nil {
		return err
	}
	pool := cfg.NewPool(log.Named("rpcpool"))
	scanner := evm.NewScanner(log.Named("scanner"), evm.PoolResolver(pool.Resolve))

	window := cfg.Window(kind.Network())
	expectation := payment.Expectation{
		Address: address,
		Amount:  expected,
		Kind:    kind,
	}

	log.Info("Watching for payment",
		zap.String("order", config.OrderRef),
		zap.String("address", address),
		zap.String("amount", expected.String()),
		zap.String("asset", string(kind)),
	)

	for {
		transfers := scanner.ScanInbound(config.Ctx, address, kind, window)
		if len(transfers) > 0 {
			claimed, err := db.ClaimedByOthers(config.Ctx, config.OrderRef)
			if err != nil {
				return err
			}
			found, ok := match.FindMatch(transfers, expected, claimed)
			if ok {
				// Re-verify the matched transaction before claiming it.
				result := dispatcher.Verify(config.Ctx, found.Hash, expectation)
				if result.Valid {
					if err := db.Claim(config.Ctx, config.OrderRef, found.Hash); err != nil {
						return err
					}
					emoji.Printf(":white_check_mark:Payment for order %s confirmed: %s (%s)\n",
						config.OrderRef, found.Hash, found.Amount)
					return nil
				}
				log.Warn("Matched transfer failed verification",
					zap.String("hash", found.Hash),
					zap.String("reason", result.Error),
				)
			}
		}

		select {
		case <-config.Ctx.Done():
			return config.Ctx.Err()
		case <-time.After(config.Interval):
		}
	}
}
