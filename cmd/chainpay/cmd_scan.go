package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lodgepay/chainpay/pkg/evm"
	"github.com/lodgepay/chainpay/pkg/payment"
)

type scanConfig struct {
	*rootConfig

	Address string
	Asset   string
	Window  uint64
}

func newScanCommand(rootConfig *rootConfig) *cobra.Command {
	config := &scanConfig{
		rootConfig: rootConfig,
	}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List recent inbound token transfers to a wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkCmd(doScan(config))
		},
	}
	cmd.Flags().StringVarP(
		&config.Address,
		"address", "a",
		"",
		"Wallet address to scan (defaults to the configured wallet)")
	cmd.Flags().StringVarP(
		&config.Asset,
		"asset", "",
		string(payment.USDTEth),
		"Token asset kind (usdt-eth,usdt-bsc)")
	cmd.Flags().Uint64VarP(
		&config.Window,
		"window", "w",
		0,
		"Number of blocks to scan back (defaults per network)")
	return cmd
}

func doScan(config *scanConfig) error {
	kind, err := payment.KindFromString(config.Asset)
	if err != nil {
		return usageErr.Wrap(err)
	}
	if !kind.Scannable() {
		return usageErr.New("asset %q has no token contract to scan", kind)
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
	window := config.Window
	if window == 0 {
		window = cfg.Window(kind.Network())
	}

	log, err := openLog(string(cfg.DataDir), config.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	pool := cfg.NewPool(log.Named("rpcpool"))
	scanner := evm.NewScanner(log.Named("scanner"), evm.PoolResolver(pool.Resolve))

	transfers := scanner.ScanInbound(config.Ctx, address, kind, window)
	if len(transfers) == 0 {
		fmt.Println("No inbound transfers found.")
		return nil
	}
	for _, transfer := range transfers {
		fmt.Printf("%s  block=%d  %s  from=%s  at=%s\n",
			transfer.Hash,
			transfer.BlockNumber,
			transfer.Amount,
			transfer.From,
			transfer.BlockTime.Format(time.RFC3339),
		)
	}
	return nil
}
