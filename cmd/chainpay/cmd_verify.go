package main

import (
	"fmt"

	"github.com/logrusorgru/aurora"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/lodgepay/chainpay/pkg/payment"
)

type verifyConfig struct {
	*rootConfig

	TxHash  string
	Address string
	Amount  string
	Asset   string
}

func newVerifyCommand(rootConfig *rootConfig) *cobra.Command {
	config := &verifyConfig{
		rootConfig: rootConfig,
	}
	cmd := &cobra.Command{
		Use:   "verify TXHASH",
		Short: "Verify a claimed payment transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.TxHash = args[0]
			return checkCmd(doVerify(config))
		},
	}
	cmd.Flags().StringVarP(
		&config.Address,
		"address", "a",
		"",
		"Expected recipient address (defaults to the configured wallet)")
	cmd.Flags().StringVarP(
		&config.Amount,
		"amount", "m",
		"",
		"Expected amount in display units")
	cmd.Flags().StringVarP(
		&config.Asset,
		"asset", "",
		string(payment.USDTEth),
		"Asset kind (btc,eth,usdt-eth,usdt-bsc)")
	return cmd
}

func doVerify(config *verifyConfig) error {
	kind, err := payment.KindFromString(config.Asset)
	if err != nil {
		return usageErr.Wrap(err)
	}
	amount, err := decimal.NewFromString(config.Amount)
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
		return usageErr.New("no recipient address given or configured")
	}

	log, err := openLog(string(cfg.DataDir), config.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	dispatcher, err := newDispatcher(log, cfg)
	if err != nil {
		return err
	}

	result := dispatcher.Verify(config.Ctx, config.TxHash, payment.Expectation{
		Address: address,
		Amount:  amount,
		Kind:    kind,
	})
	printResult(result)
	return nil
}

func printResult(result payment.Result) {
	status := aurora.Green("VALID")
	if !result.Valid {
		status = aurora.Red("INVALID")
	}
	fmt.Printf("Status......................: %s\n", status)
	fmt.Printf("Recipient Matched...........: %t\n", result.RecipientMatched)
	fmt.Printf("Amount Received.............: %s\n", result.AmountReceived)
	fmt.Printf("Confirmed...................: %t\n", result.Confirmed)
	fmt.Printf("Confirmations...............: %d\n", result.Confirmations)
	if result.Error != "" {
		fmt.Println(aurora.Yellow(fmt.Sprintf("Reason......................: %s", result.Error)))
	}
}
