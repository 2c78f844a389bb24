package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/lodgepay/chainpay/pkg/config"
	"github.com/lodgepay/chainpay/pkg/evm"
	"github.com/lodgepay/chainpay/pkg/verify"
)

var (
	usageErr = errs.Class("usage")
)

func cmdCtx() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		sig := <-ch
		fmt.Fprintf(os.Stderr, "Signal %q received\n", sig)
		cancel()
	}()
	return ctx
}

func checkCmd(err error) error {
	switch {
	case err == nil:
		return nil
	case usageErr.Has(err):
		// If it is a usage error, return it directly so cobra command will
		// show usage. Otherwise, print and exit with non-zero exit status.
		return err
	}
	// other errors exit with 2
	fmt.Fprintf(os.Stderr, "error: %+v\n", err)
	os.Exit(2)
	return err
}

func loadConfig(rc *rootConfig) (config.Config, error) {
	path := string(config.ToPath(rc.ConfigPath))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newDispatcher(log *zap.Logger, cfg config.Config) (*verify.Dispatcher, error) {
	explorer, err := cfg.NewExplorerClient()
	if err != nil {
		return nil, err
	}
	pool := cfg.NewPool(log.Named("rpcpool"))
	return verify.New(log, explorer, evm.PoolResolver(pool.Resolve)), nil
}
