// Package rpcpool selects a live JSON-RPC endpoint out of a prioritized
// list of public providers.
package rpcpool

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/lodgepay/chainpay/pkg/payment"
)

// Unreachable marks resolution failures where every configured endpoint
// for a network was down.
var Unreachable = errs.Class("network unreachable")

const DefaultProbeTimeout = 5 * time.Second

// DefaultEndpoints lists known public JSON-RPC providers per network in
// priority order. Public endpoints are rate limited and flaky; the list
// itself is the retry mechanism.
var DefaultEndpoints = map[payment.Network][]string{
	payment.Ethereum: {
		"https://eth.llamarpc.com",
		"https://ethereum-rpc.publicnode.com",
		"https://rpc.ankr.com/eth",
		"https://cloudflare-eth.com",
	},
	payment.BSC: {
		"https://bsc-dataseed.binance.org",
		"https://bsc-dataseed1.defibit.io",
		"https://bsc-rpc.publicnode.com",
		"https://rpc.ankr.com/bsc",
	},
}

type Pool struct {
	log          *zap.Logger
	endpoints    map[payment.Network][]string
	probeTimeout time.Duration
}

func New(log *zap.Logger) *Pool {
	return NewWithEndpoints(log, DefaultEndpoints, DefaultProbeTimeout)
}

func NewWithEndpoints(log *zap.Logger, endpoints map[payment.Network][]string, probeTimeout time.Duration) *Pool {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Pool{
		log:          log,
		endpoints:    endpoints,
		probeTimeout: probeTimeout,
	}
}

// Resolve dials the network's endpoints in priority order and returns
// the first one that answers a block height probe. The winner is not
// remembered: every call re-probes, trading a little latency for
// resilience against an endpoint going bad mid-session. Closing the
// returned client is the caller's job.
func (p *Pool) Resolve(ctx context.Context, network payment.Network) (*ethclient.Client, error) {
	urls := p.endpoints[network]
	if len(urls) == 0 {
		return nil, Unreachable.New("no endpoints configured for network %q", network)
	}
	for _, url := range urls {
		client, err := p.probe(ctx, url)
		if err != nil {
			p.log.Debug("Endpoint probe failed",
				zap.String("network", string(network)),
				zap.String("url", url),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		p.log.Debug("Endpoint resolved",
			zap.String("network", string(network)),
			zap.String("url", url),
		)
		return client, nil
	}
	return nil, Unreachable.New("all endpoints failed for network %q", network)
}

func (p *Pool) probe(ctx context.Context, url string) (*ethclient.Client, error) {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	client, err := ethclient.DialContext(probeCtx, url)
	if err != nil {
		return nil, err
	}
	if _, err := client.BlockNumber(probeCtx); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
