// Package evm verifies native coin and ERC-20 token payments on
// Ethereum-compatible networks and scans wallets for inbound token
// transfers.
package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/lodgepay/chainpay/pkg/payment"
)

// Client is the subset of the Ethereum RPC surface the verifiers and the
// scanner use. *ethclient.Client satisfies it.
type Client interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	Close()
}

// Resolver turns a network name into a live RPC client. The rpcpool
// package provides the production implementation; tests substitute
// fakes.
type Resolver func(ctx context.Context, network payment.Network) (Client, error)

// PoolResolver adapts a resolve function returning the concrete ethclient
// type, such as rpcpool.Pool.Resolve.
func PoolResolver(resolve func(ctx context.Context, network payment.Network) (*ethclient.Client, error)) Resolver {
	return func(ctx context.Context, network payment.Network) (Client, error) {
		client, err := resolve(ctx, network)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
