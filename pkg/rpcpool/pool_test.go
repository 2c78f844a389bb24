package rpcpool_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lodgepay/chainpay/pkg/payment"
	"github.com/lodgepay/chainpay/pkg/rpcpool"
)

func rpcHandler(t *testing.T, height string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "eth_blockNumber", req.Method)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%q}`, req.ID, height)
	}
}

func deadEndpoint() string {
	server := httptest.NewServer(nil)
	server.Close()
	return server.URL
}

func brokenEndpoint() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over capacity", http.StatusServiceUnavailable)
	}))
}

func TestResolveFailover(t *testing.T) {
	ctx := context.Background()

	broken := brokenEndpoint()
	defer broken.Close()

	live := httptest.NewServer(rpcHandler(t, "0x10"))
	defer live.Close()

	pool := rpcpool.NewWithEndpoints(zap.NewNop(), map[payment.Network][]string{
		payment.Ethereum: {deadEndpoint(), broken.URL, live.URL},
	}, time.Second)

	client, err := pool.Resolve(ctx, payment.Ethereum)
	require.NoError(t, err)
	defer client.Close()

	// The failed-over client behaves no differently than a first-choice
	// one would.
	height, err := client.BlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0x10), height)
}

func TestResolveFirstEndpoint(t *testing.T) {
	ctx := context.Background()

	live := httptest.NewServer(rpcHandler(t, "0x2a"))
	defer live.Close()

	pool := rpcpool.NewWithEndpoints(zap.NewNop(), map[payment.Network][]string{
		payment.BSC: {live.URL},
	}, time.Second)

	client, err := pool.Resolve(ctx, payment.BSC)
	require.NoError(t, err)
	defer client.Close()

	height, err := client.BlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0x2a), height)
}

func TestResolveAllEndpointsDown(t *testing.T) {
	pool := rpcpool.NewWithEndpoints(zap.NewNop(), map[payment.Network][]string{
		payment.Ethereum: {deadEndpoint(), deadEndpoint()},
	}, time.Second)

	_, err := pool.Resolve(context.Background(), payment.Ethereum)
	require.Error(t, err)
	require.True(t, rpcpool.Unreachable.Has(err))
	require.Contains(t, err.Error(), "eth")
}

func TestResolveUnknownNetwork(t *testing.T) {
	pool := rpcpool.New(zap.NewNop())

	_, err := pool.Resolve(context.Background(), payment.Network("solana"))
	require.Error(t, err)
	require.True(t, rpcpool.Unreachable.Has(err))
}
