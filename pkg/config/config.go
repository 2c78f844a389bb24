// Package config loads the TOML configuration for payment verification
// and scanning.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/lodgepay/chainpay/pkg/btc"
	"github.com/lodgepay/chainpay/pkg/evm"
	"github.com/lodgepay/chainpay/pkg/payment"
	"github.com/lodgepay/chainpay/pkg/rpcpool"
)

type MissingFieldsError = toml.StrictMissingError

type Config struct {
	Wallet   Wallet   `toml:"wallet"`
	Explorer Explorer `toml:"explorer"`
	RPC      RPC      `toml:"rpc"`
	Scan     Scan     `toml:"scan"`
	DataDir  Path     `toml:"data_dir"`
}

// Wallet holds the merchant receiving addresses.
type Wallet struct {
	BTCAddress string `toml:"btc_address"`
	EVMAddress string `toml:"evm_address"`
}

type Explorer struct {
	URL string `toml:"url"`
}

// RPC configures endpoint resolution. Empty endpoint lists fall back to
// the built-in public providers.
type RPC struct {
	ProbeTimeout Duration `toml:"probe_timeout"`
	Ethereum     []string `toml:"ethereum"`
	BSC          []string `toml:"bsc"`
}

// Scan overrides the per-network block windows. Zero means default.
type Scan struct {
	EthereumWindow uint64 `toml:"ethereum_window"`
	BSCWindow      uint64 `toml:"bsc_window"`
}

func Default() Config {
	return Config{
		Explorer: Explorer{
			URL: btc.DefaultExplorerURL,
		},
		RPC: RPC{
			ProbeTimeout: Duration(rpcpool.DefaultProbeTimeout),
		},
		Scan: Scan{
			EthereumWindow: evm.DefaultEthereumWindow,
			BSCWindow:      evm.DefaultBSCWindow,
		},
		DataDir: Path("."),
	}
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	config := Default()

	d := toml.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	if err := d.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

// Endpoints merges configured endpoint overrides over the built-in
// defaults.
func (c Config) Endpoints() map[payment.Network][]string {
	endpoints := map[payment.Network][]string{
		payment.Ethereum: rpcpool.DefaultEndpoints[payment.Ethereum],
		payment.BSC:      rpcpool.DefaultEndpoints[payment.BSC],
	}
	if len(c.RPC.Ethereum) > 0 {
		endpoints[payment.Ethereum] = c.RPC.Ethereum
	}
	if len(c.RPC.BSC) > 0 {
		endpoints[payment.BSC] = c.RPC.BSC
	}
	return endpoints
}

// Window returns the scan window for a network.
func (c Config) Window(network payment.Network) uint64 {
	switch network {
	case payment.Ethereum:
		if c.Scan.EthereumWindow > 0 {
			return c.Scan.EthereumWindow
		}
	case payment.BSC:
		if c.Scan.BSCWindow > 0 {
			return c.Scan.BSCWindow
		}
	}
	return evm.DefaultWindow(network)
}

// WalletAddress returns the merchant address for the kind.
func (c Config) WalletAddress(kind payment.Kind) string {
	if kind == payment.BTC {
		return c.Wallet.BTCAddress
	}
	return c.Wallet.EVMAddress
}

func (c Config) NewExplorerClient() (*btc.Client, error) {
	return btc.NewClient(c.Explorer.URL)
}

func (c Config) NewPool(log *zap.Logger) *rpcpool.Pool {
	return rpcpool.NewWithEndpoints(log, c.Endpoints(), time.Duration(c.RPC.ProbeTimeout))
}
