// Package btc verifies bitcoin payments through a public block-explorer
// REST API.
package btc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zeebo/errs/v2"
)

const (
	// DefaultExplorerURL is the esplora instance queried when none is
	// configured.
	DefaultExplorerURL = "https://blockstream.info/api"

	txPath        = "/tx/"
	tipHeightPath = "/blocks/tip/height"
)

// ErrTxNotFound is returned by GetTx when the explorer has not indexed
// the hash. Typically transient: the caller retries later.
var ErrTxNotFound = errs.Errorf("transaction not found")

// Tx is the subset of the explorer transaction payload the verifier
// reads.
type Tx struct {
	TxID   string   `json:"txid"`
	Status TxStatus `json:"status"`
	Vout   []TxOut  `json:"vout"`
}

type TxStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
	BlockTime   int64 `json:"block_time"`
}

// TxOut is one transaction output. Value is in satoshis.
type TxOut struct {
	Address string `json:"scriptpubkey_address"`
	Value   int64  `json:"value"`
}

type Client struct {
	baseURL *url.URL
}

func NewClient(explorerURL string) (*Client, error) {
	if explorerURL == "" {
		explorerURL = DefaultExplorerURL
	}
	baseURL, err := parseExplorerURL(explorerURL)
	if err != nil {
		return nil, err
	}
	return &Client{baseURL: baseURL}, nil
}

// GetTx fetches a transaction by hash.
func (cli *Client) GetTx(ctx context.Context, hash string) (*Tx, error) {
	resp, err := cli.get(ctx, txPath+url.PathEscape(hash))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrTxNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, errs.Errorf("unexpected status %d: %s", resp.StatusCode, tryRead(resp.Body))
	}

	tx := new(Tx)
	if err := json.NewDecoder(resp.Body).Decode(tx); err != nil {
		return nil, errs.Errorf("invalid JSON response: %v", err)
	}
	return tx, nil
}

// TipHeight fetches the current chain tip height, served by the explorer
// as plain text.
func (cli *Client) TipHeight(ctx context.Context) (int64, error) {
	resp, err := cli.get(ctx, tipHeightPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, errs.Errorf("unexpected status %d: %s", resp.StatusCode, tryRead(resp.Body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return 0, errs.Wrap(err)
	}
	height, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, errs.Errorf("invalid tip height %q: %v", string(body), err)
	}
	return height, nil
}

func (cli *Client) get(ctx context.Context, path string) (*http.Response, error) {
	u := *cli.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return resp, nil
}

func tryRead(r io.Reader) string {
	b := make([]byte, 256)
	n, _ := r.Read(b)
	return string(b[:n])
}

func parseExplorerURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, errs.Errorf("explorer URL is malformed: %v", err)
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return nil, errs.Errorf("explorer URL scheme must be http or https")
	case u.User != nil:
		return nil, errs.Errorf("explorer URL must not have user info")
	case u.Host == "":
		return nil, errs.Errorf("explorer URL must specify the host")
	case u.RawQuery != "":
		return nil, errs.Errorf("explorer URL must not have query values")
	case u.Fragment != "":
		return nil, errs.Errorf("explorer URL must not have a fragment")
	}
	return u, nil
}
