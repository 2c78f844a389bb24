package evm_test

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/lodgepay/chainpay/pkg/evm"
	"github.com/lodgepay/chainpay/pkg/payment"
)

// fakeClient serves canned chain data, in the spirit of the RPC fakes
// used to exercise the payout pipeline without a node.
type fakeClient struct {
	head     uint64
	pending  map[common.Hash]*types.Transaction
	txs      map[common.Hash]*types.Transaction
	receipts map[common.Hash]*types.Receipt
	headers  map[uint64]*types.Header
	logs     []types.Log

	headErr   error
	filterErr error

	lastQuery ethereum.FilterQuery
	closed    int
}

func (f *fakeClient) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	if tx, ok := f.pending[hash]; ok {
		return tx, true, nil
	}
	if tx, ok := f.txs[hash]; ok {
		return tx, false, nil
	}
	return nil, false, ethereum.NotFound
}

func (f *fakeClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if receipt, ok := f.receipts[hash]; ok {
		return receipt, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeClient) BlockNumber(ctx context.Context) (uint64, error) {
	if f.headErr != nil {
		return 0, f.headErr
	}
	return f.head, nil
}

func (f *fakeClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if header, ok := f.headers[number.Uint64()]; ok {
		return header, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.lastQuery = q
	if f.filterErr != nil {
		return nil, f.filterErr
	}
	return f.logs, nil
}

func (f *fakeClient) Close() {
	f.closed++
}

func fakeResolver(client evm.Client) evm.Resolver {
	return func(ctx context.Context, network payment.Network) (evm.Client, error) {
		return client, nil
	}
}

// transferLogTo builds an ERC-20 Transfer log emitted by contract.
func transferLogTo(contract, from, to common.Address, value *big.Int, txHash common.Hash, blockNumber uint64) types.Log {
	return types.Log{
		Address: contract,
		Topics: []common.Hash{
			evm.TransferEventSignature,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data:        common.LeftPadBytes(value.Bytes(), 32),
		BlockNumber: blockNumber,
		TxHash:      txHash,
	}
}
