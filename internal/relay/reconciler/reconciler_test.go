package reconciler

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/casinolabs/casino-bet-relay/internal/relay/ledger"
)

// fakeReceipts responde TransactionReceipt a partir de um mapa; hash ausente
// vira ethereum.NotFound, como no ethclient real
type fakeReceipts struct {
	mu       sync.Mutex
	receipts map[common.Hash]*types.Receipt
	err      error
}

func (f *fakeReceipts) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeReceipts) put(txHash string, status uint64, block int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receipts == nil {
		f.receipts = make(map[common.Hash]*types.Receipt)
	}
	f.receipts[common.HexToHash(txHash)] = &types.Receipt{
		Status:      status,
		BlockNumber: big.NewInt(block),
	}
}

func seedPending(t *testing.T, store ledger.Store, id string) {
	t.Helper()
	err := store.RecordPending(context.Background(), ledger.BetRecord{
		ID:          id,
		Number:      1,
		Amount:      "0.1",
		SubmittedAt: time.Now().UTC(),
		Status:      ledger.StatusPending,
	})
	require.NoError(t, err)
}

func txHashFor(i int) string {
	return common.HexToHash(fmt.Sprintf("0x%x", i+1)).Hex()
}

func TestReconcileSemReciboMantemPending(t *testing.T) {
	store := ledger.NewMemory()
	rec := New(zap.NewNop(), &fakeReceipts{}, store)
	id := txHashFor(0)
	seedPending(t, store, id)

	st, err := rec.Reconcile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, st)

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, got.Status)
}

func TestReconcileReciboDeSucessoConfirma(t *testing.T) {
	store := ledger.NewMemory()
	node := &fakeReceipts{}
	rec := New(zap.NewNop(), node, store)

	var notified []ledger.BetRecord
	rec.OnConfirmed = func(r ledger.BetRecord) { notified = append(notified, r) }

	id := txHashFor(0)
	seedPending(t, store, id)
	node.put(id, types.ReceiptStatusSuccessful, 777)

	st, err := rec.Reconcile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusConfirmed, st)

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusConfirmed, got.Status)
	require.NotNil(t, got.BlockNumber)
	assert.Equal(t, uint64(777), *got.BlockNumber)

	require.Len(t, notified, 1)
	assert.Equal(t, id, notified[0].ID)
}

func TestReconcileReciboRevertidoFalha(t *testing.T) {
	store := ledger.NewMemory()
	node := &fakeReceipts{}
	rec := New(zap.NewNop(), node, store)

	var failed int
	rec.OnFailed = func(ledger.BetRecord) { failed++ }

	id := txHashFor(0)
	seedPending(t, store, id)
	node.put(id, types.ReceiptStatusFailed, 778)

	st, err := rec.Reconcile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusFailed, st)
	assert.Equal(t, 1, failed)
}

func TestReconcileRepetidoNotificaUmaVez(t *testing.T) {
	store := ledger.NewMemory()
	node := &fakeReceipts{}
	rec := New(zap.NewNop(), node, store)

	var notified int
	rec.OnConfirmed = func(ledger.BetRecord) { notified++ }

	id := txHashFor(0)
	seedPending(t, store, id)
	node.put(id, types.ReceiptStatusSuccessful, 10)

	for i := 0; i < 3; i++ {
		st, err := rec.Reconcile(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusConfirmed, st)
	}
	assert.Equal(t, 1, notified, "evento deve sair só na transição")
}

func TestReconcilePropagaErroDoNo(t *testing.T) {
	store := ledger.NewMemory()
	node := &fakeReceipts{err: errors.New("rpc down")}
	rec := New(zap.NewNop(), node, store)

	id := txHashFor(0)
	seedPending(t, store, id)

	_, err := rec.Reconcile(context.Background(), id)
	assert.Error(t, err)

	got, gerr := store.Get(context.Background(), id)
	require.NoError(t, gerr)
	assert.Equal(t, ledger.StatusPending, got.Status)
}

func TestSweepResolveLotePendente(t *testing.T) {
	store := ledger.NewMemory()
	node := &fakeReceipts{}
	rec := New(zap.NewNop(), node, store)

	var mu sync.Mutex
	var confirmed, failed int
	rec.OnConfirmed = func(ledger.BetRecord) { mu.Lock(); confirmed++; mu.Unlock() }
	rec.OnFailed = func(ledger.BetRecord) { mu.Lock(); failed++; mu.Unlock() }

	for i := 0; i < 10; i++ {
		id := txHashFor(i)
		seedPending(t, store, id)
		switch {
		case i%3 == 0:
			node.put(id, types.ReceiptStatusSuccessful, int64(i))
		case i%3 == 1:
			node.put(id, types.ReceiptStatusFailed, int64(i))
		}
		// i%3 == 2 fica sem recibo
	}

	rec.Sweep(context.Background(), 100, 4)

	assert.Equal(t, 4, confirmed)
	assert.Equal(t, 3, failed)

	pending, err := store.ListPending(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, pending, 3, "sem recibo continua PENDING para a próxima varredura")
}
