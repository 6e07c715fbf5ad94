package reconciler

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/casinolabs/casino-bet-relay/internal/relay/ledger"
)

// ReceiptClient é o recorte read-only do nó usado na reconciliação
type ReceiptClient interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Reconciler consulta o recibo de transações já submetidas e move o ledger
// para o estado terminal. Repetível e seguro sob concorrência entre hashes
// distintos; a idempotência por hash vem do próprio Store.
type Reconciler struct {
	log   *zap.Logger
	chain ReceiptClient
	store ledger.Store

	// disparados só quando a transição de fato aconteceu
	OnConfirmed func(rec ledger.BetRecord)
	OnFailed    func(rec ledger.BetRecord)
}

func New(log *zap.Logger, c ReceiptClient, store ledger.Store) *Reconciler {
	return &Reconciler{log: log, chain: c, store: store}
}

// Reconcile resolve o estado de uma transação: sem recibo o registro segue
// PENDING (o chamador pode tentar de novo depois); com recibo aplica
// CONFIRMED ou FAILED conforme o status de execução.
func (r *Reconciler) Reconcile(ctx context.Context, txHash string) (ledger.Status, error) {
	receipt, err := r.chain.TransactionReceipt(ctx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return ledger.StatusPending, nil
	}
	if err != nil {
		return "", err
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		changed, err := r.store.MarkConfirmed(ctx, txHash, receipt.BlockNumber.Uint64())
		if err != nil {
			return "", err
		}
		if changed {
			r.notify(ctx, txHash, r.OnConfirmed)
		}
		return ledger.StatusConfirmed, nil
	}

	changed, err := r.store.MarkFailed(ctx, txHash)
	if err != nil {
		return "", err
	}
	if changed {
		r.notify(ctx, txHash, r.OnFailed)
	}
	return ledger.StatusFailed, nil
}

// Sweep reconcilia todas as apostas PENDING em lotes, com um número fixo de
// workers pra não afogar o nó RPC. Erros individuais são logados e ficam
// para a próxima varredura; nada é propagado nem descartado em silêncio.
func (r *Reconciler) Sweep(ctx context.Context, batch, workers int) {
	ids, err := r.store.ListPending(ctx, batch)
	if err != nil {
		r.log.Error("list pending bets", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}

	r.log.Debug("sweep started", zap.Int("pending", len(ids)))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(txHash string) {
			defer wg.Done()
			defer func() { <-sem }()

			if _, err := r.Reconcile(ctx, txHash); err != nil {
				r.log.Warn("reconcile failed, will retry next sweep",
					zap.String("txHash", txHash), zap.Error(err))
			}
		}(id)
	}
	wg.Wait()
}

func (r *Reconciler) notify(ctx context.Context, txHash string, fn func(ledger.BetRecord)) {
	if fn == nil {
		return
	}
	rec, err := r.store.Get(ctx, txHash)
	if err != nil {
		r.log.Warn("load record for notification", zap.String("txHash", txHash), zap.Error(err))
		return
	}
	fn(rec)
}
