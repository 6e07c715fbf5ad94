package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/casinolabs/casino-bet-relay/internal/relay/chain"
	"github.com/casinolabs/casino-bet-relay/internal/shared/config"
	"github.com/casinolabs/casino-bet-relay/internal/shared/logger"
)

// Utilitário de operação: varre a chain do bloco 0 até o topo procurando a
// primeira transação de deploy (to == nil) e imprime o endereço do contrato.
// Útil em redes de desenvolvimento onde o endereço do cassino se perdeu.
func main() {
	from := flag.Uint64("from", 0, "bloco inicial da varredura")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New("contract-scan", cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx := context.Background()

	dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
	eth, err := chain.Dial(dialCtx, cfg.EthNodeURL)
	dialCancel()
	if err != nil {
		log.Fatal("eth node dial", zap.Error(err))
	}
	defer eth.Close()

	head, err := eth.BlockNumber(ctx)
	if err != nil {
		log.Fatal("block number", zap.Error(err))
	}
	log.Info("scanning", zap.Uint64("from", *from), zap.Uint64("to", head))

	for n := *from; n <= head; n++ {
		if n > *from && n%1000 == 0 {
			log.Info("progress", zap.Uint64("block", n))
		}
		block, err := eth.BlockByNumber(ctx, new(big.Int).SetUint64(n))
		if err != nil {
			// bloco podado ou nó instável; segue a varredura
			log.Warn("block fetch", zap.Uint64("block", n), zap.Error(err))
			continue
		}
		for _, tx := range block.Transactions() {
			if tx.To() != nil {
				continue
			}
			receipt, err := eth.TransactionReceipt(ctx, tx.Hash())
			if err != nil {
				log.Warn("receipt fetch", zap.String("txHash", tx.Hash().Hex()), zap.Error(err))
				continue
			}
			log.Info("contract deploy found",
				zap.Uint64("block", n),
				zap.String("txHash", tx.Hash().Hex()),
				zap.String("contract", receipt.ContractAddress.Hex()),
			)
			fmt.Println(receipt.ContractAddress.Hex())
			return
		}
	}
	log.Info("no contract deploy found", zap.Uint64("scanned", head))
}
