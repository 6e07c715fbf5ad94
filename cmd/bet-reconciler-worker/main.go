package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/casinolabs/casino-bet-relay/internal/relay/chain"
	"github.com/casinolabs/casino-bet-relay/internal/relay/ledger"
	"github.com/casinolabs/casino-bet-relay/internal/relay/producer"
	"github.com/casinolabs/casino-bet-relay/internal/relay/reconciler"
	"github.com/casinolabs/casino-bet-relay/internal/shared/config"
	"github.com/casinolabs/casino-bet-relay/internal/shared/db"
	"github.com/casinolabs/casino-bet-relay/internal/shared/kafka"
	"github.com/casinolabs/casino-bet-relay/internal/shared/logger"
	"github.com/casinolabs/casino-bet-relay/internal/shared/metrics"
	"github.com/casinolabs/casino-bet-relay/pkg/contracts/events"
)

const (
	sweepBatch   = 100
	sweepWorkers = 8
)

func main() {
	cfg := config.Load()
	log, err := logger.New("bet-reconciler-worker", cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting worker", zap.String("env", cfg.Env))

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 10*time.Second)
	eth, err := chain.Dial(dialCtx, cfg.EthNodeURL)
	dialCancel()
	if err != nil {
		log.Fatal("eth node dial", zap.Error(err))
	}
	defer eth.Close()

	confirmedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetConfirmed)
	defer confirmedWriter.Close()
	publ := producer.NewKafkaPublisher(nil, confirmedWriter)

	confirmed := prometheus.NewCounter(prometheus.CounterOpts{Name: "relay_bets_confirmed_total", Help: "apostas confirmadas on-chain"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "relay_bets_failed_total", Help: "apostas revertidas on-chain"})
	sweeps := prometheus.NewCounter(prometheus.CounterOpts{Name: "relay_reconcile_sweeps_total", Help: "varreduras de reconciliação executadas"})
	prometheus.MustRegister(confirmed, failed, sweeps)

	store := ledger.NewPostgres(pg)
	rec := reconciler.New(log, eth, store)
	rec.OnConfirmed = func(r ledger.BetRecord) {
		confirmed.Inc()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := publ.PublishBetConfirmed(ctx, events.BetConfirmed{TxHash: r.ID, Status: string(r.Status), BlockNumber: r.BlockNumber}); err != nil {
			log.Warn("publish bet_confirmed", zap.String("txHash", r.ID), zap.Error(err))
		}
	}
	rec.OnFailed = func(r ledger.BetRecord) {
		failed.Inc()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := publ.PublishBetConfirmed(ctx, events.BetConfirmed{TxHash: r.ID, Status: string(r.Status)}); err != nil {
			log.Warn("publish bet_confirmed", zap.String("txHash", r.ID), zap.Error(err))
		}
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("sweep loop running", zap.Duration("interval", cfg.ReconcileInterval))
	ticker := time.NewTicker(cfg.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			sweeps.Inc()
			rec.Sweep(ctx, sweepBatch, sweepWorkers)
		}
	}
}
