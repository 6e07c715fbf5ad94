package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/casinolabs/casino-bet-relay/internal/relay/chain"
	rhttp "github.com/casinolabs/casino-bet-relay/internal/relay/http"
	"github.com/casinolabs/casino-bet-relay/internal/relay/ledger"
	"github.com/casinolabs/casino-bet-relay/internal/relay/nonce"
	"github.com/casinolabs/casino-bet-relay/internal/relay/producer"
	"github.com/casinolabs/casino-bet-relay/internal/relay/reconciler"
	"github.com/casinolabs/casino-bet-relay/internal/relay/rounds"
	"github.com/casinolabs/casino-bet-relay/internal/relay/submitter"
	"github.com/casinolabs/casino-bet-relay/internal/shared/cache"
	"github.com/casinolabs/casino-bet-relay/internal/shared/config"
	"github.com/casinolabs/casino-bet-relay/internal/shared/db"
	"github.com/casinolabs/casino-bet-relay/internal/shared/kafka"
	"github.com/casinolabs/casino-bet-relay/internal/shared/logger"
	"github.com/casinolabs/casino-bet-relay/internal/shared/metrics"
	"github.com/casinolabs/casino-bet-relay/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("relay-service", cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("env", cfg.Env))

	// Postgres: ledger durável das apostas
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: cache da rodada corrente
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Nó Ethereum
	dialCtx, dialCancel := context.WithTimeout(context.Background(), 10*time.Second)
	eth, err := chain.Dial(dialCtx, cfg.EthNodeURL)
	dialCancel()
	if err != nil {
		log.Fatal("eth node dial", zap.Error(err))
	}
	defer eth.Close()

	// Conta relay e contrato
	if cfg.RelayPrivateKey == "" || cfg.ContractAddress == "" {
		log.Fatal("RELAY_PRIVATE_KEY and CONTRACT_ADDRESS are required")
	}
	account, err := chain.NewAccount(cfg.RelayPrivateKey, big.NewInt(cfg.ChainID))
	if err != nil {
		log.Fatal("relay account", zap.Error(err))
	}
	casino, err := chain.NewCasino(common.HexToAddress(cfg.ContractAddress))
	if err != nil {
		log.Fatal("casino contract", zap.Error(err))
	}
	log.Info("relay account ready",
		zap.String("address", account.Address().Hex()),
		zap.String("contract", casino.Address().Hex()),
		zap.Int64("chainId", cfg.ChainID),
	)

	// Sequencer de nonce: semeia do nó na subida pra detectar problema cedo
	seq := nonce.NewSequencer(eth, account.Address())
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = seq.Reseed(seedCtx)
	seedCancel()
	if err != nil {
		log.Fatal("seed nonce sequencer", zap.Error(err))
	}

	// Kafka writers para os eventos de aposta
	placedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer placedWriter.Close()
	confirmedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetConfirmed)
	defer confirmedWriter.Close()
	publ := producer.NewKafkaPublisher(placedWriter, confirmedWriter)

	// Métricas Prometheus da API
	admitted := prometheus.NewCounter(prometheus.CounterOpts{Name: "relay_bets_admitted_total", Help: "apostas aceitas na pool"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "relay_bets_rejected_total", Help: "apostas rejeitadas por motivo"}, []string{"reason"})
	prometheus.MustRegister(admitted, rejected)

	// Núcleo do relay
	store := ledger.NewPostgres(pg)
	sub := submitter.New(log, eth, account, seq, submitter.DefaultPolicy())
	rr := rounds.NewReader(eth, casino, rdb, 5*time.Second)

	// Reconciler local atende o reconcile-on-poll do GET de status; publica
	// bet_confirmed só quando a transição acontece aqui (e não no worker)
	rec := reconciler.New(log, eth, store)
	rec.OnConfirmed = func(r ledger.BetRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = publ.PublishBetConfirmed(ctx, events.BetConfirmed{TxHash: r.ID, Status: string(r.Status), BlockNumber: r.BlockNumber})
	}
	rec.OnFailed = func(r ledger.BetRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = publ.PublishBetConfirmed(ctx, events.BetConfirmed{TxHash: r.ID, Status: string(r.Status)})
	}

	api := rhttp.NewServer(log, casino, sub, store, rr, rec, publ)
	api.OnBetAdmitted = func() { admitted.Inc() }
	api.OnBetRejected = func(reason string) { rejected.WithLabelValues(reason).Inc() }

	// Servidor de métricas/health em porta separada
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	log.Info("relay-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
