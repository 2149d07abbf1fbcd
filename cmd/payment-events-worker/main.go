package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/payment-worker/consumer"
	"github.com/radieske/bingo-wallet/internal/shared/cache"
	"github.com/radieske/bingo-wallet/internal/shared/config"
	"github.com/radieske/bingo-wallet/internal/shared/db"
	"github.com/radieske/bingo-wallet/internal/shared/kafka"
	"github.com/radieske/bingo-wallet/internal/shared/logger"
	"github.com/radieske/bingo-wallet/internal/shared/metrics"
	"github.com/radieske/bingo-wallet/internal/wallet-service/audit"
	"github.com/radieske/bingo-wallet/internal/wallet-service/funds"
	"github.com/radieske/bingo-wallet/internal/wallet-service/ledger"
	"github.com/radieske/bingo-wallet/internal/wallet-service/model"
	"github.com/radieske/bingo-wallet/internal/wallet-service/producer"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store/postgres"
	"github.com/radieske/bingo-wallet/internal/wallet-service/wallet"
	"github.com/radieske/bingo-wallet/internal/wallet-service/ws"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "payment-events-worker"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Inicializa dependências: Postgres (mesmo banco da carteira) e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN, db.PoolConfig{
		MaxOpenConns:    cfg.PgMaxOpenConns,
		MaxIdleConns:    cfg.PgMaxIdleConns,
		ConnMaxLifetime: cfg.PgConnLifetime,
	})
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer group sem auto commit + DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicPaymentCompleted, cfg.KafkaGroupID)
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPaymentCompletedDLQ)
	defer dlq.Close()
	securityWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSecurityEvents)
	defer securityWriter.Close()

	walletMetrics := metrics.NewWallet(prometheus.DefaultRegisterer)
	workerMetrics := metrics.NewPaymentWorker(prometheus.DefaultRegisterer)

	// Movimentos de saldo passam pelo mesmo domínio do wallet-service
	st := postgres.New(pg)
	prod := producer.New(nil, securityWriter, cfg.TopicTransferEvents, cfg.TopicSecurityEvents, log)
	prod.OnPublish = walletMetrics.Publish
	auditLog := audit.New(st, log, prod, time.Now)
	p := cfg.Wallet
	wallets := wallet.New(st, auditLog, log, wallet.Options{
		Limits: model.Limits{
			Currency:           p.Currency,
			DailyLimitCents:    p.DefaultDailyLimitCents,
			TransferLimitCents: p.DefaultTransferCapCents,
		},
		Location: p.Location(),
		Retry: store.RetryPolicy{
			MaxAttempts:     p.RetryMaxAttempts,
			InitialInterval: p.RetryInitialInterval,
			MaxInterval:     p.RetryMaxInterval,
			OnRetry:         walletMetrics.Retry,
		},
		Notifier: ws.NewBroadcaster(cache.New(redisClient), cfg.RedisWalletChannel, log),
	})
	svc := funds.New(st, wallets, ledger.New(st, time.Now), auditLog, log)

	proc := &consumer.Processor{
		Log:             log,
		Reader:          reader,
		Funds:           svc,
		DLQ:             dlq,
		MaxTries:        cfg.WorkerMaxTries,
		InitialInterval: 200 * time.Millisecond,
		OnConsumed:      func() { workerMetrics.Consumed.Inc() },
		OnApplied:       func(kind, result string) { workerMetrics.Applied.WithLabelValues(kind, result).Inc() },
		OnError:         func(stage string) { workerMetrics.Errors.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		return redisClient.Ping(ctx).Err()
	}, log)
	defer metricsSrv.Close()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("payment-events-worker started", zap.String("topic", cfg.TopicPaymentCompleted))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("payment-events-worker stopped")
}
