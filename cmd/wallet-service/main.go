package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/bingo-wallet/internal/shared/cache"
	"github.com/radieske/bingo-wallet/internal/shared/config"
	"github.com/radieske/bingo-wallet/internal/shared/db"
	"github.com/radieske/bingo-wallet/internal/shared/kafka"
	"github.com/radieske/bingo-wallet/internal/shared/logger"
	"github.com/radieske/bingo-wallet/internal/shared/metrics"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store/memory"
	"github.com/radieske/bingo-wallet/internal/wallet-service/store/postgres"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "wallet-service"
	}

	// Inicializa logger estruturado
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env),
		zap.String("store", cfg.StoreEngine))

	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN not set, admin routes will refuse every request")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Store transacional: postgres em produção, memória para rodar local sem banco
	var st store.Store
	switch cfg.StoreEngine {
	case "memory":
		st = memory.New()
		log.Warn("using in-memory store, data is lost on restart")
	default:
		pg, err := db.ConnectPostgres(cfg.PostgresDSN, db.PoolConfig{
			MaxOpenConns:    cfg.PgMaxOpenConns,
			MaxIdleConns:    cfg.PgMaxIdleConns,
			ConnMaxLifetime: cfg.PgConnLifetime,
		})
		if err != nil {
			log.Fatal("postgres connect", zap.Error(err))
		}
		defer pg.Close()
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pg); err != nil {
				log.Fatal("postgres migrate", zap.Error(err))
			}
		}
		st = postgres.New(pg)
		log.Info("postgres connected")
	}

	// Redis: broadcast em tempo real, rate limit e contador de velocidade
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("redis connected")
	}

	// Kafka: eventos de transferência e espelho do log de segurança
	var writers []*kafka.Writer
	if cfg.KafkaBrokers != "" {
		tw := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTransferEvents)
		sw := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSecurityEvents)
		writers = append(writers, tw, sw)
		defer func() {
			for _, w := range writers {
				_ = w.Close()
			}
		}()
		log.Info("kafka writers ready",
			zap.String("transfers", cfg.TopicTransferEvents), zap.String("security", cfg.TopicSecurityEvents))
	}

	m := metrics.NewWallet(prometheus.DefaultRegisterer)
	app := build(ctx, cfg, log, st, redisClient, writers, m)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := st.Ping(ctx); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}, log)

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           app.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api srv", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("wallet-service stopped")
}
